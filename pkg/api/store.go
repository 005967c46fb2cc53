// Package api serves the filtered user collection over HTTP: a public
// listing plus authenticated search and single-record lookup.
package api

import (
	"strings"

	"github.com/mila1515/github-users/pkg/model"
	"github.com/mila1515/github-users/pkg/snapshot"
)

// Store is an immutable in-memory view of the filtered collection. It is
// built once at startup and only read afterwards, so concurrent request
// handling needs no locking.
type Store struct {
	records []model.FilteredUserRecord
	byLogin map[string]model.FilteredUserRecord
}

// NewStore builds a store over the given ordered collection.
func NewStore(records []model.FilteredUserRecord) *Store {
	byLogin := make(map[string]model.FilteredUserRecord, len(records))
	for _, r := range records {
		key := strings.ToLower(r.Login)
		// First occurrence wins, matching the filter stage's dedup contract.
		if _, dup := byLogin[key]; !dup {
			byLogin[key] = r
		}
	}
	return &Store{
		records: records,
		byLogin: byLogin,
	}
}

// LoadStore builds a store from a persisted filtered collection.
func LoadStore(path string) (*Store, error) {
	records, err := snapshot.LoadFiltered(path)
	if err != nil {
		return nil, err
	}
	return NewStore(records), nil
}

// List returns all records in collection order.
func (s *Store) List() []model.FilteredUserRecord {
	return s.records
}

// Search returns the records whose login or bio contains q,
// case-insensitively, in collection order. No match yields an empty slice,
// not an error.
func (s *Store) Search(q string) []model.FilteredUserRecord {
	q = strings.ToLower(q)
	results := make([]model.FilteredUserRecord, 0)
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.Login), q) ||
			strings.Contains(strings.ToLower(r.Bio), q) {
			results = append(results, r)
		}
	}
	return results
}

// Get returns the record with the given login (case-insensitive exact match).
func (s *Store) Get(login string) (model.FilteredUserRecord, bool) {
	r, ok := s.byLogin[strings.ToLower(login)]
	return r, ok
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	return len(s.records)
}
