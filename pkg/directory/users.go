// Package directory exposes typed access to the upstream user directory
// endpoints: the paginated listing and the per-login detail fetch.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mila1515/github-users/pkg/client"
	"github.com/mila1515/github-users/pkg/model"
)

// ErrUserNotFound is returned by GetUser when the login does not exist
// upstream.
var ErrUserNotFound = errors.New("user not found")

// Service wraps the API client with typed user endpoints.
type Service struct {
	client *client.Client
}

// NewService creates a directory service over the given client.
func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// userDocument mirrors the upstream user JSON shape for both the summary and
// the detail representation; detail-only fields stay nil on listing rows.
type userDocument struct {
	Login       string  `json:"login"`
	ID          int64   `json:"id"`
	AvatarURL   *string `json:"avatar_url"`
	HTMLURL     *string `json:"html_url"`
	Bio         *string `json:"bio"`
	CreatedAt   *string `json:"created_at"`
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
}

func (d *userDocument) toRecord() (model.UserRecord, error) {
	rec := model.UserRecord{
		Login:       d.Login,
		ID:          d.ID,
		AvatarURL:   d.AvatarURL,
		HTMLURL:     d.HTMLURL,
		Bio:         d.Bio,
		Name:        d.Name,
		Company:     d.Company,
		Location:    d.Location,
		PublicRepos: d.PublicRepos,
		Followers:   d.Followers,
	}
	if d.CreatedAt != nil {
		created, err := parseTimestamp(*d.CreatedAt)
		if err != nil {
			return rec, fmt.Errorf("user %q: %w", d.Login, err)
		}
		rec.CreatedAt = &created
	}
	return rec, nil
}

// ListUsers fetches one page of user summaries, `pageSize` entries with ids
// strictly greater than `since`, in ascending id order. An empty slice means
// the end of the directory.
func (s *Service) ListUsers(ctx context.Context, since int64, pageSize int) ([]model.UserRecord, error) {
	endpoint := fmt.Sprintf("/users?since=%d&per_page=%d", since, pageSize)

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list users since %d: %w", since, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &client.APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: client.ErrorClassClient,
			Message:    fmt.Sprintf("list users since %d: unexpected status %s", since, resp.Status),
		}
	}

	var docs []userDocument
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode user listing: %w", err)
	}

	records := make([]model.UserRecord, 0, len(docs))
	for i := range docs {
		rec, err := docs[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// GetUser fetches the full profile for a login. Returns ErrUserNotFound when
// the login is absent upstream.
func (s *Service) GetUser(ctx context.Context, login string) (*model.UserRecord, error) {
	resp, err := s.client.Get(ctx, "/users/"+login)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", login, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("get user %q: %w", login, ErrUserNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, &client.APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: client.ErrorClassClient,
			Message:    fmt.Sprintf("get user %q: unexpected status %s", login, resp.Status),
		}
	}

	var doc userDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode user %q: %w", login, err)
	}

	rec, err := doc.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
