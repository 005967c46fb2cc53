// Package model defines the user record types shared by the extraction,
// filtering, and query stages.
package model

import (
	"strings"
	"time"
)

// UserRecord is one GitHub directory entry. The listing endpoint populates
// only the summary fields (Login, ID, AvatarURL, HTMLURL); the per-login
// detail fetch fills in the rest. Optional fields are pointers so that
// "absent" and "empty" stay distinguishable in the snapshot.
type UserRecord struct {
	Login     string  `json:"login"`
	ID        int64   `json:"id"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	HTMLURL   *string `json:"html_url,omitempty"`

	// Detail fields, nil until enrichment succeeds.
	Bio         *string    `json:"bio,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Company     *string    `json:"company,omitempty"`
	Location    *string    `json:"location,omitempty"`
	PublicRepos int        `json:"public_repos,omitempty"`
	Followers   int        `json:"followers,omitempty"`

	// Partial marks a record whose detail fetch failed after retries.
	// The record keeps its summary shape instead of being dropped.
	Partial bool `json:"partial,omitempty"`
}

// Merge copies detail fields onto the record. Detail values win on
// overlapping fields; a nil detail field never clears an existing value, so
// re-merging an already-detailed record is a no-op.
func (u *UserRecord) Merge(detail UserRecord) {
	if detail.Login != "" {
		u.Login = detail.Login
	}
	if detail.ID != 0 {
		u.ID = detail.ID
	}
	if detail.AvatarURL != nil {
		u.AvatarURL = detail.AvatarURL
	}
	if detail.HTMLURL != nil {
		u.HTMLURL = detail.HTMLURL
	}
	if detail.Bio != nil {
		u.Bio = detail.Bio
	}
	if detail.CreatedAt != nil {
		u.CreatedAt = detail.CreatedAt
	}
	if detail.Name != nil {
		u.Name = detail.Name
	}
	if detail.Company != nil {
		u.Company = detail.Company
	}
	if detail.Location != nil {
		u.Location = detail.Location
	}
	if detail.PublicRepos != 0 {
		u.PublicRepos = detail.PublicRepos
	}
	if detail.Followers != 0 {
		u.Followers = detail.Followers
	}
	u.Partial = false
}

// HasBio reports whether the bio is present and non-blank after trimming.
func (u *UserRecord) HasBio() bool {
	return u.Bio != nil && strings.TrimSpace(*u.Bio) != ""
}

// HasAvatar reports whether a usable avatar URL is present.
func (u *UserRecord) HasAvatar() bool {
	return u.AvatarURL != nil && strings.TrimSpace(*u.AvatarURL) != ""
}

// FilteredUserRecord is the public subset of UserRecord served by the query
// API. Its schema is a strict subset of the snapshot schema.
type FilteredUserRecord struct {
	Login     string    `json:"login"`
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AvatarURL string    `json:"avatar_url"`
	Bio       string    `json:"bio"`
}

// Subset projects the record onto the filtered schema. It assumes the record
// already passed the completeness criteria; missing optional fields project
// to zero values.
func (u *UserRecord) Subset() FilteredUserRecord {
	f := FilteredUserRecord{
		Login: u.Login,
		ID:    u.ID,
	}
	if u.CreatedAt != nil {
		f.CreatedAt = *u.CreatedAt
	}
	if u.AvatarURL != nil {
		f.AvatarURL = *u.AvatarURL
	}
	if u.Bio != nil {
		f.Bio = *u.Bio
	}
	return f
}

// String is a convenience for building optional string fields in tests and
// decoders.
func String(s string) *string { return &s }

// Time is a convenience for building optional timestamps.
func Time(t time.Time) *time.Time { return &t }
