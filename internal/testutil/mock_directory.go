// Package testutil provides testing utilities for the user directory pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockUser is one canned directory entry served by the mock upstream.
type MockUser struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Followers int    `json:"followers,omitempty"`
}

// MockDirectory is a configurable mock of the upstream directory API. It
// serves the paginated listing (/users?since=) and the detail endpoint
// (/users/{login}) with rate limit headers.
type MockDirectory struct {
	server *httptest.Server

	mu             sync.RWMutex
	users          []MockUser
	handlers       map[string]http.HandlerFunc
	detailFailures map[string]int // login -> status code to force
	quotaRemaining int
	quotaResetAt   time.Time

	// Tracking
	RequestCount        int
	ListRequests        int
	DetailRequests      int
	ConditionalRequests int
}

// NewMockDirectory creates a mock directory server with a healthy quota.
func NewMockDirectory() *MockDirectory {
	mock := &MockDirectory{
		handlers:       make(map[string]http.HandlerFunc),
		detailFailures: make(map[string]int),
		quotaRemaining: 60,
		quotaResetAt:   time.Now().Add(time.Hour),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockDirectory) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDirectory) Close() {
	m.server.Close()
}

// AddUsers seeds directory entries. Entries are kept sorted by ID so the
// listing pages deterministically.
func (m *MockDirectory) AddUsers(users ...MockUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, users...)
	sort.Slice(m.users, func(i, j int) bool { return m.users[i].ID < m.users[j].ID })
}

// SeedUsers generates n sequential, fully populated directory entries
// starting at the given ID.
func (m *MockDirectory) SeedUsers(startID int64, n int) {
	users := make([]MockUser, 0, n)
	for i := 0; i < n; i++ {
		id := startID + int64(i)
		users = append(users, MockUser{
			Login:     fmt.Sprintf("user%d", id),
			ID:        id,
			AvatarURL: fmt.Sprintf("https://avatars.example.com/u/%d", id),
			HTMLURL:   fmt.Sprintf("https://github.example.com/user%d", id),
			Bio:       fmt.Sprintf("bio of user%d", id),
			CreatedAt: "2018-06-01T12:00:00Z",
			Followers: int(id % 100),
		})
	}
	m.AddUsers(users...)
}

// SetQuota configures the rate limit headers served with every response.
func (m *MockDirectory) SetQuota(remaining int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotaRemaining = remaining
	m.quotaResetAt = resetAt
}

// FailDetail forces the detail endpoint for a login to answer with status.
func (m *MockDirectory) FailDetail(login string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailFailures[login] = status
}

// SetHandler overrides the handler for an exact path.
func (m *MockDirectory) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockDirectory) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of requests that carried
// If-None-Match.
func (m *MockDirectory) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalRequests
}

func (m *MockDirectory) writeQuotaHeaders(w http.ResponseWriter) {
	m.mu.RLock()
	remaining := m.quotaRemaining
	resetAt := m.quotaResetAt
	m.mu.RUnlock()

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

func (m *MockDirectory) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.writeQuotaHeaders(w)

	// Content never changes during a test run, so the ETag is derived from
	// the request URI and a matching If-None-Match always revalidates.
	etag := fmt.Sprintf("%q", "mock-"+r.URL.RequestURI())
	w.Header().Set("ETag", etag)

	if inm := r.Header.Get("If-None-Match"); inm != "" {
		m.mu.Lock()
		m.ConditionalRequests++
		m.mu.Unlock()

		if inm == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	if r.URL.Path == "/users" || r.URL.Path == "/users/" {
		m.handleListing(w, r)
		return
	}

	if login, ok := strings.CutPrefix(r.URL.Path, "/users/"); ok && login != "" {
		m.handleDetail(w, login)
		return
	}

	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found"}`))
}

func (m *MockDirectory) handleListing(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.ListRequests++
	m.mu.Unlock()

	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 {
		perPage = 30
	}

	m.mu.RLock()
	page := make([]MockUser, 0, perPage)
	for _, u := range m.users {
		if u.ID <= since {
			continue
		}
		// Listing rows carry only the summary shape.
		page = append(page, MockUser{
			Login:     u.Login,
			ID:        u.ID,
			AvatarURL: u.AvatarURL,
			HTMLURL:   u.HTMLURL,
		})
		if len(page) >= perPage {
			break
		}
	}
	m.mu.RUnlock()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(page)
}

func (m *MockDirectory) handleDetail(w http.ResponseWriter, login string) {
	m.mu.Lock()
	m.DetailRequests++
	m.mu.Unlock()

	m.mu.RLock()
	status, failed := m.detailFailures[login]
	var found *MockUser
	for i := range m.users {
		if m.users[i].Login == login {
			found = &m.users[i]
			break
		}
	}
	m.mu.RUnlock()

	if failed {
		w.WriteHeader(status)
		w.Write([]byte(`{"message":"forced failure"}`))
		return
	}

	if found == nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(found)
}
