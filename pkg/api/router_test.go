package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mila1515/github-users/pkg/model"
)

const testPassword = "s3cret"

func testStore() *Store {
	created := time.Date(2018, 2, 3, 0, 0, 0, 0, time.UTC)
	return NewStore([]model.FilteredUserRecord{
		{Login: "alice", ID: 1, CreatedAt: created, AvatarURL: "https://a/1", Bio: "Go developer"},
		{Login: "bob", ID: 2, CreatedAt: created, AvatarURL: "https://a/2", Bio: "rust fan"},
		{Login: "carol", ID: 3, CreatedAt: created, AvatarURL: "https://a/3", Bio: "gopher at heart"},
	})
}

func newTestServer() *httptest.Server {
	srv := NewServer(testStore(), Config{AccessPassword: testPassword})
	return httptest.NewServer(srv.Router())
}

func get(t *testing.T, url string, auth bool) *http.Response {
	t.Helper()

	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err)
	if auth {
		req.SetBasicAuth(BasicUsername, testPassword)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeList(t *testing.T, resp *http.Response) []model.FilteredUserRecord {
	t.Helper()
	defer resp.Body.Close()

	var records []model.FilteredUserRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func TestListUsers_Public(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	records := decodeList(t, resp)
	require.Len(t, records, 3)
	assert.Equal(t, "alice", records[0].Login)
	assert.Equal(t, "carol", records[2].Login)
}

func TestSearch_RequiresAuth(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/search?q=alice", false)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
}

func TestSearch_WrongPassword(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/users/search?q=alice", nil)
	require.NoError(t, err)
	req.SetBasicAuth(BasicUsername, "wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSearch_MatchesLoginAndBio(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	// "go" matches alice's bio, bob does not match, carol's bio has "gopher".
	resp := get(t, ts.URL+"/users/search?q=go", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	records := decodeList(t, resp)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0].Login)
	assert.Equal(t, "carol", records[1].Login)
}

func TestSearch_NoMatchIsEmptyArray(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/search?q=zzz", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "no match is a success, not not-found")

	records := decodeList(t, resp)
	assert.Empty(t, records)
}

func TestSearch_MissingQuery(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/search", true)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUser(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/alice", true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var record model.FilteredUserRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, "alice", record.Login)
	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, "Go developer", record.Bio)
}

func TestGetUser_CaseInsensitive(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/ALICE", true)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetUser_NotFound(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/ghost", true)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "lookup miss must be 404, not empty success")
}

func TestGetUser_RequiresAuth(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/users/alice", false)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_EmptyConfiguredPasswordFailsClosed(t *testing.T) {
	srv := NewServer(testStore(), Config{AccessPassword: ""})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/users/alice", nil)
	require.NoError(t, err)
	req.SetBasicAuth(BasicUsername, "")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/health", false)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFavicon(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp := get(t, ts.URL+"/favicon.ico", false)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
