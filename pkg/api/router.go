package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the query service configuration.
type Config struct {
	// AccessPassword is the HTTP Basic password for the protected routes
	// (username is BasicUsername).
	AccessPassword string
}

// Server handles the query service routes over an immutable store.
type Server struct {
	store  *Store
	config Config
	logger zerolog.Logger
}

// NewServer creates a query service over the given store.
func NewServer(store *Store, cfg Config) *Server {
	return &Server{
		store:  store,
		config: cfg,
		logger: log.With().Str("component", "query-service").Logger(),
	}
}

// Router builds the HTTP route table. Search registers before the login
// variable route so "/users/search" is never captured as a login.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleLanding).Methods("GET")
	r.HandleFunc("/favicon.ico", s.handleFavicon).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/users/", s.handleList).Methods("GET")
	r.HandleFunc("/users/search", basicAuth(s.config.AccessPassword, s.handleSearch)).Methods("GET")
	r.HandleFunc("/users/{login}", basicAuth(s.config.AccessPassword, s.handleGet)).Methods("GET")

	return r
}

// handleList serves the full filtered collection. The route is public; the
// collection holds selected public profile fields only.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	results := s.store.Search(q)
	s.logger.Debug().
		Str("q", q).
		Int("results", len(results)).
		Msg("Search")

	// No match is an empty array with 200, not an error.
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	login := mux.Vars(r)["login"]

	record, ok := s.store.Get(login)
	if !ok {
		// A miss is a normal outcome, not logged as an error.
		writeError(w, http.StatusNotFound, fmt.Sprintf("user %q not found", login))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"users":  s.store.Len(),
	})
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, landingPage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

const landingPage = `<!DOCTYPE html>
<html>
  <head>
    <title>GitHub Users API</title>
    <style>
      body { font-family: sans-serif; max-width: 640px; margin: 40px auto; color: #222; }
      code { background: #f0f4fa; padding: 2px 6px; border-radius: 4px; }
      li { margin: 8px 0; }
    </style>
  </head>
  <body>
    <h1>GitHub Users API</h1>
    <p>Explore extracted and filtered GitHub users.</p>
    <ul>
      <li><b>GET</b> <code>/users/</code> &mdash; list all filtered users (public)</li>
      <li><b>GET</b> <code>/users/search?q=...</code> &mdash; search by login or bio (basic auth)</li>
      <li><b>GET</b> <code>/users/{login}</code> &mdash; one user by login (basic auth)</li>
      <li><b>GET</b> <code>/health</code> &mdash; service health</li>
      <li><b>GET</b> <code>/metrics</code> &mdash; Prometheus metrics</li>
    </ul>
    <p>Quick test: <code>curl http://127.0.0.1:8000/users/</code></p>
  </body>
</html>
`
