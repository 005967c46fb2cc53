package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ghusers_auth_failures_total",
	Help: "Total rejected requests on protected query routes",
})

// BasicUsername is the account name expected on protected routes. Only the
// password is configurable, matching the single-credential access model.
const BasicUsername = "admin"

// basicAuth wraps a handler with HTTP Basic authentication. Credentials are
// compared in constant time. An empty configured password fails closed: every
// request is rejected rather than letting the protected routes fall open.
func basicAuth(password string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		authorized := ok && password != "" &&
			subtle.ConstantTimeCompare([]byte(user), []byte(BasicUsername)) == 1 &&
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

		if !authorized {
			authFailuresTotal.Inc()
			w.Header().Set("WWW-Authenticate", `Basic realm="github-users"`)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		next(w, r)
	}
}
