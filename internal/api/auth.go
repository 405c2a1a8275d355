package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	bearerPrefix     = "Bearer "
	tokenQueryParam  = "access_token"
	eventStreamMedia = "text/event-stream"
)

// BearerAuth rejects requests that do not carry token. Browsers cannot set
// headers on an EventSource, so event-stream requests may pass the token in
// the access_token query parameter instead.
func BearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := requestToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):], true
	}
	if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), eventStreamMedia) {
		if t := r.URL.Query().Get(tokenQueryParam); t != "" {
			return t, true
		}
	}
	return "", false
}
