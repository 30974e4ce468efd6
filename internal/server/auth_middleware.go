package server

import (
	"crypto/subtle"
	"net/http"
)

// requireToken rejects requests whose ?token= does not match token. An empty
// token disables the check.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.URL.Query().Get("token"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
