package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuth guards the ops endpoints with a static bearer token. An empty
// token disables the guarded routes entirely.
type TokenAuth struct {
	token []byte
}

func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: []byte(token)}
}

func (a *TokenAuth) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Refuse when no token is configured
		if len(a.token) == 0 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// 2. Read bearer header
		header := r.Header.Get("Authorization")
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || presented == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="ops"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Compare in constant time
		if subtle.ConstantTimeCompare([]byte(presented), a.token) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
