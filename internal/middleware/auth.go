// Adapted from the teacher's JWT bearer-auth middleware
// (internal/middleware/jwt_auth.go). FEP has no tenants or user accounts, so
// the richer token/blacklist/claims machinery the teacher needs doesn't
// apply: the admin surface (spec.md §6 admin routes) is single-operator,
// authenticated by one shared bearer token whose Argon2id hash lives in
// config (internal/auth.CheckPassword idiom, ported to internal/adminauth).
package middleware

import (
	"net/http"
	"strings"

	"github.com/technosupport/fep/internal/adminauth"
)

// AdminAuth checks the Authorization: Bearer <token> header against the
// configured operator token hash.
func AdminAuth(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ok, err := adminauth.CheckToken(parts[1], hash)
			if err != nil || !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
