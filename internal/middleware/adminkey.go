// AngelaMos | 2026
// adminkey.go

package middleware

import (
	"net/http"
	"strings"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards the console routes with a shared secret, sent as
// X-Admin-Key or as a bearer token. An empty configured key locks the
// routes entirely.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(AdminKeyHeader)
			if presented == "" {
				presented = ExtractToken(r)
			}

			if presented == "" {
				core.JSONError(w, core.UnauthorizedError("missing admin key"))
				return
			}

			if !core.CompareSecret(presented, key) {
				core.JSONError(w, core.ForbiddenError("invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
