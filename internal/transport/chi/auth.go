package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// KeySet holds the accepted bearer tokens.
// Admin keys are also valid for every non-admin route.
type KeySet struct {
	Keys      []string
	AdminKeys []string
}

func (k KeySet) enabled() bool {
	return len(nonEmpty(k.Keys)) > 0 || len(nonEmpty(k.AdminKeys)) > 0
}

// isAdminRequest reports routes that mutate the collection or the settings.
func isAdminRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/v1/admin/") {
		return true
	}
	return r.URL.Path == "/v1/settings" && r.Method == http.MethodPut
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// With no keys configured authentication is disabled (pass-through).
// With admin keys configured, admin routes accept only those.
func BearerAuthMiddleware(keys KeySet) func(http.Handler) http.Handler {
	regular := nonEmpty(keys.Keys)
	admin := nonEmpty(keys.AdminKeys)

	return func(next http.Handler) http.Handler {
		if !keys.enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}
			token := auth[len(bearerPrefix):]

			if isAdminRequest(r) && len(admin) > 0 {
				if !contains(admin, token) {
					writeError(w, http.StatusForbidden, ErrorResponseCodeUnauthorized, "admin api key required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !contains(regular, token) && !contains(admin, token) {
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func contains(keys []string, token string) bool {
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
			found = true
		}
	}
	return found
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
