package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth gates the reporting endpoints behind a shared key. Only the
// bcrypt hash is configured; an empty hash disables the routes entirely.
type AdminAuth struct {
	keyHash []byte
}

func NewAdminAuth(keyHash string) *AdminAuth {
	return &AdminAuth{keyHash: []byte(keyHash)}
}

func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.keyHash) == 0 {
			writeError(w, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin access is not configured", r)
			return
		}

		key := r.Header.Get("X-Admin-Key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing admin key", r)
			return
		}

		if err := bcrypt.CompareHashAndPassword(a.keyHash, []byte(key)); err != nil {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Invalid admin key", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
