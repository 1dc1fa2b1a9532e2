package handler

import (
	"crypto/subtle"
	"net/http"
)

// SecurityHeaders sets baseline response headers on every request.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// RequireAdminKey protects admin routes. The caller supplies the shared key
// in the X-Admin-Key header; comparison is constant-time. With no key
// configured the admin surface is disabled rather than left open.
func RequireAdminKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key == "" {
			writeError(w, http.StatusServiceUnavailable, "Admin access is not configured.")
			return
		}
		supplied := r.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
