package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdminAPI guards index maintenance routes. Callers present the
// configured key as a bearer token; with no key configured the routes are off.
func (s *Server) requireAdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.config.AdminAPIKey
		if key == "" {
			s.log.Warn("Rejected index maintenance request, no admin key configured", "path", r.URL.Path)
			s.respondDetail(w, http.StatusForbidden, "index maintenance is disabled on this server")
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			s.respondDetail(w, http.StatusUnauthorized, "bearer token required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			s.log.Warn("Rejected index maintenance request, bad token", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			s.respondDetail(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// securityHeaders marks every API response as JSON that must not be sniffed,
// framed or cached. Generated briefs and articles are per-request output.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
