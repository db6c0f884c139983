package server

import (
	"net/http"
	"strings"
)

// SecurityConfig controls the security headers and CORS behavior applied to
// every response.
type SecurityConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	AllowedMethods []string
}

// DefaultSecurityConfig returns the default security posture: permissive
// CORS for the read-only GET surface, restrictive headers everywhere else.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}
}

// SecurityMiddleware sets the standard security headers and handles CORS
// preflight requests. The content security policy permits the inline script
// and CDN stylesheet used by the demo page while denying everything else.
func SecurityMiddleware(config SecurityConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'")

		if config.EnableCORS {
			h.Set("Access-Control-Allow-Origin", strings.Join(config.AllowedOrigins, ", "))
			h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
