package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeaders sets the page hardening headers. imgSources lists extra
// origins product images may be served from (the shop API host).
func SecurityHeaders(imgSources ...string) func(http.Handler) http.Handler {
	img := "'self' data:"
	if len(imgSources) > 0 {
		img += " " + strings.Join(imgSources, " ")
	}
	csp := "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src " + img +
		"; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), usb=(), bluetooth=()")
			next.ServeHTTP(w, r)
		})
	}
}
