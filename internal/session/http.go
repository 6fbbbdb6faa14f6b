package session

import (
	"context"
	"net/http"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/middleware"
)

type ctxKeySession struct{}

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, s)
}

// FromContext returns the session resolved for this request, anonymous when
// the middleware did not run.
func FromContext(ctx context.Context) domain.Session {
	if s, ok := ctx.Value(ctxKeySession{}).(domain.Session); ok {
		return s
	}
	return domain.Anonymous()
}

type CookieOptions struct {
	Name   string
	Secure bool
}

// Middleware resolves the token found by middleware.Auth into a session.
// A token the API rejects has its cookie cleared. Safe requests may see a
// Loading session; form posts wait for the lookup so the action can run.
func Middleware(m *Manager, cookie CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := middleware.GetBearerToken(r.Context())
			wait := m.cfg.Wait
			if !isSafeMethod(r.Method) {
				wait = m.cfg.LookupTimeout + m.cfg.Wait
			}
			s, rejected := m.resolve(r.Context(), token, wait)
			if rejected && cookie.Name != "" {
				middleware.ClearSessionCookie(w, cookie.Name, cookie.Secure)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
