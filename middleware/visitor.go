package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const VisitorCookie = "visitor_id"

type ctxKeyVisitor struct{}

// Visitor pins a stable anonymous id on every browser. Notices queued for a
// visitor survive redirects and login, since the id does not change.
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookie); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), ctxKeyVisitor{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetVisitorID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyVisitor{}).(string); ok {
		return id
	}
	return ""
}
