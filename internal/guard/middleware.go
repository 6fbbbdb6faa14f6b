package guard

import (
	"context"
	"net/http"

	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const HeaderNavigation = "X-Navigation"

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "guard_decisions_total",
		Help:      "Route guard decisions by route class and outcome",
	},
	[]string{"class", "outcome"},
)

type ctxKeyLayout struct{}

func WithLayout(ctx context.Context, l Layout) context.Context {
	return context.WithValue(ctx, ctxKeyLayout{}, l)
}

// LayoutFromContext is the layout chosen by Middleware, public by default.
func LayoutFromContext(ctx context.Context) Layout {
	if l, ok := ctx.Value(ctxKeyLayout{}).(Layout); ok {
		return l
	}
	return LayoutPublic
}

// Middleware applies the guard for class to every request. loading serves
// the placeholder page while the session is still being resolved.
func Middleware(class Class, loading http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := session.FromContext(r.Context())
			d := Evaluate(class, s, r.URL.Path)

			outcome := d.Outcome.String()
			if d.Outcome == OutcomeRender && IsAdminFallThrough(class, s, r.URL.Path) {
				outcome = "render_fallthrough"
				logger.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Msg("admin on a user route without an admin counterpart")
			}
			decisionsTotal.WithLabelValues(class.String(), outcome).Inc()

			switch d.Outcome {
			case OutcomeLoading:
				w.Header().Set("Cache-Control", "no-store")
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					// The placeholder refreshes with a GET and would drop the form.
					w.Header().Set("Retry-After", "1")
					http.Error(w, "Session is still loading, please try again", http.StatusServiceUnavailable)
					return
				}
				loading.ServeHTTP(w, r)
			case OutcomeRedirect:
				WriteRedirect(w, r, d)
			case OutcomeRender:
				next.ServeHTTP(w, r.WithContext(WithLayout(r.Context(), d.Layout)))
			}
		})
	}
}

// WriteRedirect maps Replace onto 303 and a push onto 302.
func WriteRedirect(w http.ResponseWriter, r *http.Request, d Decision) {
	code := http.StatusFound
	nav := "push"
	if d.Replace {
		code = http.StatusSeeOther
		nav = "replace"
	}
	w.Header().Set(HeaderNavigation, nav)
	http.Redirect(w, r, d.Location, code)
}

// CatchAll sends any unknown page home.
func CatchAll(w http.ResponseWriter, r *http.Request) {
	decisionsTotal.WithLabelValues("unmatched", OutcomeRedirect.String()).Inc()
	WriteRedirect(w, r, Redirect("/", false))
}
