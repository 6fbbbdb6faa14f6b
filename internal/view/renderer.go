// Package view renders pages inside the public, user or admin layout shell
// chosen by the route guard.
package view

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/notify"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/industrieimport/storefront/internal/tracing"
	"github.com/industrieimport/storefront/middleware"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultNotificationBudget = 800 * time.Millisecond

type Notices interface {
	Drain(ctx context.Context, key string) []notify.Notice
}

// NotificationSource feeds the admin header bell.
type NotificationSource interface {
	Notifications(ctx context.Context) ([]domain.Notification, error)
}

type Options struct {
	APIBase string
	// NotificationBudget bounds the admin notification fetch.
	NotificationBudget time.Duration
}

type Renderer struct {
	pages         map[string]*template.Template
	loading       *template.Template
	site          *SiteInfo
	notices       Notices
	notifications NotificationSource
	opts          Options
}

func New(site *SiteInfo, notices Notices, notifications NotificationSource, opts Options) (*Renderer, error) {
	if opts.NotificationBudget <= 0 {
		opts.NotificationBudget = defaultNotificationBudget
	}
	r := &Renderer{
		pages:         make(map[string]*template.Template),
		site:          site,
		notices:       notices,
		notifications: notifications,
		opts:          opts,
	}

	funcs := r.funcs()
	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	pageFiles, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, f := range pageFiles {
		t, err := template.Must(base.Clone()).ParseFS(templateFS, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}

	r.loading, err = template.New("loading.html").Funcs(funcs).ParseFS(templateFS, "templates/loading.html")
	if err != nil {
		return nil, fmt.Errorf("parse loading: %w", err)
	}
	return r, nil
}

// Static serves the bundled stylesheet and placeholder images.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.FileServer(http.FS(sub))
}

// Page is what every template sees.
type Page struct {
	Title         string
	DocumentTitle string
	SiteName      string
	Path          string
	Layout        string
	Session       domain.Session
	User          *domain.User
	Notices       []notify.Notice

	// admin shell
	Menu          []MenuItem
	HeaderTitle   string
	Notifications []domain.Notification

	Data any
}

type MenuItem struct {
	Path   string
	Label  string
	Active bool
}

var adminMenu = []MenuItem{
	{Path: "/admin/dashboard", Label: "Dashboard"},
	{Path: "/admin/products", Label: "Products"},
	{Path: "/admin/categories", Label: "Categories"},
	{Path: "/admin/users", Label: "Users"},
	{Path: "/admin/orders", Label: "Orders"},
	{Path: "/admin/statistics", Label: "Statistics"},
	{Path: "/admin/pending-approvals", Label: "Admin Approvals"},
	{Path: "/admin/settings", Label: "Settings"},
}

// AdminMenu marks the entry for current as active and returns the header
// title, the active label or "Admin Dashboard".
func AdminMenu(current string) ([]MenuItem, string) {
	items := make([]MenuItem, len(adminMenu))
	title := "Admin Dashboard"
	for i, it := range adminMenu {
		it.Active = it.Path == current
		if it.Active {
			title = it.Label
		}
		items[i] = it
	}
	return items, title
}

// DocumentTitle is "{site} - {page}", or just the site name.
func DocumentTitle(site, page string) string {
	if page == "" {
		return site
	}
	return site + " - " + page
}

// Render executes page inside the layout picked by the guard.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, page, title string, data any) {
	r.RenderStatus(w, req, http.StatusOK, page, title, data)
}

func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, page, title string, data any) {
	ctx := req.Context()
	t, ok := r.pages[page]
	if !ok {
		logger.Ctx(ctx).Error().Str("page", page).Msg("unknown page template")
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	layout := guard.LayoutFromContext(ctx)
	p := r.page(ctx, req.URL.Path, layout, title, data)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout.String(), p); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) page(ctx context.Context, path string, layout guard.Layout, title string, data any) Page {
	s := session.FromContext(ctx)
	site := r.site.Name(ctx)
	p := Page{
		Title:         title,
		DocumentTitle: DocumentTitle(site, title),
		SiteName:      site,
		Path:          path,
		Layout:        layout.String(),
		Session:       s,
		User:          s.CurrentUser,
		Data:          data,
	}
	if r.notices != nil {
		p.Notices = r.notices.Drain(ctx, middleware.GetVisitorID(ctx))
	}
	if layout == guard.LayoutAdmin {
		p.Menu, p.HeaderTitle = AdminMenu(path)
		p.Notifications = r.adminNotifications(ctx)
	}
	return p
}

// adminNotifications is best effort: slow or failing calls give an empty bell.
func (r *Renderer) adminNotifications(ctx context.Context) []domain.Notification {
	if r.notifications == nil {
		return []domain.Notification{}
	}
	ctx, span := tracing.StartSpan(ctx, "admin.notifications")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.opts.NotificationBudget)
	defer cancel()

	list, err := r.notifications.Notifications(ctx)
	if err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("admin notifications unavailable")
		return []domain.Notification{}
	}
	return list
}

// Loading serves the placeholder shown while the session lookup runs. The
// page refreshes itself, so the guard is evaluated again.
func (r *Renderer) Loading(w http.ResponseWriter, req *http.Request) {
	var buf bytes.Buffer
	data := struct {
		SiteName string
		Path     string
	}{r.site.Name(req.Context()), req.URL.RequestURI()}
	if err := r.loading.Execute(&buf, data); err != nil {
		logger.Ctx(req.Context()).Error().Err(err).Msg("render loading failed")
		http.Error(w, "loading", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"imageURL": func(ref string) string { return domain.ImageURL(r.opts.APIBase, ref) },
		"money":    func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"initial": func(u *domain.User, fallback string) string {
			return u.Initial(fallback)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"orderStatuses": func() []domain.OrderStatus {
			return []domain.OrderStatus{domain.OrderPending, domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled}
		},
		"lineTotal": func(it domain.CartItem) float64 { return it.Price * float64(it.Quantity) },
		"isAdmin":   func(s domain.Session) bool { return s.State() == domain.StateAdmin },
	}
}
