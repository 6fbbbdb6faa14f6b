package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/notify"
	"github.com/industrieimport/storefront/internal/view"
	"github.com/industrieimport/storefront/middleware"
)

const (
	pageTimeout    = 3 * time.Second
	actionTimeout  = 10 * time.Second
	maxFormBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Deps is shared by every page handler.
type Deps struct {
	Pages   *view.Renderer
	Notices *notify.Center
	// Cookie names the session cookie set on login.
	CookieName   string
	CookieSecure bool
}

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int) {
	resp := domain.APIError{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.RequestID = middleware.GetRequestID(r.Context())

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// render executes page with the title of the route being served.
func (d Deps) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	d.renderStatus(w, r, http.StatusOK, page, data)
}

func (d Deps) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	title := ""
	if rt, ok := guard.Lookup(r.URL.Path); ok {
		title = rt.Title
	}
	d.Pages.RenderStatus(w, r, status, page, title, data)
}

// fail reports a failed fetch on the notification channel. The page still
// renders with whatever data it has.
func (d Deps) fail(r *http.Request, err error, msg string) {
	logger.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg(msg)
	d.Notices.Error(r.Context(), msg)
}

// seeOther finishes a form action.
func seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// decodeForm reads a url-encoded body into v and validates it.
func decodeForm(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := render.DecodeForm(r.Body, v); err != nil {
		return errBadForm
	}
	return validate.Struct(v)
}

var errBadForm = errors.New("bad_form")

// formMessage turns a decode or validation error into one line for a notice.
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again"
	}
	fe := verrs[0]
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " is too long"
	case "eqfield":
		return "Passwords must match"
	case "gt", "gte":
		return field + " must be greater than " + fe.Param()
	case "postcode_iso3166_alpha2":
		return "Invalid ZIP code"
	case "oneof":
		return "Invalid " + strings.ToLower(field)
	}
	return "Invalid " + strings.ToLower(field)
}

// humanize splits a Go field name: ZipCode -> Zip code.
func humanize(name string) string {
	var b strings.Builder
	for i, c := range name {
		if i > 0 && c >= 'A' && c <= 'Z' {
			b.WriteByte(' ')
			c += 'a' - 'A'
		}
		b.WriteRune(c)
	}
	return b.String()
}
