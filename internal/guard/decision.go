// Package guard decides, for a route class and a session, whether a page is
// rendered, the visitor is redirected, or the loading placeholder is shown.
// The decision functions are pure; Middleware adapts them to HTTP.
package guard

import (
	"fmt"

	"github.com/industrieimport/storefront/internal/domain"
)

type Class int

const (
	ClassPublic Class = iota
	ClassUser
	ClassAdmin
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassUser:
		return "user"
	case ClassAdmin:
		return "admin"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirect
	OutcomeLoading
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeLoading:
		return "loading"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Layout is the shell a rendered page is mounted in. LayoutNone goes with
// redirects and the loading placeholder.
type Layout int

const (
	LayoutNone Layout = iota
	LayoutPublic
	LayoutUser
	LayoutAdmin
)

func (l Layout) String() string {
	switch l {
	case LayoutNone:
		return "none"
	case LayoutPublic:
		return "public"
	case LayoutUser:
		return "user"
	case LayoutAdmin:
		return "admin"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

func (l Layout) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Layout   Layout  `json:"layout"`
	Location string  `json:"location,omitempty"`
	// Replace means the current entry is replaced in history instead of a
	// new one being pushed.
	Replace bool `json:"replace"`
}

func Render(l Layout) Decision { return Decision{Outcome: OutcomeRender, Layout: l} }

func Redirect(location string, replace bool) Decision {
	return Decision{Outcome: OutcomeRedirect, Location: location, Replace: replace}
}

func Loading() Decision { return Decision{Outcome: OutcomeLoading} }

// AdminRedirects sends an admin who opens a user route to its back-office
// counterpart.
var AdminRedirects = map[string]string{
	"/dashboard": "/admin/dashboard",
	"/profile":   "/admin/users",
	"/settings":  "/admin/settings",
}

// Public renders for every session, loading included.
func Public(domain.Session) Decision {
	return Render(LayoutPublic)
}

// User guards the shopper area. An admin on a path missing from
// AdminRedirects still gets the user layout.
func User(s domain.Session, path string) Decision {
	switch s.State() {
	case domain.StateLoading:
		return Loading()
	case domain.StateAnonymous:
		return Redirect("/login", true)
	case domain.StateAdmin:
		if to, ok := AdminRedirects[path]; ok {
			return Redirect(to, true)
		}
		return Render(LayoutUser)
	case domain.StateUser, domain.StatePendingAdmin:
		return Render(LayoutUser)
	}
	return Redirect("/login", true)
}

// Admin guards the back office. A pending admin is told to wait rather than
// being bounced to the home page.
func Admin(s domain.Session) Decision {
	switch s.State() {
	case domain.StateLoading:
		return Loading()
	case domain.StateAnonymous:
		return Redirect("/admin/login", false)
	case domain.StatePendingAdmin:
		return Redirect("/admin/waiting-approval", false)
	case domain.StateUser:
		return Redirect("/", false)
	case domain.StateAdmin:
		return Render(LayoutAdmin)
	}
	return Redirect("/admin/login", false)
}

func Evaluate(class Class, s domain.Session, path string) Decision {
	switch class {
	case ClassPublic:
		return Public(s)
	case ClassUser:
		return User(s, path)
	case ClassAdmin:
		return Admin(s)
	}
	return Redirect("/", false)
}

// IsAdminFallThrough reports the one case where an admin is shown user-area
// content: a user route without an admin counterpart.
func IsAdminFallThrough(class Class, s domain.Session, path string) bool {
	if class != ClassUser || s.State() != domain.StateAdmin {
		return false
	}
	_, mapped := AdminRedirects[path]
	return !mapped
}
