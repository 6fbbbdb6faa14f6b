package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/session"
)

// SessionResponse is the auth context as the browser sees it.
type SessionResponse struct {
	State       string       `json:"state"`
	Loading     bool         `json:"loading"`
	CurrentUser *domain.User `json:"currentUser"`
	IsAdmin     bool         `json:"isAdmin"`
}

func Session(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, r, SessionResponse{
		State:       s.State().String(),
		Loading:     s.Loading,
		CurrentUser: s.CurrentUser,
		IsAdmin:     s.State() == domain.StateAdmin,
	})
}

type RouteResponse struct {
	Path     string         `json:"path"`
	Route    guard.Route    `json:"route"`
	Decision guard.Decision `json:"decision"`
}

// Route answers what the guards would do with path for the caller's session.
func Route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		sendError(w, r, "validation_failed", "path must start with /", http.StatusBadRequest)
		return
	}
	rt, d := guard.Decide(path, session.FromContext(r.Context()))
	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, r, RouteResponse{Path: path, Route: rt, Decision: d})
}
