package handlers

import (
	"context"
	"net/http"

	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/industrieimport/storefront/middleware"
)

type AccountHandler struct {
	Deps
	users    UsersClient
	sessions Sessions
}

func NewAccountHandler(d Deps, users UsersClient, sessions Sessions) *AccountHandler {
	return &AccountHandler{Deps: d, users: users, sessions: sessions}
}

type profileForm struct {
	Name    string `form:"name" validate:"required,min=2,max=50"`
	Email   string `form:"email" validate:"required,email"`
	Address string `form:"address" validate:"max=200"`
}

type passwordForm struct {
	CurrentPassword string `form:"currentPassword" validate:"required"`
	NewPassword     string `form:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var data profileForm
	if u := session.FromContext(r.Context()).CurrentUser; u != nil {
		data = profileForm{Name: u.Name, Email: u.Email, Address: u.Address}
	}
	h.render(w, r, "profile", data)
}

// UpdateProfile saves the profile and refreshes the cached session user so
// the header shows the new name straight away.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in profileForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "profile", in)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	u, err := h.users.UpdateProfile(ctx, downstream.ProfileUpdate{Name: in.Name, Email: in.Email, Address: in.Address})
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to update profile"))
		h.render(w, r, "profile", in)
		return
	}
	// some API versions answer 204; keep the session user in that case
	if u.Email == "" {
		if cur := session.FromContext(r.Context()).CurrentUser; cur != nil {
			u = *cur
			u.Name, u.Email, u.Address = in.Name, in.Email, in.Address
		}
	}
	if u.Email != "" {
		h.sessions.Update(ctx, middleware.GetBearerToken(r.Context()), u)
	}
	h.Notices.Success(r.Context(), "Profile updated successfully")
	seeOther(w, r, "/profile")
}

func (h *AccountHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "settings", nil)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/settings")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	err := h.users.ChangePassword(ctx, downstream.PasswordChange{
		CurrentPassword: in.CurrentPassword,
		NewPassword:     in.NewPassword,
	})
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to change password"))
	} else {
		h.Notices.Success(r.Context(), "Password changed successfully")
	}
	seeOther(w, r, "/settings")
}
