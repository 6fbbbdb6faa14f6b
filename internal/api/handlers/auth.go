package handlers

import (
	"context"
	"net/http"

	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/middleware"
)

type AuthHandler struct {
	Deps
	sessions Sessions
}

func NewAuthHandler(d Deps, sessions Sessions) *AuthHandler {
	return &AuthHandler{Deps: d, sessions: sessions}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	Name            string `form:"name" validate:"required,min=2,max=50"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

type authPage struct {
	Admin  bool
	Action string
	Name   string
	Email  string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", authPage{Action: "/login"})
}

func (h *AuthHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", authPage{Admin: true, Action: "/admin/login"})
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", authPage{Action: "/register"})
}

func (h *AuthHandler) AdminRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", authPage{Admin: true, Action: "/admin/register"})
}

func (h *AuthHandler) WaitingApproval(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "waiting_approval", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	form := "/login"
	if admin {
		form = "/admin/login"
	}

	var in loginForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, form)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	res, err := h.sessions.Login(ctx, downstream.Credentials{Email: in.Email, Password: in.Password}, admin)
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Invalid email or password"))
		seeOther(w, r, form)
		return
	}
	if res.Token != "" {
		middleware.SetSessionCookie(w, h.CookieName, res.Token, h.CookieSecure)
	}

	switch {
	case admin && res.PendingApproval:
		h.Notices.Info(r.Context(), "Your admin account is pending approval")
		seeOther(w, r, "/admin/waiting-approval")
	case admin:
		h.Notices.Success(r.Context(), "Admin login successful!")
		seeOther(w, r, "/admin/dashboard")
	default:
		h.Notices.Success(r.Context(), "Login successful!")
		seeOther(w, r, "/dashboard")
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, false)
}

func (h *AuthHandler) AdminRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, true)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, admin bool) {
	form := "/register"
	if admin {
		form = "/admin/register"
	}

	var in registerForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, form)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	res, err := h.sessions.Register(ctx, downstream.Registration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	}, admin)
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Registration failed"))
		seeOther(w, r, form)
		return
	}

	switch {
	case admin && (res.PendingApproval || res.Token == ""):
		h.Notices.Info(r.Context(), "Admin registration submitted. An administrator must approve your account")
		seeOther(w, r, "/admin/waiting-approval")
	case res.Token == "":
		h.Notices.Success(r.Context(), "Registration successful! Please sign in")
		seeOther(w, r, "/login")
	default:
		middleware.SetSessionCookie(w, h.CookieName, res.Token, h.CookieSecure)
		h.Notices.Success(r.Context(), "Registration successful!")
		if admin {
			seeOther(w, r, "/admin/dashboard")
			return
		}
		seeOther(w, r, "/dashboard")
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, "/")
}

func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, "/admin/login")
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request, to string) {
	h.sessions.Logout(r.Context(), middleware.GetBearerToken(r.Context()))
	middleware.ClearSessionCookie(w, h.CookieName, h.CookieSecure)
	h.Notices.Success(r.Context(), "You have been logged out")
	seeOther(w, r, to)
}
