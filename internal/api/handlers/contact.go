package handlers

import (
	"context"
	"net/http"

	"github.com/industrieimport/storefront/internal/downstream"
)

type ContactHandler struct {
	Deps
	site SiteClient
}

func NewContactHandler(d Deps, site SiteClient) *ContactHandler {
	return &ContactHandler{Deps: d, site: site}
}

type contactForm struct {
	Name    string `form:"name" validate:"required,min=2,max=50"`
	Email   string `form:"email" validate:"required,email"`
	Subject string `form:"subject" validate:"required,max=120"`
	Message string `form:"message" validate:"required,min=10,max=5000"`
}

func (h *ContactHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about", nil)
}

func (h *ContactHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "contact", contactForm{})
}

// Send relays the contact form. Invalid input re-renders the form with what
// the visitor typed.
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in contactForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "contact", in)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	err := h.site.Contact(ctx, downstream.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	})
	if err != nil {
		h.fail(r, err, "Failed to send message")
		h.render(w, r, "contact", in)
		return
	}
	h.Notices.Success(r.Context(), "Thank you! Your message has been sent")
	seeOther(w, r, "/contact")
}
