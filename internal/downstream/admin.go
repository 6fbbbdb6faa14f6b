package downstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/industrieimport/storefront/internal/domain"
)

type DashboardAPI struct {
	c *Client
}

func (a *DashboardAPI) Stats(ctx context.Context) (domain.DashboardStats, error) {
	stats, err := getJSON[domain.DashboardStats](ctx, a.c, "/dashboard/stats")
	if stats.LowStockProducts == nil {
		stats.LowStockProducts = []domain.Product{}
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []domain.Order{}
	}
	return stats, err
}

func (a *DashboardAPI) Notifications(ctx context.Context) ([]domain.Notification, error) {
	return getList[domain.Notification](ctx, a.c, "/dashboard/notifications")
}

type ProfileUpdate struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UsersAPI struct {
	c *Client
}

func (a *UsersAPI) List(ctx context.Context) ([]domain.User, error) {
	return getList[domain.User](ctx, a.c, "/users")
}

// PendingAdmins lists admin registrations awaiting approval.
func (a *UsersAPI) PendingAdmins(ctx context.Context) ([]domain.User, error) {
	return getList[domain.User](ctx, a.c, "/admin/pending")
}

func (a *UsersAPI) Approve(ctx context.Context, id string) error {
	return send(ctx, a.c, http.MethodPost, "/admin/approve/"+url.PathEscape(id), nil)
}

func (a *UsersAPI) Reject(ctx context.Context, id string) error {
	return send(ctx, a.c, http.MethodPost, "/admin/reject/"+url.PathEscape(id), nil)
}

func (a *UsersAPI) UpdateProfile(ctx context.Context, in ProfileUpdate) (domain.User, error) {
	return sendJSON[domain.User](ctx, a.c, http.MethodPut, "/users/profile", in)
}

func (a *UsersAPI) ChangePassword(ctx context.Context, in PasswordChange) error {
	return send(ctx, a.c, http.MethodPut, "/users/password", in)
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type SiteAPI struct {
	c *Client
}

func (a *SiteAPI) Settings(ctx context.Context) (domain.SiteSettings, error) {
	return getJSON[domain.SiteSettings](ctx, a.c, "/settings")
}

func (a *SiteAPI) UpdateSettings(ctx context.Context, in domain.SiteSettings) (domain.SiteSettings, error) {
	return sendJSON[domain.SiteSettings](ctx, a.c, http.MethodPut, "/settings", in)
}

func (a *SiteAPI) Contact(ctx context.Context, msg ContactMessage) error {
	return send(ctx, a.c, http.MethodPost, "/contact", msg)
}
