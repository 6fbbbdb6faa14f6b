package handlers

import (
	"context"
	"io"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
)

// The interfaces below are the slices of the shop API each handler uses.

type ProductsClient interface {
	ListPublic(ctx context.Context) ([]domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	CreateWithImage(ctx context.Context, body io.Reader, contentType string) (domain.Product, error)
	UpdateWithImage(ctx context.Context, id string, body io.Reader, contentType string) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type CategoriesClient interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, in downstream.CategoryInput) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type CartClient interface {
	Get(ctx context.Context) ([]domain.CartItem, error)
	Add(ctx context.Context, productID string, qty int) error
	Update(ctx context.Context, productID string, qty int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

type WishlistClient interface {
	List(ctx context.Context) ([]domain.WishlistItem, error)
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
}

type OrdersClient interface {
	Mine(ctx context.Context) ([]domain.Order, error)
	All(ctx context.Context) ([]domain.Order, error)
	Place(ctx context.Context, in domain.PlaceOrder) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

type StatsClient interface {
	Stats(ctx context.Context) (domain.DashboardStats, error)
}

type UsersClient interface {
	List(ctx context.Context) ([]domain.User, error)
	PendingAdmins(ctx context.Context) ([]domain.User, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, in downstream.ProfileUpdate) (domain.User, error)
	ChangePassword(ctx context.Context, in downstream.PasswordChange) error
}

type SiteClient interface {
	Settings(ctx context.Context) (domain.SiteSettings, error)
	UpdateSettings(ctx context.Context, in domain.SiteSettings) (domain.SiteSettings, error)
	Contact(ctx context.Context, msg downstream.ContactMessage) error
}

// Sessions is the auth context: sign in, sign up, sign out and refreshing
// the cached user.
type Sessions interface {
	Login(ctx context.Context, cred downstream.Credentials, admin bool) (downstream.LoginResult, error)
	Register(ctx context.Context, reg downstream.Registration, admin bool) (downstream.LoginResult, error)
	Update(ctx context.Context, token string, u domain.User)
	Logout(ctx context.Context, token string)
}

type ImagesClient interface {
	Get(ctx context.Context, id string) (domain.Image, error)
	ByURL(ctx context.Context, imageURL string) (domain.Image, error)
}
