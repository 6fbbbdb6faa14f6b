package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/notify"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/industrieimport/storefront/internal/view"
	"github.com/industrieimport/storefront/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const visitor = "v-test"

type mockProducts struct{ mock.Mock }

func (m *mockProducts) ListPublic(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProducts) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProducts) Get(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockProducts) CreateWithImage(ctx context.Context, body io.Reader, contentType string) (domain.Product, error) {
	b, _ := io.ReadAll(body)
	args := m.Called(ctx, string(b), contentType)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockProducts) UpdateWithImage(ctx context.Context, id string, body io.Reader, contentType string) (domain.Product, error) {
	b, _ := io.ReadAll(body)
	args := m.Called(ctx, id, string(b), contentType)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockProducts) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCategories struct{ mock.Mock }

func (m *mockCategories) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategories) Create(ctx context.Context, in downstream.CategoryInput) (domain.Category, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *mockCategories) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCart struct{ mock.Mock }

func (m *mockCart) Get(ctx context.Context) ([]domain.CartItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *mockCart) Add(ctx context.Context, productID string, qty int) error {
	return m.Called(ctx, productID, qty).Error(0)
}

func (m *mockCart) Update(ctx context.Context, productID string, qty int) error {
	return m.Called(ctx, productID, qty).Error(0)
}

func (m *mockCart) Remove(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *mockCart) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockWishlist struct{ mock.Mock }

func (m *mockWishlist) List(ctx context.Context) ([]domain.WishlistItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlist) Add(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *mockWishlist) Remove(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) Mine(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrders) All(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrders) Place(ctx context.Context, in domain.PlaceOrder) (domain.Order, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) Stats(ctx context.Context) (domain.DashboardStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DashboardStats), args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUsers) PendingAdmins(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUsers) Approve(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) Reject(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) UpdateProfile(ctx context.Context, in downstream.ProfileUpdate) (domain.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUsers) ChangePassword(ctx context.Context, in downstream.PasswordChange) error {
	return m.Called(ctx, in).Error(0)
}

type mockSite struct{ mock.Mock }

func (m *mockSite) Settings(ctx context.Context) (domain.SiteSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}

func (m *mockSite) UpdateSettings(ctx context.Context, in domain.SiteSettings) (domain.SiteSettings, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.SiteSettings), args.Error(1)
}

func (m *mockSite) Contact(ctx context.Context, msg downstream.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Login(ctx context.Context, cred downstream.Credentials, admin bool) (downstream.LoginResult, error) {
	args := m.Called(ctx, cred, admin)
	return args.Get(0).(downstream.LoginResult), args.Error(1)
}

func (m *mockSessions) Register(ctx context.Context, reg downstream.Registration, admin bool) (downstream.LoginResult, error) {
	args := m.Called(ctx, reg, admin)
	return args.Get(0).(downstream.LoginResult), args.Error(1)
}

func (m *mockSessions) Update(ctx context.Context, token string, u domain.User) {
	m.Called(ctx, token, u)
}

func (m *mockSessions) Logout(ctx context.Context, token string) {
	m.Called(ctx, token)
}

// testDeps wires a real renderer and notification center.
func testDeps(t *testing.T) (Deps, *notify.Center) {
	t.Helper()
	center := notify.NewCenter(notify.NewMemoryStore(time.Minute), zerolog.Nop())
	pages, err := view.New(view.NewSiteInfo("Industrie Import", nil), center, nil, view.Options{APIBase: "http://api.test/api"})
	require.NoError(t, err)
	return Deps{Pages: pages, Notices: center, CookieName: "token"}, center
}

func drain(center *notify.Center) []notify.Notice {
	return center.Drain(context.Background(), visitor)
}

func anonymous() domain.Session { return domain.Anonymous() }

func shopper() domain.Session {
	return domain.Authenticated(&domain.User{ID: "7", Name: "Bob", Email: "bob@example.com", Address: "1 Main St", Role: domain.RoleUser}, "user-token")
}

func administrator() domain.Session {
	return domain.Authenticated(&domain.User{ID: "1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}, "admin-token")
}

// newRequest builds a request that has already been through the visitor,
// auth, session and guard middleware.
func newRequest(method, target string, form url.Values, s domain.Session, layout guard.Layout) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	ctx := middleware.SetVisitorIDForTest(req.Context(), visitor)
	ctx = middleware.SetTokenForTest(ctx, s.Token)
	ctx = session.WithSession(ctx, s)
	ctx = guard.WithLayout(ctx, layout)
	return req.WithContext(ctx)
}

func httpBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

type mockImages struct{ mock.Mock }

func (m *mockImages) Get(ctx context.Context, id string) (domain.Image, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Image), args.Error(1)
}

func (m *mockImages) ByURL(ctx context.Context, imageURL string) (domain.Image, error) {
	args := m.Called(ctx, imageURL)
	return args.Get(0).(domain.Image), args.Error(1)
}
