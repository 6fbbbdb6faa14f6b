package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	escaped     string
	query       string
	contentType string
	body        []byte
}

func recordingAPI(t *testing.T, status int, reply string) (*API, *recorded) {
	t.Helper()
	rec := &recorded{}
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.escaped = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.contentType = r.Header.Get("Content-Type")
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	})
	return api, rec
}

func TestAuthAPI_AdminLoginPending(t *testing.T) {
	api, rec := recordingAPI(t, 200, `{"token":"","pendingApproval":true,"user":{"id":9,"name":"Ada","role":"user","pendingAdmin":true}}`)

	res, err := api.Auth.AdminLogin(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/auth/admin/login", rec.path)
	assert.JSONEq(t, `{"email":"a@b.c","password":"pw"}`, string(rec.body))
	assert.True(t, res.PendingApproval)
	require.NotNil(t, res.User)
	assert.Equal(t, domain.ID("9"), res.User.ID)
	assert.True(t, res.User.PendingAdmin)
}

func TestAuthAPI_RegisterPaths(t *testing.T) {
	api, rec := recordingAPI(t, 201, `{"token":"t","user":{"id":"1","role":"user"}}`)

	_, err := api.Auth.Register(context.Background(), Registration{Name: "N", Email: "e@x.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/register", rec.path)

	_, err = api.Auth.AdminRegister(context.Background(), Registration{Name: "N", Email: "e@x.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/admin/register", rec.path)
}

func TestAuthAPI_MeWrappedAndBare(t *testing.T) {
	api, _ := recordingAPI(t, 200, `{"user":{"id":"5","name":"Z","role":"admin"}}`)
	u, err := api.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	api, _ = recordingAPI(t, 200, `{"id":"6","name":"Y","role":"user"}`)
	u, err = api.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ID("6"), u.ID)
}

func TestProductsAPI_Paths(t *testing.T) {
	api, rec := recordingAPI(t, 200, `[{"id":1,"name":"Drill","price":99.5,"quantity":3}]`)

	list, err := api.Products.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Drill", list[0].Name)
	assert.Equal(t, "/api/products/public", rec.path)

	require.NoError(t, api.Products.Delete(context.Background(), "12"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/products/12", rec.path)
}

func TestProductsAPI_CreateWithImageStreamsBody(t *testing.T) {
	api, rec := recordingAPI(t, 201, `{"id":"44","name":"Saw"}`)

	p, err := api.Products.CreateWithImage(context.Background(), strings.NewReader("--b\r\n..."), "multipart/form-data; boundary=b")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("44"), p.ID)
	assert.Equal(t, "multipart/form-data; boundary=b", rec.contentType)
	assert.Equal(t, "--b\r\n...", string(rec.body))

	_, err = api.Products.UpdateWithImage(context.Background(), "44", bytes.NewReader(nil), "multipart/form-data; boundary=b")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/products/44", rec.path)
}

func TestCartAPI_Operations(t *testing.T) {
	api, rec := recordingAPI(t, 200, `{"items":[{"productId":"1","quantity":2,"price":5}]}`)

	items, err := api.Cart.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, api.Cart.Add(context.Background(), "1", 0))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.JSONEq(t, `{"productId":"1","quantity":1}`, string(rec.body))

	require.NoError(t, api.Cart.Remove(context.Background(), "1"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.JSONEq(t, `{"productId":"1"}`, string(rec.body))
}

func TestWishlistAndOrders(t *testing.T) {
	api, rec := recordingAPI(t, 200, `{}`)

	require.NoError(t, api.Wishlist.Remove(context.Background(), "p/1"))
	assert.Equal(t, "/api/wishlist/p%2F1", rec.escaped)

	require.NoError(t, api.Orders.UpdateStatus(context.Background(), "o1", domain.OrderShipped))
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/orders/o1/status", rec.path)
	assert.JSONEq(t, `{"status":"shipped"}`, string(rec.body))

	_, err := api.Orders.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/all", rec.path)
}

func TestUsersAPI_Approvals(t *testing.T) {
	api, rec := recordingAPI(t, 200, `[{"id":"3","name":"Pending","pendingAdmin":true}]`)

	pending, err := api.Users.PendingAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/api/admin/pending", rec.path)

	require.NoError(t, api.Users.Approve(context.Background(), "3"))
	assert.Equal(t, "/api/admin/approve/3", rec.path)
	require.NoError(t, api.Users.Reject(context.Background(), "3"))
	assert.Equal(t, "/api/admin/reject/3", rec.path)
}

func TestDashboardAPI_StatsNeverNilSlices(t *testing.T) {
	api, _ := recordingAPI(t, 200, `{"totalProducts":4}`)

	stats, err := api.Dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalProducts)
	assert.NotNil(t, stats.LowStockProducts)
	assert.NotNil(t, stats.RecentOrders)
}

func TestImagesAPI_ByURLEscapes(t *testing.T) {
	api, rec := recordingAPI(t, 200, `{"id":"i1","url":"http://x/y.png"}`)

	img, err := api.Images.ByURL(context.Background(), "http://x/y.png?s=1")
	require.NoError(t, err)
	assert.Equal(t, "/api/images/by-url", rec.path)
	assert.Equal(t, "url=http%3A%2F%2Fx%2Fy.png%3Fs%3D1", rec.query)
	assert.Equal(t, "http://x/y.png", img.URL)
}

func TestSiteAPI_Contact(t *testing.T) {
	api, rec := recordingAPI(t, 200, ``)

	err := api.Site.Contact(context.Background(), ContactMessage{Name: "A", Email: "a@b.c", Message: "hi"})
	require.NoError(t, err)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "hi", sent["message"])
	assert.Equal(t, "/api/contact", rec.path)
}
