package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industrieimport/storefront/internal/api"
	"github.com/industrieimport/storefront/internal/config"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/redis"
)

// fakeShop stands in for the shop REST API.
func fakeShop(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/auth/me":
			switch r.Header.Get("Authorization") {
			case "Bearer admin-tok":
				w.Write([]byte(`{"user":{"id":1,"name":"Ada","email":"ada@example.com","role":"admin"}}`))
			case "Bearer user-tok":
				w.Write([]byte(`{"id":7,"name":"Bob","email":"bob@example.com","role":"user"}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Invalid token"}`))
			}
		case "/api/products/public":
			w.Write([]byte(`[{"id":"p1","name":"Angle Grinder","price":89.5,"quantity":3,"imageUrl":"img-1"}]`))
		case "/api/settings":
			w.Write([]byte(`{"siteName":"Industrie Import"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Port:          "8080",
		APIURL:        apiURL,
		APIPrefix:     "/api",
		APIHealthPath: "/api/health",
		SiteName:      "Industrie Import",
		TaxRate:       0.08,
		SessionCookie: "token",
		SessionTTL:    time.Minute,
		SessionWait:   2 * time.Second,
		RateLimit:     100,
		RateWindow:    time.Minute,
		CORSOrigins:   []string{"http://localhost:3000"},
		LogFormat:     "json",
	}
}

func newRouter(t *testing.T, rc *redis.Client) (http.Handler, *httptest.Server) {
	t.Helper()
	shop := fakeShop(t)
	cfg := testConfig(shop.URL)
	deps, err := api.NewDeps(cfg, rc)
	require.NoError(t, err)
	router, err := api.NewRouter(cfg, deps)
	require.NoError(t, err)
	return router, shop
}

func get(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Integration(t *testing.T) {
	router, _ := newRouter(t, nil)

	t.Run("Healthz", func(t *testing.T) {
		rec := get(router, "/api/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("Readyz", func(t *testing.T) {
		rec := get(router, "/api/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"shop-api"`)
	})

	t.Run("Home renders featured products", func(t *testing.T) {
		rec := get(router, "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Angle Grinder")
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("Anonymous user route redirects to login", func(t *testing.T) {
		rec := get(router, "/dashboard", "")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Equal(t, "replace", rec.Header().Get(guard.HeaderNavigation))
	})

	t.Run("Anonymous admin route redirects to admin login", func(t *testing.T) {
		rec := get(router, "/admin/dashboard", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
		assert.Equal(t, "push", rec.Header().Get(guard.HeaderNavigation))
	})

	t.Run("Unknown page goes home", func(t *testing.T) {
		rec := get(router, "/no/such/page", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("Unknown API endpoint is JSON", func(t *testing.T) {
		rec := get(router, "/api/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
	})

	t.Run("Admin on a mapped user route", func(t *testing.T) {
		rec := get(router, "/settings", "admin-tok")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/settings", rec.Header().Get("Location"))
	})

	t.Run("User on an admin route", func(t *testing.T) {
		rec := get(router, "/admin/orders", "user-tok")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("Rejected token is cleared", func(t *testing.T) {
		rec := get(router, "/dashboard", "bogus")
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		var cleared bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == "token" && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)
	})

	t.Run("Session endpoint", func(t *testing.T) {
		rec := get(router, "/api/session", "user-tok")
		require.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			State   string `json:"state"`
			IsAdmin bool   `json:"isAdmin"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "authenticated-user", got.State)
		assert.False(t, got.IsAdmin)
	})

	t.Run("Route endpoint", func(t *testing.T) {
		rec := get(router, "/api/route?path=/admin/dashboard", "")
		assert.Contains(t, rec.Body.String(), `"location":"/admin/login"`)
	})

	t.Run("Static assets", func(t *testing.T) {
		rec := get(router, "/assets/app.css", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := get(router, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "storefront_guard_decisions_total")
	})
}

func TestRouter_ProxiesShopAPI(t *testing.T) {
	var gotPath, gotAuth, gotCookie string
	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(`[]`))
	}))
	defer shop.Close()

	cfg := testConfig(shop.URL)
	deps, err := api.NewDeps(cfg, nil)
	require.NoError(t, err)
	router, err := api.NewRouter(cfg, deps)
	require.NoError(t, err)

	rec := get(router, "/api/v1/products/public", "user-tok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/products/public", gotPath)
	assert.Equal(t, "Bearer user-tok", gotAuth)
	assert.Empty(t, gotCookie)
}

func TestRouter_NoticeSurvivesRedirect(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	router, _ := newRouter(t, rc)

	form := strings.NewReader("productId=p1")
	req := httptest.NewRequest(http.MethodPost, "/cart/add", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var visitor *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "visitor_id" {
			visitor = c
		}
	}
	require.NotNil(t, visitor)

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(visitor)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "Please sign in to add items to your cart")

	// Drained on first render.
	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(visitor)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotContains(t, rec.Body.String(), "Please sign in to add items to your cart")
}

// slowSessionShop answers /auth/me only after delay, so the first request of
// a signed-in visitor misses the session cache.
func slowSessionShop(t *testing.T, delay time.Duration, placed, added *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/auth/me":
			time.Sleep(delay)
			w.Write([]byte(`{"id":7,"name":"Bob","email":"bob@example.com","role":"user"}`))
		case r.URL.Path == "/api/cart" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"productId":"p1","name":"Angle Grinder","price":89.5,"quantity":1}]`))
		case r.URL.Path == "/api/cart" && r.Method == http.MethodPost:
			added.Add(1)
			w.Write([]byte(`{}`))
		case r.URL.Path == "/api/cart" && r.Method == http.MethodDelete:
			w.Write([]byte(`{}`))
		case r.URL.Path == "/api/orders" && r.Method == http.MethodPost:
			placed.Add(1)
			w.Write([]byte(`{"id":"o1","status":"pending"}`))
		case r.URL.Path == "/api/settings":
			w.Write([]byte(`{"siteName":"Industrie Import"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_FormPostWaitsForSlowSession(t *testing.T) {
	var placed, added atomic.Int32
	shop := slowSessionShop(t, 300*time.Millisecond, &placed, &added)
	cfg := testConfig(shop.URL)
	cfg.SessionWait = 20 * time.Millisecond
	deps, err := api.NewDeps(cfg, nil)
	require.NoError(t, err)
	router, err := api.NewRouter(cfg, deps)
	require.NoError(t, err)

	post := func(path string, form string, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Checkout places the order", func(t *testing.T) {
		rec := post("/checkout", "name=Bob+Smith&email=bob%40example.com&address=1+Main+St&city=Austin&state=TX&zipCode=78701", "slow-checkout")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/orders", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "http-equiv")
		assert.EqualValues(t, 1, placed.Load())
	})

	t.Run("Add to cart is not sent to login", func(t *testing.T) {
		rec := post("/cart/add", "productId=p1", "slow-cart")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.NotEqual(t, "/login", rec.Header().Get("Location"))
		assert.EqualValues(t, 1, added.Load())
	})

	t.Run("Page view still gets the placeholder", func(t *testing.T) {
		rec := get(router, "/orders", "slow-page")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "http-equiv")
	})
}

func TestRouter_AuthRateLimitIgnoresForwardedFor(t *testing.T) {
	shop := fakeShop(t)
	cfg := testConfig(shop.URL)
	cfg.RateLimit = 2
	deps, err := api.NewDeps(cfg, nil)
	require.NoError(t, err)
	router, err := api.NewRouter(cfg, deps)
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=x&password=y"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "198.51.100."+string(rune('1'+i)))
		req.RemoteAddr = "203.0.113.10:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusSeeOther, http.StatusSeeOther, http.StatusTooManyRequests}, codes)
}

func TestRouter_AuthRateLimit(t *testing.T) {
	shop := fakeShop(t)
	cfg := testConfig(shop.URL)
	cfg.RateLimit = 2
	deps, err := api.NewDeps(cfg, nil)
	require.NoError(t, err)
	router, err := api.NewRouter(cfg, deps)
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=x&password=y"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusSeeOther, http.StatusSeeOther, http.StatusTooManyRequests}, codes)
}
