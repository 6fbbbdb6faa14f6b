package proxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/industrieimport/storefront/internal/proxy"
	"github.com/industrieimport/storefront/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_PathRewrite(t *testing.T) {
	hostCh := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/public", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		hostCh <- r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api/v1", "/api")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://shop/api/v1/products/public", nil)
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case gotHost := <-hostCh:
		u, _ := url.Parse(upstream.URL)
		assert.Equal(t, u.Host, gotHost)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for upstream request")
	}
}

func TestProxy_HeadersPropagation(t *testing.T) {
	type seen struct{ reqID, auth, cookie string }
	ch := make(chan seen, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch <- seen{r.Header.Get("X-Request-Id"), r.Header.Get("Authorization"), r.Header.Get("Cookie")}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api/v1", "/api")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://shop/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "visitor_id", Value: "v"})
	ctx := middleware.SetRequestIDForTest(req.Context(), "test-req-id")
	ctx = middleware.SetTokenForTest(ctx, "tok")

	w := httptest.NewRecorder()
	p.ServeHTTP(w, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, w.Code)

	got := <-ch
	assert.Equal(t, "test-req-id", got.reqID)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Empty(t, got.cookie)
}

func TestProxy_ExplicitAuthorizationWins(t *testing.T) {
	ch := make(chan string, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ch <- r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	p, err := proxy.New(upstream.URL, "/api/v1", "/api")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://shop/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req = req.WithContext(middleware.SetTokenForTest(req.Context(), "cookie-token"))
	p.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Bearer header-token", <-ch)
}

func TestProxy_UpstreamDown(t *testing.T) {
	p, err := proxy.New("http://localhost:54321", "/api/v1", "/api")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://shop/api/v1/products", nil)
	ctx := middleware.SetRequestIDForTest(req.Context(), "req-123")
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	p.ServeHTTP(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")
	assert.Contains(t, w.Body.String(), "req-123")
}
