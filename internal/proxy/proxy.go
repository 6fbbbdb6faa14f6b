package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/render"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/middleware"
)

// New creates a reverse proxy from the storefront's public API mount to the
// shop API.
// targetHost: "http://localhost:5050"
// stripPrefix: "/api/v1"
// upstreamPrefix: "/api"
//
// The visitor's session token is sent as a bearer token and browser cookies
// are not forwarded.
func New(targetHost, stripPrefix, upstreamPrefix string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetHost)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	originalDirector := proxy.Director

	proxy.Transport = &middleware.TracingTransport{}
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host

		if strings.HasPrefix(req.URL.Path, stripPrefix) {
			req.URL.Path = upstreamPrefix + strings.TrimPrefix(req.URL.Path, stripPrefix)
			req.URL.RawPath = ""
		}

		ctx := req.Context()
		if reqID := middleware.GetRequestID(ctx); reqID != "" {
			req.Header.Set(middleware.HeaderXRequestID, reqID)
		}
		if token := middleware.GetBearerToken(ctx); token != "" && req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Del("Cookie")
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		reqID := middleware.GetRequestID(r.Context())
		logger.Ctx(r.Context()).Error().
			Err(err).
			Str("target", targetHost).
			Str("path", r.URL.Path).
			Msg("upstream_proxy_error")

		var body domain.APIError
		body.Error.Code = "upstream_unavailable"
		body.Error.Message = "shop API unreachable"
		body.Error.RequestID = reqID
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, body)
	}

	return proxy, nil
}
