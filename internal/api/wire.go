package api

import (
	"fmt"

	"github.com/industrieimport/storefront/internal/api/handlers"
	"github.com/industrieimport/storefront/internal/config"
	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/notify"
	"github.com/industrieimport/storefront/internal/redis"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/industrieimport/storefront/internal/view"
	"github.com/industrieimport/storefront/middleware"
)

// Deps is everything the router needs, built once at start-up.
type Deps struct {
	API      *downstream.API
	Sessions *session.Manager
	Notices  *notify.Center
	Site     *view.SiteInfo
	Pages    *view.Renderer
	Limiter  *middleware.RedisRateLimiter
	Checks   []handlers.ReadinessChecker
}

// NewDeps wires the shop API clients, the session manager, the notification
// channel and the page renderer. rc may be nil, in which case the in-memory
// stores and the in-process rate limiter are used.
func NewDeps(cfg *config.Config, rc *redis.Client) (Deps, error) {
	client := downstream.NewClient(downstream.DefaultClientConfig(cfg.APIBase()))
	shop := downstream.NewAPI(client)

	var (
		cache   session.Cache
		store   notify.Store
		limiter *middleware.RedisRateLimiter
	)
	checks := []handlers.ReadinessChecker{
		handlers.NewHTTPReadinessChecker("shop-api", cfg.APIURL+cfg.APIHealthPath),
	}
	if rc != nil {
		cache = session.NewRedisCache(rc.Raw())
		store = notify.NewRedisStore(rc.Raw(), notify.DefaultTTL)
		limiter = middleware.NewRedisRateLimiter(rc.Raw())
		checks = append(checks, handlers.CheckFunc{CheckName: "redis", Fn: rc.Check})
	} else {
		cache = session.NewMemoryCache()
		store = notify.NewMemoryStore(notify.DefaultTTL)
	}

	sessions := session.NewManager(shop.Auth, cache, session.Config{
		TTL:  cfg.SessionTTL,
		Wait: cfg.SessionWait,
	}, logger.Log.With().Str("component", "session").Logger())

	notices := notify.NewCenter(store, logger.Log.With().Str("component", "notify").Logger())
	site := view.NewSiteInfo(cfg.SiteName, shop.Site)

	pages, err := view.New(site, notices, shop.Dashboard, view.Options{APIBase: cfg.APIBase()})
	if err != nil {
		return Deps{}, fmt.Errorf("load templates: %w", err)
	}

	return Deps{
		API:      shop,
		Sessions: sessions,
		Notices:  notices,
		Site:     site,
		Pages:    pages,
		Limiter:  limiter,
		Checks:   checks,
	}, nil
}
