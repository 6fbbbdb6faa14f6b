package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/industrieimport/storefront/internal/api/handlers"
	"github.com/industrieimport/storefront/internal/config"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/guard"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/notify"
	"github.com/industrieimport/storefront/internal/proxy"
	"github.com/industrieimport/storefront/internal/session"
	"github.com/industrieimport/storefront/internal/view"
	"github.com/industrieimport/storefront/middleware"
)

// apiProxyPrefix is where the browser reaches the shop API through us.
const apiProxyPrefix = "/api/v1"

func NewRouter(cfg *config.Config, d Deps) (http.Handler, error) {
	r := chi.NewRouter()

	// 1. Middleware
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.APIURL))
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger.Log))

	auth := middleware.Auth(middleware.AuthConfig{
		CookieName: cfg.SessionCookie,
		Secret:     cfg.JWTSecret,
		Secure:     cfg.CookieSecure,
	})
	resolve := session.Middleware(d.Sessions, session.CookieOptions{
		Name:   cfg.SessionCookie,
		Secure: cfg.CookieSecure,
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/assets/*", http.StripPrefix("/assets", view.Static()))

	// 2. JSON endpoints and the shop API proxy
	shopProxy, err := proxy.New(cfg.APIURL, apiProxyPrefix, cfg.APIPrefix)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	ready := handlers.NewReadinessHandler(d.Checks...)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderXRequestID},
			ExposedHeaders:   []string{middleware.HeaderXRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.NotFound(apiNotFound)

		r.Get("/healthz", ready.Healthz)
		r.Get("/readyz", ready.Readyz)

		r.Group(func(r chi.Router) {
			r.Use(auth, resolve)
			r.Get("/session", handlers.Session)
			r.Get("/route", handlers.Route)
		})

		r.Mount("/v1", auth(shopProxy))
	})

	// 3. Pages and form actions
	pd := handlers.Deps{
		Pages:        d.Pages,
		Notices:      d.Notices,
		CookieName:   cfg.SessionCookie,
		CookieSecure: cfg.CookieSecure,
	}
	authH := handlers.NewAuthHandler(pd, d.Sessions)
	catalog := handlers.NewCatalogHandler(pd, d.API.Products, d.API.Categories)
	contact := handlers.NewContactHandler(pd, d.API.Site)
	shop := handlers.NewShoppingHandler(pd, d.API.Cart, d.API.Wishlist, d.API.Orders, cfg.TaxRate)
	account := handlers.NewAccountHandler(pd, d.API.Users, d.Sessions)
	admin := handlers.NewAdminHandler(pd, handlers.AdminClients{
		Stats:      d.API.Dashboard,
		Products:   d.API.Products,
		Categories: d.API.Categories,
		Users:      d.API.Users,
		Orders:     d.API.Orders,
		Site:       d.API.Site,
		Images:     d.API.Images,
	}, d.Site)

	limitAuth := middleware.RateLimit(d.Limiter, middleware.RateLimitConfig{
		Scope:  "auth",
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
		KeyFn:  middleware.KeyByIP,
	})
	limitContact := middleware.RateLimit(d.Limiter, middleware.RateLimitConfig{
		Scope:  "contact",
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
		KeyFn:  middleware.KeyByUser,
	})
	loading := http.HandlerFunc(d.Pages.Loading)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Visitor(cfg.CookieSecure))
		r.Use(auth)
		r.Use(expiredNotice(d.Notices))
		r.Use(resolve)

		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ClassPublic, loading))

			r.Get("/", catalog.Home)
			r.Get("/products", catalog.Products)
			r.Get("/products/{id}", catalog.ProductDetails)
			r.Get("/about", contact.About)
			r.Get("/contact", contact.Contact)
			r.With(limitContact).Post("/contact", contact.Send)

			r.Get("/login", authH.LoginPage)
			r.Get("/register", authH.RegisterPage)
			r.Get("/admin/login", authH.AdminLoginPage)
			r.Get("/admin/register", authH.AdminRegisterPage)
			r.Get("/admin/waiting-approval", authH.WaitingApproval)

			r.With(limitAuth).Post("/login", authH.Login)
			r.With(limitAuth).Post("/register", authH.Register)
			r.With(limitAuth).Post("/admin/login", authH.AdminLogin)
			r.With(limitAuth).Post("/admin/register", authH.AdminRegister)
			r.Post("/logout", authH.Logout)
			r.Post("/admin/logout", authH.AdminLogout)

			// Anonymous visitors are sent to /login by the handlers.
			r.Post("/cart/add", shop.AddToCart)
			r.Post("/wishlist/add", shop.AddToWishlist)
		})

		// User routes
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ClassUser, loading))

			r.Get("/dashboard", shop.Dashboard)
			r.Get("/profile", account.Profile)
			r.Post("/profile", account.UpdateProfile)
			r.Get("/user/products", catalog.Products)
			r.Get("/user/products/{id}", catalog.ProductDetails)
			r.Get("/wishlist", shop.Wishlist)
			r.Post("/wishlist/remove", shop.RemoveFromWishlist)
			r.Get("/orders", shop.Orders)
			r.Get("/cart", shop.Cart)
			r.Post("/cart/update", shop.UpdateCart)
			r.Post("/cart/remove", shop.RemoveFromCart)
			r.Get("/checkout", shop.Checkout)
			r.Post("/checkout", shop.PlaceOrder)
			r.Get("/settings", account.Settings)
			r.Post("/settings/password", account.ChangePassword)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ClassAdmin, loading))

			r.Get("/admin/dashboard", admin.Dashboard)
			r.Get("/admin/statistics", admin.Statistics)

			r.Get("/admin/products", admin.Products)
			r.Get("/admin/products/add", admin.AddProduct)
			r.Post("/admin/products/add", admin.CreateProduct)
			r.Get("/admin/products/edit/{id}", admin.EditProduct)
			r.Post("/admin/products/edit/{id}", admin.UpdateProduct)
			r.Post("/admin/products/{id}/delete", admin.DeleteProduct)

			r.Get("/admin/categories", admin.Categories)
			r.Post("/admin/categories", admin.CreateCategory)
			r.Post("/admin/categories/{id}/delete", admin.DeleteCategory)

			r.Get("/admin/users", admin.Users)
			r.Get("/admin/pending-approvals", admin.PendingApprovals)
			r.Post("/admin/pending-approvals/{id}/approve", admin.Approve)
			r.Post("/admin/pending-approvals/{id}/reject", admin.Reject)

			r.Get("/admin/orders", admin.Orders)
			r.Post("/admin/orders/{id}/status", admin.UpdateOrderStatus)

			r.Get("/admin/settings", admin.Settings)
			r.Post("/admin/settings", admin.UpdateSettings)
		})
	})

	// 4. Everything else goes home
	r.NotFound(guard.CatchAll)

	logger.Log.Info().
		Str("api", cfg.APIBase()).
		Str("proxy", apiProxyPrefix).
		Int("routes", len(guard.Routes)).
		Msg("routes mounted")

	return r, nil
}

// expiredNotice tells the visitor why they were signed out when the session
// token has expired.
func expiredNotice(center *notify.Center) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if middleware.IsTokenExpired(r.Context()) {
				center.Info(r.Context(), "Your session has expired. Please log in again.")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	var body domain.APIError
	body.Error.Code = "not_found"
	body.Error.Message = "no such endpoint"
	body.Error.RequestID = middleware.GetRequestID(r.Context())
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, body)
}
