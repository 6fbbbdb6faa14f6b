package guard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/industrieimport/storefront/internal/domain"
)

type Route struct {
	Pattern string `json:"pattern"`
	Class   Class  `json:"class"`
	Title   string `json:"title"`
}

// CatchAllPattern stands for every path outside Routes.
const CatchAllPattern = "/*"

var Routes = []Route{
	{"/", ClassPublic, "Home"},
	{"/login", ClassPublic, "Login"},
	{"/register", ClassPublic, "Register"},
	{"/admin/login", ClassPublic, "Admin Login"},
	{"/admin/register", ClassPublic, "Admin Register"},
	{"/admin/waiting-approval", ClassPublic, "Waiting for Approval"},
	{"/products", ClassPublic, "Products"},
	{"/products/{id}", ClassPublic, "Product Details"},
	{"/about", ClassPublic, "About"},
	{"/contact", ClassPublic, "Contact"},

	{"/dashboard", ClassUser, "Dashboard"},
	{"/profile", ClassUser, "Profile"},
	{"/user/products", ClassUser, "Products"},
	{"/user/products/{id}", ClassUser, "Product Details"},
	{"/wishlist", ClassUser, "Wishlist"},
	{"/orders", ClassUser, "Orders"},
	{"/cart", ClassUser, "Cart"},
	{"/checkout", ClassUser, "Checkout"},
	{"/settings", ClassUser, "Settings"},

	{"/admin/dashboard", ClassAdmin, "Dashboard"},
	{"/admin/products", ClassAdmin, "Products"},
	{"/admin/products/add", ClassAdmin, "Add Product"},
	{"/admin/products/edit/{id}", ClassAdmin, "Edit Product"},
	{"/admin/categories", ClassAdmin, "Categories"},
	{"/admin/users", ClassAdmin, "Users"},
	{"/admin/orders", ClassAdmin, "Orders"},
	{"/admin/statistics", ClassAdmin, "Statistics"},
	{"/admin/settings", ClassAdmin, "Settings"},
	{"/admin/pending-approvals", ClassAdmin, "Admin Approvals"},
}

var (
	byPattern = func() map[string]Route {
		m := make(map[string]Route, len(Routes))
		for _, r := range Routes {
			m[r.Pattern] = r
		}
		return m
	}()

	// matcher reuses chi's tree so lookups agree with the real router.
	matcher = func() *chi.Mux {
		mx := chi.NewRouter()
		for _, r := range Routes {
			mx.Get(r.Pattern, http.NotFound)
		}
		return mx
	}()
)

// Lookup finds the route entry serving path.
func Lookup(path string) (Route, bool) {
	rctx := chi.NewRouteContext()
	if !matcher.Match(rctx, http.MethodGet, path) {
		return Route{}, false
	}
	r, ok := byPattern[rctx.RoutePattern()]
	return r, ok
}

// Decide is Evaluate over the route table. Unknown paths get the catch-all
// redirect home.
func Decide(path string, s domain.Session) (Route, Decision) {
	r, ok := Lookup(path)
	if !ok {
		return Route{Pattern: CatchAllPattern, Class: ClassPublic}, Redirect("/", false)
	}
	return r, Evaluate(r.Class, s, path)
}
