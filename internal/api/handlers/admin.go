package handlers

import (
	"context"
	"mime"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/logger"
)

// SiteNameSetter receives the new shop name after the settings are saved.
type SiteNameSetter interface {
	Set(name string)
}

type AdminHandler struct {
	Deps
	stats      StatsClient
	products   ProductsClient
	categories CategoriesClient
	users      UsersClient
	orders     OrdersClient
	site       SiteClient
	images     ImagesClient
	siteName   SiteNameSetter
}

type AdminClients struct {
	Stats      StatsClient
	Products   ProductsClient
	Categories CategoriesClient
	Users      UsersClient
	Orders     OrdersClient
	Site       SiteClient
	// Images is optional; without it the edit form shows no image details.
	Images ImagesClient
}

func NewAdminHandler(d Deps, c AdminClients, siteName SiteNameSetter) *AdminHandler {
	return &AdminHandler{
		Deps:       d,
		stats:      c.Stats,
		products:   c.Products,
		categories: c.Categories,
		users:      c.Users,
		orders:     c.Orders,
		site:       c.Site,
		images:     c.Images,
		siteName:   siteName,
	}
}

type statsData struct {
	Stats domain.DashboardStats
}

func (h *AdminHandler) loadStats(ctx context.Context, r *http.Request) domain.DashboardStats {
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load dashboard statistics")
		return domain.EmptyStats()
	}
	return stats
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	h.render(w, r, "admin_dashboard", statsData{Stats: h.loadStats(ctx, r)})
}

type statusRow struct {
	Status  domain.OrderStatus
	Count   int
	Revenue float64
}

type statisticsData struct {
	Stats    domain.DashboardStats
	ByStatus []statusRow
}

func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		data      statisticsData
		orders    []domain.Order
		ordersErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		data.Stats = h.loadStats(ctx, r)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = h.orders.All(ctx)
	}()
	wg.Wait()

	if ordersErr != nil {
		h.fail(r, ordersErr, "Failed to load orders")
	}
	data.ByStatus = ordersByStatus(orders)
	h.render(w, r, "admin_statistics", data)
}

// ordersByStatus groups orders under the four known statuses, in workflow
// order. Unknown statuses are listed after them.
func ordersByStatus(orders []domain.Order) []statusRow {
	rows := []statusRow{
		{Status: domain.OrderPending},
		{Status: domain.OrderShipped},
		{Status: domain.OrderDelivered},
		{Status: domain.OrderCancelled},
	}
	idx := make(map[domain.OrderStatus]int, len(rows))
	for i, row := range rows {
		idx[row.Status] = i
	}
	for _, o := range orders {
		i, ok := idx[o.Status]
		if !ok {
			i = len(rows)
			idx[o.Status] = i
			rows = append(rows, statusRow{Status: o.Status})
		}
		rows[i].Count++
		rows[i].Revenue += o.Total
	}
	known := rows[:4]
	extra := rows[4:]
	sort.Slice(extra, func(a, b int) bool { return extra[a].Status < extra[b].Status })
	return append(known, extra...)
}

type adminProductsData struct {
	Search     string
	Category   string
	Categories []domain.Category
	Products   []domain.Product
}

func (h *AdminHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := adminProductsData{Search: q.Get("q"), Category: q.Get("category")}

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	products, categories, err := h.catalog(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load products")
	}
	data.Categories = categories
	data.Products = domain.FilterProducts(products, data.Search, data.Category)
	h.render(w, r, "admin_products", data)
}

func (h *AdminHandler) catalog(ctx context.Context) ([]domain.Product, []domain.Category, error) {
	var (
		wg                  sync.WaitGroup
		products            []domain.Product
		categories          []domain.Category
		productsErr, catErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		products, productsErr = h.products.List(ctx)
	}()
	go func() {
		defer wg.Done()
		categories, catErr = h.categories.List(ctx)
	}()
	wg.Wait()

	if productsErr != nil {
		return products, categories, productsErr
	}
	return products, categories, catErr
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.Notices.Error(r.Context(), "Failed to delete product: "+downstream.Message(err, "Unknown error"))
	} else {
		h.Notices.Success(r.Context(), "Product deleted successfully")
	}
	seeOther(w, r, "/admin/products")
}

type productFormData struct {
	Edit       bool
	Action     string
	Product    domain.Product
	Image      *domain.Image
	Categories []domain.Category
}

func (h *AdminHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	categories, err := h.categories.List(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load categories")
	}
	h.render(w, r, "admin_product_form", productFormData{
		Action:     "/admin/products/add",
		Categories: categories,
	})
}

func (h *AdminHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	p, err := h.products.Get(ctx, id)
	if err != nil {
		h.fail(r, err, "Failed to load product data")
		seeOther(w, r, "/admin/products")
		return
	}
	categories, err := h.categories.List(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load categories")
	}
	h.render(w, r, "admin_product_form", productFormData{
		Edit:       true,
		Action:     "/admin/products/edit/" + id,
		Product:    p,
		Image:      h.currentImage(ctx, r, p.ImageURL),
		Categories: categories,
	})
}

// currentImage looks up the stored record behind a product image. Failures
// only cost the caption, so they are logged and not reported.
func (h *AdminHandler) currentImage(ctx context.Context, r *http.Request, ref string) *domain.Image {
	if h.images == nil || ref == "" || strings.Contains(ref, "/assets/") {
		return nil
	}
	var (
		img domain.Image
		err error
	)
	if strings.HasPrefix(ref, "http") {
		img, err = h.images.ByURL(ctx, ref)
	} else {
		img, err = h.images.Get(ctx, ref)
	}
	if err != nil {
		logger.Ctx(r.Context()).Debug().Err(err).Str("image", ref).Msg("image lookup failed")
		return nil
	}
	return &img
}

// CreateProduct streams the multipart form, image included, to the API
// without buffering it.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ct, ok := multipartType(r)
	if !ok {
		h.Notices.Error(r.Context(), "Please check the form and try again")
		seeOther(w, r, "/admin/products/add")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if _, err := h.products.CreateWithImage(ctx, r.Body, ct); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to save product"))
		seeOther(w, r, "/admin/products/add")
		return
	}
	h.Notices.Success(r.Context(), "Product added successfully!")
	seeOther(w, r, "/admin/products")
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ct, ok := multipartType(r)
	if !ok {
		h.Notices.Error(r.Context(), "Please check the form and try again")
		seeOther(w, r, "/admin/products/edit/"+id)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if _, err := h.products.UpdateWithImage(ctx, id, r.Body, ct); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to save product"))
		seeOther(w, r, "/admin/products/edit/"+id)
		return
	}
	h.Notices.Success(r.Context(), "Product updated successfully!")
	seeOther(w, r, "/admin/products")
}

func multipartType(r *http.Request) (string, bool) {
	ct := r.Header.Get("Content-Type")
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil || mt != "multipart/form-data" || params["boundary"] == "" {
		return "", false
	}
	return ct, true
}

type categoriesData struct {
	Categories []domain.Category
}

type categoryForm struct {
	Name        string `form:"name" validate:"required,max=60"`
	Description string `form:"description" validate:"max=500"`
}

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	categories, err := h.categories.List(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load categories")
	}
	h.render(w, r, "admin_categories", categoriesData{Categories: categories})
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/admin/categories")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	in.Name = strings.TrimSpace(in.Name)
	if _, err := h.categories.Create(ctx, downstream.CategoryInput{Name: in.Name, Description: in.Description}); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to create category"))
	} else {
		h.Notices.Success(r.Context(), "Category created")
	}
	seeOther(w, r, "/admin/categories")
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.categories.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to delete category"))
	} else {
		h.Notices.Success(r.Context(), "Category deleted")
	}
	seeOther(w, r, "/admin/categories")
}

type usersData struct {
	Users []domain.User
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load users")
	}
	h.render(w, r, "admin_users", usersData{Users: users})
}

func (h *AdminHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	users, err := h.users.PendingAdmins(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load pending approvals")
	}
	h.render(w, r, "admin_pending", usersData{Users: users})
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.users.Approve, "Admin approved", "Failed to approve admin")
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.users.Reject, "Admin request rejected", "Failed to reject admin")
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error, ok, failed string) {
	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := fn(ctx, chi.URLParam(r, "id")); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, failed))
	} else {
		h.Notices.Success(r.Context(), ok)
	}
	seeOther(w, r, "/admin/pending-approvals")
}

func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	orders, err := h.orders.All(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load orders")
	}
	h.render(w, r, "admin_orders", ordersData{Orders: orders})
}

type statusForm struct {
	Status string `form:"status" validate:"required"`
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in statusForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/admin/orders")
		return
	}
	if !domain.IsValidOrderStatus(in.Status) {
		h.Notices.Error(r.Context(), "Invalid status")
		seeOther(w, r, "/admin/orders")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "id"), domain.OrderStatus(in.Status)); err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to update order status"))
	} else {
		h.Notices.Success(r.Context(), "Order status updated")
	}
	seeOther(w, r, "/admin/orders")
}

type settingsData struct {
	Settings domain.SiteSettings
}

type settingsForm struct {
	SiteName     string `form:"siteName" validate:"required,max=80"`
	ContactEmail string `form:"contactEmail" validate:"omitempty,email"`
}

func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	settings, err := h.site.Settings(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load settings")
	}
	h.render(w, r, "admin_settings", settingsData{Settings: settings})
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in settingsForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/admin/settings")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	want := domain.SiteSettings{SiteName: in.SiteName, ContactEmail: in.ContactEmail}
	saved, err := h.site.UpdateSettings(ctx, want)
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to save settings"))
		seeOther(w, r, "/admin/settings")
		return
	}
	if saved.SiteName == "" {
		saved = want
	}
	if h.siteName != nil {
		h.siteName.Set(saved.SiteName)
	}
	h.Notices.Success(r.Context(), "Settings saved")
	seeOther(w, r, "/admin/settings")
}
