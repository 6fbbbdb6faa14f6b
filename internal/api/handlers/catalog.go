package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
)

const featuredCount = 4

type CatalogHandler struct {
	Deps
	products   ProductsClient
	categories CategoriesClient
}

func NewCatalogHandler(d Deps, products ProductsClient, categories CategoriesClient) *CatalogHandler {
	return &CatalogHandler{Deps: d, products: products, categories: categories}
}

type homeData struct {
	Featured []domain.Product
}

func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	products, err := h.products.ListPublic(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load products")
	}
	h.render(w, r, "home", homeData{Featured: domain.FeaturedProducts(products, featuredCount)})
}

type productsData struct {
	Base       string
	Search     string
	Category   string
	Categories []domain.Category
	Products   []domain.Product
}

// Products serves both the public and the signed-in catalogue; the path
// decides which list endpoint is used and where the filter form posts.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := productsData{
		Base:     catalogBase(r),
		Search:   q.Get("q"),
		Category: q.Get("category"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	var (
		wg          sync.WaitGroup
		products    []domain.Product
		productsErr error
		catErr      error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if data.Base == "/products" {
			products, productsErr = h.products.ListPublic(ctx)
			return
		}
		products, productsErr = h.products.List(ctx)
	}()
	go func() {
		defer wg.Done()
		data.Categories, catErr = h.categories.List(ctx)
	}()
	wg.Wait()

	if productsErr != nil {
		h.fail(r, productsErr, "Failed to load products")
	}
	if catErr != nil {
		h.fail(r, catErr, "Failed to load categories")
	}
	data.Products = domain.FilterProducts(products, data.Search, data.Category)
	h.render(w, r, "products", data)
}

type productData struct {
	Back    string
	Found   bool
	Product domain.Product
}

func (h *CatalogHandler) ProductDetails(w http.ResponseWriter, r *http.Request) {
	data := productData{Back: catalogBase(r)}

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	p, err := h.products.Get(ctx, chi.URLParam(r, "id"))
	switch {
	case err == nil:
		data.Found, data.Product = true, p
	case errors.Is(err, downstream.ErrNotFound):
		h.renderStatus(w, r, http.StatusNotFound, "product_details", data)
		return
	default:
		h.fail(r, err, "Failed to load product details")
	}
	h.render(w, r, "product_details", data)
}

func catalogBase(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/user/") {
		return "/user/products"
	}
	return "/products"
}
