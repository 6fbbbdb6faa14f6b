package downstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/industrieimport/storefront/internal/domain"
)

type ProductsAPI struct {
	c *Client
}

// ListPublic is the catalogue visible without a session.
func (p *ProductsAPI) ListPublic(ctx context.Context) ([]domain.Product, error) {
	return getList[domain.Product](ctx, p.c, "/products/public")
}

func (p *ProductsAPI) List(ctx context.Context) ([]domain.Product, error) {
	return getList[domain.Product](ctx, p.c, "/products")
}

func (p *ProductsAPI) Get(ctx context.Context, id string) (domain.Product, error) {
	return getJSON[domain.Product](ctx, p.c, "/products/"+url.PathEscape(id))
}

// CreateWithImage streams a multipart product form, image included.
func (p *ProductsAPI) CreateWithImage(ctx context.Context, body io.Reader, contentType string) (domain.Product, error) {
	resp, err := p.c.Forward(ctx, http.MethodPost, "/products", body, contentType)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeResponse[domain.Product](resp)
}

func (p *ProductsAPI) UpdateWithImage(ctx context.Context, id string, body io.Reader, contentType string) (domain.Product, error) {
	resp, err := p.c.Forward(ctx, http.MethodPut, "/products/"+url.PathEscape(id), body, contentType)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeResponse[domain.Product](resp)
}

func (p *ProductsAPI) Delete(ctx context.Context, id string) error {
	return send(ctx, p.c, http.MethodDelete, "/products/"+url.PathEscape(id), nil)
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CategoriesAPI struct {
	c *Client
}

func (a *CategoriesAPI) List(ctx context.Context) ([]domain.Category, error) {
	return getList[domain.Category](ctx, a.c, "/categories")
}

func (a *CategoriesAPI) Get(ctx context.Context, id string) (domain.Category, error) {
	return getJSON[domain.Category](ctx, a.c, "/categories/"+url.PathEscape(id))
}

func (a *CategoriesAPI) Create(ctx context.Context, in CategoryInput) (domain.Category, error) {
	return sendJSON[domain.Category](ctx, a.c, http.MethodPost, "/categories", in)
}

func (a *CategoriesAPI) Delete(ctx context.Context, id string) error {
	return send(ctx, a.c, http.MethodDelete, "/categories/"+url.PathEscape(id), nil)
}

type ImagesAPI struct {
	c *Client
}

func (a *ImagesAPI) Get(ctx context.Context, id string) (domain.Image, error) {
	return getJSON[domain.Image](ctx, a.c, "/images/get/"+url.PathEscape(id))
}

func (a *ImagesAPI) ByURL(ctx context.Context, imageURL string) (domain.Image, error) {
	return getJSON[domain.Image](ctx, a.c, fmt.Sprintf("/images/by-url?url=%s", url.QueryEscape(imageURL)))
}
