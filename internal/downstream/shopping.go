package downstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/industrieimport/storefront/internal/domain"
)

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

type CartAPI struct {
	c *Client
}

func (a *CartAPI) Get(ctx context.Context) ([]domain.CartItem, error) {
	return getList[domain.CartItem](ctx, a.c, "/cart")
}

func (a *CartAPI) Add(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	return send(ctx, a.c, http.MethodPost, "/cart", cartLine{ProductID: productID, Quantity: qty})
}

func (a *CartAPI) Update(ctx context.Context, productID string, qty int) error {
	return send(ctx, a.c, http.MethodPut, "/cart", cartLine{ProductID: productID, Quantity: qty})
}

func (a *CartAPI) Remove(ctx context.Context, productID string) error {
	return send(ctx, a.c, http.MethodDelete, "/cart", cartLine{ProductID: productID})
}

// Clear empties the cart, used once an order is placed.
func (a *CartAPI) Clear(ctx context.Context) error {
	return send(ctx, a.c, http.MethodDelete, "/cart", nil)
}

type WishlistAPI struct {
	c *Client
}

func (a *WishlistAPI) List(ctx context.Context) ([]domain.WishlistItem, error) {
	return getList[domain.WishlistItem](ctx, a.c, "/wishlist")
}

func (a *WishlistAPI) Add(ctx context.Context, productID string) error {
	return send(ctx, a.c, http.MethodPost, "/wishlist", cartLine{ProductID: productID})
}

func (a *WishlistAPI) Remove(ctx context.Context, productID string) error {
	return send(ctx, a.c, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil)
}

type OrdersAPI struct {
	c *Client
}

// Mine lists the orders of the signed-in user.
func (a *OrdersAPI) Mine(ctx context.Context) ([]domain.Order, error) {
	return getList[domain.Order](ctx, a.c, "/orders")
}

// All lists every order; admin only.
func (a *OrdersAPI) All(ctx context.Context) ([]domain.Order, error) {
	return getList[domain.Order](ctx, a.c, "/orders/all")
}

func (a *OrdersAPI) Place(ctx context.Context, in domain.PlaceOrder) (domain.Order, error) {
	return sendJSON[domain.Order](ctx, a.c, http.MethodPost, "/orders", in)
}

func (a *OrdersAPI) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	body := struct {
		Status domain.OrderStatus `json:"status"`
	}{status}
	return send(ctx, a.c, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", body)
}
