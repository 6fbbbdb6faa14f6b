package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/session"
)

const recentOrders = 5

type ShoppingHandler struct {
	Deps
	cart     CartClient
	wishlist WishlistClient
	orders   OrdersClient
	taxRate  float64
}

func NewShoppingHandler(d Deps, cart CartClient, wishlist WishlistClient, orders OrdersClient, taxRate float64) *ShoppingHandler {
	return &ShoppingHandler{Deps: d, cart: cart, wishlist: wishlist, orders: orders, taxRate: taxRate}
}

type cartForm struct {
	ProductID string `form:"productId" validate:"required"`
	Quantity  int    `form:"quantity" validate:"omitempty,gte=1,lte=99"`
}

type productForm struct {
	ProductID string `form:"productId" validate:"required"`
}

type shippingForm struct {
	Name    string `form:"name" validate:"required,min=2,max=50"`
	Email   string `form:"email" validate:"required,email"`
	Address string `form:"address" validate:"required"`
	City    string `form:"city" validate:"required"`
	State   string `form:"state" validate:"required"`
	ZipCode string `form:"zipCode" validate:"required,postcode_iso3166_alpha2=US"`
}

type dashboardData struct {
	CartCount     int
	WishlistCount int
	RecentOrders  []domain.Order
}

// Dashboard loads the three widgets in parallel; each one degrades on its own.
func (h *ShoppingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	var (
		wg                          sync.WaitGroup
		items                       []domain.CartItem
		wished                      []domain.WishlistItem
		orders                      []domain.Order
		cartErr, wishErr, ordersErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		items, cartErr = h.cart.Get(ctx)
	}()
	go func() {
		defer wg.Done()
		wished, wishErr = h.wishlist.List(ctx)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = h.orders.Mine(ctx)
	}()
	wg.Wait()

	if err := errors.Join(cartErr, wishErr, ordersErr); err != nil {
		h.fail(r, err, "Some dashboard data could not be loaded")
	}
	if len(orders) > recentOrders {
		orders = orders[:recentOrders]
	}
	h.render(w, r, "dashboard", dashboardData{
		CartCount:     domain.CartTotals(items, 0).Items,
		WishlistCount: len(wished),
		RecentOrders:  orders,
	})
}

type ordersData struct {
	Orders []domain.Order
}

func (h *ShoppingHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	orders, err := h.orders.Mine(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load orders")
	}
	h.render(w, r, "orders", ordersData{Orders: orders})
}

type cartData struct {
	Items  []domain.CartItem
	Totals domain.Totals
}

func (h *ShoppingHandler) Cart(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "cart", h.loadCart(r))
}

func (h *ShoppingHandler) loadCart(r *http.Request) cartData {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	items, err := h.cart.Get(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load cart")
	}
	return cartData{Items: items, Totals: domain.CartTotals(items, h.taxRate)}
}

// AddToCart is reachable from public product pages, so anonymous visitors
// are sent to sign in first.
func (h *ShoppingHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r, "Please sign in to add items to your cart") {
		return
	}

	var in cartForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, back(r, "/products"))
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.cart.Add(ctx, in.ProductID, in.Quantity); err != nil {
		h.fail(r, err, "Failed to add product to cart")
	} else {
		h.Notices.Success(r.Context(), "Product added to cart")
	}
	seeOther(w, r, back(r, "/cart"))
}

func (h *ShoppingHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var in cartForm
	if err := decodeForm(w, r, &in); err != nil || in.Quantity == 0 {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/cart")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.cart.Update(ctx, in.ProductID, in.Quantity); err != nil {
		h.fail(r, err, "Failed to update cart")
	}
	seeOther(w, r, "/cart")
}

func (h *ShoppingHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var in productForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/cart")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.cart.Remove(ctx, in.ProductID); err != nil {
		h.fail(r, err, "Failed to remove item")
	} else {
		h.Notices.Success(r.Context(), "Item removed from cart")
	}
	seeOther(w, r, "/cart")
}

type wishlistData struct {
	Items []domain.WishlistItem
}

func (h *ShoppingHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	items, err := h.wishlist.List(ctx)
	if err != nil {
		h.fail(r, err, "Failed to load wishlist")
	}
	h.render(w, r, "wishlist", wishlistData{Items: items})
}

func (h *ShoppingHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	if !h.signedIn(w, r, "Please sign in to add items to your wishlist") {
		return
	}

	var in productForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, back(r, "/products"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.wishlist.Add(ctx, in.ProductID); err != nil {
		h.fail(r, err, "Failed to add product to wishlist")
	} else {
		h.Notices.Success(r.Context(), "Product added to wishlist")
	}
	seeOther(w, r, back(r, "/wishlist"))
}

func (h *ShoppingHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	var in productForm
	if err := decodeForm(w, r, &in); err != nil {
		h.Notices.Error(r.Context(), formMessage(err))
		seeOther(w, r, "/wishlist")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if err := h.wishlist.Remove(ctx, in.ProductID); err != nil {
		h.fail(r, err, "Failed to remove item from wishlist")
	} else {
		h.Notices.Success(r.Context(), "Removed from wishlist")
	}
	seeOther(w, r, "/wishlist")
}

type checkoutData struct {
	cartData
	Form shippingForm
}

func (h *ShoppingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	data := checkoutData{cartData: h.loadCart(r)}
	if u := session.FromContext(r.Context()).CurrentUser; u != nil {
		data.Form.Name, data.Form.Email, data.Form.Address = u.Name, u.Email, u.Address
	}
	h.render(w, r, "checkout", data)
}

// PlaceOrder submits the cart as an order. The totals are recomputed from
// the cart the API holds, never taken from the form.
func (h *ShoppingHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in shippingForm
	formErr := decodeForm(w, r, &in)

	data := checkoutData{cartData: h.loadCart(r), Form: in}
	if formErr != nil {
		h.Notices.Error(r.Context(), formMessage(formErr))
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "checkout", data)
		return
	}
	if len(data.Items) == 0 {
		h.Notices.Warning(r.Context(), "Your cart is empty")
		seeOther(w, r, "/checkout")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	_, err := h.orders.Place(ctx, domain.PlaceOrder{
		Items: data.Items,
		Shipping: domain.ShippingDetails{
			Name:    in.Name,
			Email:   in.Email,
			Address: in.Address,
			City:    in.City,
			State:   in.State,
			ZipCode: in.ZipCode,
		},
		Subtotal: data.Totals.Subtotal,
		Tax:      data.Totals.Tax,
		Total:    data.Totals.Total,
	})
	if err != nil {
		h.Notices.Error(r.Context(), downstream.Message(err, "Failed to place order"))
		h.render(w, r, "checkout", data)
		return
	}
	if err := h.cart.Clear(ctx); err != nil {
		h.fail(r, err, "Your order was placed but the cart could not be emptied")
	}
	h.Notices.Success(r.Context(), "Order placed successfully!")
	seeOther(w, r, "/orders")
}

// signedIn redirects the visitor and reports false unless a user is signed
// in. A session still being resolved is sent back to retry, not to /login.
func (h *ShoppingHandler) signedIn(w http.ResponseWriter, r *http.Request, anonymousMsg string) bool {
	switch session.FromContext(r.Context()).State() {
	case domain.StateLoading:
		h.Notices.Info(r.Context(), "We are still signing you in. Please try again.")
		seeOther(w, r, back(r, "/products"))
		return false
	case domain.StateAnonymous:
		h.Notices.Info(r.Context(), anonymousMsg)
		seeOther(w, r, "/login")
		return false
	case domain.StateUser, domain.StatePendingAdmin, domain.StateAdmin:
	}
	return true
}

// back is the page the form was posted from, when it is one of ours.
func back(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host {
		return fallback
	}
	target := u.RequestURI()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return target
}
