package downstream

// API groups the typed clients of the shop REST API over one shared Client.
type API struct {
	Client     *Client
	Auth       *AuthAPI
	Products   *ProductsAPI
	Categories *CategoriesAPI
	Cart       *CartAPI
	Wishlist   *WishlistAPI
	Orders     *OrdersAPI
	Dashboard  *DashboardAPI
	Users      *UsersAPI
	Images     *ImagesAPI
	Site       *SiteAPI
}

func NewAPI(c *Client) *API {
	return &API{
		Client:     c,
		Auth:       &AuthAPI{c: c},
		Products:   &ProductsAPI{c: c},
		Categories: &CategoriesAPI{c: c},
		Cart:       &CartAPI{c: c},
		Wishlist:   &WishlistAPI{c: c},
		Orders:     &OrdersAPI{c: c},
		Dashboard:  &DashboardAPI{c: c},
		Users:      &UsersAPI{c: c},
		Images:     &ImagesAPI{c: c},
		Site:       &SiteAPI{c: c},
	}
}
