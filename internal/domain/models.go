package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

// ID is a record identifier as issued by the shop API. The API is not
// consistent about numeric vs string ids, so both are accepted.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type User struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	PendingAdmin   bool   `json:"pendingAdmin"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Address        string `json:"address,omitempty"`
}

// Initial is the avatar fallback shown when there is no profile picture.
func (u *User) Initial(fallback string) string {
	if u == nil || u.Name == "" {
		return fallback
	}
	r := []rune(u.Name)
	return strings.ToUpper(string(r[0]))
}

type Product struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	CategoryID  ID      `json:"categoryId,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CartItem struct {
	ProductID ID      `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

type WishlistItem struct {
	ProductID ID      `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func IsValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID        ID          `json:"id"`
	Items     []CartItem  `json:"items"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Customer  string      `json:"customer,omitempty"`
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type PlaceOrder struct {
	Items    []CartItem      `json:"items"`
	Shipping ShippingDetails `json:"shipping"`
	Subtotal float64         `json:"subtotal"`
	Tax      float64         `json:"tax"`
	Total    float64         `json:"total"`
}

type DashboardStats struct {
	TotalProducts    int       `json:"totalProducts"`
	TotalUsers       int       `json:"totalUsers"`
	TotalOrders      int       `json:"totalOrders"`
	LowStockProducts []Product `json:"lowStockProducts"`
	PendingApprovals int       `json:"pendingApprovals"`
	RecentOrders     []Order   `json:"recentOrders"`
}

// EmptyStats is what the dashboard shows when the stats call fails.
func EmptyStats() DashboardStats {
	return DashboardStats{
		LowStockProducts: []Product{},
		RecentOrders:     []Order{},
	}
}

type Notification struct {
	ID      ID     `json:"id"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

type Image struct {
	ID     ID     `json:"id"`
	URL    string `json:"url"`
	Folder string `json:"folder,omitempty"`
}

type SiteSettings struct {
	SiteName     string `json:"siteName"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}
