package domain

import (
	"math"
	"strings"
)

const (
	DefaultTaxRate   = 0.08
	DefaultImagePath = "/assets/product.svg"
)

// FeaturedProducts picks the first n products that have an image and are in stock.
func FeaturedProducts(products []Product, n int) []Product {
	if n <= 0 {
		return []Product{}
	}
	out := make([]Product, 0, n)
	for _, p := range products {
		if len(out) == n {
			break
		}
		if p.ImageURL != "" && p.Quantity > 0 {
			out = append(out, p)
		}
	}
	return out
}

// FilterProducts matches term against name or description (case-insensitive)
// and, when category is set, requires an exact category match.
func FilterProducts(products []Product, term, category string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Items    int     `json:"items"`
}

// CartTotals sums the cart and applies taxRate. Amounts are rounded to cents.
func CartTotals(items []CartItem, taxRate float64) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.Price * float64(it.Quantity)
		t.Items += it.Quantity
	}
	t.Subtotal = roundCents(t.Subtotal)
	t.Tax = roundCents(t.Subtotal * taxRate)
	t.Total = roundCents(t.Subtotal + t.Tax)
	return t
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ImageURL resolves an image reference to something a browser can load.
// Absolute URLs and bundled assets pass through; anything else is treated
// as an image id served by the API.
func ImageURL(apiBase, ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return DefaultImagePath
	case strings.HasPrefix(ref, "http"):
		return ref
	case strings.Contains(ref, "/assets/"):
		return ref
	}
	return strings.TrimRight(apiBase, "/") + "/images/get/" + ref
}
