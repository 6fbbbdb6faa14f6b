package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeaturedProducts(t *testing.T) {
	products := []Product{
		{ID: "1", ImageURL: "a.jpg", Quantity: 3},
		{ID: "2", ImageURL: "", Quantity: 3},
		{ID: "3", ImageURL: "c.jpg", Quantity: 0},
		{ID: "4", ImageURL: "d.jpg", Quantity: 1},
		{ID: "5", ImageURL: "e.jpg", Quantity: 1},
		{ID: "6", ImageURL: "f.jpg", Quantity: 1},
		{ID: "7", ImageURL: "g.jpg", Quantity: 1},
	}

	got := FeaturedProducts(products, 4)
	ids := make([]ID, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []ID{"1", "4", "5", "6"}, ids)
	assert.Empty(t, FeaturedProducts(nil, 4))
	assert.Empty(t, FeaturedProducts(products, 0))
	assert.NotPanics(t, func() { assert.Empty(t, FeaturedProducts(products, -1)) })
}

func TestFilterProducts(t *testing.T) {
	products := []Product{
		{Name: "Angle Grinder", Description: "125mm", Category: "Power Tools"},
		{Name: "Safety Gloves", Description: "cut resistant", Category: "Safety"},
		{Name: "Drill", Description: "Cordless GRINDER attachment", Category: "Power Tools"},
	}

	t.Run("Term matches name or description", func(t *testing.T) {
		assert.Len(t, FilterProducts(products, "grinder", ""), 2)
	})

	t.Run("Category is exact", func(t *testing.T) {
		got := FilterProducts(products, "", "Safety")
		assert.Len(t, got, 1)
		assert.Equal(t, "Safety Gloves", got[0].Name)
	})

	t.Run("Both filters", func(t *testing.T) {
		assert.Empty(t, FilterProducts(products, "gloves", "Power Tools"))
	})

	t.Run("No filters", func(t *testing.T) {
		assert.Len(t, FilterProducts(products, "  ", ""), 3)
	})
}

func TestCartTotals(t *testing.T) {
	items := []CartItem{
		{Price: 79.99, Quantity: 1},
		{Price: 24.99, Quantity: 2},
	}
	got := CartTotals(items, DefaultTaxRate)
	assert.Equal(t, 129.97, got.Subtotal)
	assert.Equal(t, 10.4, got.Tax)
	assert.Equal(t, 140.37, got.Total)
	assert.Equal(t, 3, got.Items)

	assert.Equal(t, Totals{}, CartTotals(nil, DefaultTaxRate))
}

func TestImageURL(t *testing.T) {
	base := "http://localhost:5050/api/"
	assert.Equal(t, DefaultImagePath, ImageURL(base, ""))
	assert.Equal(t, "https://cdn.example.com/x.jpg", ImageURL(base, "https://cdn.example.com/x.jpg"))
	assert.Equal(t, "/assets/product-lg.jpg", ImageURL(base, "/assets/product-lg.jpg"))
	assert.Equal(t, "http://localhost:5050/api/images/get/42", ImageURL(base, "42"))
	assert.Equal(t, "http://localhost:5050/api/images/get/abc", ImageURL(base, "abc"))
}

func TestIsValidOrderStatus(t *testing.T) {
	assert.True(t, IsValidOrderStatus("shipped"))
	assert.False(t, IsValidOrderStatus("lost"))
}
