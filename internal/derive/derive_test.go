package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-gateway/internal/catalog"
)

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount float64
		want     float64
	}{
		{"25 percent off 1000", 1000, 25, 750.00},
		{"no discount", 19.99, 0, 19.99},
		{"full discount", 50, 100, 0},
		{"rounds to cents", 9.99, 33, 6.69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountedPrice(tt.price, tt.discount))
		})
	}
}

func TestTotalsFor(t *testing.T) {
	lines := []catalog.CartLine{
		{ProductID: "a", Price: 1000, Discount: 25, Quantity: 2},
		{ProductID: "b", Price: 100, Discount: 0, Quantity: 1},
	}

	totals := TotalsFor(lines)

	assert.Equal(t, 2100.00, totals.Subtotal)
	assert.Equal(t, 1600.00, totals.Total)
	assert.Equal(t, 500.00, totals.Discount)
}

func TestTotalsFor_EmptyCart(t *testing.T) {
	totals := TotalsFor(nil)
	assert.Equal(t, CartTotals{}, totals)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil), "empty comment list averages to zero")

	comments := []catalog.Comment{
		{Rating: 4}, {Rating: 5}, {Rating: 3},
	}
	assert.Equal(t, 4.0, AverageRating(comments))

	comments = append(comments, catalog.Comment{Rating: 4})
	assert.Equal(t, 4.0, AverageRating(comments))

	uneven := []catalog.Comment{{Rating: 4}, {Rating: 3}}
	assert.Equal(t, 3.5, AverageRating(uneven))
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Alpha Phone", Description: "flagship", Brand: "Acme", Price: 900, Rating: 4.5, Discount: 10, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Name: "Beta Phone", Description: "budget", Brand: "Bolt", Price: 200, Rating: 3.9, Discount: 0, CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p3", Name: "Gamma Tablet", Description: "large screen", Brand: "Acme", Price: 500, Rating: 4.1, Discount: 30, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestFilterProducts(t *testing.T) {
	products := testProducts()

	t.Run("price range", func(t *testing.T) {
		got := FilterProducts(products, Filter{MinPrice: 300, MaxPrice: 600})
		require.Len(t, got, 1)
		assert.Equal(t, "p3", got[0].ID)
	})

	t.Run("brand membership", func(t *testing.T) {
		got := FilterProducts(products, Filter{Brands: []string{"acme"}})
		assert.Len(t, got, 2)
	})

	t.Run("rating floor", func(t *testing.T) {
		got := FilterProducts(products, Filter{MinRating: 4.0})
		assert.Len(t, got, 2)
	})

	t.Run("discount floor", func(t *testing.T) {
		got := FilterProducts(products, Filter{MinDiscount: 20})
		require.Len(t, got, 1)
		assert.Equal(t, "p3", got[0].ID)
	})

	t.Run("substring over name and description", func(t *testing.T) {
		got := FilterProducts(products, Filter{Query: "phone"})
		assert.Len(t, got, 2)

		got = FilterProducts(products, Filter{Query: "screen"})
		require.Len(t, got, 1)
		assert.Equal(t, "p3", got[0].ID)
	})

	t.Run("conjunction", func(t *testing.T) {
		got := FilterProducts(products, Filter{Brands: []string{"Acme"}, MinRating: 4.3})
		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].ID)
	})

	t.Run("zero filter matches all", func(t *testing.T) {
		assert.Len(t, FilterProducts(products, Filter{}), 3)
	})
}

func TestSortProducts(t *testing.T) {
	products := testProducts()

	byPrice := SortProducts(products, SortPriceAsc)
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids(byPrice))

	byPriceDesc := SortProducts(products, SortPriceDesc)
	assert.Equal(t, []string{"p1", "p3", "p2"}, ids(byPriceDesc))

	byRating := SortProducts(products, SortRating)
	assert.Equal(t, []string{"p1", "p3", "p2"}, ids(byRating))

	byNewest := SortProducts(products, SortNewest)
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids(byNewest))

	// Input order untouched
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(products))
}

func ids(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
