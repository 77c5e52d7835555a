// Package derive computes presentation values from state. Every
// function is pure: no state, no side effects, same inputs always
// yield the same outputs.
package derive

import (
	"math"
	"sort"
	"strings"

	"github.com/example/storefront-gateway/internal/catalog"
)

// DiscountedPrice applies a percentage discount to a unit price,
// rounded to cents.
func DiscountedPrice(price, discount float64) float64 {
	discounted := price * (1 - discount/100)
	return math.Round(discounted*100) / 100
}

// CartTotals summarizes a cart: the undiscounted subtotal, the total
// discount amount, and the payable total.
type CartTotals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

func TotalsFor(lines []catalog.CartLine) CartTotals {
	var totals CartTotals
	for _, line := range lines {
		qty := float64(line.Quantity)
		totals.Subtotal += line.Price * qty
		totals.Total += DiscountedPrice(line.Price, line.Discount) * qty
	}
	totals.Subtotal = math.Round(totals.Subtotal*100) / 100
	totals.Total = math.Round(totals.Total*100) / 100
	totals.Discount = math.Round((totals.Subtotal-totals.Total)*100) / 100
	return totals
}

// AverageRating is the mean comment rating rounded to one decimal,
// zero when there are no comments.
func AverageRating(comments []catalog.Comment) float64 {
	if len(comments) == 0 {
		return 0
	}
	var sum float64
	for _, c := range comments {
		sum += c.Rating
	}
	return math.Round(sum/float64(len(comments))*10) / 10
}

// Filter is a conjunction of product predicates; zero values disable
// the corresponding predicate.
type Filter struct {
	MinPrice    float64
	MaxPrice    float64
	Brands      []string
	MinRating   float64
	MinDiscount float64
	Query       string
}

// FilterProducts returns the products matching every enabled predicate.
func FilterProducts(products []catalog.Product, f Filter) []catalog.Product {
	brandSet := make(map[string]struct{}, len(f.Brands))
	for _, b := range f.Brands {
		brandSet[strings.ToLower(b)] = struct{}{}
	}
	query := strings.ToLower(f.Query)

	matched := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if len(brandSet) > 0 {
			if _, ok := brandSet[strings.ToLower(p.Brand)]; !ok {
				continue
			}
		}
		if f.MinRating > 0 && p.Rating < f.MinRating {
			continue
		}
		if f.MinDiscount > 0 && p.Discount < f.MinDiscount {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// Sort orders for SortProducts.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// SortProducts returns a sorted copy; the input slice is not modified.
func SortProducts(products []catalog.Product, order string) []catalog.Product {
	sorted := make([]catalog.Product, len(products))
	copy(sorted, products)

	switch order {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case SortRating:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })
	case SortNewest:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	}
	return sorted
}
