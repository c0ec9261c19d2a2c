// Package catalog holds the storefront product collection together with the
// autocomplete trie built from it, and the query operations over both.
package catalog

import (
	"math"
	"strings"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/msort"
	"github.com/niksmo/shopwave/pkg/rangefilter"
)

func priceKey(p domain.Product) int64    { return p.Price }
func ratingKey(p domain.Product) float64 { return p.Rating }
func discountKey(p domain.Product) int   { return p.Discount }

// Sort orders ps by field. Unknown fields return ps unchanged.
func Sort(
	ps []domain.Product, field domain.SortField, ascending bool,
) []domain.Product {
	switch field {
	case domain.SortByPrice:
		return msort.SortBy(ps, priceKey, ascending)
	case domain.SortByRating:
		return msort.SortBy(ps, ratingKey, ascending)
	case domain.SortByDiscount:
		return msort.SortBy(ps, discountKey, ascending)
	}
	return ps
}

// Search matches text as a case-insensitive substring of the product name,
// brand or category.
func Search(ps []domain.Product, text string) []domain.Product {
	q := strings.ToLower(text)
	return filter(ps, func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
}

// FilterByPriceRange returns the products priced within [min, max], cheapest
// first.
func FilterByPriceRange(ps []domain.Product, min, max int64) []domain.Product {
	sorted := msort.SortBy(ps, priceKey, true)
	return rangefilter.Between(sorted, priceKey, min, max)
}

func FilterByPriceCeiling(ps []domain.Product, max int64) []domain.Product {
	return FilterByPriceRange(ps, 0, max)
}

// NoPriceCeiling makes FilterByPriceCeiling an identity filter up to
// ordering.
const NoPriceCeiling int64 = math.MaxInt64

func FilterByCategory(ps []domain.Product, label string) []domain.Product {
	return filter(ps, func(p domain.Product) bool {
		return strings.EqualFold(p.Category, label)
	})
}

func Featured(ps []domain.Product) []domain.Product {
	return filter(ps, func(p domain.Product) bool { return p.Featured })
}

func filter(
	ps []domain.Product, keep func(domain.Product) bool,
) []domain.Product {
	res := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if keep(p) {
			res = append(res, p)
		}
	}
	return res
}
