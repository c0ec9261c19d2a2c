package storage

import (
	"context"
	"fmt"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/pkg/money"
)

var _ port.CatalogLoader = StaticCatalog{}

// bundled is the storefront catalog shipped with the binary. Prices are in
// rupees and converted on load.
var bundled = []struct {
	id              int64
	name, brand     string
	price, original float64
	discount        int
	rating          float64
	reviews, stock  int
	category, badge string
	image           string
	featured        bool
}{
	{1, `Apple MacBook Pro M3 Max 16"`, "Apple", 249990, 299990, 17, 4.8, 1247, 5, "Electronics", "New", "💻", true},
	{2, "Samsung Galaxy S24 Ultra", "Samsung", 124999, 149999, 17, 4.7, 2341, 12, "Electronics", "Hot", "📱", true},
	{3, "Sony WH-1000XM5 Headphones", "Sony", 29990, 39990, 25, 4.6, 3892, 23, "Electronics", "", "🎧", true},
	{4, "Nike Air Max 720", "Nike", 14995, 19995, 25, 4.5, 876, 34, "Fashion", "", "👟", true},
	{5, "Dyson V15 Detect Cordless", "Dyson", 59900, 72900, 18, 4.7, 654, 8, "Home & Kitchen", "New", "🧹", true},
	{6, `LG 55" OLED 4K Smart TV`, "LG", 99990, 149990, 33, 4.8, 432, 6, "Electronics", "Hot", "📺", false},
	{7, "Adidas Ultraboost 23", "Adidas", 17999, 24999, 28, 4.4, 1123, 45, "Fashion", "", "👟", true},
	{8, "Instant Pot Duo 7-in-1", "Instant Pot", 9499, 13999, 32, 4.6, 5678, 67, "Home & Kitchen", "", "🫕", false},
	{9, `iPad Pro 12.9" M2 256GB`, "Apple", 112900, 139900, 19, 4.7, 987, 9, "Electronics", "", "📟", true},
	{10, "L'Oreal True Match Foundation", "L'Oreal", 899, 1299, 31, 4.3, 3421, 234, "Beauty", "", "💄", false},
	{11, "Atomic Habits - James Clear", "Penguin Books", 399, 799, 50, 4.9, 12456, 456, "Books", "", "📖", false},
	{12, "Lego Technic Ferrari SP3", "LEGO", 34999, 44999, 22, 4.8, 654, 15, "Toys", "New", "🧱", false},
}

// StaticCatalog serves the bundled catalog.
type StaticCatalog struct{}

func (StaticCatalog) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "StaticCatalog.LoadProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return BundledProducts(), nil
}

// BundledProducts returns a fresh copy of the bundled catalog.
func BundledProducts() []domain.Product {
	ps := make([]domain.Product, 0, len(bundled))
	for _, b := range bundled {
		ps = append(ps, domain.Product{
			ID:            b.id,
			Name:          b.name,
			Brand:         b.brand,
			Price:         money.FromRupees(b.price),
			OriginalPrice: money.FromRupees(b.original),
			Discount:      b.discount,
			Rating:        b.rating,
			Reviews:       b.reviews,
			Stock:         b.stock,
			Category:      b.category,
			Badge:         b.badge,
			Image:         b.image,
			Featured:      b.featured,
		})
	}
	return ps
}
