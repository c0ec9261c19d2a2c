package port

import (
	"context"
	"sync"

	"github.com/niksmo/shopwave/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Outbound.

type CatalogLoader interface {
	LoadProducts(context.Context) ([]domain.Product, error)
}

type ProductsStorage interface {
	StoreProducts(context.Context, []domain.Product) error
}

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}

type AvailabilityEmitter interface {
	EmitAvailability(context.Context, domain.ProductAvailability) error
}

// AvailabilityChecker reports whether a product may enter the catalog.
// Products without a recorded availability are available.
type AvailabilityChecker interface {
	IsAvailable(productID int64) bool
}

type AvailabilityProcessor interface {
	runnerContextWg
	closer
}

type StateStore interface {
	LoadState(ctx context.Context, sessionID string) (domain.AppState, error)
	SaveState(ctx context.Context, sessionID string, s domain.AppState) error
}

type Authenticator interface {
	Login(context.Context, domain.Credentials) (domain.AuthSession, error)
	Register(context.Context, domain.Registration) (domain.AuthSession, error)
}

type OrderPlacer interface {
	PlaceOrder(
		ctx context.Context, token string, req domain.OrderRequest,
	) (domain.OrderReceipt, error)
}

// Inbound.

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type AvailabilitySetter interface {
	SetAvailability(context.Context, domain.ProductAvailability) error
}

type CatalogBrowser interface {
	Browse(context.Context, domain.BrowseQuery) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
	Featured(context.Context) []domain.Product
	Suggest(ctx context.Context, prefix string, limit int) []string
	Categories(context.Context) []domain.Category
	ProductsByCategory(ctx context.Context, id int) ([]domain.Product, error)
}

type CartManager interface {
	Cart(ctx context.Context, sessionID string) (domain.CartView, error)
	AddToCart(
		ctx context.Context, sessionID string, productID int64, qty int,
	) (domain.CartView, error)
	UpdateCartQty(
		ctx context.Context, sessionID string, productID int64, delta int,
	) (domain.CartView, error)
	RemoveFromCart(
		ctx context.Context, sessionID string, productID int64,
	) (domain.CartView, error)
}

type WishlistManager interface {
	Wishlist(ctx context.Context, sessionID string) ([]domain.Product, error)
	ToggleWishlist(
		ctx context.Context, sessionID string, productID int64,
	) (bool, error)
}

type AccountManager interface {
	Login(
		ctx context.Context, sessionID string, c domain.Credentials,
	) (domain.User, error)
	Register(
		ctx context.Context, sessionID string, r domain.Registration,
	) (domain.User, error)
	Logout(ctx context.Context, sessionID string) error
}

type CheckoutProcessor interface {
	Checkout(
		ctx context.Context, sessionID string, f domain.CheckoutForm,
	) (domain.OrderReceipt, error)
}
