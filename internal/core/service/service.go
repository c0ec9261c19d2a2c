package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/niksmo/shopwave/internal/core/catalog"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
)

var (
	_ port.ProductsSaver      = (*Service)(nil)
	_ port.AvailabilitySetter = (*Service)(nil)
	_ port.CatalogBrowser     = (*Service)(nil)
	_ port.CartManager        = (*Service)(nil)
	_ port.WishlistManager    = (*Service)(nil)
	_ port.AccountManager     = (*Service)(nil)
	_ port.CheckoutProcessor  = (*Service)(nil)
)

// Deps used for setup [Service].
//
// Loader, AvailabilityProc and RefreshInterval are optional. A nil Loader
// means products arrive through SaveProducts only.
type Deps struct {
	Index               *catalog.Index
	Loader              port.CatalogLoader
	Availability        port.AvailabilityChecker
	AvailabilityEmitter port.AvailabilityEmitter
	AvailabilityProc    port.AvailabilityProcessor
	States              port.StateStore
	Auth                port.Authenticator
	Orders              port.OrderPlacer
	Categories          []domain.Category
	RefreshInterval     time.Duration
}

type Service struct {
	index           *catalog.Index
	loader          port.CatalogLoader
	availability    port.AvailabilityChecker
	availEmitter    port.AvailabilityEmitter
	availProc       port.AvailabilityProcessor
	states          port.StateStore
	auth            port.Authenticator
	orders          port.OrderPlacer
	categories      []domain.Category
	refreshInterval time.Duration

	// last received catalog before availability filtering
	received *atomic.Pointer[[]domain.Product]
	// serializes index replacement with the received catalog update
	catalogMu *sync.Mutex
	sessions  *sessionLocks
}

func New(d Deps) Service {
	const op = "service.New"

	if d.Index == nil || d.Availability == nil || d.AvailabilityEmitter == nil ||
		d.States == nil || d.Auth == nil || d.Orders == nil {
		panic(fmt.Errorf("%s: missing dependency", op)) // develop mistake
	}

	categories := d.Categories
	if categories == nil {
		categories = domain.DefaultCategories
	}

	return Service{
		index:           d.Index,
		loader:          d.Loader,
		availability:    d.Availability,
		availEmitter:    d.AvailabilityEmitter,
		availProc:       d.AvailabilityProc,
		states:          d.States,
		auth:            d.Auth,
		orders:          d.Orders,
		categories:      categories,
		refreshInterval: d.RefreshInterval,
		received:        new(atomic.Pointer[[]domain.Product]),
		catalogMu:       new(sync.Mutex),
		sessions:        newSessionLocks(),
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.availProc != nil {
		var wg sync.WaitGroup
		wg.Add(1)
		go s.availProc.Run(ctx, stopFn, &wg)
		wg.Wait()
	}

	if s.refreshInterval > 0 {
		go s.runRefresher(ctx)
	}
}

func (s Service) Close() {
	if s.availProc != nil {
		s.availProc.Close()
	}
}

// RefreshCatalog reloads the catalog from the loader. Without a loader it
// reapplies availability to the last received catalog.
func (s Service) RefreshCatalog(ctx context.Context) error {
	const op = "Service.RefreshCatalog"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.loader == nil {
		s.catalogMu.Lock()
		defer s.catalogMu.Unlock()

		received := s.received.Load()
		if received == nil {
			return nil
		}
		if err := s.replace(*received); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	ps, err := s.loader.LoadProducts(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.SaveProducts(ctx, ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) runRefresher(ctx context.Context) {
	const op = "Service.runRefresher"
	log := slog.With("op", op)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.RefreshCatalog(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to refresh catalog", "err", err)
				continue
			}
			log.Debug("catalog refreshed", "nProducts", s.index.Len())
		}
	}
}

// SaveProducts replaces the whole catalog. Unavailable products are left
// out.
func (s Service) SaveProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if err := s.replace(ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	received := slices.Clone(ps)
	s.received.Store(&received)
	return nil
}

func (s Service) replace(ps []domain.Product) error {
	const op = "Service.replace"
	log := slog.With("op", op)

	available := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if s.availability.IsAvailable(p.ID) {
			available = append(available, p)
		}
	}

	if err := s.index.Replace(available); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info(
		"catalog replaced",
		"nProducts", len(available),
		"nUnavailable", len(ps)-len(available),
	)
	return nil
}

func (s Service) SetAvailability(
	ctx context.Context, a domain.ProductAvailability,
) error {
	const op = "Service.SetAvailability"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.availEmitter.EmitAvailability(ctx, a); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Browse composes search, category, price and sort over one catalog
// snapshot.
func (s Service) Browse(
	ctx context.Context, q domain.BrowseQuery,
) ([]domain.Product, error) {
	const op = "Service.Browse"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := s.index.Snapshot().Search(q.Text)

	if q.CategoryID != 0 {
		c, err := domain.CategoryByID(s.categories, q.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = catalog.FilterByCategory(ps, c.Name)
	}

	if q.MinPrice > 0 || q.MaxPrice > 0 {
		maxPrice := q.MaxPrice
		if maxPrice <= 0 {
			maxPrice = catalog.NoPriceCeiling
		}
		ps = catalog.FilterByPriceRange(ps, q.MinPrice, maxPrice)
	}

	if field, asc, ok := q.Sort.Order(); ok {
		ps = catalog.Sort(ps, field, asc)
	}
	return ps, nil
}

func (s Service) Product(ctx context.Context, id int64) (domain.Product, error) {
	const op = "Service.Product"

	p, ok := s.index.Product(id)
	if !ok {
		return domain.Product{}, fmt.Errorf(
			"%s: %w: %d", op, domain.ErrProductNotFound, id,
		)
	}
	return p, nil
}

func (s Service) Featured(context.Context) []domain.Product {
	return s.index.Featured()
}

func (s Service) Suggest(_ context.Context, prefix string, limit int) []string {
	return s.index.Suggest(prefix, limit)
}

func (s Service) Categories(context.Context) []domain.Category {
	return s.categories
}

func (s Service) ProductsByCategory(
	ctx context.Context, id int,
) ([]domain.Product, error) {
	const op = "Service.ProductsByCategory"

	c, err := domain.CategoryByID(s.categories, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %d", op, err, id)
	}
	return s.index.FilterByCategory(c.Name), nil
}
