package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/shopwave/internal/core/domain"
)

// sessionLocks serializes load-modify-save cycles of one session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(sessionID string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[sessionID]
	if !ok {
		sl = new(sessionLock)
		l.locks[sessionID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

func (s Service) loadState(
	ctx context.Context, sessionID string,
) (domain.AppState, error) {
	const op = "Service.loadState"

	if err := ctx.Err(); err != nil {
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}

	state, err := s.states.LoadState(ctx, sessionID)
	if err != nil {
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

// updateState applies fn to the session state and saves it when fn
// succeeds.
func (s Service) updateState(
	ctx context.Context, sessionID string, fn func(*domain.AppState) error,
) (domain.AppState, error) {
	const op = "Service.updateState"

	unlock := s.sessions.lock(sessionID)
	defer unlock()

	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(&state); err != nil {
		return domain.AppState{}, err
	}

	if err := s.states.SaveState(ctx, sessionID, state); err != nil {
		return domain.AppState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s Service) cartView(state domain.AppState) domain.CartView {
	snap := s.index.Snapshot()
	return domain.NewCartView(state.Cart, snap.Product)
}

func (s Service) Cart(
	ctx context.Context, sessionID string,
) (domain.CartView, error) {
	const op = "Service.Cart"

	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.cartView(state), nil
}

func (s Service) AddToCart(
	ctx context.Context, sessionID string, productID int64, qty int,
) (domain.CartView, error) {
	const op = "Service.AddToCart"

	state, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		p, err := s.Product(ctx, productID)
		if err != nil {
			return err
		}
		return st.AddToCart(p, qty)
	})
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.cartView(state), nil
}

func (s Service) UpdateCartQty(
	ctx context.Context, sessionID string, productID int64, delta int,
) (domain.CartView, error) {
	const op = "Service.UpdateCartQty"

	state, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		p, err := s.Product(ctx, productID)
		if err != nil {
			return err
		}
		return st.UpdateCartQty(p, delta)
	})
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.cartView(state), nil
}

func (s Service) RemoveFromCart(
	ctx context.Context, sessionID string, productID int64,
) (domain.CartView, error) {
	const op = "Service.RemoveFromCart"

	state, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		if !st.RemoveFromCart(productID) {
			return fmt.Errorf("%w: %d", domain.ErrProductNotFound, productID)
		}
		return nil
	})
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.cartView(state), nil
}

// Wishlist lists wishlisted products still in the catalog.
func (s Service) Wishlist(
	ctx context.Context, sessionID string,
) ([]domain.Product, error) {
	const op = "Service.Wishlist"

	state, err := s.loadState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap := s.index.Snapshot()
	ps := make([]domain.Product, 0, len(state.Wishlist))
	for _, id := range state.Wishlist {
		if p, ok := snap.Product(id); ok {
			ps = append(ps, p)
		}
	}
	return ps, nil
}

func (s Service) ToggleWishlist(
	ctx context.Context, sessionID string, productID int64,
) (bool, error) {
	const op = "Service.ToggleWishlist"

	var added bool
	_, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		if !st.InWishlist(productID) {
			if _, err := s.Product(ctx, productID); err != nil {
				return err
			}
		}
		added = st.ToggleWishlist(productID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return added, nil
}

func (s Service) Login(
	ctx context.Context, sessionID string, c domain.Credentials,
) (domain.User, error) {
	const op = "Service.Login"
	log := slog.With("op", op)

	auth, err := s.auth.Login(ctx, c)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.signIn(ctx, sessionID, auth); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("signed in", "userID", auth.User.ID)
	return auth.User, nil
}

func (s Service) Register(
	ctx context.Context, sessionID string, r domain.Registration,
) (domain.User, error) {
	const op = "Service.Register"
	log := slog.With("op", op)

	auth, err := s.auth.Register(ctx, r)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.signIn(ctx, sessionID, auth); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registered", "userID", auth.User.ID)
	return auth.User, nil
}

func (s Service) signIn(
	ctx context.Context, sessionID string, auth domain.AuthSession,
) error {
	_, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		st.SignIn(auth.Token, auth.User)
		return nil
	})
	return err
}

func (s Service) Logout(ctx context.Context, sessionID string) error {
	const op = "Service.Logout"

	_, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		st.SignOut()
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Checkout places an order for the session cart and empties the cart once
// the backend accepts it.
func (s Service) Checkout(
	ctx context.Context, sessionID string, f domain.CheckoutForm,
) (domain.OrderReceipt, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op)

	var receipt domain.OrderReceipt
	_, err := s.updateState(ctx, sessionID, func(st *domain.AppState) error {
		if !st.Authenticated() {
			return domain.ErrUnauthenticated
		}
		if len(st.Cart) == 0 {
			return domain.ErrEmptyCart
		}
		if err := f.Validate(); err != nil {
			return err
		}

		r, err := s.orders.PlaceOrder(
			ctx, st.AuthToken, domain.NewOrderRequest(st.Cart, f),
		)
		if err != nil {
			return err
		}

		receipt = r
		st.Cart = nil
		return nil
	})
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(
		"order placed",
		"orderNumber", receipt.OrderNumber,
		"status", receipt.Status,
	)
	return receipt, nil
}
