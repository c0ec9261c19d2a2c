package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/shopwave/internal/core/catalog"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitAvailability(
	ctx context.Context, a domain.ProductAvailability,
) error {
	return m.Called(ctx, a).Error(0)
}

type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Login(
	ctx context.Context, c domain.Credentials,
) (domain.AuthSession, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.AuthSession), args.Error(1)
}

func (m *MockAuth) Register(
	ctx context.Context, r domain.Registration,
) (domain.AuthSession, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.AuthSession), args.Error(1)
}

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) PlaceOrder(
	ctx context.Context, token string, req domain.OrderRequest,
) (domain.OrderReceipt, error) {
	args := m.Called(ctx, token, req)
	return args.Get(0).(domain.OrderReceipt), args.Error(1)
}

type fakeAvailability struct {
	mu       sync.Mutex
	inactive map[int64]bool
	onCheck  func(id int64)
}

func (f *fakeAvailability) IsAvailable(id int64) bool {
	f.mu.Lock()
	onCheck := f.onCheck
	inactive := f.inactive[id]
	f.mu.Unlock()

	if onCheck != nil {
		onCheck(id)
	}
	return !inactive
}

func (f *fakeAvailability) setOnCheck(fn func(id int64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCheck = fn
}

func (f *fakeAvailability) set(id int64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inactive == nil {
		f.inactive = make(map[int64]bool)
	}
	f.inactive[id] = !active
}

type memStates struct {
	mu     sync.Mutex
	states map[string]domain.AppState
}

func (m *memStates) LoadState(
	_ context.Context, sessionID string,
) (domain.AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[sessionID], nil
}

func (m *memStates) SaveState(
	_ context.Context, sessionID string, s domain.AppState,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[string]domain.AppState)
	}
	m.states[sessionID] = s
	return nil
}

type fixture struct {
	svc          service.Service
	index        *catalog.Index
	loader       *MockLoader
	emitter      *MockEmitter
	auth         *MockAuth
	orders       *MockOrders
	availability *fakeAvailability
	states       *memStates
}

func newFixture(t *testing.T, withLoader bool) fixture {
	t.Helper()
	f := fixture{
		index:        catalog.NewIndex(),
		loader:       new(MockLoader),
		emitter:      new(MockEmitter),
		auth:         new(MockAuth),
		orders:       new(MockOrders),
		availability: new(fakeAvailability),
		states:       new(memStates),
	}
	deps := service.Deps{
		Index:               f.index,
		Availability:        f.availability,
		AvailabilityEmitter: f.emitter,
		States:              f.states,
		Auth:                f.auth,
		Orders:              f.orders,
	}
	if withLoader {
		deps.Loader = f.loader
	}
	f.svc = service.New(deps)
	return f
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Apple MacBook Pro", Brand: "Apple", Price: 249990_00, Discount: 17, Rating: 4.8, Stock: 5, Category: "Electronics", Featured: true},
		{ID: 2, Name: "Nike Air Max 720", Brand: "Nike", Price: 14995_00, Discount: 25, Rating: 4.5, Stock: 34, Category: "Fashion", Featured: true},
		{ID: 3, Name: "Sony WH-1000XM5", Brand: "Sony", Price: 29990_00, Discount: 25, Rating: 4.6, Stock: 2, Category: "Electronics"},
		{ID: 4, Name: "Atomic Habits", Brand: "Penguin Books", Price: 399_00, Discount: 50, Rating: 4.9, Stock: 456, Category: "Books"},
	}
}

func ids(ps []domain.Product) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestNewMissingDeps(t *testing.T) {
	assert.Panics(t, func() {
		service.New(service.Deps{Index: catalog.NewIndex()})
	})
}

func TestSaveProducts(t *testing.T) {
	t.Run("SkipsUnavailable", func(t *testing.T) {
		f := newFixture(t, false)
		f.availability.set(3, false)

		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))
		assert.Equal(t, 3, f.index.Len())
		_, ok := f.index.Product(3)
		assert.False(t, ok)
		assert.Empty(t, f.index.Suggest("sony", 8))
	})

	t.Run("DuplicateKeepsCatalog", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))

		err := f.svc.SaveProducts(t.Context(), []domain.Product{{ID: 7}, {ID: 7}})
		assert.ErrorIs(t, err, domain.ErrDuplicateProductID)
		assert.Equal(t, 4, f.index.Len())
	})

	t.Run("CanceledContext", func(t *testing.T) {
		f := newFixture(t, false)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		assert.ErrorIs(t, f.svc.SaveProducts(ctx, testProducts()), context.Canceled)
	})
}

func TestRefreshCatalog(t *testing.T) {
	t.Run("FromLoader", func(t *testing.T) {
		f := newFixture(t, true)
		f.loader.On("LoadProducts", mock.Anything).Return(testProducts(), nil).Once()

		require.NoError(t, f.svc.RefreshCatalog(t.Context()))
		assert.Equal(t, 4, f.index.Len())
		f.loader.AssertExpectations(t)
	})

	t.Run("LoaderErrorKeepsCatalog", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))

		loadErr := errors.New("backend down")
		f.loader.On("LoadProducts", mock.Anything).Return(nil, loadErr).Once()

		assert.ErrorIs(t, f.svc.RefreshCatalog(t.Context()), loadErr)
		assert.Equal(t, 4, f.index.Len())
	})

	t.Run("ReappliesAvailabilityWithoutLoader", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.svc.RefreshCatalog(t.Context()))
		assert.Zero(t, f.index.Len())

		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))
		f.availability.set(1, false)
		require.NoError(t, f.svc.RefreshCatalog(t.Context()))
		assert.Equal(t, []int64{2, 3, 4}, ids(f.index.Products()))

		f.availability.set(1, true)
		require.NoError(t, f.svc.RefreshCatalog(t.Context()))
		assert.Equal(t, []int64{1, 2, 3, 4}, ids(f.index.Products()))
	})

	t.Run("DoesNotRestoreOlderCatalog", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))

		var once sync.Once
		entered := make(chan struct{})
		release := make(chan struct{})
		f.availability.setOnCheck(func(int64) {
			once.Do(func() {
				close(entered)
				<-release
			})
		})

		refreshed := make(chan error, 1)
		go func() { refreshed <- f.svc.RefreshCatalog(t.Context()) }()
		<-entered

		newer := []domain.Product{
			{ID: 10, Name: "Puma Suede", Brand: "Puma", Price: 5999_00, Stock: 9, Category: "Fashion"},
		}
		saved := make(chan error, 1)
		go func() { saved <- f.svc.SaveProducts(t.Context(), newer) }()

		time.Sleep(20 * time.Millisecond)
		close(release)

		require.NoError(t, <-refreshed)
		require.NoError(t, <-saved)

		assert.Equal(t, []int64{10}, ids(f.index.Products()))
		assert.Empty(t, f.svc.Suggest(t.Context(), "nike", 8))
		assert.Contains(t, f.svc.Suggest(t.Context(), "puma", 8), "puma suede")
	})
}

func TestSetAvailability(t *testing.T) {
	f := newFixture(t, false)
	a := domain.ProductAvailability{ProductID: 3, Active: false}
	f.emitter.On("EmitAvailability", mock.Anything, a).Return(nil).Once()

	require.NoError(t, f.svc.SetAvailability(t.Context(), a))
	f.emitter.AssertExpectations(t)
}

func TestBrowse(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))

	cases := []struct {
		name string
		q    domain.BrowseQuery
		want []int64
	}{
		{"All", domain.BrowseQuery{}, []int64{1, 2, 3, 4}},
		{"Text", domain.BrowseQuery{Text: "apple"}, []int64{1}},
		{"Category", domain.BrowseQuery{CategoryID: 1}, []int64{1, 3}},
		{"PriceCeiling", domain.BrowseQuery{MaxPrice: 30000_00}, []int64{4, 2, 3}},
		{"PriceFloor", domain.BrowseQuery{MinPrice: 20000_00}, []int64{3, 1}},
		{"SortRating", domain.BrowseQuery{Sort: domain.SortRating}, []int64{4, 1, 3, 2}},
		{"DiscountStable", domain.BrowseQuery{Sort: domain.SortDiscount}, []int64{4, 2, 3, 1}},
		{"UnknownSort", domain.BrowseQuery{Sort: "newest"}, []int64{1, 2, 3, 4}},
		{
			"Composed",
			domain.BrowseQuery{CategoryID: 1, MaxPrice: 300000_00, Sort: domain.SortPriceDesc},
			[]int64{1, 3},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := f.svc.Browse(t.Context(), c.q)
			require.NoError(t, err)
			assert.Equal(t, c.want, ids(got))
		})
	}

	t.Run("UnknownCategory", func(t *testing.T) {
		_, err := f.svc.Browse(t.Context(), domain.BrowseQuery{CategoryID: 42})
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})
}

func TestCatalogQueries(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))

	p, err := f.svc.Product(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Nike Air Max 720", p.Name)

	_, err = f.svc.Product(t.Context(), 99)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, []int64{1, 2}, ids(f.svc.Featured(t.Context())))
	assert.Equal(t, []string{"nike", "nike air max 720"}, f.svc.Suggest(t.Context(), "ni", 8))
	assert.Equal(t, domain.DefaultCategories, f.svc.Categories(t.Context()))

	books, err := f.svc.ProductsByCategory(t.Context(), 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(books))

	_, err = f.svc.ProductsByCategory(t.Context(), 0)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCart(t *testing.T) {
	const sid = "session-1"

	f := newFixture(t, false)
	require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))
	ctx := t.Context()

	v, err := f.svc.AddToCart(ctx, sid, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Count)
	assert.Equal(t, domain.CartTotals{
		Subtotal: 399_00,
		Shipping: 49_00,
		Discount: 20_00,
		Total:    428_00,
	}, v.Totals)

	v, err = f.svc.AddToCart(ctx, sid, 3, 5)
	require.NoError(t, err)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, 2, v.Lines[1].Qty, "capped at stock")

	v, err = f.svc.UpdateCartQty(ctx, sid, 3, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Lines[1].Qty)

	_, err = f.svc.AddToCart(ctx, sid, 99, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.svc.AddToCart(ctx, sid, 4, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	v, err = f.svc.RemoveFromCart(ctx, sid, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, []int64{v.Lines[0].Product.ID})

	_, err = f.svc.RemoveFromCart(ctx, sid, 4)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	got, err := f.svc.Cart(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	other, err := f.svc.Cart(ctx, "session-2")
	require.NoError(t, err)
	assert.Empty(t, other.Lines)
}

func TestWishlist(t *testing.T) {
	const sid = "session-1"

	f := newFixture(t, false)
	require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))
	ctx := t.Context()

	added, err := f.svc.ToggleWishlist(ctx, sid, 2)
	require.NoError(t, err)
	assert.True(t, added)

	_, err = f.svc.ToggleWishlist(ctx, sid, 99)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	ps, err := f.svc.Wishlist(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(ps))

	added, err = f.svc.ToggleWishlist(ctx, sid, 2)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestAccount(t *testing.T) {
	const sid = "session-1"
	creds := domain.Credentials{Email: "asha@example.com", Password: "secret1"}
	user := domain.User{ID: 7, Email: creds.Email, FirstName: "Asha", Role: "CUSTOMER"}

	t.Run("LoginLogout", func(t *testing.T) {
		f := newFixture(t, false)
		f.auth.On("Login", mock.Anything, creds).
			Return(domain.AuthSession{Token: "jwt", User: user}, nil).Once()

		got, err := f.svc.Login(t.Context(), sid, creds)
		require.NoError(t, err)
		assert.Equal(t, user, got)

		state := f.states.states[sid]
		assert.Equal(t, "jwt", state.AuthToken)
		require.NotNil(t, state.User)

		require.NoError(t, f.svc.Logout(t.Context(), sid))
		assert.False(t, f.states.states[sid].Authenticated())
	})

	t.Run("LoginRejected", func(t *testing.T) {
		f := newFixture(t, false)
		authErr := errors.New("bad credentials")
		f.auth.On("Login", mock.Anything, creds).
			Return(domain.AuthSession{}, authErr).Once()

		_, err := f.svc.Login(t.Context(), sid, creds)
		assert.ErrorIs(t, err, authErr)
		assert.False(t, f.states.states[sid].Authenticated())
	})

	t.Run("Register", func(t *testing.T) {
		f := newFixture(t, false)
		reg := domain.Registration{Email: creds.Email, Password: "secret1", FirstName: "Asha"}
		f.auth.On("Register", mock.Anything, reg).
			Return(domain.AuthSession{Token: "jwt", User: user}, nil).Once()

		got, err := f.svc.Register(t.Context(), sid, reg)
		require.NoError(t, err)
		assert.Equal(t, user, got)
		assert.True(t, f.states.states[sid].Authenticated())
	})
}

func checkoutForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		FullName:      "Asha Rao",
		Phone:         "9876543210",
		Address:       "12 MG Road",
		City:          "Bengaluru",
		Pincode:       "560001",
		PaymentMethod: "cod",
	}
}

func TestCheckout(t *testing.T) {
	const sid = "session-1"

	setup := func(t *testing.T, signedIn, withCart bool) fixture {
		f := newFixture(t, false)
		require.NoError(t, f.svc.SaveProducts(t.Context(), testProducts()))
		var st domain.AppState
		if signedIn {
			st.SignIn("jwt", domain.User{ID: 7})
		}
		if withCart {
			st.Cart = []domain.CartEntry{{ProductID: 4, Qty: 2}}
		}
		require.NoError(t, f.states.SaveState(t.Context(), sid, st))
		return f
	}

	t.Run("Unauthenticated", func(t *testing.T) {
		f := setup(t, false, true)
		_, err := f.svc.Checkout(t.Context(), sid, checkoutForm())
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := setup(t, true, false)
		_, err := f.svc.Checkout(t.Context(), sid, checkoutForm())
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("InvalidForm", func(t *testing.T) {
		f := setup(t, true, true)
		_, err := f.svc.Checkout(t.Context(), sid, domain.CheckoutForm{})
		assert.ErrorIs(t, err, domain.ErrInvalidCheckout)
		f.orders.AssertNotCalled(t, "PlaceOrder")
	})

	t.Run("PlacesOrderAndClearsCart", func(t *testing.T) {
		f := setup(t, true, true)
		form := checkoutForm()
		receipt := domain.OrderReceipt{OrderID: 1, OrderNumber: "SW-1", Status: "PENDING"}
		f.orders.On(
			"PlaceOrder", mock.Anything, "jwt", domain.NewOrderRequest(
				[]domain.CartEntry{{ProductID: 4, Qty: 2}}, form,
			),
		).Return(receipt, nil).Once()

		got, err := f.svc.Checkout(t.Context(), sid, form)
		require.NoError(t, err)
		assert.Equal(t, receipt, got)
		assert.Empty(t, f.states.states[sid].Cart)
		f.orders.AssertExpectations(t)
	})

	t.Run("BackendErrorKeepsCart", func(t *testing.T) {
		f := setup(t, true, true)
		orderErr := errors.New("orders unavailable")
		f.orders.On("PlaceOrder", mock.Anything, "jwt", mock.Anything).
			Return(domain.OrderReceipt{}, orderErr).Once()

		_, err := f.svc.Checkout(t.Context(), sid, checkoutForm())
		assert.ErrorIs(t, err, orderErr)
		assert.Len(t, f.states.states[sid].Cart, 1)
	})
}
