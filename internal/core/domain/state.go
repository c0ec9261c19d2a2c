package domain

import (
	"errors"
	"slices"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidSession  = errors.New("invalid session id")
)

const (
	// Orders above this subtotal ship for free.
	FreeShippingThreshold int64 = 499_00
	ShippingFee           int64 = 49_00
	CartDiscountPercent   int64 = 5

	paisePerRupee int64 = 100
)

type (
	CartEntry struct {
		ProductID int64
		Qty       int
	}

	User struct {
		ID        int64
		Email     string
		FirstName string
		Role      string
	}

	// AppState is everything a storefront session keeps between requests.
	AppState struct {
		Cart      []CartEntry
		Wishlist  []int64
		AuthToken string
		User      *User
	}
)

// AddToCart adds qty of p, capping the line at the product stock.
func (s *AppState) AddToCart(p Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if p.Stock < 1 {
		return ErrOutOfStock
	}

	if i := s.cartIndex(p.ID); i >= 0 {
		s.Cart[i].Qty = min(s.Cart[i].Qty+qty, p.Stock)
		return nil
	}
	s.Cart = append(s.Cart, CartEntry{ProductID: p.ID, Qty: min(qty, p.Stock)})
	return nil
}

// RemoveFromCart reports whether the product was in the cart.
func (s *AppState) RemoveFromCart(productID int64) bool {
	n := len(s.Cart)
	s.Cart = slices.DeleteFunc(s.Cart, func(e CartEntry) bool {
		return e.ProductID == productID
	})
	return len(s.Cart) != n
}

// UpdateCartQty moves the line quantity by delta, kept within [1, stock].
func (s *AppState) UpdateCartQty(p Product, delta int) error {
	i := s.cartIndex(p.ID)
	if i < 0 {
		return ErrProductNotFound
	}
	s.Cart[i].Qty = max(1, min(s.Cart[i].Qty+delta, p.Stock))
	return nil
}

func (s AppState) CartCount() int {
	var n int
	for _, e := range s.Cart {
		n += e.Qty
	}
	return n
}

func (s AppState) InCart(productID int64) bool {
	return s.cartIndex(productID) >= 0
}

// ToggleWishlist reports whether the product is wishlisted afterwards.
func (s *AppState) ToggleWishlist(productID int64) bool {
	if i := slices.Index(s.Wishlist, productID); i >= 0 {
		s.Wishlist = slices.Delete(s.Wishlist, i, i+1)
		return false
	}
	s.Wishlist = append(s.Wishlist, productID)
	return true
}

func (s AppState) InWishlist(productID int64) bool {
	return slices.Contains(s.Wishlist, productID)
}

func (s AppState) Authenticated() bool {
	return s.AuthToken != ""
}

func (s *AppState) SignIn(token string, u User) {
	s.AuthToken = token
	s.User = &u
}

func (s *AppState) SignOut() {
	s.AuthToken = ""
	s.User = nil
}

func (s AppState) cartIndex(productID int64) int {
	return slices.IndexFunc(s.Cart, func(e CartEntry) bool {
		return e.ProductID == productID
	})
}

type (
	CartLine struct {
		Product Product
		Qty     int
		Amount  int64
	}

	CartTotals struct {
		Subtotal int64
		Shipping int64
		Discount int64
		Total    int64
	}

	CartView struct {
		Lines  []CartLine
		Count  int
		Totals CartTotals
	}
)

// NewCartView prices the cart against the current products. Entries whose
// product left the catalog are skipped.
func NewCartView(cart []CartEntry, lookup func(id int64) (Product, bool)) CartView {
	v := CartView{Lines: make([]CartLine, 0, len(cart))}
	for _, e := range cart {
		p, ok := lookup(e.ProductID)
		if !ok {
			continue
		}
		line := CartLine{Product: p, Qty: e.Qty, Amount: p.Price * int64(e.Qty)}
		v.Lines = append(v.Lines, line)
		v.Count += e.Qty
		v.Totals.Subtotal += line.Amount
	}
	v.Totals = ComputeTotals(v.Totals.Subtotal)
	return v
}

// ComputeTotals applies shipping and the cart discount to subtotal. The
// discount is rounded half up to whole rupees.
func ComputeTotals(subtotal int64) CartTotals {
	if subtotal == 0 {
		return CartTotals{}
	}

	shipping := ShippingFee
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}
	discount := discountRupees(subtotal) * paisePerRupee

	return CartTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal + shipping - discount,
	}
}

func discountRupees(subtotal int64) int64 {
	const scale = 100 * paisePerRupee
	return (subtotal*CartDiscountPercent + scale/2) / scale
}
