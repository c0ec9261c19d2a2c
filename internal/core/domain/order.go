package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidCheckout    = errors.New("invalid checkout form")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRejected is returned when the backend refuses a well-formed request.
	ErrRejected = errors.New("request rejected")
)

var (
	phoneRe   = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

var PaymentMethods = []string{"cod", "card", "upi", "netbanking"}

type (
	Credentials struct {
		Email    string
		Password string
	}

	Registration struct {
		Email     string
		Password  string
		FirstName string
		LastName  string
		Phone     string
	}

	AuthSession struct {
		Token string
		User  User
	}

	CheckoutForm struct {
		FullName      string
		Phone         string
		Address       string
		City          string
		Pincode       string
		PaymentMethod string
		CouponCode    string
		Notes         string
	}

	OrderRequest struct {
		ProductIDs      []int64
		ShippingAddress string
		PaymentMethod   string
		CouponCode      string
		Notes           string
	}

	OrderReceipt struct {
		OrderID     int64
		OrderNumber string
		Status      string
		Total       int64
	}
)

// Validate reports every invalid field at once.
func (f CheckoutForm) Validate() error {
	var errs []error
	field := func(name, msg string) {
		errs = append(errs, fmt.Errorf("%w: %s %s", ErrInvalidCheckout, name, msg))
	}

	if strings.TrimSpace(f.FullName) == "" {
		field("full name", "is required")
	}
	if !phoneRe.MatchString(f.Phone) {
		field("phone", "must be a 10-digit mobile number")
	}
	if strings.TrimSpace(f.Address) == "" {
		field("address", "is required")
	}
	if strings.TrimSpace(f.City) == "" {
		field("city", "is required")
	}
	if !pincodeRe.MatchString(f.Pincode) {
		field("pincode", "must be 6 digits")
	}
	if !validPaymentMethod(f.PaymentMethod) {
		field("payment method", "is not supported")
	}
	return errors.Join(errs...)
}

// ShippingAddress joins the address lines the way the backend stores them.
func (f CheckoutForm) ShippingAddress() string {
	return fmt.Sprintf(
		"%s, %s, %s - %s, %s",
		strings.TrimSpace(f.FullName), strings.TrimSpace(f.Address),
		strings.TrimSpace(f.City), f.Pincode, f.Phone,
	)
}

// NewOrderRequest lists one product ID per unit in the cart.
func NewOrderRequest(cart []CartEntry, f CheckoutForm) OrderRequest {
	var ids []int64
	for _, e := range cart {
		for range e.Qty {
			ids = append(ids, e.ProductID)
		}
	}
	return OrderRequest{
		ProductIDs:      ids,
		ShippingAddress: f.ShippingAddress(),
		PaymentMethod:   f.PaymentMethod,
		CouponCode:      f.CouponCode,
		Notes:           f.Notes,
	}
}

func validPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type BrowseQuery struct {
	Text       string
	CategoryID int
	MinPrice   int64
	MaxPrice   int64
	Sort       SortOption
}
