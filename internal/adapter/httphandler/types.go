package httphandler

import (
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/money"
)

// Prices are paise; *_display fields are formatted rupees.
type (
	Product struct {
		ID                   int64   `json:"id"`
		Name                 string  `json:"name"`
		Brand                string  `json:"brand"`
		Price                int64   `json:"price"`
		PriceDisplay         string  `json:"price_display,omitempty"`
		OriginalPrice        int64   `json:"original_price"`
		OriginalPriceDisplay string  `json:"original_price_display,omitempty"`
		Discount             int     `json:"discount"`
		Rating               float64 `json:"rating"`
		Reviews              int     `json:"reviews"`
		Stock                int     `json:"stock"`
		Category             string  `json:"category"`
		Badge                string  `json:"badge,omitempty"`
		Image                string  `json:"image"`
		Featured             bool    `json:"featured"`
	}

	ProductList struct {
		Total    int       `json:"total"`
		Products []Product `json:"products"`
	}

	Category struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Count int    `json:"count"`
	}

	Suggestions struct {
		Prefix      string   `json:"prefix"`
		Suggestions []string `json:"suggestions"`
	}

	Availability struct {
		Active bool `json:"active"`
	}

	CatalogReplaced struct {
		Products int `json:"products"`
	}
)

type (
	CartItemRequest struct {
		ProductID int64 `json:"product_id"`
		Qty       int   `json:"qty"`
	}

	CartQtyRequest struct {
		Delta int `json:"delta"`
	}

	CartLine struct {
		Product       Product `json:"product"`
		Qty           int     `json:"qty"`
		Amount        int64   `json:"amount"`
		AmountDisplay string  `json:"amount_display"`
	}

	CartTotals struct {
		Subtotal        int64  `json:"subtotal"`
		Shipping        int64  `json:"shipping"`
		Discount        int64  `json:"discount"`
		Total           int64  `json:"total"`
		SubtotalDisplay string `json:"subtotal_display"`
		ShippingDisplay string `json:"shipping_display"`
		DiscountDisplay string `json:"discount_display"`
		TotalDisplay    string `json:"total_display"`
	}

	Cart struct {
		Lines  []CartLine `json:"lines"`
		Count  int        `json:"count"`
		Totals CartTotals `json:"totals"`
	}

	WishlistToggled struct {
		ProductID  int64 `json:"product_id"`
		InWishlist bool  `json:"in_wishlist"`
	}
)

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	RegisterRequest struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}

	User struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		Role      string `json:"role,omitempty"`
	}

	CheckoutRequest struct {
		FullName      string `json:"full_name"`
		Phone         string `json:"phone"`
		Address       string `json:"address"`
		City          string `json:"city"`
		Pincode       string `json:"pincode"`
		PaymentMethod string `json:"payment_method"`
		CouponCode    string `json:"coupon_code"`
		Notes         string `json:"notes"`
	}

	OrderReceipt struct {
		OrderID      int64  `json:"order_id"`
		OrderNumber  string `json:"order_number"`
		Status       string `json:"status"`
		Total        int64  `json:"total"`
		TotalDisplay string `json:"total_display"`
	}

	ErrorResponse struct {
		Error   string   `json:"error"`
		Details []string `json:"details,omitempty"`
	}
)

func toProduct(p domain.Product) Product {
	return Product{
		ID:                   p.ID,
		Name:                 p.Name,
		Brand:                p.Brand,
		Price:                p.Price,
		PriceDisplay:         money.FormatINR(p.Price),
		OriginalPrice:        p.OriginalPrice,
		OriginalPriceDisplay: money.FormatINR(p.OriginalPrice),
		Discount:             p.Discount,
		Rating:               p.Rating,
		Reviews:              p.Reviews,
		Stock:                p.Stock,
		Category:             p.Category,
		Badge:                p.Badge,
		Image:                p.Image,
		Featured:             p.Featured,
	}
}

func toProducts(ps []domain.Product) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProduct(p))
	}
	return out
}

func toProductList(ps []domain.Product) ProductList {
	return ProductList{Total: len(ps), Products: toProducts(ps)}
}

func (p Product) toDomain() domain.Product {
	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Stock:         p.Stock,
		Category:      p.Category,
		Badge:         p.Badge,
		Image:         p.Image,
		Featured:      p.Featured,
	}
}

func toCategories(cs []domain.Category) []Category {
	out := make([]Category, 0, len(cs))
	for _, c := range cs {
		out = append(out, Category{ID: c.ID, Name: c.Name, Icon: c.Icon, Count: c.Count})
	}
	return out
}

func toCart(v domain.CartView) Cart {
	c := Cart{
		Lines: make([]CartLine, 0, len(v.Lines)),
		Count: v.Count,
		Totals: CartTotals{
			Subtotal:        v.Totals.Subtotal,
			Shipping:        v.Totals.Shipping,
			Discount:        v.Totals.Discount,
			Total:           v.Totals.Total,
			SubtotalDisplay: money.FormatINR(v.Totals.Subtotal),
			ShippingDisplay: money.FormatINR(v.Totals.Shipping),
			DiscountDisplay: money.FormatINR(v.Totals.Discount),
			TotalDisplay:    money.FormatINR(v.Totals.Total),
		},
	}
	for _, l := range v.Lines {
		c.Lines = append(c.Lines, CartLine{
			Product:       toProduct(l.Product),
			Qty:           l.Qty,
			Amount:        l.Amount,
			AmountDisplay: money.FormatINR(l.Amount),
		})
	}
	return c
}

func toUser(u domain.User) User {
	return User{ID: u.ID, Email: u.Email, FirstName: u.FirstName, Role: u.Role}
}

func (r CheckoutRequest) toDomain() domain.CheckoutForm {
	return domain.CheckoutForm{
		FullName:      r.FullName,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		Pincode:       r.Pincode,
		PaymentMethod: r.PaymentMethod,
		CouponCode:    r.CouponCode,
		Notes:         r.Notes,
	}
}

func toReceipt(o domain.OrderReceipt) OrderReceipt {
	return OrderReceipt{
		OrderID:      o.OrderID,
		OrderNumber:  o.OrderNumber,
		Status:       o.Status,
		Total:        o.Total,
		TotalDisplay: money.FormatINR(o.Total),
	}
}
