package shopapi

import (
	"math"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/money"
)

type (
	productPage struct {
		Content       []productPayload `json:"content"`
		TotalElements int64            `json:"totalElements"`
	}

	categoryPayload struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	productPayload struct {
		ID              int64            `json:"id"`
		Name            string           `json:"name"`
		Brand           string           `json:"brand"`
		Price           float64          `json:"price"`
		ComparePrice    *float64         `json:"comparePrice"`
		OriginalPrice   *float64         `json:"originalPrice"`
		DiscountPercent *int             `json:"discountPercent"`
		Rating          float64          `json:"rating"`
		ReviewCount     int              `json:"reviewCount"`
		StockQuantity   int              `json:"stockQuantity"`
		Category        *categoryPayload `json:"category"`
		ImageURL        string           `json:"imageUrl"`
		Images          []string         `json:"images"`
		IsFeatured      bool             `json:"isFeatured"`
		IsActive        *bool            `json:"isActive"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	registerRequest struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}

	authResponse struct {
		AccessToken string `json:"accessToken"`
		UserID      int64  `json:"userId"`
		Email       string `json:"email"`
		FirstName   string `json:"firstName"`
		Role        string `json:"role"`
	}

	orderRequest struct {
		ProductIDs      []int64 `json:"productIds"`
		ShippingAddress string  `json:"shippingAddress"`
		PaymentMethod   string  `json:"paymentMethod"`
		CouponCode      string  `json:"couponCode,omitempty"`
		Notes           string  `json:"notes,omitempty"`
	}

	orderResponse struct {
		ID          int64   `json:"id"`
		OrderNumber string  `json:"orderNumber"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"totalAmount"`
	}
)

func (p productPayload) toDomain() (v domain.Product) {
	v.ID = p.ID
	v.Name = p.Name
	v.Brand = p.Brand
	v.Price = money.FromRupees(p.Price)
	v.Rating = p.Rating
	v.Reviews = p.ReviewCount
	v.Stock = p.StockQuantity
	v.Featured = p.IsFeatured

	switch {
	case p.OriginalPrice != nil:
		v.OriginalPrice = money.FromRupees(*p.OriginalPrice)
	case p.ComparePrice != nil:
		v.OriginalPrice = money.FromRupees(*p.ComparePrice)
	default:
		v.OriginalPrice = v.Price
	}

	if p.DiscountPercent != nil {
		v.Discount = *p.DiscountPercent
	} else if v.OriginalPrice > v.Price {
		off := float64(v.OriginalPrice-v.Price) / float64(v.OriginalPrice)
		v.Discount = int(math.Round(off * 100))
	}

	if p.Category != nil {
		v.Category = p.Category.Name
	}

	v.Image = p.ImageURL
	if v.Image == "" && len(p.Images) != 0 {
		v.Image = p.Images[0]
	}
	return v
}

func (r authResponse) toDomain() domain.AuthSession {
	return domain.AuthSession{
		Token: r.AccessToken,
		User: domain.User{
			ID:        r.UserID,
			Email:     r.Email,
			FirstName: r.FirstName,
			Role:      r.Role,
		},
	}
}

func (r orderResponse) toDomain() domain.OrderReceipt {
	return domain.OrderReceipt{
		OrderID:     r.ID,
		OrderNumber: r.OrderNumber,
		Status:      r.Status,
		Total:       money.FromRupees(r.TotalAmount),
	}
}
