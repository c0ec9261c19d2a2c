package shopapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niksmo/shopwave/internal/adapter/shopapi"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsPage = `{
  "content": [
    {
      "id": 1, "name": "Sony WH-1000XM5 Headphones", "brand": "Sony",
      "price": 29990.00, "comparePrice": 39990.00, "rating": 4.6,
      "reviewCount": 3892, "stockQuantity": 23,
      "category": {"id": 1, "name": "Electronics"},
      "imageUrl": "", "images": ["https://cdn/xm5.png"],
      "isFeatured": true, "isActive": true
    },
    {
      "id": 2, "name": "Discontinued Kettle", "brand": "Acme",
      "price": 999.50, "stockQuantity": 0, "isActive": false
    },
    {
      "id": 3, "name": "Atomic Habits", "brand": "Penguin Books",
      "price": 399, "originalPrice": 799, "discountPercent": 50,
      "stockQuantity": 456, "category": {"id": 6, "name": "Books"}
    }
  ],
  "totalElements": 3
}`

func fastRetry() shopapi.Opt {
	return shopapi.WithRetry(retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ConstantBackoff(time.Millisecond),
	})
}

func TestLoadProducts(t *testing.T) {
	t.Run("MapsPage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/products", r.URL.Path)
				assert.Equal(t, "0", r.URL.Query().Get("page"))
				assert.Equal(t, "20", r.URL.Query().Get("size"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(productsPage))
			},
		))
		defer srv.Close()

		c := shopapi.NewClient(srv.URL+"/api/", shopapi.WithPageSize(20))
		ps, err := c.LoadProducts(t.Context())
		require.NoError(t, err)
		require.Len(t, ps, 2)

		assert.Equal(t, domain.Product{
			ID: 1, Name: "Sony WH-1000XM5 Headphones", Brand: "Sony",
			Price: 29_990_00, OriginalPrice: 39_990_00, Discount: 25,
			Rating: 4.6, Reviews: 3892, Stock: 23, Category: "Electronics",
			Image: "https://cdn/xm5.png", Featured: true,
		}, ps[0])

		assert.Equal(t, int64(3), ps[1].ID)
		assert.Equal(t, int64(399_00), ps[1].Price)
		assert.Equal(t, int64(799_00), ps[1].OriginalPrice)
		assert.Equal(t, 50, ps[1].Discount)
		assert.Equal(t, "Books", ps[1].Category)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte(`{"content": []}`))
			},
		))
		defer srv.Close()

		c := shopapi.NewClient(srv.URL, fastRetry())
		ps, err := c.LoadProducts(t.Context())
		require.NoError(t, err)
		assert.Empty(t, ps)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("NoRetryOnClientError", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "bad page", http.StatusBadRequest)
			},
		))
		defer srv.Close()

		c := shopapi.NewClient(srv.URL, fastRetry())
		_, err := c.LoadProducts(t.Context())
		require.ErrorIs(t, err, shopapi.ErrUnexpectedStatus)
		assert.ErrorContains(t, err, "bad page")
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestAuth(t *testing.T) {
	newServer := func(t *testing.T) *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret1" {
				http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{
				"accessToken": "tok-1", "refreshToken": "r", "tokenType": "Bearer",
				"userId": 7, "email": "asha@example.com", "firstName": "Asha",
				"role": "CUSTOMER"
			}`))
		})
		mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["email"] == "taken@example.com" {
				http.Error(w, `{"message":"Email already registered"}`, http.StatusConflict)
				return
			}
			assert.Equal(t, "Ravi", body["firstName"])
			assert.Equal(t, "9876543210", body["phone"])
			_, _ = w.Write([]byte(`{"accessToken": "tok-2", "userId": 8, "email": "ravi@example.com", "firstName": "Ravi"}`))
		})
		return httptest.NewServer(mux)
	}

	srv := newServer(t)
	defer srv.Close()
	c := shopapi.NewClient(srv.URL)

	t.Run("Login", func(t *testing.T) {
		s, err := c.Login(t.Context(), domain.Credentials{
			Email: "asha@example.com", Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", s.Token)
		assert.Equal(t, domain.User{
			ID: 7, Email: "asha@example.com", FirstName: "Asha", Role: "CUSTOMER",
		}, s.User)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		_, err := c.Login(t.Context(), domain.Credentials{
			Email: "asha@example.com", Password: "nope",
		})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Register", func(t *testing.T) {
		s, err := c.Register(t.Context(), domain.Registration{
			Email: "ravi@example.com", Password: "secret1",
			FirstName: "Ravi", Phone: "9876543210",
		})
		require.NoError(t, err)
		assert.Equal(t, "tok-2", s.Token)
		assert.Equal(t, int64(8), s.User.ID)
	})

	t.Run("RegisterConflict", func(t *testing.T) {
		_, err := c.Register(t.Context(), domain.Registration{
			Email: "taken@example.com", Password: "secret1", FirstName: "Ravi",
		})
		require.ErrorIs(t, err, domain.ErrRejected)
		assert.ErrorContains(t, err, "Email already registered")
	})
}

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/orders", r.URL.Path)
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			var body struct {
				ProductIDs      []int64 `json:"productIds"`
				ShippingAddress string  `json:"shippingAddress"`
				PaymentMethod   string  `json:"paymentMethod"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []int64{3, 3, 4}, body.ProductIDs)
			assert.Equal(t, "upi", body.PaymentMethod)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 55, "orderNumber": "SW-2024-0055", "status": "PENDING", "totalAmount": 1234.5}`))
		},
	))
	defer srv.Close()

	c := shopapi.NewClient(srv.URL)
	req := domain.OrderRequest{
		ProductIDs:      []int64{3, 3, 4},
		ShippingAddress: "Asha, 1 MG Road, Pune - 411001, 9876543210",
		PaymentMethod:   "upi",
	}

	t.Run("Placed", func(t *testing.T) {
		got, err := c.PlaceOrder(t.Context(), "tok-1", req)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderReceipt{
			OrderID: 55, OrderNumber: "SW-2024-0055",
			Status: "PENDING", Total: 1234_50,
		}, got)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		_, err := c.PlaceOrder(t.Context(), "stale", req)
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
