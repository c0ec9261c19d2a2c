package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
)

// Every route below requires the X-Session-ID header.
//
// GET v1/cart (200 OK)
// POST v1/cart/items JSON {"product_id", "qty"} (200 OK, 404 Not found, 409 Conflict)
// PATCH v1/cart/items/{id} JSON {"delta"} (200 OK, 404 Not found)
// DELETE v1/cart/items/{id} (200 OK, 404 Not found)
// GET v1/wishlist (200 OK)
// POST v1/wishlist/{id} (200 OK, 404 Not found)
// POST v1/auth/login JSON {"email", "password"} (200 OK, 401 Unauthorized)
// POST v1/auth/register JSON (201 Created, 422 Unprocessable entity)
// POST v1/auth/logout (204 No content)
// POST v1/checkout JSON (201 Created, 400 Bad request, 401 Unauthorized, 409 Conflict)

type SessionHandler struct {
	cart     port.CartManager
	wishlist port.WishlistManager
	account  port.AccountManager
	checkout port.CheckoutProcessor
}

// Storefront is everything a shopper session can do.
type Storefront interface {
	port.CartManager
	port.WishlistManager
	port.AccountManager
	port.CheckoutProcessor
}

func RegisterSession(mux *http.ServeMux, sf Storefront) {
	h := SessionHandler{sf, sf, sf, sf}

	handle := func(pattern string, hf http.HandlerFunc) {
		mux.Handle(pattern, RequireSession(AllowJSON(hf)))
	}

	handle("GET /v1/cart", h.GetCart)
	handle("POST /v1/cart/items", h.PostCartItem)
	handle("PATCH /v1/cart/items/{id}", h.PatchCartItem)
	handle("DELETE /v1/cart/items/{id}", h.DeleteCartItem)
	handle("GET /v1/wishlist", h.GetWishlist)
	handle("POST /v1/wishlist/{id}", h.PostWishlist)
	handle("POST /v1/auth/login", h.PostLogin)
	handle("POST /v1/auth/register", h.PostRegister)
	handle("POST /v1/auth/logout", h.PostLogout)
	handle("POST /v1/checkout", h.PostCheckout)
}

func (h SessionHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.GetCart"
	log := slog.With("op", op)

	v, err := h.cart.Cart(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(v))
}

func (h SessionHandler) PostCartItem(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostCartItem"
	log := slog.With("op", op)

	var req CartItemRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	v, err := h.cart.AddToCart(
		r.Context(), sessionID(r.Context()), req.ProductID, req.Qty,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(v))
}

func (h SessionHandler) PatchCartItem(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PatchCartItem"
	log := slog.With("op", op)

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	var req CartQtyRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	v, err := h.cart.UpdateCartQty(r.Context(), sessionID(r.Context()), id, req.Delta)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(v))
}

func (h SessionHandler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.DeleteCartItem"
	log := slog.With("op", op)

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	v, err := h.cart.RemoveFromCart(r.Context(), sessionID(r.Context()), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(v))
}

func (h SessionHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.GetWishlist"
	log := slog.With("op", op)

	ps, err := h.wishlist.Wishlist(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(ps))
}

func (h SessionHandler) PostWishlist(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostWishlist"
	log := slog.With("op", op)

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	in, err := h.wishlist.ToggleWishlist(r.Context(), sessionID(r.Context()), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, WishlistToggled{ProductID: id, InWishlist: in})
}

func (h SessionHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostLogin"
	log := slog.With("op", op)

	var req LoginRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	u, err := h.account.Login(r.Context(), sessionID(r.Context()), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h SessionHandler) PostRegister(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostRegister"
	log := slog.With("op", op)

	var req RegisterRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	u, err := h.account.Register(r.Context(), sessionID(r.Context()), domain.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(u))
}

func (h SessionHandler) PostLogout(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostLogout"
	log := slog.With("op", op)

	if err := h.account.Logout(r.Context(), sessionID(r.Context())); err != nil {
		writeError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SessionHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "SessionHandler.PostCheckout"
	log := slog.With("op", op)

	var req CheckoutRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	receipt, err := h.checkout.Checkout(
		r.Context(), sessionID(r.Context()), req.toDomain(),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReceipt(receipt))
	log.Info("order placed", "orderNumber", receipt.OrderNumber)
}
