package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/pkg/money"
)

// GET v1/products?q=&category=&min_price=&max_price=&sort= (200 OK, 400 Bad request)
// GET v1/products/{id} (200 OK, 404 Not found)
// GET v1/products/featured (200 OK)
// GET v1/suggestions?prefix=&limit= (200 OK, 400 Bad request)
// GET v1/categories (200 OK)
// GET v1/categories/{id}/products (200 OK, 404 Not found)
//
// Query prices are rupees, response prices are paise.

type CatalogHandler struct {
	browser      port.CatalogBrowser
	suggestLimit int
}

func RegisterCatalog(
	mux *http.ServeMux, browser port.CatalogBrowser, suggestLimit int,
) {
	h := CatalogHandler{browser, suggestLimit}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/featured", h.GetFeatured)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /v1/suggestions", h.GetSuggestions)
	mux.HandleFunc("GET /v1/categories", h.GetCategories)
	mux.HandleFunc("GET /v1/categories/{id}/products", h.GetCategoryProducts)
}

func (h CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProducts"
	log := slog.With("op", op)

	q, err := parseBrowseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		log.Warn("invalid query", "err", err)
		return
	}

	ps, err := h.browser.Browse(r.Context(), q)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(ps))
}

func (h CatalogHandler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toProductList(h.browser.Featured(r.Context())))
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProduct"
	log := slog.With("op", op)

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	p, err := h.browser.Product(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func (h CatalogHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	limit := h.suggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	ss := h.browser.Suggest(r.Context(), prefix, limit)
	if ss == nil {
		ss = []string{}
	}
	writeJSON(w, http.StatusOK, Suggestions{Prefix: prefix, Suggestions: ss})
}

func (h CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCategories(h.browser.Categories(r.Context())))
}

func (h CatalogHandler) GetCategoryProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetCategoryProducts"
	log := slog.With("op", op)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid category id"})
		return
	}

	ps, err := h.browser.ProductsByCategory(r.Context(), id)
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(ps))
}

// PUT v1/catalog JSON [products] (200 OK, 400 Bad request)
// PUT v1/products/{id}/availability JSON {"active": bool} (202 Accepted, 503 Service unavailable)

type AdminHandler struct {
	saver  port.ProductsSaver
	setter port.AvailabilitySetter
}

func RegisterAdmin(
	mux *http.ServeMux, saver port.ProductsSaver, setter port.AvailabilitySetter,
) {
	h := AdminHandler{saver, setter}
	mux.Handle("PUT /v1/catalog", AllowJSON(http.HandlerFunc(h.PutCatalog)))
	mux.Handle(
		"PUT /v1/products/{id}/availability",
		AllowJSON(http.HandlerFunc(h.PutAvailability)),
	)
}

func (h AdminHandler) PutCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PutCatalog"
	log := slog.With("op", op)

	var ps []Product
	if !decodeJSON(w, r, log, &ps) {
		return
	}

	vs := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, p.toDomain())
	}

	if err := h.saver.SaveProducts(r.Context(), vs); err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, CatalogReplaced{Products: len(vs)})
	log.Info("catalog replaced", "nProducts", len(vs))
}

func (h AdminHandler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.PutAvailability"
	log := slog.With("op", op)

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	var a Availability
	if !decodeJSON(w, r, log, &a) {
		return
	}

	pa := domain.ProductAvailability{ProductID: id, Active: a.Active}
	if err := h.setter.SetAvailability(r.Context(), pa); err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, http.StatusAccepted, a)
	log.Info("accepted", "productID", id, "active", a.Active)
}

func parseBrowseQuery(r *http.Request) (domain.BrowseQuery, error) {
	values := r.URL.Query()
	q := domain.BrowseQuery{
		Text: values.Get("q"),
		Sort: domain.SortOption(values.Get("sort")),
	}

	if v := values.Get("category"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("invalid category")
		}
		q.CategoryID = id
	}

	var err error
	if q.MinPrice, err = parseRupees(values.Get("min_price")); err != nil {
		return q, errors.New("invalid min_price")
	}
	if q.MaxPrice, err = parseRupees(values.Get("max_price")); err != nil {
		return q, errors.New("invalid max_price")
	}
	return q, nil
}

// maxRupees keeps the paise amount within int64.
const maxRupees = float64(math.MaxInt64 / money.PaisePerRupee)

func parseRupees(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("price is not a number")
	}
	if v < 0 {
		return 0, errors.New("negative price")
	}
	if v >= maxRupees {
		return 0, errors.New("price is too large")
	}
	return money.FromRupees(v), nil
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func decodeJSON(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, v any,
) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON data"})
		log.Warn("failed to parse JSON", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCheckout),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrDuplicateProductID),
		errors.Is(err, domain.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRejected):
		return http.StatusUnprocessableEntity
	}
	return http.StatusServiceUnavailable
}

var publicErrs = []error{
	domain.ErrProductNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrInvalidCheckout,
	domain.ErrInvalidQuantity,
	domain.ErrDuplicateProductID,
	domain.ErrInvalidSession,
	domain.ErrUnauthenticated,
	domain.ErrInvalidCredentials,
	domain.ErrOutOfStock,
	domain.ErrEmptyCart,
	domain.ErrRejected,
}

// writeError answers with the status of err. Only domain errors reach the
// client; everything else is logged and reported as unavailable.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusServiceUnavailable {
		log.Error("request failed", "err", err)
		writeJSON(w, status, ErrorResponse{Error: "service unavailable"})
		return
	}

	resp := ErrorResponse{Error: publicMessage(err)}
	if errors.Is(err, domain.ErrInvalidCheckout) {
		resp.Details = details(err)
	}
	log.Warn("request rejected", "err", err)
	writeJSON(w, status, resp)
}

func publicMessage(err error) string {
	for _, target := range publicErrs {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func details(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}
