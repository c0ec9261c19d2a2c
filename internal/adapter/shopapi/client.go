// Package shopapi is a client of the storefront backend REST API: catalog
// pages, authentication and order placement.
package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/pkg/retry"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 100
	maxErrBody      = 512
)

var (
	_ port.CatalogLoader = (*Client)(nil)
	_ port.Authenticator = (*Client)(nil)
	_ port.OrderPlacer   = (*Client)(nil)
)

var ErrUnexpectedStatus = errors.New("unexpected status")

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrUnexpectedStatus, e.code, e.body)
}

func (e *statusError) Unwrap() error { return ErrUnexpectedStatus }

// Client calls the backend API. Read requests are retried on transport
// errors and 5xx responses.
type Client struct {
	baseURL  string
	http     *http.Client
	pageSize int
	retry    retry.RetryConfig
}

type Opt func(*Client)

func WithHTTPClient(hc *http.Client) Opt {
	return func(c *Client) { c.http = hc }
}

func WithPageSize(n int) Opt {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRetry replaces the read retry policy. A nil ShouldRetry keeps the
// default classification of retryable errors.
func WithRetry(rc retry.RetryConfig) Opt {
	return func(c *Client) {
		if rc.ShouldRetry == nil {
			rc.ShouldRetry = retryable
		}
		c.retry = rc
	}
}

func NewClient(baseURL string, opts ...Opt) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		pageSize: defaultPageSize,
		retry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
			ShouldRetry: retryable,
			MaxDelay:    2 * time.Second,
			OnRetry:     logRetry,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadProducts reads the first catalog page. Inactive products are skipped.
func (c *Client) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "shopapi.Client.LoadProducts"
	log := slog.With("op", op)

	query := url.Values{}
	query.Set("page", "0")
	query.Set("size", strconv.Itoa(c.pageSize))

	page, err := retry.DoWithResult(ctx, c.retry, func() (productPage, error) {
		var page productPage
		err := c.do(ctx, http.MethodGet, "products", query, "", nil, &page)
		return page, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, 0, len(page.Content))
	for _, p := range page.Content {
		if p.IsActive != nil && !*p.IsActive {
			continue
		}
		ps = append(ps, p.toDomain())
	}

	log.Debug("catalog page loaded", "total", page.TotalElements, "got", len(ps))
	return ps, nil
}

func (c *Client) Login(
	ctx context.Context, cred domain.Credentials,
) (domain.AuthSession, error) {
	const op = "shopapi.Client.Login"

	body := loginRequest{Email: cred.Email, Password: cred.Password}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, "auth/login", nil, "", body, &resp)
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("%s: %w", op, mapAuthErr(err))
	}
	return resp.toDomain(), nil
}

func (c *Client) Register(
	ctx context.Context, reg domain.Registration,
) (domain.AuthSession, error) {
	const op = "shopapi.Client.Register"

	body := registerRequest{
		Email:     reg.Email,
		Password:  reg.Password,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Phone:     reg.Phone,
	}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, "auth/register", nil, "", body, &resp)
	if err != nil {
		return domain.AuthSession{}, fmt.Errorf("%s: %w", op, mapAuthErr(err))
	}
	return resp.toDomain(), nil
}

func (c *Client) PlaceOrder(
	ctx context.Context, token string, req domain.OrderRequest,
) (domain.OrderReceipt, error) {
	const op = "shopapi.Client.PlaceOrder"

	body := orderRequest{
		ProductIDs:      req.ProductIDs,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}

	var resp orderResponse
	err := c.do(ctx, http.MethodPost, "orders", nil, token, body, &resp)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("%s: %w", op, mapOrderErr(err))
	}
	return resp.toDomain(), nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	token string,
	in, out any,
) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	if len(query) != 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode, body: drainError(resp.Body)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrBody))
	return strings.TrimSpace(string(b))
}

func statusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}

func logRetry(attempt int, delay time.Duration, err error) {
	slog.Warn(
		"backend request failed, retrying",
		"attempt", attempt, "delay", delay, "err", err,
	)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := statusCode(err)
	return code == 0 || code >= http.StatusInternalServerError
}

func mapAuthErr(err error) error {
	switch code := statusCode(err); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %w", domain.ErrRejected, err)
	}
	return err
}

func mapOrderErr(err error) error {
	switch code := statusCode(err); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: %w", domain.ErrRejected, err)
	}
	return err
}
