package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/config"
	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/observability"
	"github.com/cavea/backoffice/internal/pkg/breaker"
	"github.com/cavea/backoffice/internal/pkg/retry"
)

// TokenSource supplies the bearer token for outgoing calls. Empty string
// means the call goes out unauthenticated (login).
type TokenSource func() string

// APIError is a non-2xx backend response with its message preserved, so the
// operator sees what the backend said.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: backend returned %d: %s", e.Status, e.Message)
}

// UserMessage is the backend-supplied message, suitable for showing to the
// operator as-is.
func (e *APIError) UserMessage() string { return e.Message }

// Client is the typed REST client over the storefront backend. Reads are
// retried per the configured policy; writes are single-shot so a failed save
// stays in the operator's hands.
type Client struct {
	baseURL   string
	httpc     *http.Client
	token     TokenSource
	logger    *zap.Logger
	metrics   observability.Metrics
	readRetry retry.Policy
	brk       *breaker.Breaker
}

func NewClient(cfg config.Gateway, readRetry retry.Policy, brk *breaker.Breaker, token TokenSource, logger *zap.Logger, metrics observability.Metrics) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if readRetry.Attempts < 1 {
		readRetry.Attempts = 1
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		httpc:     &http.Client{Timeout: cfg.Timeout},
		token:     token,
		logger:    logger,
		metrics:   metrics,
		readRetry: readRetry,
		brk:       brk,
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type docsPage struct {
	Docs       json.RawMessage `json:"docs"`
	TotalPages int             `json:"total_pages"`
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body any, out any) error {
	if err := c.brk.Allow(); err != nil {
		return fmt.Errorf("gateway %s: %w", op, err)
	}

	start := time.Now()
	err := c.roundTrip(ctx, method, path, q, body, out)
	durMs := float64(time.Since(start).Microseconds()) / 1000.0

	c.metrics.ObserveGateway(op, durMs, err == nil)
	if err != nil {
		// Backend rejections are the caller's problem, not the backend being
		// down; only transport and 5xx failures count against the breaker.
		if isPermanent(err) {
			c.brk.Success()
		} else {
			c.brk.Failure()
		}
		c.logger.Warn("gateway call failed",
			zap.String("op", op),
			zap.Float64("dur_ms", durMs),
			zap.Error(err),
		)
		return err
	}

	c.brk.Success()
	c.logger.Debug("gateway call",
		zap.String("op", op),
		zap.Float64("dur_ms", durMs),
	)
	return nil
}

func (c *Client) doRead(ctx context.Context, op, path string, q url.Values, out any) error {
	var lastErr error
	err := retry.Do(ctx, c.readRetry, func() error {
		lastErr = c.do(ctx, op, http.MethodGet, path, q, nil, out)
		if isPermanent(lastErr) {
			// Not-found and validation responses will not get better on retry.
			return nil
		}
		return lastErr
	})
	if err != nil {
		return err
	}
	return lastErr
}

func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
}

func (c *Client) roundTrip(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	payload := env.Data
	if payload == nil {
		// Some endpoints answer without the envelope.
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("gateway: decode payload: %w", err)
	}
	return nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// Login authenticates the operator and returns a fresh session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var out domain.Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "auth.login", http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

// ListOrders fetches one page of orders.
func (c *Client) ListOrders(ctx context.Context, page, pageSize int) (domain.OrdersPage, error) {
	var dp docsPage
	if err := c.doRead(ctx, "orders.list", "/orders", pageQuery(page, pageSize), &dp); err != nil {
		return domain.OrdersPage{}, err
	}
	var orders []domain.Order
	if dp.Docs != nil {
		if err := json.Unmarshal(dp.Docs, &orders); err != nil {
			return domain.OrdersPage{}, fmt.Errorf("gateway: decode orders: %w", err)
		}
	}
	return domain.OrdersPage{Items: orders, TotalPages: dp.TotalPages}, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := c.doRead(ctx, "orders.get", "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrder submits the whole order payload. Single-shot: the order edit
// flow owns the retry decision.
func (c *Client) UpdateOrder(ctx context.Context, id string, o domain.Order) (domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, "orders.update", http.MethodPut, "/orders/update/"+url.PathEscape(id), nil, o, &out); err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

// SetOrderStatus updates only the status field. Single-shot.
func (c *Client) SetOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, "orders.status", http.MethodPatch, "/orders/status/"+url.PathEscape(id), nil, body, nil)
}

// ListProductsParams mirrors the backend's product listing filters.
type ListProductsParams struct {
	Page       int
	Limit      int
	CategoryID string
	Search     string
}

func (c *Client) ListProducts(ctx context.Context, p ListProductsParams) ([]domain.Product, error) {
	q := pageQuery(p.Page, p.Limit)
	if p.CategoryID != "" {
		q.Set("categoryId", p.CategoryID)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	var dp docsPage
	if err := c.doRead(ctx, "products.list", "/products", q, &dp); err != nil {
		return nil, err
	}
	var products []domain.Product
	if dp.Docs != nil {
		if err := json.Unmarshal(dp.Docs, &products); err != nil {
			return nil, fmt.Errorf("gateway: decode products: %w", err)
		}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.doRead(ctx, "products.get", "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetMeta(ctx context.Context) (domain.Meta, error) {
	var m domain.Meta
	if err := c.doRead(ctx, "meta.get", "/meta", nil, &m); err != nil {
		return domain.Meta{}, err
	}
	return m, nil
}

func (c *Client) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error) {
	var dp docsPage
	if err := c.doRead(ctx, "users.list", "/users", pageQuery(page, pageSize), &dp); err != nil {
		return nil, err
	}
	var users []domain.User
	if dp.Docs != nil {
		if err := json.Unmarshal(dp.Docs, &users); err != nil {
			return nil, fmt.Errorf("gateway: decode users: %w", err)
		}
	}
	return users, nil
}

// ContentImage is a storefront content slot (best-sale, gift section, ...).
type ContentImage struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Name    string `json:"name"`
	Image   string `json:"image"`
}

func (c *Client) ListContentImages(ctx context.Context) ([]ContentImage, error) {
	var images []ContentImage
	if err := c.doRead(ctx, "content.list", "/content/images", nil, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Client) UploadContentImage(ctx context.Context, img ContentImage) (ContentImage, error) {
	var out ContentImage
	if err := c.do(ctx, "content.upload", http.MethodPost, "/content/images", nil, img, &out); err != nil {
		return ContentImage{}, err
	}
	return out, nil
}

func (c *Client) DeleteContentImage(ctx context.Context, id string) error {
	return c.do(ctx, "content.delete", http.MethodDelete, "/content/images/"+url.PathEscape(id), nil, nil, nil)
}
