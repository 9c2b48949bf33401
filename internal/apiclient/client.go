// Package apiclient talks to the store API on behalf of the console.
//
// Every call is attempted once. Non-2xx answers come back as *StatusError
// carrying the backend's detail message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/models"
)

// RequestIDHeader is echoed by the store API in its logs.
const RequestIDHeader = "X-Request-ID"

type Log interface {
	Debug(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Detail)
}

// IsNotFound reports whether err is a 404 from the store API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	log     Log
}

func New(baseURL string, timeout time.Duration, log Log) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		log: log,
	}
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.do(ctx, http.MethodGet, "/productos", nil, &out)
	return nonNil(out), err
}

func (c *Client) Product(ctx context.Context, id int) (models.Product, error) {
	var out models.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/productos/%d", id), nil, &out)
	return out, err
}

// SaveProduct creates a product when id is 0 and updates it otherwise.
func (c *Client) SaveProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error) {
	var out models.Product
	if id == 0 {
		err := c.do(ctx, http.MethodPost, "/productos", in, &out)
		return out, err
	}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/productos/%d", id), in, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/productos/%d", id), nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.do(ctx, http.MethodGet, "/categorias", nil, &out)
	return nonNil(out), err
}

func (c *Client) Clients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	err := c.do(ctx, http.MethodGet, "/clientes", nil, &out)
	return nonNil(out), err
}

// SaveClient creates a client when id is 0 and updates it otherwise.
func (c *Client) SaveClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error) {
	var out models.Client
	if id == 0 {
		err := c.do(ctx, http.MethodPost, "/clientes", in, &out)
		return out, err
	}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clientes/%d", id), in, &out)
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/clientes/%d", id), nil, nil)
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, http.MethodGet, "/pedidos", nil, &out)
	return nonNil(out), err
}

func (c *Client) Order(ctx context.Context, id int) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/pedidos/%d", id), nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, http.MethodPost, "/pedidos", req, &out)
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/pedidos/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed",
			zap.String("method", method), zap.String("path", path), zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		var eb models.ErrorBody
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(raw, &eb) == nil && eb.Detail != "" {
				se.Detail = eb.Detail
			} else {
				se.Detail = strings.TrimSpace(string(raw))
			}
		}
		c.log.Error("request rejected",
			zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode),
			zap.String("detail", se.Detail), zap.String("request_id", requestID))
		return se
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
