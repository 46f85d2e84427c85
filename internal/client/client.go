// Package client is a typed HTTP client for the storefront API, used by
// shopper-side tooling such as the order tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/models"
)

// DefaultPollInterval is how often WatchOrder re-fetches an order.
const DefaultPollInterval = 5 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client talks to one storefront deployment.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("storefront api: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		token:   opts.Token,
		http:    httpClient,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", out)
}

// PromoCodes lists the promo codes the storefront advertises.
func (c *Client) PromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := c.getJSON(ctx, "/api/promo-codes", &promos); err != nil {
		return nil, err
	}
	return promos, nil
}

// Product loads a product by id or slug.
func (c *Client) Product(ctx context.Context, ref string) (models.Product, error) {
	var product models.Product
	err := c.getJSON(ctx, "/api/products/"+url.PathEscape(ref), &product)
	return product, err
}

// FetchProduct loads a product in the shape a cart line needs.
func (c *Client) FetchProduct(ctx context.Context, id string) (cart.Product, error) {
	p, err := c.Product(ctx, id)
	if err != nil {
		return cart.Product{}, err
	}
	image := p.HeroImage
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0]
	}
	return cart.Product{
		ID:              p.ID.String(),
		Name:            p.Name,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Image:           image,
	}, nil
}

// Order loads an order by id or order number.
func (c *Client) Order(ctx context.Context, ref string) (models.Order, error) {
	var order models.Order
	err := c.getJSON(ctx, "/api/orders/"+url.PathEscape(ref), &order)
	return order, err
}

// CreateOrder submits a checkout.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (models.Order, error) {
	var order models.Order
	err := c.postJSON(ctx, "/api/orders/create", req, &order)
	return order, err
}

// UploadScreenshot stores a payment screenshot and returns its public URL.
func (c *Client) UploadScreenshot(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/upload/screenshot", &buf, w.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// AttachScreenshot records an uploaded screenshot as payment proof for the
// order, which moves it to payment-done.
func (c *Client) AttachScreenshot(ctx context.Context, orderRef, screenshotURL string) (models.Order, error) {
	var order models.Order
	err := c.postJSON(ctx, "/api/orders/update-screenshot", map[string]string{
		"orderId":       orderRef,
		"screenshotUrl": screenshotURL,
	}, &order)
	return order, err
}
