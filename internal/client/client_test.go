package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database/dbtest"
	"github.com/example/storefront/internal/filestore"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
	"github.com/example/storefront/internal/routes"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newStubClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/", Token: "secret-token"})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "ftp://shop.test"})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "://"})
	assert.Error(t, err)
}

func TestClient_ErrorsAndAuth(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/orders/missing":
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "order not found"})
		case "/api/promo-codes":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"code": "SAVE10", "discount_type": "percentage", "discount_value": 10, "is_active": true},
			}})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	_, err := c.Order(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, "storefront api: status 404: order not found")

	promos, err := c.PromoCodes(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, pricing.Percentage, promos[0].DiscountType)

	_, err = c.Product(ctx, "anything")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.False(t, IsNotFound(err))
}

func TestNewOrderRequest(t *testing.T) {
	var c cart.Cart
	_, err := NewOrderRequest(c, Customer{}, models.PaymentUPI, models.NationalityDomestic)
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, c.Add(cart.Product{ID: "a", Name: "Chai", Price: 100}, 3))
	require.NoError(t, c.ApplyPromo(context.Background(), pricing.Promo{Code: "bogo", Type: pricing.BOGO, Active: true}, nil))

	req, err := NewOrderRequest(c, Customer{Name: "Asha", Email: "asha@example.com"}, models.PaymentUPI, models.NationalityDomestic)
	require.NoError(t, err)
	assert.Equal(t, "BOGO", req.PromoCode)
	assert.Equal(t, 300.0, req.Subtotal)
	assert.Equal(t, 150.0, req.Discount)
	assert.Equal(t, 150.0, req.Total)
	assert.Equal(t, []OrderItem{{ProductID: "a", Name: "Chai", Price: 100, Quantity: 3}}, req.Items)
}

func orderStub(statuses ...models.OrderStatus) (http.HandlerFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"order_number": "ORD-20260314-ABC123",
			"status":       statuses[i],
		}})
	}, &calls
}

func collect(ch <-chan StatusChange, timeout time.Duration) ([]StatusChange, bool) {
	var changes []StatusChange
	deadline := time.After(timeout)
	for {
		select {
		case change, ok := <-ch:
			if !ok {
				return changes, true
			}
			changes = append(changes, change)
		case <-deadline:
			return changes, false
		}
	}
}

func TestWatchOrder_EmitsChangesUntilTerminal(t *testing.T) {
	h, calls := orderStub(
		models.StatusOrderPlaced,
		models.StatusOrderPlaced,
		models.StatusPaymentDone,
		models.StatusPaymentDone,
		models.StatusDelivered,
	)
	c := newStubClient(t, h)

	changes, closed := collect(c.WatchOrder(context.Background(), "ORD-20260314-ABC123", time.Millisecond), 5*time.Second)
	require.True(t, closed)
	require.Len(t, changes, 3)

	assert.Equal(t, models.OrderStatus(""), changes[0].Previous)
	assert.Equal(t, models.StatusOrderPlaced, changes[0].Order.Status)
	assert.Equal(t, models.StatusOrderPlaced, changes[1].Previous)
	assert.Equal(t, models.StatusPaymentDone, changes[1].Order.Status)
	assert.Equal(t, models.StatusDelivered, changes[2].Order.Status)
	assert.EqualValues(t, 5, calls.Load())
}

func TestWatchOrder_StopsOnCancel(t *testing.T) {
	h, _ := orderStub(models.StatusOrderPlaced)
	c := newStubClient(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	ch := c.WatchOrder(ctx, "x", time.Millisecond)

	first := <-ch
	require.NoError(t, first.Err)
	cancel()

	_, closed := collect(ch, 5*time.Second)
	assert.True(t, closed)
}

func TestWatchOrder_StopsWhenOrderIsGone(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "order not found"})
	})

	changes, closed := collect(c.WatchOrder(context.Background(), "x", time.Millisecond), 5*time.Second)
	require.True(t, closed)
	require.Len(t, changes, 1)
	assert.True(t, IsNotFound(changes[0].Err))
}

// TestCheckoutAgainstServer drives the real routes through the client.
func TestCheckoutAgainstServer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		JWTSecret:   "test-secret",
		UploadDir:   filepath.Join(dir, "uploads"),
		MaxUploadMB: 1,
		Currency:    "INR",
	}
	db := dbtest.New(t)
	files, err := filestore.New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Register(app, db, cfg, files)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	gift := models.Product{Name: "Tasting session", Slug: "tasting", Price: 499, HeroImage: "/uploads/gift.png", IsActive: true}
	require.NoError(t, db.Create(&gift).Error)
	promo := models.PromoCode{Code: "GIFT", DiscountType: pricing.FreeService, IsActive: true, FreeProductID: &gift.ID}
	require.NoError(t, db.Create(&promo).Error)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	promos, err := c.PromoCodes(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)

	var basket cart.Cart
	require.NoError(t, basket.Add(cart.Product{ID: "9d7e3c7a-0d55-4a55-9c65-3c2b4a7f2f10", Name: "Masala Chai", Price: 250}, 2))
	require.NoError(t, basket.ApplyPromo(ctx, *promos[0].Rule(), c))
	require.Len(t, basket.Lines, 2)
	assert.Equal(t, "/uploads/gift.png", basket.Lines[1].Product.Image)

	req, err := NewOrderRequest(basket, Customer{Name: "Asha", Email: "asha@example.com"}, models.PaymentUPI, models.NationalityDomestic)
	require.NoError(t, err)
	order, err := c.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderPlaced, order.Status)
	assert.Equal(t, 500.0, order.TotalAmount)
	assert.Equal(t, "GIFT", order.PromoCode)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	proofURL, err := c.UploadScreenshot(ctx, "proof.png", bytes.NewReader(png))
	require.NoError(t, err)
	assert.Contains(t, proofURL, "/uploads/payments/")

	updated, err := c.AttachScreenshot(ctx, order.OrderNumber, proofURL)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentDone, updated.Status)

	fetched, err := c.Order(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, proofURL, fetched.PaymentProof)
}
