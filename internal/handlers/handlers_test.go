package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database/dbtest"
	"github.com/example/storefront/internal/filestore"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/utils"
)

type testServer struct {
	app        *fiber.App
	db         *gorm.DB
	adminToken string
	userToken  string
	userID     uuid.UUID
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		PublicBaseURL: "http://shop.test",
		UploadDir:     filepath.Join(dir, "uploads"),
		MaxUploadMB:   1,
		DataDir:       filepath.Join(dir, "data"),
		Currency:      "INR",
	}

	db := dbtest.New(t)
	files, err := filestore.New(cfg.DataDir)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.Register(app, db, cfg, files)

	adminToken, err := utils.GenerateToken(cfg.JWTSecret, uuid.New(), models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	userID := uuid.New()
	userToken, err := utils.GenerateToken(cfg.JWTSecret, userID, models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	return &testServer{app: app, db: db, adminToken: adminToken, userToken: userToken, userID: userID}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func orderBody(items ...map[string]any) map[string]any {
	return map[string]any{
		"customerName":       "Asha Rao",
		"customerEmail":      "asha@example.com",
		"customerPhone":      "+91 90000 00000",
		"paymentMethod":      models.PaymentUPI,
		"paymentNationality": models.NationalityDomestic,
		"items":              items,
	}
}

func chai() map[string]any {
	return map[string]any{"productId": uuid.NewString(), "name": "Masala Chai", "price": 250, "quantity": 2}
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/orders/create", "", orderBody(chai()))
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	created := decode[models.Order](t, env)
	assert.Equal(t, models.StatusOrderPlaced, created.Status)
	assert.Equal(t, 500.0, created.TotalAmount)
	assert.Nil(t, created.CustomerID)

	status, env = s.do(t, "POST", "/api/orders/update-screenshot", "", map[string]any{
		"orderId":       created.ID.String(),
		"screenshotUrl": "http://shop.test/uploads/payments/proof.png",
	})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, env = s.do(t, "GET", "/api/orders/"+created.ID.String(), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	fetched := decode[models.Order](t, env)
	assert.Equal(t, models.StatusPaymentDone, fetched.Status)
	assert.Equal(t, "http://shop.test/uploads/payments/proof.png", fetched.PaymentProof)

	// admin status updates
	patch := map[string]any{"orderId": created.ID.String(), "status": "payment-confirmed", "notes": "verified"}
	status, _ = s.do(t, "PATCH", "/api/orders", "", patch)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(t, "PATCH", "/api/orders", s.userToken, patch)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, "PATCH", "/api/orders", s.adminToken, map[string]any{"orderId": created.ID.String(), "status": "lost"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "invalid order status")

	status, env = s.do(t, "PATCH", "/api/orders", s.adminToken, patch)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	updated := decode[models.Order](t, env)
	assert.Equal(t, models.StatusPaymentConfirmed, updated.Status)
	assert.Equal(t, "verified", updated.Notes)

	status, env = s.do(t, "GET", "/api/orders?status=payment-confirmed", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Order](t, env), 1)

	status, _ = s.do(t, "DELETE", "/api/orders/"+created.ID.String(), s.adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestCreateOrderValidation(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/orders/create", "", orderBody())
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, "order must contain at least one item", env.Message)

	body := orderBody(chai())
	body["customerEmail"] = ""
	status, _ = s.do(t, "POST", "/api/orders/create", "", body)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var count int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetOrderUnknown(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "GET", "/api/orders/"+uuid.NewString(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "order not found", env.Message)

	status, _ = s.do(t, "POST", "/api/orders/update-screenshot", "", map[string]any{
		"orderId": uuid.NewString(), "screenshotUrl": "/uploads/x.png",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMyOrders(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "POST", "/api/orders/create", s.userToken, orderBody(chai()))
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, "POST", "/api/orders/create", "", orderBody(chai()))
	require.Equal(t, fiber.StatusCreated, status)

	status, env := s.do(t, "GET", "/api/orders/mine", s.userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	mine := decode[[]models.Order](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, s.userID, *mine[0].CustomerID)
}

func TestPromoCodes(t *testing.T) {
	s := newTestServer(t)

	gift := models.Product{Name: "Tasting session", Slug: "tasting", Price: 499, IsActive: true}
	require.NoError(t, s.db.Create(&gift).Error)

	status, _ := s.do(t, "POST", "/api/promo-codes", s.userToken, map[string]any{"code": "x"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := s.do(t, "POST", "/api/promo-codes", s.adminToken, map[string]any{
		"code": "save10", "discount_type": "percentage", "discount_value": 10,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, env = s.do(t, "POST", "/api/promo-codes", s.adminToken, map[string]any{
		"code": "SAVE10", "discount_type": "fixed", "discount_value": "50",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, env.Message, "already exists")

	status, env = s.do(t, "POST", "/api/promo-codes", s.adminToken, map[string]any{
		"code": "gift", "discount_type": "free_service", "discount_value": gift.ID.String(),
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	giftPromo := decode[models.PromoCode](t, env)
	require.NotNil(t, giftPromo.FreeProductID)
	assert.Equal(t, gift.ID, *giftPromo.FreeProductID)

	status, env = s.do(t, "POST", "/api/promo-codes", s.adminToken, map[string]any{"discount_type": "fixed"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "code is required", env.Message)

	status, env = s.do(t, "GET", "/api/promo-codes", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.PromoCode](t, env), 2)

	cart := []map[string]any{{"productId": "a", "price": 1000, "quantity": 1}}
	status, env = s.do(t, "POST", "/api/promo-codes/apply", "", map[string]any{"code": "Save10", "items": cart})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	quote := decode[map[string]any](t, env)
	assert.Equal(t, map[string]any{"subtotal": 1000.0, "discount": 100.0, "total": 900.0}, quote["totals"])

	status, env = s.do(t, "POST", "/api/promo-codes/apply", "", map[string]any{"code": "gift", "items": cart})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	quote = decode[map[string]any](t, env)
	assert.Equal(t, gift.ID.String(), quote["free_product"].(map[string]any)["id"])

	status, _ = s.do(t, "POST", "/api/promo-codes/apply", "", map[string]any{"code": "nope", "items": cart})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = s.do(t, "POST", "/api/cart/quote", "", map[string]any{"items": cart})
	require.Equal(t, fiber.StatusOK, status)
	quote = decode[map[string]any](t, env)
	assert.Equal(t, 1000.0, quote["totals"].(map[string]any)["total"])
}

func TestPaymentSettingsAndVideos(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, "PUT", "/api/payment-settings", "", map[string]any{})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := s.do(t, "PUT", "/api/payment-settings", s.adminToken, map[string]any{
		"upi": map[string]any{"enabled": true, "upi_id": "invalid"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "upi id")

	status, _ = s.do(t, "PUT", "/api/payment-settings", s.adminToken, map[string]any{
		"upi": map[string]any{"enabled": true, "upi_id": "shop@okbank"},
	})
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, "GET", "/api/payment-settings", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	settings := decode[filestore.PaymentSettings](t, env)
	assert.Equal(t, "shop@okbank", settings.UPI.UPIID)

	status, env = s.do(t, "POST", "/api/videos", s.adminToken, map[string]any{
		"title": "How we brew", "url": "https://youtu.be/x", "is_active": true,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	video := decode[filestore.Video](t, env)

	status, _ = s.do(t, "DELETE", "/api/videos/missing", s.adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(t, "DELETE", "/api/videos/"+video.ID, s.adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/categories", s.adminToken, map[string]any{"name": "Loose Leaf Tea"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	category := decode[models.Category](t, env)
	assert.Equal(t, "loose-leaf-tea", category.Slug)

	status, env = s.do(t, "POST", "/api/products", s.adminToken, map[string]any{
		"name": "Assam Gold", "price": 450, "discount": 10, "category_id": category.ID.String(),
		"images": []string{"/uploads/products/a.png"},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	product := decode[models.Product](t, env)
	assert.Equal(t, "assam-gold", product.Slug)
	assert.Equal(t, "INR", product.Currency)
	assert.Equal(t, "/uploads/products/a.png", product.HeroImage)

	status, _ = s.do(t, "POST", "/api/products", s.adminToken, map[string]any{"name": "Bad", "discount": 150})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = s.do(t, "GET", "/api/products?search=assam&category_id="+category.ID.String(), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Product](t, env), 1)

	status, env = s.do(t, "GET", "/api/products/assam-gold", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, product.ID, decode[models.Product](t, env).ID)

	status, _ = s.do(t, "PUT", "/api/products/"+product.ID.String(), s.adminToken, map[string]any{
		"name": "Assam Gold", "price": 450, "is_active": false,
	})
	require.Equal(t, fiber.StatusOK, status)
	status, env = s.do(t, "GET", "/api/products", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[[]models.Product](t, env))

	status, _ = s.do(t, "DELETE", "/api/categories/"+category.ID.String(), s.adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, "POST", "/api/orders/create", "", orderBody(chai()))
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, env := s.do(t, "GET", "/api/admin/stats", s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	stats := decode[map[string]any](t, env)
	assert.Equal(t, 2.0, stats["total_orders"])
	assert.Equal(t, 1000.0, stats["total_revenue"])
	assert.Equal(t, 2.0, stats["orders_by_status"].(map[string]any)["order-placed"])

	req := httptest.NewRequest("GET", "/api/admin/orders/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
}

func multipartBody(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "my proof.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadScreenshot(t *testing.T) {
	s := newTestServer(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	body, contentType := multipartBody(t, png)
	req := httptest.NewRequest("POST", "/api/upload/screenshot", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	data := decode[map[string]any](t, env)
	assert.Regexp(t, `^http://shop\.test/uploads/payments/\d+_[0-9a-f]{8}_my_proof\.png$`, data["url"])

	body, contentType = multipartBody(t, []byte("#!/bin/sh\necho hi\n"))
	req = httptest.NewRequest("POST", "/api/upload/screenshot", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/auth/register", "", map[string]any{
		"name": "Asha", "email": "Asha@Example.com", "password": "long-enough",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = s.do(t, "POST", "/api/auth/register", "", map[string]any{
		"name": "Asha", "email": "asha@example.com", "password": "long-enough",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "POST", "/api/auth/login", "", map[string]any{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewReader([]byte(`{"email":"ASHA@example.com","password":"long-enough"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	status, env = s.do(t, "GET", "/api/profile", login.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "asha@example.com", decode[map[string]any](t, env)["email"])
}

func TestOffersAndBanners(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "POST", "/api/offers", s.adminToken, map[string]any{"description": "no title"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "title is required", env.Message)

	status, env = s.do(t, "POST", "/api/offers", s.adminToken, map[string]any{
		"title": "Diwali sale", "promo_code": " diwali ", "is_active": true,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.Equal(t, "DIWALI", decode[models.Offer](t, env).PromoCode)

	status, _ = s.do(t, "POST", "/api/offers", s.adminToken, map[string]any{
		"title": "Last year", "is_active": true, "ends_at": "2000-01-01T00:00:00Z",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, env = s.do(t, "GET", "/api/offers", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Offer](t, env), 1)

	status, env = s.do(t, "GET", "/api/offers?include_inactive=true", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Offer](t, env), 2)

	status, env = s.do(t, "POST", "/api/banners", s.adminToken, map[string]any{"title": "Hero"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "image_desktop is required", env.Message)
}
