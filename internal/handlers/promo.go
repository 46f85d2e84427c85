package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/pricing"
	"github.com/example/storefront/internal/services"
)

// PromoHandler manages promo code endpoints and cart pricing.
type PromoHandler struct {
	promos *services.PromoService
}

// NewPromoHandler constructs PromoHandler.
func NewPromoHandler(promos *services.PromoService) *PromoHandler {
	return &PromoHandler{promos: promos}
}

type promoRequest struct {
	Code          string               `json:"code"`
	Description   string               `json:"description"`
	DiscountType  pricing.DiscountType `json:"discount_type"`
	DiscountValue json.RawMessage      `json:"discount_value"`
	FreeProductID string               `json:"free_product_id"`
	MinCartValue  float64              `json:"min_cart_value"`
	IsActive      *bool                `json:"is_active"`
}

// input resolves the union discount_value field: a number is the discount
// amount, a string is a product id for free_service promos and a numeric
// string otherwise.
func (r promoRequest) input() (services.PromoInput, error) {
	in := services.PromoInput{
		Code:          r.Code,
		Description:   r.Description,
		DiscountType:  pricing.DiscountType(strings.ToLower(strings.TrimSpace(string(r.DiscountType)))),
		FreeProductID: r.FreeProductID,
		MinCartValue:  r.MinCartValue,
		IsActive:      r.IsActive,
	}

	raw := bytes.TrimSpace(r.DiscountValue)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return in, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		in.DiscountValue = number
		return in, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return in, fiber.NewError(fiber.StatusBadRequest, "discount_value must be a number or string")
	}
	text = strings.TrimSpace(text)

	if in.DiscountType == pricing.FreeService {
		if in.FreeProductID == "" {
			in.FreeProductID = text
		}
		return in, nil
	}

	if text == "" {
		return in, nil
	}
	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return in, fiber.NewError(fiber.StatusBadRequest, "discount_value must be numeric")
	}
	in.DiscountValue = number
	return in, nil
}

// ListPromoCodes returns promo codes; ?active=true hides inactive ones.
func (h *PromoHandler) ListPromoCodes(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	promos, err := h.promos.List(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promos})
}

// CreatePromoCode persists a new promo code.
func (h *PromoHandler) CreatePromoCode(c *fiber.Ctx) error {
	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	promo, err := h.promos.Create(c.UserContext(), in)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": promo})
}

// UpdatePromoCode replaces an existing promo code.
func (h *PromoHandler) UpdatePromoCode(c *fiber.Ctx) error {
	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	promo, err := h.promos.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": promo})
}

// DeletePromoCode removes a promo code by ID.
func (h *PromoHandler) DeletePromoCode(c *fiber.Ctx) error {
	if err := h.promos.Delete(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type cartLineRequest struct {
	ProductID   string  `json:"productId"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Quantity    int     `json:"quantity"`
	IsPromoFree bool    `json:"isPromoFree"`
}

type quoteRequest struct {
	Code  string            `json:"code"`
	Items []cartLineRequest `json:"items"`
}

func (r quoteRequest) lines() []pricing.Item {
	lines := make([]pricing.Item, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, pricing.Item{
			ProductID:       it.ProductID,
			Price:           it.Price,
			DiscountPercent: it.Discount,
			Quantity:        it.Quantity,
			PromoFree:       it.IsPromoFree,
		})
	}
	return lines
}

// ApplyPromoCode validates a code against the submitted cart.
func (h *PromoHandler) ApplyPromoCode(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	quote, err := h.promos.Apply(c.UserContext(), req.Code, req.lines())
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": quote})
}

// QuoteCart prices a cart with an optional promo code.
func (h *PromoHandler) QuoteCart(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	quote, err := h.promos.Quote(c.UserContext(), req.Code, req.lines())
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": quote})
}
