package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemRequest struct {
	ProductID          string  `json:"productId"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	Discount           float64 `json:"discount"`
	Quantity           int     `json:"quantity"`
	Image              string  `json:"image"`
	IsPromoFree        bool    `json:"isPromoFree"`
	PromoOriginalPrice float64 `json:"promoOriginalPrice"`
}

type createOrderRequest struct {
	CustomerName       string             `json:"customerName"`
	CustomerEmail      string             `json:"customerEmail"`
	CustomerPhone      string             `json:"customerPhone"`
	ShippingAddress    string             `json:"shippingAddress"`
	Items              []orderItemRequest `json:"items"`
	Subtotal           *float64           `json:"subtotal"`
	Discount           *float64           `json:"discount"`
	Total              *float64           `json:"total"`
	PromoCode          string             `json:"promoCode"`
	PaymentMethod      string             `json:"paymentMethod"`
	PaymentNationality string             `json:"paymentNationality"`
	PaymentProof       string             `json:"paymentProof"`
	Currency           string             `json:"currency"`
	Notes              string             `json:"notes"`
}

func (r createOrderRequest) clientTotals() *pricing.Totals {
	if r.Total == nil {
		return nil
	}
	totals := pricing.Totals{Total: *r.Total}
	if r.Subtotal != nil {
		totals.Subtotal = *r.Subtotal
	}
	if r.Discount != nil {
		totals.Discount = *r.Discount
	}
	return &totals
}

// CreateOrder places an order for a guest or the authenticated customer.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	in := services.CreateOrderInput{
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		ShippingAddress:    req.ShippingAddress,
		PromoCode:          req.PromoCode,
		PaymentMethod:      req.PaymentMethod,
		PaymentNationality: req.PaymentNationality,
		PaymentProof:       req.PaymentProof,
		Currency:           req.Currency,
		Notes:              req.Notes,
		ClientTotals:       req.clientTotals(),
	}
	if userID, ok := middleware.GetCurrentUserID(c); ok {
		in.CustomerID = &userID
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.OrderLineInput{
			ProductID:          it.ProductID,
			Name:               it.Name,
			Price:              it.Price,
			DiscountPercent:    it.Discount,
			Quantity:           it.Quantity,
			Image:              it.Image,
			PromoFree:          it.IsPromoFree,
			PromoOriginalPrice: it.PromoOriginalPrice,
		})
	}

	order, err := h.orders.Create(c.UserContext(), in)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// GetOrder returns a single order by id or order number.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns all orders for the back office.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		return err
	}
	pg := utils.ParsePagination(c)
	filter.Limit, filter.Offset = pg.Limit, pg.Offset

	orders, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// ListMyOrders returns orders placed by the authenticated customer.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.List(c.UserContext(), services.OrderFilter{
		CustomerID: &userID,
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

type updateStatusRequest struct {
	OrderID string  `json:"orderId"`
	Status  string  `json:"status"`
	Notes   *string `json:"notes"`
}

// UpdateStatus lets an admin move an order to another status.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == "" || req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "orderId and status are required")
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), req.OrderID, req.Status, req.Notes)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateScreenshotRequest struct {
	OrderID       string `json:"orderId"`
	ScreenshotURL string `json:"screenshotUrl"`
}

// UpdateScreenshot attaches a payment screenshot and marks the order paid.
func (h *OrderHandler) UpdateScreenshot(c *fiber.Ctx) error {
	var req updateScreenshotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == "" || req.ScreenshotURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "orderId and screenshotUrl are required")
	}

	order, err := h.orders.AttachPaymentProof(c.UserContext(), req.OrderID, req.ScreenshotURL)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// DeleteOrder removes an order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.Delete(c.UserContext(), c.Params("id")); err != nil {
		return serviceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// OrderStatuses lists the known statuses in display order along with the
// active transition policy.
func (h *OrderHandler) OrderStatuses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"statuses": models.OrderStatuses,
			"policy":   h.orders.Policy(),
		},
	})
}

func orderFilterFromQuery(c *fiber.Ctx) (services.OrderFilter, error) {
	filter := services.OrderFilter{
		Search:        c.Query("search"),
		CustomerEmail: c.Query("email"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter.Status = status
	}
	return filter, nil
}
