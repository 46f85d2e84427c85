package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db     *gorm.DB
	orders *services.OrderService
	now    func() time.Time
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, orders: orders, now: time.Now}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalUsers, totalOrders, totalProducts, activePromos int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}
	if err := db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}
	if err := db.Model(&models.PromoCode{}).Where("is_active = ?", true).Count(&activePromos).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		ordersByStatus[string(s)] = 0
	}
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := db.Model(&models.Order{}).
		Where("status != ?", models.StatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	now := h.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayRevenue float64
	if err := db.Model(&models.Order{}).
		Where("status != ? AND created_at >= ?", models.StatusCancelled, startOfDay).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":        totalUsers,
			"total_orders":       totalOrders,
			"total_products":     totalProducts,
			"active_promo_codes": activePromos,
			"total_revenue":      totalRevenue,
			"today_revenue":      todayRevenue,
			"orders_by_status":   ordersByStatus,
		},
	})
}

// ListAllUsers returns registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.User{})

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}

// RecentOrders returns the most recent 5 orders for the dashboard.
func (h *AdminHandler) RecentOrders(c *fiber.Ctx) error {
	orders, _, err := h.orders.List(c.UserContext(), services.OrderFilter{Limit: 5})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
	})
}

// ExportOrders streams matching orders as an xlsx attachment.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		return err
	}

	orders, _, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := services.WriteOrdersXLSX(&buf, orders); err != nil {
		return err
	}

	filename := fmt.Sprintf("orders-%s.xlsx", h.now().Format("20060102-150405"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}
