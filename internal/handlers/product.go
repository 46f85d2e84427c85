package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db       *gorm.DB
	currency string
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB, currency string) *ProductHandler {
	return &ProductHandler{db: db, currency: currency}
}

// ListProducts returns paginated products with optional filters. Inactive
// products are hidden unless include_inactive=true.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Product{})

	if !c.QueryBool("include_inactive", false) {
		query = query.Where("is_active = ?", true)
	}

	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
		}
		query = query.Where("category_id = ?", id)
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(short_description) LIKE ?", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if c.QueryBool("featured", false) {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product by id or slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	ref := c.Params("id")
	query := h.db.WithContext(c.UserContext()).Preload("Category")
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", strings.ToLower(ref))
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Discount         float64  `json:"discount"`
	Currency         string   `json:"currency"`
	HeroImage        string   `json:"hero_image"`
	Images           []string `json:"images"`
	Stock            int      `json:"stock"`
	IsFeatured       bool     `json:"is_featured"`
	IsActive         *bool    `json:"is_active"`
	CategoryID       string   `json:"category_id"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.WithContext(c.UserContext()).Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "product slug already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct replaces an existing product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	db := h.db.WithContext(c.UserContext())
	var existing models.Product
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.buildProductFromRequest(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt

	if err := db.Model(&existing).Select("*").Omit("ID", "CreatedAt").Updates(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "product slug already exists")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product. Order items keep their copied name and
// price.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.WithContext(c.UserContext()).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) buildProductFromRequest(req productRequest) (models.Product, error) {
	product := models.Product{
		Slug:             slugify(req.Slug),
		Name:             strings.TrimSpace(req.Name),
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Price:            req.Price,
		DiscountPercent:  req.Discount,
		Currency:         strings.ToUpper(strings.TrimSpace(req.Currency)),
		HeroImage:        req.HeroImage,
		Images:           req.Images,
		Stock:            req.Stock,
		IsFeatured:       req.IsFeatured,
		IsActive:         true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if product.Name == "" {
		return product, errors.New("name is required")
	}
	if product.Price < 0 {
		return product, errors.New("price must not be negative")
	}
	if product.DiscountPercent < 0 || product.DiscountPercent > 100 {
		return product, errors.New("discount must be between 0 and 100")
	}
	if product.Stock < 0 {
		return product, errors.New("stock must not be negative")
	}
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if product.Currency == "" {
		product.Currency = h.currency
	}
	if product.HeroImage == "" && len(product.Images) > 0 {
		product.HeroImage = product.Images[0]
	}

	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return product, errors.New("invalid category_id")
		}
		product.CategoryID = &id
	}

	return product, nil
}

// RegisterProductRoutes attaches product routes to fiber app. Writes are
// wrapped with the admin guards.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router, admin ...fiber.Handler) {
	guarded := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, admin...), h)
	}

	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
	router.Post("/", guarded(h.CreateProduct)...)
	router.Put("/:id", guarded(h.UpdateProduct)...)
	router.Delete("/:id", guarded(h.DeleteProduct)...)
}
