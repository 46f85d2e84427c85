package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// MarketingHandler manages banners and promotional offers.
type MarketingHandler struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(db *gorm.DB) *MarketingHandler {
	return &MarketingHandler{db: db, now: time.Now}
}

// Banners

func (h *MarketingHandler) ListBanners(c *fiber.Ctx) error {
	query := h.db.WithContext(c.UserContext()).Order("display_order asc, created_at desc")
	if !c.QueryBool("include_inactive", false) {
		query = query.Where("is_active = ?", true)
	}

	var items []models.Banner
	if err := query.Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *MarketingHandler) CreateBanner(c *fiber.Ctx) error {
	var item models.Banner
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = uuid.Nil
	if strings.TrimSpace(item.ImageDesktop) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image_desktop is required")
	}
	if err := h.db.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *MarketingHandler) UpdateBanner(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	db := h.db.WithContext(c.UserContext())
	var item models.Banner
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "banner not found")
		}
		return err
	}
	createdAt := item.CreatedAt
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	item.CreatedAt = createdAt
	if err := db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *MarketingHandler) DeleteBanner(c *fiber.Ctx) error {
	return h.deleteByID(c, &models.Banner{}, "banner not found")
}

// Offers

// ListOffers returns offers that are live now. Admins pass
// include_inactive=true to see every offer.
func (h *MarketingHandler) ListOffers(c *fiber.Ctx) error {
	var items []models.Offer
	if err := h.db.WithContext(c.UserContext()).
		Order("display_order asc, created_at desc").
		Find(&items).Error; err != nil {
		return err
	}

	if !c.QueryBool("include_inactive", false) {
		now := h.now()
		live := items[:0]
		for _, o := range items {
			if o.LiveAt(now) {
				live = append(live, o)
			}
		}
		items = live
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *MarketingHandler) GetOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var item models.Offer
	if err := h.db.WithContext(c.UserContext()).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "offer not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func validateOffer(item *models.Offer) error {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	item.PromoCode = models.NormalizePromoCode(item.PromoCode)
	if item.StartsAt != nil && item.EndsAt != nil && item.EndsAt.Before(*item.StartsAt) {
		return fiber.NewError(fiber.StatusBadRequest, "ends_at must be after starts_at")
	}
	return nil
}

func (h *MarketingHandler) CreateOffer(c *fiber.Ctx) error {
	var item models.Offer
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = uuid.Nil
	if err := validateOffer(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *MarketingHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	db := h.db.WithContext(c.UserContext())
	var item models.Offer
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "offer not found")
		}
		return err
	}
	createdAt := item.CreatedAt
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	item.ID = id
	item.CreatedAt = createdAt
	if err := validateOffer(&item); err != nil {
		return err
	}
	if err := db.Save(&item).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *MarketingHandler) DeleteOffer(c *fiber.Ctx) error {
	return h.deleteByID(c, &models.Offer{}, "offer not found")
}

func (h *MarketingHandler) deleteByID(c *fiber.Ctx, model interface{}, notFound string) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	res := h.db.WithContext(c.UserContext()).Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
