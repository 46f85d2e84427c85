package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/filestore"
	"github.com/example/storefront/internal/models"
)

// SettingsHandler manages site contact settings and the flat-file documents:
// payment settings, videos and crypto coins.
type SettingsHandler struct {
	db    *gorm.DB
	files *filestore.Store
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(db *gorm.DB, files *filestore.Store) *SettingsHandler {
	return &SettingsHandler{db: db, files: files}
}

const (
	defaultStoreName = "Storefront"
	defaultCopyright = "© Storefront. All rights reserved."
)

func applySiteDefaults(settings *models.SiteSettings) {
	if strings.TrimSpace(settings.StoreName) == "" {
		settings.StoreName = defaultStoreName
	}
	if strings.TrimSpace(settings.Copyright) == "" {
		settings.Copyright = defaultCopyright
	}
}

// GetSiteSettings returns the current site settings (public endpoint).
func (h *SettingsHandler) GetSiteSettings(c *fiber.Ctx) error {
	var settings models.SiteSettings
	err := h.db.WithContext(c.UserContext()).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	applySiteDefaults(&settings)
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateSiteSettings creates or updates the single settings row.
func (h *SettingsHandler) UpdateSiteSettings(c *fiber.Ctx) error {
	var input models.SiteSettings
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(input.Email) != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
		}
	}

	db := h.db.WithContext(c.UserContext())
	var existing models.SiteSettings
	err := db.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		input.BaseModel = models.BaseModel{}
		if err := db.Create(&input).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": input})
	case err != nil:
		return err
	}

	input.BaseModel = existing.BaseModel
	if err := db.Save(&input).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": input})
}

// GetPaymentSettings returns the checkout payment rails.
func (h *SettingsHandler) GetPaymentSettings(c *fiber.Ctx) error {
	settings, err := h.files.PaymentSettings()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

func (h *SettingsHandler) UpdatePaymentSettings(c *fiber.Ctx) error {
	var input filestore.PaymentSettings
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	saved, err := h.files.SavePaymentSettings(input)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": saved})
}

// Videos

func (h *SettingsHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.files.Videos(!c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": videos})
}

func (h *SettingsHandler) CreateVideo(c *fiber.Ctx) error {
	var input filestore.Video
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	video, err := h.files.CreateVideo(input)
	if err != nil {
		return serviceError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": video})
}

func (h *SettingsHandler) UpdateVideo(c *fiber.Ctx) error {
	var input filestore.Video
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	video, err := h.files.UpdateVideo(c.Params("id"), input)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": video})
}

func (h *SettingsHandler) DeleteVideo(c *fiber.Ctx) error {
	if err := h.files.DeleteVideo(c.Params("id")); err != nil {
		return serviceError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Crypto coins

func (h *SettingsHandler) ListCryptoCoins(c *fiber.Ctx) error {
	coins, err := h.files.CryptoCoins(!c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": coins})
}

func (h *SettingsHandler) CreateCryptoCoin(c *fiber.Ctx) error {
	var input filestore.CryptoCoin
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	coin, err := h.files.CreateCryptoCoin(input)
	if err != nil {
		return serviceError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coin})
}

func (h *SettingsHandler) UpdateCryptoCoin(c *fiber.Ctx) error {
	var input filestore.CryptoCoin
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	coin, err := h.files.UpdateCryptoCoin(c.Params("id"), input)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": coin})
}

func (h *SettingsHandler) DeleteCryptoCoin(c *fiber.Ctx) error {
	if err := h.files.DeleteCryptoCoin(c.Params("id")); err != nil {
		return serviceError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
