package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
)

// PromoService manages promo codes and prices carts against them.
type PromoService struct {
	db *gorm.DB
}

// NewPromoService constructs PromoService.
func NewPromoService(db *gorm.DB) *PromoService {
	return &PromoService{db: db}
}

// PromoInput is the writable part of a promo code. IsActive defaults to true
// on create when nil and is left untouched on update when nil.
type PromoInput struct {
	Code          string
	Description   string
	DiscountType  pricing.DiscountType
	DiscountValue float64
	FreeProductID string
	MinCartValue  float64
	IsActive      *bool
}

// Quote is the priced view of a cart, optionally with a promo applied.
type Quote struct {
	Promo       *models.PromoCode `json:"promo,omitempty"`
	Totals      pricing.Totals    `json:"totals"`
	FreeProduct *models.Product   `json:"free_product,omitempty"`
}

// List returns promo codes ordered by code.
func (s *PromoService) List(ctx context.Context, activeOnly bool) ([]models.PromoCode, error) {
	query := s.db.WithContext(ctx).Order("code ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var promos []models.PromoCode
	if err := query.Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// GetByCode looks a code up case-insensitively.
func (s *PromoService) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	code = models.NormalizePromoCode(code)
	if code == "" {
		return nil, ErrPromoNotFound
	}

	var promo models.PromoCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}
	return &promo, nil
}

// Create stores a new promo code.
func (s *PromoService) Create(ctx context.Context, in PromoInput) (*models.PromoCode, error) {
	promo := models.PromoCode{IsActive: true}
	if err := applyPromoInput(&promo, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&promo).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrPromoExists
		}
		return nil, err
	}

	log.Info().Str("code", promo.Code).Str("type", string(promo.DiscountType)).Msg("promo code created")
	return &promo, nil
}

// Update replaces the promo identified by id.
func (s *PromoService) Update(ctx context.Context, id string, in PromoInput) (*models.PromoCode, error) {
	promoID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrPromoNotFound
	}

	var promo models.PromoCode
	if err := s.db.WithContext(ctx).First(&promo, "id = ?", promoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}

	if err := applyPromoInput(&promo, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(&promo).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrPromoExists
		}
		return nil, err
	}
	return &promo, nil
}

// Delete removes a promo code. Orders keep the code string they were placed
// with.
func (s *PromoService) Delete(ctx context.Context, id string) error {
	promoID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrPromoNotFound
	}

	res := s.db.WithContext(ctx).Delete(&models.PromoCode{}, "id = ?", promoID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPromoNotFound
	}
	return nil
}

// Apply validates code against items and prices the cart with it. For
// free_service promos the referenced product is fetched and returned so the
// caller can add it as a zero-priced line.
func (s *PromoService) Apply(ctx context.Context, code string, items []pricing.Item) (*Quote, error) {
	if err := validateQuoteItems(items); err != nil {
		return nil, err
	}
	promo, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	rule := promo.Rule()

	lines := withoutPromoFree(items)
	if err := pricing.Validate(rule, pricing.Subtotal(lines)); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	quote := &Quote{Promo: promo}
	if promo.DiscountType == pricing.FreeService {
		product, err := s.freeProduct(ctx, promo)
		if err != nil {
			return nil, err
		}
		quote.FreeProduct = product
		lines = append(lines, pricing.Item{
			ProductID: product.ID.String(),
			Price:     product.Price,
			Quantity:  1,
			PromoFree: true,
		})
	}

	totals, err := pricing.Calculate(lines, rule)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	quote.Totals = totals
	return quote, nil
}

// Quote prices items with an optional code. An empty code yields plain totals.
func (s *PromoService) Quote(ctx context.Context, code string, items []pricing.Item) (*Quote, error) {
	if models.NormalizePromoCode(code) == "" {
		if err := validateQuoteItems(items); err != nil {
			return nil, err
		}
		totals, _ := pricing.Calculate(withoutPromoFree(items), nil)
		return &Quote{Totals: totals}, nil
	}
	return s.Apply(ctx, code, items)
}

func (s *PromoService) freeProduct(ctx context.Context, promo *models.PromoCode) (*models.Product, error) {
	if promo.FreeProductID == nil {
		return nil, fmt.Errorf("%w: promo %s has no free product", ErrProductNotFound, promo.Code)
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&product, "id = ?", *promo.FreeProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: free product for promo %s", ErrProductNotFound, promo.Code)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func applyPromoInput(promo *models.PromoCode, in PromoInput) error {
	code := models.NormalizePromoCode(in.Code)
	if code == "" {
		return invalidf("code is required")
	}
	if strings.ContainsAny(code, " \t,") {
		return invalidf("code must not contain spaces or commas")
	}
	if !in.DiscountType.Valid() {
		return invalidf("unknown discount type %q", in.DiscountType)
	}
	if in.DiscountValue < 0 {
		return invalidf("discount value must not be negative")
	}
	if in.DiscountType == pricing.Percentage && in.DiscountValue > 100 {
		return invalidf("percentage discount must not exceed 100")
	}
	if in.MinCartValue < 0 {
		return invalidf("minimum cart value must not be negative")
	}

	promo.FreeProductID = nil
	if in.DiscountType == pricing.FreeService {
		id, err := uuid.Parse(strings.TrimSpace(in.FreeProductID))
		if err != nil {
			return invalidf("free_service promo requires a valid product id")
		}
		promo.FreeProductID = &id
		in.DiscountValue = 0
	}

	promo.Code = code
	promo.Description = strings.TrimSpace(in.Description)
	promo.DiscountType = in.DiscountType
	promo.DiscountValue = in.DiscountValue
	promo.MinCartValue = in.MinCartValue
	if in.IsActive != nil {
		promo.IsActive = *in.IsActive
	}
	return nil
}

func validateQuoteItems(items []pricing.Item) error {
	for i, it := range items {
		if it.Quantity < 1 {
			return invalidf("item %d: quantity must be at least 1", i+1)
		}
		if it.Price < 0 {
			return invalidf("item %d: price must not be negative", i+1)
		}
		if it.DiscountPercent < 0 || it.DiscountPercent > 100 {
			return invalidf("item %d: discount must be between 0 and 100", i+1)
		}
	}
	return nil
}

// withoutPromoFree drops lines a previous promo injected; they are re-derived
// from the promo being applied.
func withoutPromoFree(items []pricing.Item) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		if !it.PromoFree {
			out = append(out, it)
		}
	}
	return out
}
