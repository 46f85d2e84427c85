package models

import (
	"strings"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/pricing"
)

// PromoCode is an admin-defined discount rule. Codes are stored upper-cased
// and matched case-insensitively. Retired codes are flagged inactive rather
// than deleted.
type PromoCode struct {
	BaseModel
	Code          string               `gorm:"uniqueIndex;not null" json:"code"`
	Description   string               `json:"description"`
	DiscountType  pricing.DiscountType `gorm:"not null" json:"discount_type"`
	DiscountValue float64              `json:"discount_value"`
	IsActive      bool                 `json:"is_active"`
	MinCartValue  float64              `json:"min_cart_value"`
	FreeProductID *uuid.UUID           `gorm:"type:uuid" json:"free_product_id"`
}

// NormalizePromoCode is the canonical stored form of a code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Rule converts the stored promo into the calculator's representation.
func (p PromoCode) Rule() *pricing.Promo {
	rule := &pricing.Promo{
		Code:         p.Code,
		Type:         p.DiscountType,
		Value:        p.DiscountValue,
		Active:       p.IsActive,
		MinCartValue: p.MinCartValue,
	}
	if p.FreeProductID != nil {
		rule.FreeProductID = p.FreeProductID.String()
	}
	return rule
}
