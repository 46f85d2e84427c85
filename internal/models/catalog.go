package models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name         string    `json:"name"`
	Slug         string    `gorm:"uniqueIndex" json:"slug"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	DisplayOrder int       `json:"display_order"`
	Products     []Product `json:"products,omitempty"`
}

type Product struct {
	BaseModel
	Slug             string         `gorm:"uniqueIndex" json:"slug"`
	Name             string         `json:"name"`
	ShortDescription string         `json:"short_description"`
	Description      string         `json:"description"`
	Price            float64        `json:"price"`
	DiscountPercent  float64        `json:"discount"`
	Currency         string         `json:"currency"`
	HeroImage        string         `json:"hero_image"`
	Images           []string       `gorm:"serializer:json" json:"images"`
	Stock            int            `json:"stock"`
	IsFeatured       bool           `json:"is_featured"`
	IsActive         bool           `json:"is_active"`
	CategoryID       *uuid.UUID     `gorm:"type:uuid;index" json:"category_id"`
	Category         *Category      `json:"category,omitempty"`
}

// EffectivePrice is the unit price after the product's own discount.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPercent == 0 {
		return p.Price
	}
	return p.Price * (1 - p.DiscountPercent/100)
}
