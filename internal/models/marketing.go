package models

import "time"

type Banner struct {
	BaseModel
	Title        string `json:"title"`
	ImageDesktop string `json:"image_desktop"`
	ImageMobile  string `json:"image_mobile"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

// Offer is a promotional tile shown on the storefront. It advertises a deal;
// the money side of a deal lives in PromoCode.
type Offer struct {
	BaseModel
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Image        string     `json:"image"`
	Badge        string     `json:"badge"`
	URL          string     `json:"url"`
	PromoCode    string     `json:"promo_code"`
	DisplayOrder int        `json:"display_order"`
	IsActive     bool       `json:"is_active"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
}

// LiveAt reports whether the offer should be displayed at t.
func (o Offer) LiveAt(t time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.StartsAt != nil && t.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && t.After(*o.EndsAt) {
		return false
	}
	return true
}
