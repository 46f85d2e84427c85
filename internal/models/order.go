package models

import (
	"strings"

	"github.com/google/uuid"
)

// Payment nationality classes decide which payment rails checkout offers.
const (
	NationalityDomestic      = "indian"
	NationalityInternational = "international"
)

// Payment methods offered at checkout.
const (
	PaymentUPI        = "upi"
	PaymentRemittance = "remittance"
	PaymentCrypto     = "crypto"
)

type Order struct {
	BaseModel
	OrderNumber        string      `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID         *uuid.UUID  `gorm:"type:uuid;index" json:"customer_id"`
	CustomerName       string      `json:"customer_name"`
	CustomerEmail      string      `gorm:"index" json:"customer_email"`
	CustomerPhone      string      `json:"customer_phone"`
	ShippingAddress    string      `json:"shipping_address"`
	Items              []OrderItem `json:"items,omitempty"`
	Subtotal           float64     `json:"subtotal"`
	DiscountAmount     float64     `json:"discount_amount"`
	TotalAmount        float64     `json:"total_amount"`
	Currency           string      `json:"currency"`
	Status             OrderStatus `gorm:"index;not null" json:"status"`
	PromoCode          string      `json:"promo_code"`
	PaymentMethod      string      `json:"payment_method"`
	PaymentNationality string      `json:"payment_nationality"`
	PaymentProof       string      `json:"payment_proof"`
	Notes              string      `json:"notes"`
}

// PaymentProofs splits the comma-joined proof column.
func (o Order) PaymentProofs() []string {
	if strings.TrimSpace(o.PaymentProof) == "" {
		return nil
	}
	var proofs []string
	for _, p := range strings.Split(o.PaymentProof, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proofs = append(proofs, p)
		}
	}
	return proofs
}

// JoinPaymentProofs appends url to an existing comma-joined proof list,
// skipping duplicates.
func JoinPaymentProofs(existing, url string) string {
	url = strings.TrimSpace(url)
	proofs := Order{PaymentProof: existing}.PaymentProofs()
	for _, p := range proofs {
		if p == url {
			return strings.Join(proofs, ",")
		}
	}
	return strings.Join(append(proofs, url), ",")
}

type OrderItem struct {
	BaseModel
	OrderID            uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID          *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName        string     `json:"product_name"`
	UnitPrice          float64    `json:"unit_price"`
	DiscountPercent    float64    `json:"discount"`
	Quantity           int        `json:"quantity"`
	Image              string     `json:"image"`
	IsPromoFree        bool       `json:"is_promo_free"`
	PromoOriginalPrice float64    `json:"promo_original_price,omitempty"`
	LineTotal          float64    `json:"line_total"`
}
