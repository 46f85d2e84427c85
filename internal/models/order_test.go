package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/storefront/internal/pricing"
)

func TestJoinPaymentProofs(t *testing.T) {
	assert.Equal(t, "a.png", JoinPaymentProofs("", "a.png"))
	assert.Equal(t, "a.png,b.png", JoinPaymentProofs("a.png", " b.png "))
	assert.Equal(t, "a.png,b.png", JoinPaymentProofs("a.png, b.png", "a.png"))

	o := Order{PaymentProof: "a.png, ,b.png"}
	assert.Equal(t, []string{"a.png", "b.png"}, o.PaymentProofs())
	assert.Nil(t, Order{}.PaymentProofs())
}

func TestPromoCode_Rule(t *testing.T) {
	free := uuid.New()
	p := PromoCode{
		Code:          "GIFT",
		DiscountType:  pricing.FreeService,
		IsActive:      true,
		MinCartValue:  300,
		FreeProductID: &free,
	}

	assert.Equal(t, &pricing.Promo{
		Code:          "GIFT",
		Type:          pricing.FreeService,
		Active:        true,
		MinCartValue:  300,
		FreeProductID: free.String(),
	}, p.Rule())

	assert.Equal(t, "SUMMER10", NormalizePromoCode("  summer10 "))
}
