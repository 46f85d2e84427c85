package client

import (
	"errors"

	"github.com/example/storefront/internal/cart"
)

// OrderItem is one line of a checkout request.
type OrderItem struct {
	ProductID          string  `json:"productId"`
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	Discount           float64 `json:"discount"`
	Quantity           int     `json:"quantity"`
	Image              string  `json:"image,omitempty"`
	IsPromoFree        bool    `json:"isPromoFree,omitempty"`
	PromoOriginalPrice float64 `json:"promoOriginalPrice,omitempty"`
}

// CreateOrderRequest is the body of POST /api/orders/create. The totals are
// what the shopper saw; the server recomputes its own.
type CreateOrderRequest struct {
	CustomerName       string      `json:"customerName"`
	CustomerEmail      string      `json:"customerEmail"`
	CustomerPhone      string      `json:"customerPhone,omitempty"`
	ShippingAddress    string      `json:"shippingAddress,omitempty"`
	Items              []OrderItem `json:"items"`
	Subtotal           float64     `json:"subtotal"`
	Discount           float64     `json:"discount"`
	Total              float64     `json:"total"`
	PromoCode          string      `json:"promoCode,omitempty"`
	PaymentMethod      string      `json:"paymentMethod"`
	PaymentNationality string      `json:"paymentNationality"`
	Currency           string      `json:"currency,omitempty"`
	Notes              string      `json:"notes,omitempty"`
}

// Customer holds the contact details collected at checkout.
type Customer struct {
	Name            string
	Email           string
	Phone           string
	ShippingAddress string
}

var ErrEmptyCart = errors.New("cart is empty")

// NewOrderRequest builds a checkout request from the cart. It fails when the
// cart is empty or its promo no longer qualifies, so the shopper can fix the
// cart before submitting.
func NewOrderRequest(c cart.Cart, customer Customer, paymentMethod, nationality string) (CreateOrderRequest, error) {
	if len(c.Lines) == 0 {
		return CreateOrderRequest{}, ErrEmptyCart
	}

	totals, err := c.Totals()
	if err != nil {
		return CreateOrderRequest{}, err
	}

	req := CreateOrderRequest{
		CustomerName:       customer.Name,
		CustomerEmail:      customer.Email,
		CustomerPhone:      customer.Phone,
		ShippingAddress:    customer.ShippingAddress,
		Subtotal:           totals.Subtotal,
		Discount:           totals.Discount,
		Total:              totals.Total,
		PaymentMethod:      paymentMethod,
		PaymentNationality: nationality,
	}
	if c.Promo != nil {
		req.PromoCode = c.Promo.Code
	}
	for _, l := range c.Lines {
		req.Items = append(req.Items, OrderItem{
			ProductID:          l.Product.ID,
			Name:               l.Product.Name,
			Price:              l.Product.Price,
			Discount:           l.Product.DiscountPercent,
			Quantity:           l.Quantity,
			Image:              l.Product.Image,
			IsPromoFree:        l.PromoFree,
			PromoOriginalPrice: l.PromoOriginalPrice,
		})
	}
	return req, nil
}
