// Package cart holds the shopper-side state of the storefront: the cart, the
// wishlist and the signed-in session. Everything here is persisted locally as
// a versioned Snapshot and never stored on the server.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("item is not in the cart")
	ErrNoFreeProduct   = errors.New("promo has no free product")
	ErrFreeProduct     = errors.New("free product is unavailable")
)

// Product is the slice of catalog data a cart line needs.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount"`
	Image           string  `json:"image,omitempty"`
}

// Line is one cart entry. Promo-granted lines carry PromoFree and the price
// the product would otherwise cost.
type Line struct {
	Product            Product `json:"product"`
	Quantity           int     `json:"quantity"`
	PromoFree          bool    `json:"isPromoFree,omitempty"`
	PromoOriginalPrice float64 `json:"promoOriginalPrice,omitempty"`
}

// ProductFetcher loads a product by id. The API client implements it.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, id string) (Product, error)
}

// ProductFetcherFunc adapts a function to ProductFetcher.
type ProductFetcherFunc func(ctx context.Context, id string) (Product, error)

func (f ProductFetcherFunc) FetchProduct(ctx context.Context, id string) (Product, error) {
	return f(ctx, id)
}

// Cart is the shopper's basket with at most one applied promo.
type Cart struct {
	Lines []Line         `json:"items"`
	Promo *pricing.Promo `json:"promo,omitempty"`
}

// Add puts quantity units of p into the cart, merging with an existing line
// for the same product.
func (c *Cart) Add(p Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(p.ID); i >= 0 {
		c.Lines[i].Quantity += quantity
		return nil
	}
	c.Lines = append(c.Lines, Line{Product: p, Quantity: quantity})
	return nil
}

// SetQuantity changes the quantity of a line. Zero or less removes it.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
		return nil
	}
	c.Lines[i].Quantity = quantity
	return nil
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string) error {
	return c.SetQuantity(productID, 0)
}

// Clear empties the cart and forgets the promo, as after checkout.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Promo = nil
}

// Len counts units in the cart, free lines included.
func (c Cart) Len() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Items converts the cart to calculator input.
func (c Cart) Items() []pricing.Item {
	items := make([]pricing.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, pricing.Item{
			ProductID:       l.Product.ID,
			Price:           l.Product.Price,
			DiscountPercent: l.Product.DiscountPercent,
			Quantity:        l.Quantity,
			PromoFree:       l.PromoFree,
		})
	}
	return items
}

// Totals prices the cart with the applied promo. When the promo no longer
// qualifies the undiscounted totals are returned with the reason.
func (c Cart) Totals() (pricing.Totals, error) {
	return pricing.Calculate(c.Items(), c.Promo)
}

// ApplyPromo validates promo against the cart and applies it, replacing any
// promo already applied. A free_service promo fetches its product before the
// zero-priced line is added; on any error the cart is left as it was.
func (c *Cart) ApplyPromo(ctx context.Context, promo pricing.Promo, products ProductFetcher) error {
	next := c.clone()
	next.RemovePromo()

	promo.Code = strings.ToUpper(strings.TrimSpace(promo.Code))
	if err := pricing.Validate(&promo, pricing.Subtotal(next.Items())); err != nil {
		return err
	}

	if promo.Type == pricing.FreeService {
		if promo.FreeProductID == "" {
			return ErrNoFreeProduct
		}
		p, err := products.FetchProduct(ctx, promo.FreeProductID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFreeProduct, err)
		}
		original := p.Price
		p.Price = 0
		p.DiscountPercent = 0
		next.Lines = append(next.Lines, Line{
			Product:            p,
			Quantity:           1,
			PromoFree:          true,
			PromoOriginalPrice: original,
		})
	}

	next.Promo = &promo
	*c = next
	return nil
}

// RemovePromo forgets the applied promo and every line it added.
func (c *Cart) RemovePromo() {
	c.Promo = nil

	var kept []Line
	for _, l := range c.Lines {
		if !l.PromoFree {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

// index finds the regular (non promo) line for productID.
func (c Cart) index(productID string) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID && !l.PromoFree {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := Cart{}
	if c.Lines != nil {
		out.Lines = append([]Line(nil), c.Lines...)
	}
	if c.Promo != nil {
		p := *c.Promo
		out.Promo = &p
	}
	return out
}
