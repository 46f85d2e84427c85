package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
)

const orderNumberAttempts = 5

// OrderNotifier is told about order events that need an admin's attention.
type OrderNotifier interface {
	NotifyNewOrder(OrderNotification) error
	NotifyPaymentProof(PaymentProofNotification) error
}

// OrderService owns order creation and the order lifecycle.
type OrderService struct {
	db       *gorm.DB
	notifier OrderNotifier
	policy   models.TransitionPolicy
	currency string
	now      func() time.Time
	dispatch func(func())
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(db *gorm.DB, notifier OrderNotifier, policy models.TransitionPolicy, currency string) *OrderService {
	if currency == "" {
		currency = "INR"
	}
	return &OrderService{
		db:       db,
		notifier: notifier,
		policy:   policy,
		currency: currency,
		now:      time.Now,
		dispatch: func(fn func()) { go fn() },
	}
}

// Policy returns the transition policy applied to admin status updates.
func (s *OrderService) Policy() models.TransitionPolicy {
	return s.policy
}

// OrderLineInput is one cart line submitted at checkout.
type OrderLineInput struct {
	ProductID          string
	Name               string
	Price              float64
	DiscountPercent    float64
	Quantity           int
	Image              string
	PromoFree          bool
	PromoOriginalPrice float64
}

// CreateOrderInput is everything checkout submits.
type CreateOrderInput struct {
	CustomerID         *uuid.UUID
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	ShippingAddress    string
	Items              []OrderLineInput
	PromoCode          string
	PaymentMethod      string
	PaymentNationality string
	PaymentProof       string
	Notes              string
	Currency           string
	// ClientTotals are the totals the shopper saw. They are compared with the
	// server's figures but never stored.
	ClientTotals *pricing.Totals
}

// OrderFilter narrows List.
type OrderFilter struct {
	Status        models.OrderStatus
	Search        string
	CustomerEmail string
	CustomerID    *uuid.UUID
	Limit         int
	Offset        int
}

// Create validates input, prices the cart and stores a new order in the
// order-placed state.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, invalidf("customer name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("a valid customer email is required")
	}
	if len(in.Items) == 0 {
		return nil, invalidf("order must contain at least one item")
	}

	var rule *pricing.Promo
	promoCode := models.NormalizePromoCode(in.PromoCode)
	if promoCode != "" {
		var promo models.PromoCode
		err := s.db.WithContext(ctx).Where("code = ?", promoCode).First(&promo).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidf("promo code %s is not valid", promoCode)
		}
		if err != nil {
			return nil, err
		}
		rule = promo.Rule()
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	lines := make([]pricing.Item, 0, len(in.Items))
	freeLines := 0
	for i, line := range in.Items {
		item, err := orderItemFromInput(i, line, rule)
		if err != nil {
			return nil, err
		}
		if line.PromoFree {
			if freeLines++; freeLines > 1 {
				return nil, invalidf("item %d: only one free item is allowed per order", i+1)
			}
		}
		calc := pricing.Item{
			ProductID:       line.ProductID,
			Price:           line.Price,
			DiscountPercent: line.DiscountPercent,
			Quantity:        line.Quantity,
			PromoFree:       line.PromoFree,
		}
		item.LineTotal = pricing.LineTotal(calc).Round(2).InexactFloat64()
		items = append(items, item)
		lines = append(lines, calc)
	}

	totals, err := pricing.Calculate(lines, rule)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if in.ClientTotals != nil && !sameTotals(*in.ClientTotals, totals) {
		log.Warn().
			Float64("client_total", in.ClientTotals.Total).
			Float64("server_total", totals.Total).
			Str("customer_email", email).
			Msg("client totals differ from server pricing")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}

	order := models.Order{
		CustomerID:         in.CustomerID,
		CustomerName:       name,
		CustomerEmail:      email,
		CustomerPhone:      strings.TrimSpace(in.CustomerPhone),
		ShippingAddress:    strings.TrimSpace(in.ShippingAddress),
		Items:              items,
		Subtotal:           totals.Subtotal,
		DiscountAmount:     totals.Discount,
		TotalAmount:        totals.Total,
		Currency:           currency,
		Status:             models.StatusOrderPlaced,
		PaymentMethod:      strings.TrimSpace(in.PaymentMethod),
		PaymentNationality: strings.TrimSpace(in.PaymentNationality),
		Notes:              strings.TrimSpace(in.Notes),
	}
	if rule != nil {
		order.PromoCode = rule.Code
	}
	if in.PaymentProof != "" {
		order.PaymentProof = models.JoinPaymentProofs("", in.PaymentProof)
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.generateOrderNumber()
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		})
		if err == nil {
			break
		}
		if !isDuplicateKey(err) || attempt >= orderNumberAttempts {
			return nil, fmt.Errorf("create order: %w", err)
		}
		log.Warn().Str("order_number", order.OrderNumber).Msg("order number collision, retrying")
		order.ID = uuid.Nil
		for i := range order.Items {
			order.Items[i].ID = uuid.Nil
		}
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Float64("total", order.TotalAmount).
		Msg("order created")

	s.notifyNewOrder(order)
	return &order, nil
}

func orderItemFromInput(i int, line OrderLineInput, rule *pricing.Promo) (models.OrderItem, error) {
	pos := i + 1
	if line.Quantity < 1 {
		return models.OrderItem{}, invalidf("item %d: quantity must be at least 1", pos)
	}
	if line.Price < 0 || math.IsNaN(line.Price) {
		return models.OrderItem{}, invalidf("item %d: price must not be negative", pos)
	}
	if line.DiscountPercent < 0 || line.DiscountPercent > 100 {
		return models.OrderItem{}, invalidf("item %d: discount must be between 0 and 100", pos)
	}
	if line.PromoFree {
		if !matchesFreeProduct(rule, line.ProductID) {
			return models.OrderItem{}, invalidf("item %d: free item does not match the applied promo code", pos)
		}
		if line.Quantity != 1 {
			return models.OrderItem{}, invalidf("item %d: free item quantity must be 1", pos)
		}
	}

	item := models.OrderItem{
		ProductName:        strings.TrimSpace(line.Name),
		UnitPrice:          line.Price,
		DiscountPercent:    line.DiscountPercent,
		Quantity:           line.Quantity,
		Image:              line.Image,
		IsPromoFree:        line.PromoFree,
		PromoOriginalPrice: line.PromoOriginalPrice,
	}
	if line.ProductID != "" {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return models.OrderItem{}, invalidf("item %d: invalid product id", pos)
		}
		item.ProductID = &id
	}
	if item.ProductName == "" {
		return models.OrderItem{}, invalidf("item %d: product name is required", pos)
	}
	return item, nil
}

// matchesFreeProduct reports whether productID is the product rule gives
// away. IDs are compared parsed so letter case does not matter.
func matchesFreeProduct(rule *pricing.Promo, productID string) bool {
	if rule == nil || rule.Type != pricing.FreeService {
		return false
	}
	want, err := uuid.Parse(rule.FreeProductID)
	if err != nil {
		return false
	}
	got, err := uuid.Parse(strings.TrimSpace(productID))
	return err == nil && got == want
}

func sameTotals(a, b pricing.Totals) bool {
	const eps = 0.005
	return math.Abs(a.Subtotal-b.Subtotal) < eps &&
		math.Abs(a.Discount-b.Discount) < eps &&
		math.Abs(a.Total-b.Total) < eps
}

func (s *OrderService) generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), suffix)
}

// Get returns an order with its items. ref may be the order id or its order
// number.
func (s *OrderService) Get(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrOrderNotFound
	}

	query := s.db.WithContext(ctx).Preload("Items")
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_number = ?", strings.ToUpper(ref))
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns a page of orders, newest first, and the total match count.
func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if email := strings.ToLower(strings.TrimSpace(filter.CustomerEmail)); email != "" {
		query = query.Where("customer_email = ?", email)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus sets a new status and, when notes is non-nil, replaces the
// order notes.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, rawStatus string, notes *string) (*models.Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrOrderNotFound
	}
	next, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		if !models.CanTransition(order.Status, next, s.policy) {
			return fmt.Errorf("%w: %s -> %s", models.ErrTransitionNotAllowed, order.Status, next)
		}

		updates := map[string]interface{}{"status": next}
		if notes != nil {
			updates["notes"] = strings.TrimSpace(*notes)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderConflict
		}
		return tx.Preload("Items").First(&order, "id = ?", orderID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order status updated")
	return &order, nil
}

// AttachPaymentProof records a payment screenshot and marks the order as
// paid in a single transaction.
func (s *OrderService) AttachPaymentProof(ctx context.Context, id string, url string) (*models.Order, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, invalidf("screenshot url is required")
	}
	if strings.Contains(url, ",") {
		return nil, invalidf("screenshot url must not contain commas")
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(order, "id = ?", order.ID).Error; err != nil {
			return err
		}
		next, err := models.NextOnPaymentProof(order.Status, s.policy)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND payment_proof = ?", order.ID, order.Status, order.PaymentProof).
			Updates(map[string]interface{}{
				"status":        next,
				"payment_proof": models.JoinPaymentProofs(order.PaymentProof, url),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderConflict
		}
		return tx.Preload("Items").First(order, "id = ?", order.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("payment proof attached")

	s.notifyPaymentProof(*order, url)
	return order, nil
}

// Delete removes an order and its items.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrOrderNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", orderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func (s *OrderService) notifyNewOrder(order models.Order) {
	if s.notifier == nil {
		return
	}

	msg := OrderNotification{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Subtotal:      order.Subtotal,
		Discount:      order.DiscountAmount,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		PaymentMethod: order.PaymentMethod,
		PromoCode:     order.PromoCode,
	}
	for _, item := range order.Items {
		msg.Items = append(msg.Items, OrderItemNotification{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
			PromoFree: item.IsPromoFree,
		})
	}

	s.dispatch(func() {
		if err := s.notifier.NotifyNewOrder(msg); err != nil {
			log.Error().Err(err).Str("order_number", msg.OrderNumber).Msg("new order notification failed")
		}
	})
}

func (s *OrderService) notifyPaymentProof(order models.Order, url string) {
	if s.notifier == nil {
		return
	}

	msg := PaymentProofNotification{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Amount:       order.TotalAmount,
		Currency:     order.Currency,
		ProofURL:     url,
	}
	s.dispatch(func() {
		if err := s.notifier.NotifyPaymentProof(msg); err != nil {
			log.Error().Err(err).Str("order_number", msg.OrderNumber).Msg("payment proof notification failed")
		}
	})
}
