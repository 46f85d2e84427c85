package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBaseURL  string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBaseURL:  defaultTelegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithAPIBaseURL points the service at a different Bot API host.
func (s *TelegramService) WithAPIBaseURL(baseURL string) *TelegramService {
	s.apiBaseURL = strings.TrimRight(baseURL, "/")
	return s
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Debug().Msg("telegram: bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBaseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("telegram: failed to send message")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("telegram: unexpected status")
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Debug().Msg("telegram: admin chat id not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID       string
	OrderNumber   string
	Items         []OrderItemNotification
	Subtotal      float64
	Discount      float64
	TotalAmount   float64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PaymentMethod string
	PromoCode     string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name      string
	Quantity  int
	LineTotal float64
	PromoFree bool
}

// PaymentProofNotification is sent when a shopper uploads a payment screenshot.
type PaymentProofNotification struct {
	OrderNumber  string
	CustomerName string
	Amount       float64
	Currency     string
	ProofURL     string
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "INR"
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}
	cents := int64(amount*100 + 0.5)
	str := fmt.Sprintf("%d", cents/100)

	var result strings.Builder
	if negative {
		result.WriteString("-")
	}
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return fmt.Sprintf("%s.%02d %s", result.String(), cents%100, currency)
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		line := FormatPrice(item.LineTotal, order.Currency)
		if item.PromoFree {
			line = "FREE"
		}
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b> x%d = %s\n",
			i+1, html.EscapeString(item.Name), item.Quantity, line))
	}

	promo := "-"
	if order.PromoCode != "" {
		promo = html.EscapeString(order.PromoCode)
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Email:</b> %s
<b>Phone:</b> %s
<b>Items:</b>
%s
<b>Subtotal:</b> %s
<b>Discount:</b> %s (promo %s)
<b>Total:</b> %s
<b>Payment:</b> %s`,
		html.EscapeString(order.OrderNumber),
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerEmail),
		html.EscapeString(order.CustomerPhone),
		itemsList.String(),
		FormatPrice(order.Subtotal, order.Currency),
		FormatPrice(order.Discount, order.Currency),
		promo,
		FormatPrice(order.TotalAmount, order.Currency),
		html.EscapeString(order.PaymentMethod),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyPaymentProof tells the admin a screenshot is waiting for review.
func (s *TelegramService) NotifyPaymentProof(proof PaymentProofNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ PAYMENT PROOF UPLOADED</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Amount:</b> %s
<b>Screenshot:</b> %s`,
		html.EscapeString(proof.OrderNumber),
		html.EscapeString(proof.CustomerName),
		FormatPrice(proof.Amount, proof.Currency),
		html.EscapeString(proof.ProofURL),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
