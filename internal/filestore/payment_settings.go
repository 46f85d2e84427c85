package filestore

import (
	"strings"
	"time"
)

// UPISettings drive the domestic QR payment screen.
type UPISettings struct {
	Enabled   bool   `json:"enabled"`
	UPIID     string `json:"upi_id"`
	PayeeName string `json:"payee_name"`
	QRImage   string `json:"qr_image"`
}

// InternationalSettings describe how shoppers abroad wire money.
type InternationalSettings struct {
	Enabled      bool   `json:"enabled"`
	Instructions string `json:"instructions"`
	BankName     string `json:"bank_name,omitempty"`
	AccountName  string `json:"account_name,omitempty"`
	AccountNo    string `json:"account_number,omitempty"`
	SwiftCode    string `json:"swift_code,omitempty"`
	IBAN         string `json:"iban,omitempty"`
}

type CryptoSettings struct {
	Enabled      bool   `json:"enabled"`
	Instructions string `json:"instructions,omitempty"`
}

// PaymentSettings configure the checkout payment rails.
type PaymentSettings struct {
	UPI           UPISettings           `json:"upi"`
	International InternationalSettings `json:"international"`
	Crypto        CryptoSettings        `json:"crypto"`
	UpdatedAt     *time.Time            `json:"updated_at,omitempty"`
}

func (p *PaymentSettings) validate() error {
	p.UPI.UPIID = strings.TrimSpace(p.UPI.UPIID)
	if p.UPI.Enabled && p.UPI.UPIID == "" {
		return invalidf("upi id is required when UPI is enabled")
	}
	if p.UPI.UPIID != "" && !strings.Contains(p.UPI.UPIID, "@") {
		return invalidf("upi id must look like name@bank")
	}
	if p.International.Enabled && strings.TrimSpace(p.International.Instructions) == "" && p.International.AccountNo == "" {
		return invalidf("international payments need instructions or account details")
	}
	return nil
}

// PaymentSettings returns the stored settings, or the zero value when none
// have been saved yet.
func (s *Store) PaymentSettings() (PaymentSettings, error) {
	return read[PaymentSettings](s, paymentSettingsFile)
}

// SavePaymentSettings replaces the stored settings.
func (s *Store) SavePaymentSettings(p PaymentSettings) (PaymentSettings, error) {
	if err := p.validate(); err != nil {
		return PaymentSettings{}, err
	}
	now := time.Now().UTC()
	p.UpdatedAt = &now

	return mutate(s, paymentSettingsFile, func(doc *PaymentSettings) error {
		*doc = p
		return nil
	})
}
