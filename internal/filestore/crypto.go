package filestore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CryptoNetwork is a chain a coin can be paid on, with the wallet that
// receives it.
type CryptoNetwork struct {
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address"`
	QRImage       string `json:"qr_image,omitempty"`
}

type CryptoCoin struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	Icon      string          `json:"icon,omitempty"`
	IsActive  bool            `json:"is_active"`
	Networks  []CryptoNetwork `json:"networks"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *CryptoCoin) validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	if c.Name == "" || c.Symbol == "" {
		return invalidf("coin name and symbol are required")
	}
	if len(c.Networks) == 0 {
		return invalidf("coin %s needs at least one network", c.Symbol)
	}

	seen := make(map[string]bool, len(c.Networks))
	for i := range c.Networks {
		n := &c.Networks[i]
		n.Name = strings.TrimSpace(n.Name)
		n.WalletAddress = strings.TrimSpace(n.WalletAddress)
		if n.Name == "" || n.WalletAddress == "" {
			return invalidf("network %d of %s needs a name and wallet address", i+1, c.Symbol)
		}
		key := strings.ToLower(n.Name)
		if seen[key] {
			return invalidf("network %s listed twice for %s", n.Name, c.Symbol)
		}
		seen[key] = true
	}
	return nil
}

// CryptoCoins returns the configured coins in insertion order.
func (s *Store) CryptoCoins(activeOnly bool) ([]CryptoCoin, error) {
	all, err := read[[]CryptoCoin](s, cryptoFile)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		if all == nil {
			all = []CryptoCoin{}
		}
		return all, nil
	}

	out := make([]CryptoCoin, 0, len(all))
	for _, c := range all {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateCryptoCoin appends c. Symbols are unique.
func (s *Store) CreateCryptoCoin(c CryptoCoin) (CryptoCoin, error) {
	if err := c.validate(); err != nil {
		return CryptoCoin{}, err
	}
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := mutate(s, cryptoFile, func(all *[]CryptoCoin) error {
		for _, existing := range *all {
			if existing.Symbol == c.Symbol {
				return invalidf("coin %s already exists", c.Symbol)
			}
		}
		*all = append(*all, c)
		return nil
	})
	return c, err
}

func (s *Store) UpdateCryptoCoin(id string, c CryptoCoin) (CryptoCoin, error) {
	if err := c.validate(); err != nil {
		return CryptoCoin{}, err
	}

	var updated CryptoCoin
	_, err := mutate(s, cryptoFile, func(all *[]CryptoCoin) error {
		idx := -1
		for i, existing := range *all {
			if existing.ID == id {
				idx = i
			} else if existing.Symbol == c.Symbol {
				return invalidf("coin %s already exists", c.Symbol)
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		c.ID = id
		c.CreatedAt = (*all)[idx].CreatedAt
		c.UpdatedAt = time.Now().UTC()
		(*all)[idx] = c
		updated = c
		return nil
	})
	return updated, err
}

func (s *Store) DeleteCryptoCoin(id string) error {
	_, err := mutate(s, cryptoFile, func(all *[]CryptoCoin) error {
		for i := range *all {
			if (*all)[i].ID == id {
				*all = append((*all)[:i], (*all)[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return err
}
