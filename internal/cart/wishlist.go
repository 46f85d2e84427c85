package cart

import "time"

// Wishlist is the set of products a shopper saved for later.
type Wishlist struct {
	Items []Product `json:"items"`
}

// Add saves p unless it is already on the list. It reports whether the list
// changed.
func (w *Wishlist) Add(p Product) bool {
	if w.Contains(p.ID) {
		return false
	}
	w.Items = append(w.Items, p)
	return true
}

// Remove drops productID and reports whether it was present.
func (w *Wishlist) Remove(productID string) bool {
	for i, p := range w.Items {
		if p.ID == productID {
			w.Items = append(w.Items[:i:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (w Wishlist) Contains(productID string) bool {
	for _, p := range w.Items {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func (w Wishlist) clone() Wishlist {
	if w.Items == nil {
		return Wishlist{}
	}
	return Wishlist{Items: append([]Product(nil), w.Items...)}
}

// Session is the signed-in account as returned by the login endpoint.
type Session struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Valid reports whether the session still carries a usable token at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}
