package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/pricing"
)

// SnapshotVersion is the layout written by Encode.
const SnapshotVersion = 2

var (
	ErrCorruptSnapshot     = errors.New("cart snapshot is corrupt")
	ErrUnsupportedSnapshot = errors.New("cart snapshot version is not supported")
)

// Snapshot is everything the shopper's device keeps between visits.
type Snapshot struct {
	Version  int       `json:"version"`
	Cart     Cart      `json:"cart"`
	Wishlist Wishlist  `json:"wishlist"`
	Session  *Session  `json:"session,omitempty"`
	SavedAt  time.Time `json:"savedAt"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Version:  s.Version,
		Cart:     s.Cart.clone(),
		Wishlist: s.Wishlist.clone(),
		Session:  s.Session.clone(),
		SavedAt:  s.SavedAt,
	}
}

// snapshotV1 is the original flat layout: separate top-level keys for the
// cart lines, the applied promo, the wishlist and the bare token.
type snapshotV1 struct {
	Cart         []Line         `json:"cart"`
	AppliedPromo *pricing.Promo `json:"appliedPromo"`
	Wishlist     []Product      `json:"wishlist"`
	Token        string         `json:"token"`
	User         *struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (v snapshotV1) migrate() Snapshot {
	s := Snapshot{
		Version:  SnapshotVersion,
		Cart:     Cart{Lines: v.Cart, Promo: v.AppliedPromo},
		Wishlist: Wishlist{Items: v.Wishlist},
	}
	if v.Token != "" {
		s.Session = &Session{Token: v.Token}
		if v.User != nil {
			s.Session.UserID = v.User.ID
			s.Session.Name = v.User.Name
			s.Session.Email = v.User.Email
			s.Session.Role = v.User.Role
		}
	}
	return s
}

// Encode serializes s in the current layout.
func Encode(s Snapshot) ([]byte, error) {
	s.Version = SnapshotVersion
	return json.Marshal(s)
}

// Decode parses any known snapshot layout and upgrades it to the current
// one. The returned version is the one found in data; a missing version
// field means the v1 layout.
func Decode(data []byte) (Snapshot, int, error) {
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Snapshot{}, 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	switch header.Version {
	case 0, 1:
		var v1 snapshotV1
		if err := json.Unmarshal(data, &v1); err != nil {
			return Snapshot{}, 1, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		return v1.migrate(), 1, nil
	case SnapshotVersion:
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return Snapshot{}, header.Version, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		return s, header.Version, nil
	default:
		return Snapshot{}, header.Version, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, header.Version)
	}
}
