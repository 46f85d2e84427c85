package cart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/pricing"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const v1Snapshot = `{
	"cart": [{"product": {"id": "chai", "name": "Masala Chai", "price": 250}, "quantity": 2}],
	"appliedPromo": {"code": "SAVE10", "discount_type": "percentage", "discount_value": 10, "is_active": true},
	"wishlist": [{"id": "kettle", "name": "Brass Kettle", "price": 1200, "discount": 10}],
	"token": "jwt-token",
	"user": {"id": "u-1", "name": "Asha", "email": "asha@example.com", "role": "customer"}
}`

func TestDecode_MigratesV1(t *testing.T) {
	snap, version, err := Decode([]byte(v1Snapshot))
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	want := Snapshot{
		Version: SnapshotVersion,
		Cart: Cart{
			Lines: []Line{{Product: chai, Quantity: 2}},
			Promo: &pricing.Promo{Code: "SAVE10", Type: pricing.Percentage, Value: 10, Active: true},
		},
		Wishlist: Wishlist{Items: []Product{kettle}},
		Session:  &Session{Token: "jwt-token", UserID: "u-1", Name: "Asha", Email: "asha@example.com", Role: "customer"},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("migrated snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode([]byte(`{"version": 3}`))
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)

	_, _, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, _, err = Decode([]byte(`{"version": 2, "cart": {"items": "nope"}}`))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestEncodeDecode(t *testing.T) {
	expires := fixedNow.Add(24 * time.Hour)
	in := Snapshot{
		Cart:     Cart{Lines: []Line{{Product: gift, Quantity: 1, PromoFree: true, PromoOriginalPrice: 499}}},
		Wishlist: Wishlist{Items: []Product{chai}},
		Session:  &Session{Token: "t", ExpiresAt: &expires},
		SavedAt:  fixedNow,
	}

	data, err := Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isPromoFree":true`)
	assert.Contains(t, string(data), `"promoOriginalPrice":499`)

	out, version, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, version)

	in.Version = SnapshotVersion
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_OpenMigratesAndPersists(t *testing.T) {
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save([]byte(v1Snapshot)))

	store, err := Open(storage)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Snapshot().Cart.Len())

	data, err := storage.Load()
	require.NoError(t, err)
	_, version, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, version)
}

func TestStore_UpdateCommitsOnlyOnSuccess(t *testing.T) {
	storage := &MemoryStorage{}
	store, err := Open(storage)
	require.NoError(t, err)
	store.now = func() time.Time { return fixedNow }

	require.NoError(t, store.Update(func(s *Snapshot) error {
		return s.Cart.Add(chai, 1)
	}))

	err = store.Update(func(s *Snapshot) error {
		require.NoError(t, s.Cart.Add(kettle, 1))
		return s.Cart.Add(kettle, 0)
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	snap := store.Snapshot()
	assert.Equal(t, []Line{{Product: chai, Quantity: 1}}, snap.Cart.Lines)
	assert.True(t, snap.SavedAt.Equal(fixedNow))

	// callers cannot reach the store's state through a copy
	snap.Cart.Lines[0].Quantity = 99
	assert.Equal(t, 1, store.Snapshot().Cart.Lines[0].Quantity)

	data, err := storage.Load()
	require.NoError(t, err)
	saved, _, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(store.Snapshot(), saved); diff != "" {
		t.Fatalf("storage out of sync (-store +saved):\n%s", diff)
	}
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cart.json")
	storage := FileStorage{Path: path}

	data, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, data)

	store, err := Open(storage)
	require.NoError(t, err)
	require.NoError(t, store.Update(func(s *Snapshot) error {
		s.Wishlist.Add(kettle)
		s.Session = &Session{Token: "t", Email: "asha@example.com"}
		return s.Cart.Add(chai, 2)
	}))

	reopened, err := Open(storage)
	require.NoError(t, err)
	if diff := cmp.Diff(store.Snapshot(), reopened.Snapshot()); diff != "" {
		t.Fatalf("reopened state mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = Open(storage)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}
