package filestore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func TestVideos(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.Videos(false)
	require.NoError(t, err)
	assert.Empty(t, empty)

	second, err := s.CreateVideo(Video{Title: "Brewing", URL: "https://youtu.be/b", DisplayOrder: 2, IsActive: true})
	require.NoError(t, err)
	first, err := s.CreateVideo(Video{Title: "Unboxing", URL: "https://youtu.be/a", DisplayOrder: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	all, err := s.Videos(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	active, err := s.Videos(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	updated, err := s.UpdateVideo(first.ID, Video{Title: "Unboxing v2", URL: "https://youtu.be/a2", IsActive: true})
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "Unboxing v2", updated.Title)

	_, err = s.UpdateVideo("missing", Video{Title: "x", URL: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CreateVideo(Video{Title: " "})
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, s.DeleteVideo(second.ID))
	assert.ErrorIs(t, s.DeleteVideo(second.ID), ErrNotFound)

	// a fresh store over the same directory sees the persisted document
	reopened, err := New(s.Dir())
	require.NoError(t, err)
	all, err = reopened.Videos(false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Unboxing v2", all[0].Title)
}

func TestCryptoCoins(t *testing.T) {
	s := newTestStore(t)

	usdt, err := s.CreateCryptoCoin(CryptoCoin{
		Name: "Tether", Symbol: "usdt", IsActive: true,
		Networks: []CryptoNetwork{
			{Name: "TRC20", WalletAddress: "T-wallet"},
			{Name: "ERC20", WalletAddress: "0xwallet"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "USDT", usdt.Symbol)

	_, err = s.CreateCryptoCoin(CryptoCoin{Name: "Tether", Symbol: "USDT", Networks: []CryptoNetwork{{Name: "TRC20", WalletAddress: "x"}}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreateCryptoCoin(CryptoCoin{Name: "Bitcoin", Symbol: "BTC"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreateCryptoCoin(CryptoCoin{Name: "Bitcoin", Symbol: "BTC", Networks: []CryptoNetwork{
		{Name: "Bitcoin", WalletAddress: "bc1"}, {Name: "bitcoin", WalletAddress: "bc2"},
	}})
	assert.ErrorIs(t, err, ErrInvalid)

	btc, err := s.CreateCryptoCoin(CryptoCoin{Name: "Bitcoin", Symbol: "BTC", Networks: []CryptoNetwork{{Name: "Bitcoin", WalletAddress: "bc1"}}})
	require.NoError(t, err)

	_, err = s.UpdateCryptoCoin(btc.ID, CryptoCoin{Name: "Bitcoin", Symbol: "USDT", Networks: btc.Networks})
	assert.ErrorIs(t, err, ErrInvalid)

	btc, err = s.UpdateCryptoCoin(btc.ID, CryptoCoin{Name: "Bitcoin", Symbol: "BTC", IsActive: true, Networks: btc.Networks})
	require.NoError(t, err)
	assert.True(t, btc.IsActive)

	active, err := s.CryptoCoins(true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, s.DeleteCryptoCoin(usdt.ID))
	all, err := s.CryptoCoins(false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "BTC", all[0].Symbol)
}

func TestPaymentSettings(t *testing.T) {
	s := newTestStore(t)

	initial, err := s.PaymentSettings()
	require.NoError(t, err)
	assert.False(t, initial.UPI.Enabled)
	assert.Nil(t, initial.UpdatedAt)

	_, err = s.SavePaymentSettings(PaymentSettings{UPI: UPISettings{Enabled: true}})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.SavePaymentSettings(PaymentSettings{UPI: UPISettings{Enabled: true, UPIID: "shop"}})
	assert.ErrorIs(t, err, ErrInvalid)

	saved, err := s.SavePaymentSettings(PaymentSettings{
		UPI:           UPISettings{Enabled: true, UPIID: "shop@okbank", PayeeName: "Shop", QRImage: "/uploads/qr.png"},
		International: InternationalSettings{Enabled: true, Instructions: "Wire to account below"},
		Crypto:        CryptoSettings{Enabled: true},
	})
	require.NoError(t, err)
	require.NotNil(t, saved.UpdatedAt)

	loaded, err := s.PaymentSettings()
	require.NoError(t, err)
	assert.Equal(t, "shop@okbank", loaded.UPI.UPIID)
	assert.True(t, loaded.Crypto.Enabled)
}

func TestStore_CorruptDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), videosFile), []byte("{not json"), 0o644))

	_, err := s.Videos(false)
	assert.Error(t, err)

	// failed loads never overwrite the file
	_, err = s.CreateVideo(Video{Title: "a", URL: "b"})
	assert.Error(t, err)
	data, err := os.ReadFile(filepath.Join(s.Dir(), videosFile))
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateVideo(Video{Title: "clip", URL: "https://example.com/clip"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.Videos(false)
	require.NoError(t, err)
	assert.Len(t, all, 20)

	leftovers, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
