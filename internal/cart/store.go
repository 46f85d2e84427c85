package cart

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Storage is where a Store keeps its encoded snapshot. Load returns nil data
// when nothing has been saved yet.
type Storage interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStorage keeps the snapshot in a single file, replaced atomically.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f FileStorage) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// MemoryStorage keeps the snapshot in memory. Useful for tests and for
// shoppers who opt out of persistence.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// Store is the single owner of the shopper's state. Callers read copies via
// Snapshot and change state only through Update.
type Store struct {
	storage Storage
	now     func() time.Time

	mu   sync.Mutex
	snap Snapshot
}

// Open loads the saved snapshot from storage, migrating older layouts and
// writing the upgraded form back.
func Open(storage Storage) (*Store, error) {
	s := &Store{storage: storage, now: time.Now, snap: Snapshot{Version: SnapshotVersion}}

	data, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}

	snap, version, err := Decode(data)
	if err != nil {
		return nil, err
	}
	s.snap = snap

	if version != SnapshotVersion {
		log.Info().Int("from", version).Int("to", SnapshotVersion).Msg("migrated cart snapshot")
		if err := s.persist(s.snap); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Update runs fn against a copy of the state and commits it only when fn
// and the save both succeed.
func (s *Store) Update(fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.Version = SnapshotVersion
	next.SavedAt = s.now().UTC()

	if err := s.persist(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

func (s *Store) persist(snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return s.storage.Save(data)
}
