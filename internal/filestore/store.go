// Package filestore keeps small admin-managed documents as JSON files on
// disk: videos, crypto coins and payment settings.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	videosFile          = "videos.json"
	cryptoFile          = "crypto.json"
	paymentSettingsFile = "payment-settings.json"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Store serialises read-modify-write cycles on the documents in dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a Store rooted at dir, creating the directory when needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir is the directory the documents live in.
func (s *Store) Dir() string {
	return s.dir
}

// load decodes name into v. A missing file leaves v untouched.
func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// save writes v to a temporary file and renames it over name so readers
// never observe a partial document.
func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
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

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return err
	}
	log.Debug().Str("file", name).Int("bytes", len(data)).Msg("filestore: document saved")
	return nil
}

func read[T any](s *Store, name string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc T
	err := s.load(name, &doc)
	return doc, err
}

// mutate loads name, applies fn and saves the result. Nothing is written
// when fn fails.
func mutate[T any](s *Store, name string, fn func(*T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc T
	if err := s.load(name, &doc); err != nil {
		return doc, err
	}
	if err := fn(&doc); err != nil {
		return doc, err
	}
	if err := s.save(name, doc); err != nil {
		return doc, err
	}
	return doc, nil
}
