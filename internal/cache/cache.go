// Package cache persists resolved matches keyed by the query that found them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stupside/pitchside/internal/catalog"
)

// Entry is a cached match. SavedAt is zero for entries written by older
// versions and such entries never expire.
type Entry struct {
	catalog.Match
	SavedAt time.Time `json:"saved_at,omitzero"`
}

// Entries maps a raw query, as typed, to its match.
type Entries map[string]Entry

// Lookup returns the entry for query if it is still fresh at now. A zero ttl
// disables expiry.
func (e Entries) Lookup(query string, ttl time.Duration, now time.Time) (catalog.Match, bool) {
	entry, ok := e[query]
	if !ok {
		return catalog.Match{}, false
	}
	if ttl > 0 && !entry.SavedAt.IsZero() && now.Sub(entry.SavedAt) >= ttl {
		return catalog.Match{}, false
	}
	return entry.Match, true
}

// Put stores m under query.
func (e Entries) Put(query string, m catalog.Match, now time.Time) {
	e[query] = Entry{Match: m, SavedAt: now}
}

// Store reads and writes Entries as one JSON document.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load never fails: a missing, unreadable or malformed file reads as empty.
func (s *Store) Load(ctx context.Context) Entries {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.DebugContext(ctx, "cache unreadable, starting empty", "path", s.path, "error", err)
		}
		return Entries{}
	}

	var entries Entries
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.DebugContext(ctx, "cache malformed, starting empty", "path", s.path, "error", err)
		return Entries{}
	}
	if entries == nil {
		entries = Entries{}
	}
	return entries
}

// Save replaces the backing file. The previous file stays intact if any step
// fails.
func (s *Store) Save(ctx context.Context, entries Entries) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing cache %s: %w", s.path, err)
	}

	slog.DebugContext(ctx, "cache saved", "path", s.path, "entries", len(entries))
	return nil
}

// Clear removes the backing file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing cache %s: %w", s.path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
