// Package refcache keeps Syncro reference data (techs, customers, contacts,
// issue types, statuses, products) in a JSON file between runs.
package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/syncro-import/internal/model"
)

// ErrCorrupt is returned when the cache file is not valid JSON.
var ErrCorrupt = errors.New("corrupt reference cache")

// Fetcher loads fresh reference data from Syncro.
type Fetcher func(ctx context.Context) (*model.Reference, error)

type cacheFile struct {
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	model.Reference
}

// Store reads and writes one cache file.
type Store struct {
	path string
	now  func() time.Time
	log  zerolog.Logger
}

// New returns a store for path.
func New(path string, logger *zerolog.Logger) *Store {
	s := &Store{path: path, now: time.Now, log: zerolog.Nop()}
	if logger != nil {
		s.log = logger.With().Str("component", "refcache").Str("path", path).Logger()
	}
	return s
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

// Load reads the cache. A missing file returns ok == false and no error.
// A corrupt file is moved aside to <path>.corrupt.
func (s *Store) Load() (ref *model.Reference, fetchedAt time.Time, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		backupPath := s.path + ".corrupt"
		_ = os.Rename(s.path, backupPath)
		return nil, time.Time{}, false, fmt.Errorf("%w in %s (backed up to %s): %v", ErrCorrupt, s.path, backupPath, err)
	}
	return &f.Reference, f.FetchedAt, true, nil
}

// Save atomically writes ref.
func (s *Store) Save(ref *model.Reference) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cacheFile{FetchedAt: s.now().UTC(), Reference: *ref}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling reference cache: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp cache file: %w", err)
	}
	return nil
}

// Clear removes the cache file. Clearing a missing cache is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", s.path, err)
	}
	return nil
}

// Refresh fetches fresh data and overwrites the cache.
func (s *Store) Refresh(ctx context.Context, fetch Fetcher) (*model.Reference, error) {
	ref, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reference data: %w", err)
	}
	Sanitize(ref)
	if err := s.Save(ref); err != nil {
		return nil, err
	}
	s.log.Info().Int("customers", len(ref.Customers)).Int("techs", len(ref.Techs)).Msg("reference cache refreshed")
	return ref, nil
}

// LoadOrFetch returns cached data, fetching and saving it when the cache is
// missing or corrupt. Cached data that needed sanitizing is written back.
func (s *Store) LoadOrFetch(ctx context.Context, fetch Fetcher) (*model.Reference, error) {
	ref, fetchedAt, ok, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("discarding corrupt reference cache")
	}
	if !ok {
		return s.Refresh(ctx, fetch)
	}

	s.log.Debug().Time("fetched_at", fetchedAt).Msg("using cached reference data")
	if Sanitize(ref) {
		if err := s.Save(ref); err != nil {
			s.log.Warn().Err(err).Msg("could not persist sanitized reference cache")
		}
	}
	return ref, nil
}

// Sanitize drops customers without a business name and trims names. It
// reports whether anything changed.
func Sanitize(ref *model.Reference) bool {
	changed := false
	kept := ref.Customers[:0]
	for _, c := range ref.Customers {
		name := strings.TrimSpace(c.BusinessName)
		if name == "" {
			changed = true
			continue
		}
		if name != c.BusinessName {
			c.BusinessName = name
			changed = true
		}
		kept = append(kept, c)
	}
	ref.Customers = kept

	for i, t := range ref.Techs {
		if name := strings.TrimSpace(t.Name); name != t.Name {
			ref.Techs[i].Name = name
			changed = true
		}
	}
	for i, c := range ref.Contacts {
		if name := strings.TrimSpace(c.Name); name != c.Name {
			ref.Contacts[i].Name = name
			changed = true
		}
	}
	return changed
}
