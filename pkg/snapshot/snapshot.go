// Package snapshot mirrors a container into a Pebble database and back.
//
// Each entry is stored under "entry/<name>" as its embedded-mode bytes, so a
// snapshot value can be decoded without the container file. A JSON manifest
// lives under "meta/manifest".
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/container"
)

const (
	entryPrefix = "entry/"
	manifestKey = "meta/manifest"
)

// entryPrefixEnd is the first key after every "entry/" key
var entryPrefixEnd = []byte("entry0")

// ErrNoManifest is returned when a snapshot directory has no manifest
var ErrNoManifest = errors.New("snapshot has no manifest")

// Manifest describes one export
type Manifest struct {
	ID      ksuid.KSUID `json:"id"`
	Created time.Time   `json:"created"`
	Entries int         `json:"entries"`
	Skipped int         `json:"skipped"`
}

// ImportResult reports what an import did
type ImportResult struct {
	Manifest *Manifest `json:"manifest"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
}

// Store is an open snapshot database
type Store struct {
	db     *pebble.DB
	logger *zap.Logger
}

// pebbleLogger routes pebble's own messages through zap at debug level
type pebbleLogger struct {
	sugar *zap.SugaredLogger
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// Open opens or creates the snapshot database in dir
func Open(dir string) (*Store, error) {
	return open(dir, &pebble.Options{})
}

// OpenExisting opens the snapshot database in dir and fails if there is none
func OpenExisting(dir string) (*Store, error) {
	return open(dir, &pebble.Options{ErrorIfNotExists: true})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	logger := zap.L().Named("snapshot").With(zap.String("dir", dir))
	opts.Logger = pebbleLogger{sugar: logger.Named("pebble").Sugar()}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", dir, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Export replaces the snapshot's entries with every readable entry of c and
// writes a new manifest. Indexed names that no longer decode are skipped.
func (s *Store) Export(ctx context.Context, c *container.Container) (*Manifest, error) {
	if c.Closed() {
		return nil, container.ErrClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange([]byte(entryPrefix), entryPrefixEnd, nil); err != nil {
		return nil, fmt.Errorf("failed to clear previous entries: %w", err)
	}

	manifest := &Manifest{ID: ksuid.New(), Created: time.Now().UTC()}

	var buf bytes.Buffer
	for _, name := range c.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := c.ReadEntry(name)
		if err != nil {
			if errors.Is(err, container.ErrEntryNotFound) {
				s.logger.Debug("skipping unreadable entry", zap.String("name", name))
				manifest.Skipped++
				continue
			}
			return nil, err
		}

		buf.Reset()
		if err := c.WriteEmbedded(&buf, entry.Value, entry.Name, entry.Tag); err != nil {
			return nil, err
		}
		if err := batch.Set(entryKey(name), buf.Bytes(), nil); err != nil {
			return nil, fmt.Errorf("failed to stage entry %q: %w", name, err)
		}
		manifest.Entries++
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := batch.Set([]byte(manifestKey), data, nil); err != nil {
		return nil, fmt.Errorf("failed to stage manifest: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info("exported snapshot",
		zap.Stringer("id", manifest.ID),
		zap.Int("entries", manifest.Entries),
		zap.Int("skipped", manifest.Skipped),
	)
	return manifest, nil
}

// Import writes every snapshot entry that c does not already hold. Existing
// names are counted as skipped.
func (s *Store) Import(ctx context.Context, c *container.Container) (*ImportResult, error) {
	if c.Closed() {
		return nil, container.ErrClosed
	}

	manifest, err := s.Manifest()
	if err != nil {
		return nil, err
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryPrefix),
		UpperBound: entryPrefixEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}
	defer iter.Close()

	result := &ImportResult{Manifest: manifest}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(string(iter.Key()), entryPrefix)
		entry, err := container.ReadEmbeddedEntry(bytes.NewReader(iter.Value()), c.Registry(), name)
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot entry %q: %w", name, err)
		}

		err = c.Write(entry.Value, entry.Name, entry.Tag)
		switch {
		case errors.Is(err, container.ErrDuplicateEntry):
			result.Skipped++
		case err != nil:
			return nil, err
		default:
			result.Imported++
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}

	s.logger.Info("imported snapshot",
		zap.Stringer("id", manifest.ID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Manifest returns the manifest of the last export
func (s *Store) Manifest() (*Manifest, error) {
	data, closer, err := s.db.Get([]byte(manifestKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer closer.Close()

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// Names returns the entry names held by the snapshot in key order
func (s *Store) Names() ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryPrefix),
		UpperBound: entryPrefixEnd,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), entryPrefix))
	}
	return names, iter.Error()
}

func entryKey(name string) []byte {
	return []byte(entryPrefix + name)
}

// Export opens dir, exports c into it and closes it again
func Export(ctx context.Context, c *container.Container, dir string) (*Manifest, error) {
	s, err := Open(dir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Export(ctx, c)
}

// Import opens the snapshot in dir and imports it into c
func Import(ctx context.Context, dir string, c *container.Container) (*ImportResult, error) {
	s, err := OpenExisting(dir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Import(ctx, c)
}

// ReadManifest returns the manifest stored in dir
func ReadManifest(dir string) (*Manifest, error) {
	s, err := OpenExisting(dir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Manifest()
}
