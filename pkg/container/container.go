package container

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/metrics"
)

// Container is a file-backed, append-only store of named entries.
//
// Every Read and Write opens and closes its own file handle. Container has no
// internal locking: callers must serialize access, and concurrent writers on
// the same file will corrupt it.
type Container struct {
	config   Config
	path     string
	index    *NameIndex
	registry *adapter.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
	closed   bool
}

// Open binds a container to cfg.Path. When cfg.ContentFile is set the file
// is created if missing and scanned to build the name index.
func Open(cfg Config) (*Container, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("container path is required")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = adapter.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		config:   cfg,
		path:     cfg.Path,
		index:    NewNameIndex(),
		registry: registry,
		logger:   logger.With(zap.String("path", cfg.Path)),
		metrics:  cfg.Metrics,
	}

	if cfg.ContentFile {
		if err := c.buildIndex(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Path returns the backing file path
func (c *Container) Path() string {
	return c.path
}

// Exists reports whether name is in the index
func (c *Container) Exists(name string) bool {
	if c.closed {
		return false
	}
	return c.index.Contains(name)
}

// Closed reports whether Close has been called
func (c *Container) Closed() bool {
	return c.closed
}

// Names returns every indexed name in sorted order
func (c *Container) Names() []string {
	if c.closed {
		return nil
	}
	return c.index.Names()
}

// Write appends value under name, encoded by the adapter registered for tag.
//
// Names are write-once: a name that is already indexed returns a
// *DuplicateEntryError and leaves the file untouched.
func (c *Container) Write(value any, name, tag string) error {
	start := time.Now()
	err := c.write(value, name, tag)
	c.metrics.RecordOperation("write", err == nil, time.Since(start))
	return err
}

func (c *Container) write(value any, name, tag string) error {
	if c.closed {
		return ErrClosed
	}
	if name == "" {
		return ErrInvalidName
	}
	if c.index.Contains(name) {
		c.logger.Debug("ignoring duplicate write", zap.String("name", name))
		return &DuplicateEntryError{Name: name}
	}

	a, ok := c.registry.Get(tag)
	if !ok {
		return &AdapterNotRegisteredError{Tag: tag}
	}

	var buf bytes.Buffer
	if err := encodeEntry(&buf, a, value, name, tag); err != nil {
		return fmt.Errorf("failed to encode entry %q: %w", name, err)
	}

	offset, err := appendToFile(c.path, buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to append entry %q: %w", name, err)
	}
	c.index.Add(name)

	c.logger.Debug("wrote entry",
		zap.String("name", name),
		zap.String("tag", tag),
		zap.Int64("offset", offset),
		zap.Int("size", buf.Len()),
	)
	c.metrics.UpdateContainerStats(c.index.Size(), offset+int64(buf.Len()))
	return nil
}

// Read returns the value stored under name
func (c *Container) Read(name string) (any, error) {
	entry, err := c.ReadEntry(name)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// ReadEntry scans the file from the start for name and decodes its payload.
//
// The scan stops at the first marker whose name matches and whose payload
// decodes. Candidates with an unknown tag or a malformed payload are skipped,
// so a corrupt entry and a missing one both end in *EntryNotFoundError.
func (c *Container) ReadEntry(name string) (*Entry, error) {
	start := time.Now()
	entry, scanned, err := c.readEntry(name)
	c.metrics.RecordScanBytes("read", scanned)
	c.metrics.RecordOperation("read", err == nil, time.Since(start))
	return entry, err
}

func (c *Container) readEntry(name string) (*Entry, int64, error) {
	if c.closed {
		return nil, 0, ErrClosed
	}

	file, size, err := openForScan(c.path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open container: %w", err)
	}
	defer file.Close()

	s := newScanner(file, size)
	for {
		candidate, ok, err := s.nextName()
		if err != nil {
			return nil, s.Offset(), fmt.Errorf("failed to scan container: %w", err)
		}
		if !ok {
			return nil, s.Offset(), &EntryNotFoundError{Name: name}
		}
		if candidate != name {
			continue
		}

		entryOffset := s.Offset()
		entry, err := c.decodeCandidate(s, name)
		if err != nil {
			c.logger.Debug("skipping unreadable candidate",
				zap.String("name", name),
				zap.Int64("offset", entryOffset),
				zap.Error(err),
			)
			continue
		}
		return entry, s.Offset(), nil
	}
}

// decodeCandidate reads the tag and payload following a matched name
func (c *Container) decodeCandidate(s *scanner, name string) (*Entry, error) {
	tag, ok, err := s.readTag()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: stream ended while reading tag", adapter.ErrMalformedPayload)
	}

	a, found := c.registry.Get(tag)
	if !found {
		return nil, &AdapterNotRegisteredError{Tag: tag}
	}

	value, err := a.Decode(s)
	if err != nil {
		return nil, err
	}
	return &Entry{Name: name, Tag: tag, Value: value}, nil
}

// Rescan rebuilds the name index from the file
func (c *Container) Rescan() error {
	if c.closed {
		return ErrClosed
	}
	return c.buildIndex()
}

func (c *Container) buildIndex() error {
	start := time.Now()

	file, size, err := openForScan(c.path)
	if err != nil {
		c.metrics.RecordOperation("index", false, time.Since(start))
		return fmt.Errorf("failed to open container: %w", err)
	}
	defer file.Close()

	s := newScanner(file, size)
	err = c.index.BuildFromScan(s)
	c.metrics.RecordScanBytes("index", s.Offset())
	c.metrics.RecordOperation("index", err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to build name index: %w", err)
	}

	c.logger.Info("built name index",
		zap.Int("entries", c.index.Size()),
		zap.Int64("bytes_scanned", s.Offset()),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.metrics.UpdateContainerStats(c.index.Size(), s.Offset())
	return nil
}

// Stats returns container statistics
func (c *Container) Stats() (Stats, error) {
	if c.closed {
		return Stats{}, ErrClosed
	}
	size, err := fileSize(c.path)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Entries: c.index.Size(), Size: size}, nil
}

// Delete removes the whole backing file and empties the index. A missing
// file is not an error.
func (c *Container) Delete() error {
	if c.closed {
		return ErrClosed
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete container: %w", err)
	}
	c.index.Clear()

	c.logger.Info("deleted container file")
	c.metrics.UpdateContainerStats(0, 0)
	return nil
}

// Close releases the index and registry. Later operations return ErrClosed.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.index = nil
	c.registry = nil
	return nil
}

// RegisterAdapter adds a to the container's registry
func (c *Container) RegisterAdapter(a adapter.Adapter) error {
	if c.closed {
		return ErrClosed
	}
	return c.registry.Register(a)
}

// UnregisterAdapter removes the adapter for tag
func (c *Container) UnregisterAdapter(tag string) bool {
	if c.closed {
		return false
	}
	return c.registry.Unregister(tag)
}

// AdapterExists reports whether tag has an adapter
func (c *Container) AdapterExists(tag string) bool {
	if c.closed {
		return false
	}
	return c.registry.Exists(tag)
}

// AdapterTags returns all registered tags in sorted order
func (c *Container) AdapterTags() []string {
	if c.closed {
		return nil
	}
	return c.registry.Tags()
}

// Adapter returns the adapter for tag
func (c *Container) Adapter(tag string) (adapter.Adapter, bool) {
	if c.closed {
		return nil, false
	}
	return c.registry.Get(tag)
}

// Registry returns the container's adapter registry, or nil once closed
func (c *Container) Registry() *adapter.Registry {
	return c.registry
}
