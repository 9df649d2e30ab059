// Package cache persists fact values as small YAML files with a capture
// timestamp so that expensive subscription-manager calls are not repeated
// on every run.
//
// A cache file looks like:
//
//	captured: 2026-10-17T10:00:00Z
//	values:
//	  - rhel-7-server-rpms
//	  - rhel-7-server-optional-rpms
//
// Values are fresh while their age is below the TTL. Writes go to a
// temporary file in the same directory which is synced and renamed over the
// target, so readers never observe a partial file.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/utils/clock"
)

// DefaultDir holds the fact caches.
const DefaultDir = "/var/cache/rhsm"

// DefaultTTL is how long cached facts are served before recomputing.
const DefaultTTL = 24 * time.Hour

// Outcome describes how GetOrCompute produced its values.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeRefresh Outcome = "refresh"
	OutcomeError   Outcome = "error"
)

// Record is the on-disk form of a cached fact.
type Record struct {
	Captured time.Time `yaml:"captured"`
	Values   []string  `yaml:"values"`
}

// Cache is a single cache file.
type Cache struct {
	path  string
	ttl   time.Duration
	clock clock.PassiveClock
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.PassiveClock) Option {
	return func(ca *Cache) {
		ca.clock = c
	}
}

// New returns a cache stored at path whose records expire after ttl. A
// non-positive ttl makes every record stale.
func New(path string, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		path:  path,
		ttl:   ttl,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PathFor returns the cache file for a fact in dir.
func PathFor(dir, fact string) string {
	return filepath.Join(dir, fact+".yaml")
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Load reads the cache file. A missing file returns os.ErrNotExist
// (wrapped); an unreadable or corrupt one returns a decode error.
func (c *Cache) Load() (*Record, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", c.path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", c.path, err)
	}
	if rec.Captured.IsZero() {
		return nil, fmt.Errorf("failed to decode cache %s: missing captured timestamp", c.path)
	}
	if rec.Values == nil {
		rec.Values = []string{}
	}
	return &rec, nil
}

// Store writes values with the current time as the capture timestamp.
func (c *Cache) Store(values []string) error {
	if values == nil {
		values = []string{}
	}

	data, err := yaml.Marshal(Record{
		Captured: c.clock.Now().UTC().Truncate(time.Second),
		Values:   values,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	return writeAtomic(c.path, data)
}

// Fresh reports whether rec is younger than the TTL.
func (c *Cache) Fresh(rec *Record) bool {
	if rec == nil || c.ttl <= 0 {
		return false
	}
	age := c.clock.Since(rec.Captured)
	return age >= 0 && age < c.ttl
}

// GetOrCompute returns the cached values when fresh. Otherwise it calls
// compute, persists the result and returns it. Failing to persist is logged
// and does not fail the call.
func (c *Cache) GetOrCompute(ctx context.Context, compute func(context.Context) ([]string, error)) ([]string, Outcome, error) {
	rec, err := c.Load()
	switch {
	case err == nil && c.Fresh(rec):
		slog.Debug("cache hit", slog.String("path", c.path))
		return rec.Values, OutcomeHit, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		slog.Warn("ignoring unreadable cache", slog.String("path", c.path), slog.String("error", err.Error()))
	}

	return c.compute(ctx, compute, OutcomeMiss)
}

// Refresh computes the values and stores them without reading the current
// file, however fresh it is.
func (c *Cache) Refresh(ctx context.Context, compute func(context.Context) ([]string, error)) ([]string, Outcome, error) {
	return c.compute(ctx, compute, OutcomeRefresh)
}

func (c *Cache) compute(ctx context.Context, compute func(context.Context) ([]string, error), outcome Outcome) ([]string, Outcome, error) {
	values, err := compute(ctx)
	if err != nil {
		return nil, OutcomeError, err
	}
	if values == nil {
		values = []string{}
	}

	if err := c.Store(values); err != nil {
		slog.Warn("failed to persist cache", slog.String("path", c.path), slog.String("error", err.Error()))
	}

	return values, outcome, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync cache: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set cache permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache %s: %w", path, err)
	}
	return nil
}
