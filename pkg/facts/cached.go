package facts

import (
	"context"
	"strings"

	"github.com/treydock/puppet-subscription-manager/pkg/cache"
)

// Cached serves a Collector from a cache file while it is fresh. With
// Refresh set it always collects and rewrites the file.
type Cached struct {
	Collector Collector
	Cache     *cache.Cache
	Refresh   bool
}

// CachePath returns the cache file for fact in dir, e.g.
// /var/cache/rhsm/enabled_repos.yaml for rhsm_enabled_repos.
func CachePath(dir, fact string) string {
	return cache.PathFor(dir, strings.TrimPrefix(fact, "rhsm_"))
}

// Name implements Collector.
func (c *Cached) Name() string {
	return c.Collector.Name()
}

// Collect implements Collector.
func (c *Cached) Collect(ctx context.Context) ([]string, error) {
	get := c.Cache.GetOrCompute
	if c.Refresh {
		get = c.Cache.Refresh
	}
	values, outcome, err := get(ctx, c.Collector.Collect)
	factCacheTotal.WithLabelValues(c.Name(), string(outcome)).Inc()
	return values, err
}
