package facts

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/treydock/puppet-subscription-manager/pkg/cache"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateAvailableReposCollector() Collector
	CreateEnabledReposCollector() Collector
	CreateDisabledReposCollector() Collector
	CreateEnabledPoolsCollector() Collector
	CreateIdentityCollector() Collector
	CreateServicesCollector() Collector
}

// DefaultFactory creates collectors backed by subscription-manager and
// systemd. Repository and pool facts are cached unless NoCache is set or
// TTL is not positive.
type DefaultFactory struct {
	Runner       runner.Runner
	Exclude      []string
	ServiceUnits []string

	CacheDir string
	TTL      time.Duration
	NoCache  bool
	// Refresh recollects cached facts and rewrites their files.
	Refresh bool
	Clock   clock.PassiveClock
}

// NewDefaultFactory returns a factory with the default cache location and
// service units.
func NewDefaultFactory(r runner.Runner) *DefaultFactory {
	return &DefaultFactory{
		Runner:       r,
		ServiceUnits: DefaultServiceUnits,
		CacheDir:     cache.DefaultDir,
		TTL:          cache.DefaultTTL,
	}
}

// CreateAvailableReposCollector creates the rhsm_available_repos collector.
func (f *DefaultFactory) CreateAvailableReposCollector() Collector {
	return f.filtered(f.cached(&RepoCollector{Runner: f.Runner, Fact: AvailableRepos, Flag: "--list"}))
}

// CreateEnabledReposCollector creates the rhsm_enabled_repos collector.
func (f *DefaultFactory) CreateEnabledReposCollector() Collector {
	return f.filtered(f.cached(&RepoCollector{Runner: f.Runner, Fact: EnabledRepos, Flag: "--list-enabled"}))
}

// CreateDisabledReposCollector creates the rhsm_disabled_repos collector.
func (f *DefaultFactory) CreateDisabledReposCollector() Collector {
	return f.filtered(f.cached(&RepoCollector{Runner: f.Runner, Fact: DisabledRepos, Flag: "--list-disabled"}))
}

// CreateEnabledPoolsCollector creates the rhsm_enabled_pools collector.
func (f *DefaultFactory) CreateEnabledPoolsCollector() Collector {
	return f.cached(&PoolCollector{Runner: f.Runner})
}

// CreateIdentityCollector creates the rhsm_identity collector.
func (f *DefaultFactory) CreateIdentityCollector() Collector {
	return &IdentityCollector{Runner: f.Runner}
}

// CreateServicesCollector creates the rhsm_services collector.
func (f *DefaultFactory) CreateServicesCollector() Collector {
	return &ServicesCollector{Units: f.ServiceUnits}
}

func (f *DefaultFactory) cached(c Collector) Collector {
	if f.NoCache || f.TTL <= 0 || f.CacheDir == "" {
		return c
	}

	var opts []cache.Option
	if f.Clock != nil {
		opts = append(opts, cache.WithClock(f.Clock))
	}
	return &Cached{
		Collector: c,
		Cache:     cache.New(CachePath(f.CacheDir, c.Name()), f.TTL, opts...),
		Refresh:   f.Refresh,
	}
}

// filtered applies Exclude on top of the cache so cache files always hold
// the full listing.
func (f *DefaultFactory) filtered(c Collector) Collector {
	if len(f.Exclude) == 0 {
		return c
	}
	return &Filtered{Collector: c, Exclude: f.Exclude}
}

// Create returns the collector for a fact name.
func Create(f Factory, name string) (Collector, error) {
	switch name {
	case AvailableRepos:
		return f.CreateAvailableReposCollector(), nil
	case EnabledRepos:
		return f.CreateEnabledReposCollector(), nil
	case DisabledRepos:
		return f.CreateDisabledReposCollector(), nil
	case EnabledPools:
		return f.CreateEnabledPoolsCollector(), nil
	case Identity:
		return f.CreateIdentityCollector(), nil
	case Services:
		return f.CreateServicesCollector(), nil
	}
	return nil, fmt.Errorf("unknown fact %q, expected one of: %s", name, strings.Join(Names(), ", "))
}
