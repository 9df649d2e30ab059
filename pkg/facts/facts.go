// Package facts exports subscription state as inventory facts: lists of
// strings such as the enabled repository ids or the consumed pool ids.
//
// Every collector treats a host without subscription-manager as having no
// facts (an empty list, no error). Repository and pool facts can be served
// from a file cache (see Cached) and are gathered together by Snapshotter.
package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/pool"
	"github.com/treydock/puppet-subscription-manager/pkg/provider"
	"github.com/treydock/puppet-subscription-manager/pkg/record"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

// Fact names.
const (
	AvailableRepos = "rhsm_available_repos"
	EnabledRepos   = "rhsm_enabled_repos"
	DisabledRepos  = "rhsm_disabled_repos"
	EnabledPools   = "rhsm_enabled_pools"
	Identity       = "rhsm_identity"
	Services       = "rhsm_services"
)

// Names lists every fact in output order.
func Names() []string {
	return []string{AvailableRepos, EnabledRepos, DisabledRepos, EnabledPools, Identity, Services}
}

// Collector gathers one fact.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]string, error)
}

const (
	noRepos       = "no repositories available"
	notRegistered = "not yet registered"
)

// RepoCollector lists repository ids from one "repos" listing.
type RepoCollector struct {
	Runner runner.Runner
	Fact   string
	// Flag selects the listing: --list, --list-enabled or --list-disabled.
	Flag string
	// Exclude drops matching ids (see FilterOut).
	Exclude []string
}

// Name implements Collector.
func (c *RepoCollector) Name() string {
	return c.Fact
}

// Collect implements Collector.
func (c *RepoCollector) Collect(ctx context.Context) ([]string, error) {
	out, err := c.Runner.Run(ctx, "repos", c.Flag)
	if err != nil {
		if empty, handled := emptyOnAbsence(err, c.Fact, noRepos, notRegistered); handled {
			return empty, nil
		}
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	repos, skipped := pool.ParseRepos(out)
	for _, perr := range skipped {
		slog.Warn("skipping malformed repository record", slog.String("fact", c.Fact), slog.String("error", perr.Error()))
	}

	ids := make([]string, 0, len(repos))
	for _, r := range repos {
		ids = append(ids, r.ID)
	}
	return FilterOut(ids, c.Exclude), nil
}

// PoolCollector lists the ids of consumed pools in listing order.
type PoolCollector struct {
	Runner runner.Runner
}

// Name implements Collector.
func (c *PoolCollector) Name() string {
	return EnabledPools
}

// Collect implements Collector.
func (c *PoolCollector) Collect(ctx context.Context) ([]string, error) {
	pools, err := provider.New(c.Runner).ConsumedPools(ctx)
	if err != nil {
		if empty, handled := emptyOnAbsence(err, EnabledPools, notRegistered); handled {
			return empty, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(pools))
	for _, p := range pools {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// IdentityCollector reports the consumer UUID of a registered system.
type IdentityCollector struct {
	Runner runner.Runner
}

// Name implements Collector.
func (c *IdentityCollector) Name() string {
	return Identity
}

// Collect implements Collector.
func (c *IdentityCollector) Collect(ctx context.Context) ([]string, error) {
	out, err := c.Runner.Run(ctx, "identity")
	if err != nil {
		if empty, handled := emptyOnAbsence(err, Identity, notRegistered); handled {
			return empty, nil
		}
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	recs, _ := record.Scan(out, "")
	for _, rec := range recs {
		raw, ok := rec.Get("system identity")
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid system identity %q: %w", raw, err)
		}
		return []string{id.String()}, nil
	}

	return []string{}, nil
}

// emptyOnAbsence maps "nothing to report" failures to an empty fact: the
// tool is not installed, or its output contains one of the given messages.
func emptyOnAbsence(err error, fact string, messages ...string) ([]string, bool) {
	if rhsmerrors.Is(err, rhsmerrors.ErrToolNotFound) {
		slog.Debug("subscription-manager not installed", slog.String("fact", fact))
		return []string{}, true
	}

	var ce *rhsmerrors.CommandError
	if !rhsmerrors.As(err, &ce) || ce.TimedOut {
		return nil, false
	}

	out := ce.Output()
	for _, m := range messages {
		if strings.Contains(out, m) {
			slog.Debug("no fact values reported", slog.String("fact", fact), slog.String("reason", m))
			return []string{}, true
		}
	}
	return nil, false
}
