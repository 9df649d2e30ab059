// Package provider reconciles declared entitlement pools against the pools a
// system consumes, using subscription-manager for discovery and mutation.
//
// Discovery is a single "list --consumed" call (Instances, Prefetch). A pool
// is attached by id (Create) and removed by the serial of its entitlement
// certificate (Destroy). Reconcile drives both for a list of declared
// resources and reports per-resource outcomes.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/pool"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

// noConsumedPools is printed, sometimes with a nonzero exit, when nothing is
// attached.
const noConsumedPools = "No consumed subscription pools"

// Provider manages pools through a Runner.
type Provider struct {
	runner runner.Runner
	dryRun bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithDryRun makes Reconcile plan actions without running them.
func WithDryRun(enabled bool) Option {
	return func(p *Provider) {
		p.dryRun = enabled
	}
}

// New returns a Provider that runs subscription-manager through r.
func New(r runner.Runner, opts ...Option) *Provider {
	p := &Provider{runner: r}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ConsumedPools lists and parses the consumed pools. Malformed blocks are
// logged and skipped.
func (p *Provider) ConsumedPools(ctx context.Context) ([]pool.Pool, error) {
	out, err := p.runner.Run(ctx, "list", "--consumed")
	if err != nil {
		var ce *rhsmerrors.CommandError
		if rhsmerrors.As(err, &ce) && !ce.TimedOut && strings.Contains(ce.Output(), noConsumedPools) {
			slog.Debug("no consumed pools reported", slog.Int("exit", ce.ExitCode))
			return []pool.Pool{}, nil
		}
		return nil, fmt.Errorf("failed to list consumed pools: %w", err)
	}

	pools, skipped := pool.Parse(out)
	for _, perr := range skipped {
		slog.Warn("skipping malformed pool record", slog.String("error", perr.Error()))
	}

	discoveredPools.Set(float64(len(pools)))
	slog.Debug("discovered consumed pools", slog.Int("count", len(pools)), slog.Int("skipped", len(skipped)))

	return pools, nil
}

// Instances returns one present Resource per consumed pool, in listing order.
func (p *Provider) Instances(ctx context.Context) ([]*Resource, error) {
	pools, err := p.ConsumedPools(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*Resource, 0, len(pools))
	for i := range pools {
		current := pools[i]
		r := &Resource{Pool: pools[i], Ensure: EnsurePresent}
		r.bind(&current)
		res = append(res, r)
	}
	return res, nil
}

// Prefetch discovers the consumed pools once and binds each to the desired
// resource with the same id. Desired resources that are not consumed are
// marked absent.
func (p *Provider) Prefetch(ctx context.Context, desired map[string]*Resource) error {
	list := make([]*Resource, 0, len(desired))
	for _, r := range desired {
		list = append(list, r)
	}
	return p.prefetch(ctx, list)
}

func (p *Provider) prefetch(ctx context.Context, desired []*Resource) error {
	pools, err := p.ConsumedPools(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]*pool.Pool, len(pools))
	for i := range pools {
		byID[pools[i].ID] = &pools[i]
	}

	for _, r := range desired {
		r.bind(byID[r.ID()])
	}
	return nil
}

// Create attaches the resource's pool. It does not check whether the pool
// is already consumed.
func (p *Provider) Create(ctx context.Context, r *Resource) error {
	if err := pool.ValidateID(r.ID()); err != nil {
		poolActionsTotal.WithLabelValues("create", "error").Inc()
		return err
	}

	slog.Info("attaching pool", slog.String("id", r.ID()))

	if _, err := p.runner.Run(ctx, "attach", "--pool", r.ID()); err != nil {
		poolActionsTotal.WithLabelValues("create", "error").Inc()
		return fmt.Errorf("failed to attach pool %s: %w", r.ID(), err)
	}

	poolActionsTotal.WithLabelValues("create", "success").Inc()
	r.Set(EnsurePresent)
	return nil
}

// Destroy removes the entitlement for the resource's pool by serial. The
// serial comes from the discovered pool when available, otherwise from the
// declaration.
func (p *Provider) Destroy(ctx context.Context, r *Resource) error {
	serial := r.Serial()
	if serial == "" {
		poolActionsTotal.WithLabelValues("destroy", "error").Inc()
		return rhsmerrors.NewValidationError("serial", "", "required to remove pool "+r.ID())
	}

	slog.Info("removing pool", slog.String("id", r.ID()), slog.String("serial", serial))

	if _, err := p.runner.Run(ctx, "remove", "--serial", serial); err != nil {
		poolActionsTotal.WithLabelValues("destroy", "error").Inc()
		return fmt.Errorf("failed to remove pool %s: %w", r.ID(), err)
	}

	poolActionsTotal.WithLabelValues("destroy", "success").Inc()
	r.Current = nil
	r.Set(EnsureAbsent)
	return nil
}
