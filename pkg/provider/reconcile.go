package provider

import (
	"context"
	"fmt"
	"log/slog"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
)

// Action is what reconciliation decided for a resource.
type Action string

const (
	ActionNone    Action = "none"
	ActionCreate  Action = "create"
	ActionDestroy Action = "destroy"
)

// Result is the outcome for one declared resource.
type Result struct {
	ID     string `json:"id" yaml:"id"`
	Action Action `json:"action" yaml:"action"`
	// Planned is set for actions skipped by a dry run.
	Planned bool  `json:"planned,omitempty" yaml:"planned,omitempty"`
	Err     error `json:"-" yaml:"-"`
	// Error mirrors Err for serialization.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report lists the results of a Reconcile call in declaration order.
type Report struct {
	DryRun  bool     `json:"dryRun" yaml:"dryRun"`
	Results []Result `json:"results" yaml:"results"`

	discoveryErr error
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Changed counts resources that were (or would be) created or destroyed
// without error.
func (r *Report) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Action != ActionNone && res.Err == nil {
			n++
		}
	}
	return n
}

// Err joins every failure, each prefixed with the resource id, or returns
// nil when all resources converged.
func (r *Report) Err() error {
	var errs []error
	if r.discoveryErr != nil {
		errs = append(errs, r.discoveryErr)
	}
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("pool %s: %s: %w", res.ID, res.Action, res.Err))
		}
	}
	return rhsmerrors.Join(errs...)
}

// Reconcile discovers the consumed pools once, then attaches or removes
// each declared resource as needed. A failure is recorded against its
// resource and does not stop the others. When discovery itself fails no
// action is attempted.
func (p *Provider) Reconcile(ctx context.Context, desired []*Resource) *Report {
	report := &Report{DryRun: p.dryRun, Results: make([]Result, 0, len(desired))}

	if err := p.prefetch(ctx, desired); err != nil {
		report.discoveryErr = err
		return report
	}

	for _, r := range desired {
		res := Result{ID: r.ID(), Action: plan(r)}

		switch {
		case res.Action == ActionNone:
		case p.dryRun:
			res.Planned = true
			poolActionsTotal.WithLabelValues(string(res.Action), "planned").Inc()
			slog.Info("planned pool action", slog.String("id", res.ID), slog.String("action", string(res.Action)))
		case ctx.Err() != nil:
			res.Err = ctx.Err()
		case res.Action == ActionCreate:
			res.Err = p.Create(ctx, r)
		case res.Action == ActionDestroy:
			res.Err = p.Destroy(ctx, r)
		}

		if res.Err != nil {
			res.Error = res.Err.Error()
			slog.Error("pool action failed",
				slog.String("id", res.ID),
				slog.String("action", string(res.Action)),
				slog.String("error", res.Err.Error()))
		}
		report.Results = append(report.Results, res)
	}

	return report
}

func plan(r *Resource) Action {
	switch {
	case r.Ensure == EnsurePresent && !r.Exists():
		return ActionCreate
	case r.Ensure == EnsureAbsent && r.Exists():
		return ActionDestroy
	default:
		return ActionNone
	}
}
