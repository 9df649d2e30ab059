package provider

import (
	"fmt"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/pool"
)

// Ensure is the desired or observed presence of a pool.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// ParseEnsure accepts "present" or "absent". The empty string means the
// caller does not manage presence.
func ParseEnsure(s string) (Ensure, error) {
	switch Ensure(s) {
	case EnsurePresent, EnsureAbsent, "":
		return Ensure(s), nil
	}
	return "", rhsmerrors.NewValidationError("ensure", s, "must be present or absent")
}

// Resource is one declared pool: the desired attributes plus the state
// observed on the system.
type Resource struct {
	Pool pool.Pool
	// Ensure is the desired presence. Empty leaves the pool alone.
	Ensure Ensure

	// Current is the discovered pool, nil when the system does not consume
	// it or before Prefetch.
	Current *pool.Pool

	state Ensure
}

// NewResource validates attrs and builds a Resource. The "ensure" key is
// optional; every other key is a pool attribute (or the "name" alias).
func NewResource(attrs map[string]any) (*Resource, error) {
	rest := make(map[string]any, len(attrs))
	var ensure Ensure

	for k, v := range attrs {
		if k != "ensure" {
			rest[k] = v
			continue
		}
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, rhsmerrors.NewValidationError("ensure", fmt.Sprint(v), "must be present or absent")
		}
		e, err := ParseEnsure(s)
		if err != nil {
			return nil, err
		}
		ensure = e
	}

	p, err := pool.NewFromAttributes(rest)
	if err != nil {
		return nil, err
	}

	return &Resource{Pool: *p, Ensure: ensure}, nil
}

// ID returns the pool id.
func (r *Resource) ID() string {
	return r.Pool.ID
}

// Set records the observed presence, as Prefetch does after discovery.
func (r *Resource) Set(e Ensure) {
	r.state = e
}

// Exists reports whether the pool is currently consumed.
func (r *Resource) Exists() bool {
	return r.state == EnsurePresent
}

// Serial returns the entitlement serial to remove, preferring the one the
// system reported.
func (r *Resource) Serial() string {
	if r.Current != nil && r.Current.Serial != "" {
		return r.Current.Serial
	}
	return r.Pool.Serial
}

func (r *Resource) bind(current *pool.Pool) {
	r.Current = current
	if current == nil {
		r.state = EnsureAbsent
		return
	}
	r.state = EnsurePresent
}
