package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/facts"
	"github.com/treydock/puppet-subscription-manager/pkg/manifest"
	"github.com/treydock/puppet-subscription-manager/pkg/provider"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
	"github.com/treydock/puppet-subscription-manager/pkg/serializer"
	"github.com/treydock/puppet-subscription-manager/pkg/server"
)

// FactoryFunc builds a fact factory around the runner for one collection.
type FactoryFunc func(r runner.Runner) facts.Factory

// Handlers serves the inventory endpoints. Facts are answered from the last
// snapshot taken by Refresh; pools are read live.
type Handlers struct {
	version string
	runner  runner.Runner
	factory FactoryFunc

	mu   sync.RWMutex
	last *facts.Snapshot
}

// NewHandlers returns handlers backed by r. A nil factory uses
// facts.NewDefaultFactory.
func NewHandlers(version string, r runner.Runner, factory FactoryFunc) *Handlers {
	if factory == nil {
		factory = func(r runner.Runner) facts.Factory { return facts.NewDefaultFactory(r) }
	}
	return &Handlers{version: version, runner: r, factory: factory}
}

// Refresh collects every fact and replaces the served snapshot. Expired
// cache files are rewritten along the way. On failure the previous
// snapshot stays in place.
func (h *Handlers) Refresh(ctx context.Context) error {
	s := &facts.Snapshotter{
		Version: h.version,
		Factory: h.factory(runner.NewMemo(h.runner)),
	}

	snap, err := s.Collect(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		slog.Error("fact refresh failed", slog.String("error", err.Error()))
		return err
	}
	refreshTotal.WithLabelValues("success").Inc()

	h.mu.Lock()
	h.last = snap
	h.mu.Unlock()

	slog.Info("fact snapshot refreshed", slog.Int("facts", len(snap.Facts)))
	return nil
}

// Snapshot returns the last successful snapshot, or nil.
func (h *Handlers) Snapshot() *facts.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// HandleFacts handles GET /v1/facts. Repeated ?fact= parameters select a
// subset of the snapshot.
func (h *Handlers) HandleFacts(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	snap := h.Snapshot()
	if snap == nil {
		if err := h.Refresh(r.Context()); err != nil {
			server.WriteErrorFromErr(w, r, err, "failed to collect facts", nil)
			return
		}
		snap = h.Snapshot()
	}

	wanted := r.URL.Query()["fact"]
	if len(wanted) == 0 {
		serializer.Respond(w, r, http.StatusOK, snap)
		return
	}

	out := &facts.Snapshot{Header: snap.Header, Facts: make(map[string][]string, len(wanted))}
	for _, name := range wanted {
		if !slices.Contains(facts.Names(), name) {
			server.WriteError(w, r, http.StatusBadRequest, rhsmerrors.ErrCodeInvalidRequest,
				"unknown fact", false, map[string]any{"fact": name, "supported": facts.Names()})
			return
		}
		if values, ok := snap.Facts[name]; ok {
			out.Facts[name] = values
		}
	}
	serializer.Respond(w, r, http.StatusOK, out)
}

// HandlePools handles GET /v1/pools.
func (h *Handlers) HandlePools(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	pools, err := provider.New(h.runner).ConsumedPools(r.Context())
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to list consumed pools", nil)
		return
	}

	serializer.Respond(w, r, http.StatusOK, manifest.NewPoolList(pools))
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	server.WriteError(w, r, http.StatusMethodNotAllowed, rhsmerrors.ErrCodeMethodNotAllowed,
		"method not allowed", false, map[string]any{"method": r.Method})
	return false
}
