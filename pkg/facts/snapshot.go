package facts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/treydock/puppet-subscription-manager/pkg/header"
	"github.com/treydock/puppet-subscription-manager/pkg/serializer"
)

// SnapshotKind is the kind of a serialized fact snapshot.
const SnapshotKind = "FactSnapshot"

// Snapshot holds the values of every collected fact.
type Snapshot struct {
	header.Header `json:",inline" yaml:",inline"`

	Facts map[string][]string `json:"facts" yaml:"facts"`
}

// Snapshotter collects facts concurrently and serializes the result.
// Collectors run in parallel; the runner still serializes the actual
// subscription-manager invocations.
type Snapshotter struct {
	// Version is recorded in the snapshot metadata.
	Version string

	// Factory creates the collectors. Required.
	Factory Factory

	// Facts restricts collection to these names. Empty collects every fact.
	Facts []string

	// Serializer receives the snapshot in Measure. Defaults to JSON on stdout.
	Serializer serializer.Serializer
}

// Collect gathers the configured facts. Any collector failure fails the
// snapshot.
func (s *Snapshotter) Collect(ctx context.Context) (*Snapshot, error) {
	if s.Factory == nil {
		return nil, fmt.Errorf("snapshotter has no collector factory")
	}

	names := s.Facts
	if len(names) == 0 {
		names = Names()
	}

	collectors := make([]Collector, 0, len(names))
	for _, name := range names {
		c, err := Create(s.Factory, name)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, c)
	}

	slog.Debug("starting fact snapshot", slog.Int("facts", len(collectors)))

	var mu sync.Mutex
	snap := &Snapshot{Facts: make(map[string][]string, len(collectors))}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collectors {
		g.Go(func() error {
			start := time.Now()
			defer func() {
				factCollectionDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
			}()

			values, err := c.Collect(gctx)
			if err != nil {
				slog.Error("failed to collect fact", slog.String("fact", c.Name()), slog.String("error", err.Error()))
				return fmt.Errorf("failed to collect %s: %w", c.Name(), err)
			}

			mu.Lock()
			snap.Facts[c.Name()] = values
			mu.Unlock()

			slog.Debug("collected fact", slog.String("fact", c.Name()), slog.Int("values", len(values)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		snapshotTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	snapshotTotal.WithLabelValues("success").Inc()

	hostname, _ := os.Hostname()
	snap.Set(SnapshotKind)
	snap.Metadata["rhsmctl-version"] = s.Version
	if hostname != "" {
		snap.Metadata["hostname"] = hostname
	}

	return snap, nil
}

// Measure collects the facts and serializes the snapshot.
func (s *Snapshotter) Measure(ctx context.Context) error {
	snap, err := s.Collect(ctx)
	if err != nil {
		return err
	}

	ser := s.Serializer
	if ser == nil {
		ser = serializer.NewStdoutWriter(serializer.FormatJSON)
	}

	if err := ser.Serialize(ctx, snap); err != nil {
		slog.Error("failed to serialize", slog.String("error", err.Error()))
		return fmt.Errorf("failed to serialize: %w", err)
	}
	return nil
}
