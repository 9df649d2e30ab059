package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var epoch = time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)

type counter struct {
	calls  int
	values []string
	err    error
}

func (c *counter) compute(context.Context) ([]string, error) {
	c.calls++
	return c.values, c.err
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "values", in: []string{"rhel-7-server-rpms", "rhel-7-server-optional-rpms"}, want: []string{"rhel-7-server-rpms", "rhel-7-server-optional-rpms"}},
		{name: "empty", in: []string{}, want: []string{}},
		{name: "nil", in: nil, want: []string{}},
		{name: "yaml-ish strings", in: []string{"yes", "1.0", "a: b", "- x"}, want: []string{"yes", "1.0", "a: b", "- x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clocktesting.NewFakeClock(epoch)
			c := New(filepath.Join(t.TempDir(), "enabled_repos.yaml"), time.Hour, WithClock(clk))

			require.NoError(t, c.Store(tt.in))

			rec, err := c.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Values)
			assert.True(t, rec.Captured.Equal(epoch))
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope.yaml"), time.Hour)
	_, err := c.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFresh(t *testing.T) {
	clk := clocktesting.NewFakeClock(epoch)
	c := New("unused", time.Hour, WithClock(clk))

	rec := &Record{Captured: epoch}
	assert.True(t, c.Fresh(rec))

	clk.Step(59 * time.Minute)
	assert.True(t, c.Fresh(rec))

	clk.Step(time.Minute)
	assert.False(t, c.Fresh(rec))

	assert.False(t, c.Fresh(&Record{Captured: clk.Now().Add(time.Minute)}), "future timestamps are not trusted")
	assert.False(t, c.Fresh(nil))
	assert.False(t, New("unused", 0, WithClock(clk)).Fresh(&Record{Captured: clk.Now()}))
}

func TestGetOrCompute(t *testing.T) {
	clk := clocktesting.NewFakeClock(epoch)
	path := filepath.Join(t.TempDir(), "enabled_pools.yaml")
	c := New(path, time.Hour, WithClock(clk))
	ctx := context.Background()

	src := &counter{values: []string{"1a2b3c"}}

	got, outcome, err := c.GetOrCompute(ctx, src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMiss, outcome)
	assert.Equal(t, []string{"1a2b3c"}, got)
	assert.Equal(t, 1, src.calls)

	src.values = []string{"changed"}

	clk.Step(30 * time.Minute)
	got, outcome, err = c.GetOrCompute(ctx, src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHit, outcome)
	assert.Equal(t, []string{"1a2b3c"}, got)
	assert.Equal(t, 1, src.calls, "a fresh cache must not recompute")

	clk.Step(time.Hour)
	got, outcome, err = c.GetOrCompute(ctx, src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMiss, outcome)
	assert.Equal(t, []string{"changed"}, got)
	assert.Equal(t, 2, src.calls)

	rec, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"changed"}, rec.Values)
}

func TestRefresh(t *testing.T) {
	clk := clocktesting.NewFakeClock(epoch)
	c := New(filepath.Join(t.TempDir(), "enabled_repos.yaml"), time.Hour, WithClock(clk))
	ctx := context.Background()
	require.NoError(t, c.Store([]string{"old"}))

	src := &counter{values: []string{"new"}}
	got, outcome, err := c.Refresh(ctx, src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefresh, outcome)
	assert.Equal(t, []string{"new"}, got)
	assert.Equal(t, 1, src.calls, "a fresh file is still recomputed")

	got, outcome, err = c.GetOrCompute(ctx, src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHit, outcome)
	assert.Equal(t, []string{"new"}, got)
}

func TestGetOrCompute_CorruptFileIsAMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enabled_repos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("captured: [not a time\nvalues: {"), 0o644))

	c := New(path, time.Hour)
	src := &counter{values: []string{"a"}}

	got, outcome, err := c.GetOrCompute(context.Background(), src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMiss, outcome)
	assert.Equal(t, []string{"a"}, got)

	rec, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, rec.Values)
}

func TestGetOrCompute_ComputeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enabled_repos.yaml")
	c := New(path, time.Hour)
	src := &counter{err: errors.New("boom")}

	_, outcome, err := c.GetOrCompute(context.Background(), src.compute)
	require.Error(t, err)
	assert.Equal(t, OutcomeError, outcome)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "failures are not cached")
}

func TestGetOrCompute_PersistFailureStillReturnsValues(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// The parent "directory" is a regular file, so the write must fail.
	c := New(filepath.Join(blocker, "enabled_repos.yaml"), time.Hour)
	src := &counter{values: []string{"a"}}

	got, outcome, err := c.GetOrCompute(context.Background(), src.compute)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMiss, outcome)
	assert.Equal(t, []string{"a"}, got)
}

func TestStore_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "enabled_repos.yaml"), time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Store([]string{"a", "b"}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "enabled_repos.yaml", entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/var/cache/rhsm/enabled_repos.yaml", PathFor(DefaultDir, "enabled_repos"))
}
