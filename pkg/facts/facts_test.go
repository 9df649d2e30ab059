package facts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

const rawRepos = `+----------------------------------------------------------+
    Available Repositories in /etc/yum.repos.d/redhat.repo
+----------------------------------------------------------+
Repo ID:   rhel-7-server-rpms
Repo Name: Red Hat Enterprise Linux 7 Server (RPMs)
Repo URL:  https://cdn.redhat.com/content/dist/rhel/server/7/$releasever/$basearch/os
Enabled:   1

Repo ID:   rhel-7-server-optional-rpms
Repo Name: Red Hat Enterprise Linux 7 Server - Optional (RPMs)
Repo URL:  https://cdn.redhat.com/content/dist/rhel/server/7/$releasever/$basearch/optional/os
Enabled:   1

Repo ID:   rhel-7-server-debug-rpms
Repo Name: Red Hat Enterprise Linux 7 Server (Debug RPMs)
Repo URL:  https://cdn.redhat.com/content/dist/rhel/server/7/$releasever/$basearch/debug
Enabled:   1
`

const rawPools = `Subscription Name: Extra Packages for Enterprise Linux
Serial:            1234567890123456789
Pool ID:           1a2b3c4d5e6f1234567890abcdef12345
Active:            True

Subscription Name: Other
Serial:            42
Pool ID:           1234abc
Active:            True
`

var toolMissing = fmt.Errorf("%w at /usr/sbin/subscription-manager: no such file or directory", rhsmerrors.ErrToolNotFound)

func TestRepoCollector(t *testing.T) {
	tests := []struct {
		name string
		fact string
		flag string
	}{
		{name: "available", fact: AvailableRepos, flag: "--list"},
		{name: "enabled", fact: EnabledRepos, flag: "--list-enabled"},
		{name: "disabled", fact: DisabledRepos, flag: "--list-disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := runner.NewFake().On(rawRepos, nil, "repos", tt.flag)
			c := &RepoCollector{Runner: fake, Fact: tt.fact, Flag: tt.flag}

			got, err := c.Collect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"rhel-7-server-rpms", "rhel-7-server-optional-rpms", "rhel-7-server-debug-rpms"}, got)
			assert.Equal(t, tt.fact, c.Name())
		})
	}
}

func TestRepoCollector_Exclude(t *testing.T) {
	fake := runner.NewFake().On(rawRepos, nil, "repos", "--list-enabled")
	c := &RepoCollector{Runner: fake, Fact: EnabledRepos, Flag: "--list-enabled", Exclude: []string{"*-debug-*"}}

	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rhel-7-server-rpms", "rhel-7-server-optional-rpms"}, got)
}

func TestCollectors_ToolNotFoundIsEmpty(t *testing.T) {
	fake := runner.NewFake().
		On("", toolMissing, "repos", "--list").
		On("", toolMissing, "repos", "--list-enabled").
		On("", toolMissing, "list", "--consumed").
		On("", toolMissing, "identity")

	collectors := []Collector{
		&RepoCollector{Runner: fake, Fact: AvailableRepos, Flag: "--list"},
		&RepoCollector{Runner: fake, Fact: EnabledRepos, Flag: "--list-enabled"},
		&PoolCollector{Runner: fake},
		&IdentityCollector{Runner: fake},
	}

	for _, c := range collectors {
		t.Run(c.Name(), func(t *testing.T) {
			got, err := c.Collect(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestCollectors_NothingToReport(t *testing.T) {
	unregistered := &rhsmerrors.CommandError{ExitCode: 1, Stdout: "This system is not yet registered. Try 'subscription-manager register --help' for more information."}
	noRepos := &rhsmerrors.CommandError{ExitCode: 1, Stdout: "This system has no repositories available through subscriptions."}

	fake := runner.NewFake().
		On("", noRepos, "repos", "--list").
		On("", unregistered, "identity").
		On("", unregistered, "list", "--consumed")

	for _, c := range []Collector{
		&RepoCollector{Runner: fake, Fact: AvailableRepos, Flag: "--list"},
		&IdentityCollector{Runner: fake},
		&PoolCollector{Runner: fake},
	} {
		got, err := c.Collect(context.Background())
		require.NoError(t, err, c.Name())
		assert.Empty(t, got, c.Name())
	}
}

func TestCollectors_OtherFailuresAreReturned(t *testing.T) {
	boom := &rhsmerrors.CommandError{ExitCode: 70, Stderr: "Unable to verify server's identity"}
	fake := runner.NewFake().
		On("", boom, "repos", "--list").
		On("", boom, "list", "--consumed").
		On("", &rhsmerrors.CommandError{TimedOut: true, Stdout: notRegistered}, "identity")

	for _, c := range []Collector{
		&RepoCollector{Runner: fake, Fact: AvailableRepos, Flag: "--list"},
		&PoolCollector{Runner: fake},
		&IdentityCollector{Runner: fake},
	} {
		_, err := c.Collect(context.Background())
		var ce *rhsmerrors.CommandError
		assert.True(t, errors.As(err, &ce), c.Name())
	}
}

func TestPoolCollector(t *testing.T) {
	fake := runner.NewFake().On(rawPools, nil, "list", "--consumed")

	got, err := (&PoolCollector{Runner: fake}).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1a2b3c4d5e6f1234567890abcdef12345", "1234abc"}, got)
}

func TestIdentityCollector(t *testing.T) {
	const out = `system identity: 5A0D5E5F-1C2B-4A3D-9E8F-0123456789AB
name: host.example.com
org name: Example
org ID: 1234567
`
	got, err := (&IdentityCollector{Runner: runner.NewFake().On(out, nil, "identity")}).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"5a0d5e5f-1c2b-4a3d-9e8f-0123456789ab"}, got)

	_, err = (&IdentityCollector{Runner: runner.NewFake().On("system identity: nope\n", nil, "identity")}).Collect(context.Background())
	assert.Error(t, err)

	got, err = (&IdentityCollector{Runner: runner.NewFake().On("", nil, "identity")}).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

type fakeBus struct {
	statuses []dbus.UnitStatus
	err      error
	closed   bool
	asked    []string
}

func (b *fakeBus) ListUnitsByNamesContext(_ context.Context, units []string) ([]dbus.UnitStatus, error) {
	b.asked = units
	return b.statuses, b.err
}

func (b *fakeBus) Close() {
	b.closed = true
}

func TestServicesCollector(t *testing.T) {
	bus := &fakeBus{statuses: []dbus.UnitStatus{
		{Name: "rhsmcertd.service", LoadState: "loaded", ActiveState: "active"},
		{Name: "goferd.service", LoadState: "not-found", ActiveState: "inactive"},
	}}
	c := &ServicesCollector{
		Units:   []string{"rhsmcertd.service", "goferd.service", "missing.service"},
		Connect: func(context.Context) (UnitLister, error) { return bus, nil },
	}

	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rhsmcertd.service=active", "goferd.service=not-found", "missing.service=unknown"}, got)
	assert.True(t, bus.closed)
	assert.Equal(t, c.Units, bus.asked)
}

func TestServicesCollector_Unreachable(t *testing.T) {
	c := &ServicesCollector{
		Units:   DefaultServiceUnits,
		Connect: func(context.Context) (UnitLister, error) { return nil, errors.New("no bus") },
	}
	got, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	bus := &fakeBus{err: errors.New("access denied")}
	c.Connect = func(context.Context) (UnitLister, error) { return bus, nil }
	_, err = c.Collect(context.Background())
	assert.Error(t, err)
	assert.True(t, bus.closed)
}

func TestFilterOut(t *testing.T) {
	values := []string{"rhel-7-server-rpms", "rhel-7-server-debug-rpms", "epel", "rhel-7-server-source-rpms"}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "none", patterns: nil, want: values},
		{name: "exact", patterns: []string{"epel"}, want: []string{"rhel-7-server-rpms", "rhel-7-server-debug-rpms", "rhel-7-server-source-rpms"}},
		{name: "prefix", patterns: []string{"rhel-*"}, want: []string{"epel"}},
		{name: "suffix", patterns: []string{"*-source-rpms"}, want: []string{"rhel-7-server-rpms", "rhel-7-server-debug-rpms", "epel"}},
		{name: "contains", patterns: []string{"*debug*", "*source*"}, want: []string{"rhel-7-server-rpms", "epel"}},
		{name: "middle wildcard is literal", patterns: []string{"rhel*rpms"}, want: values},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterOut(values, tt.patterns))
		})
	}

	assert.Equal(t, []string{}, FilterOut(nil, []string{"x"}))
}

func TestNames(t *testing.T) {
	for _, n := range Names() {
		assert.True(t, strings.HasPrefix(n, "rhsm_"), n)
	}
}
