package facts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultServiceUnits are the units that keep entitlements current.
var DefaultServiceUnits = []string{"rhsmcertd.service", "goferd.service"}

// UnitLister is the subset of the systemd D-Bus connection used here.
type UnitLister interface {
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	Close()
}

// ServicesCollector reports "unit=state" for each unit, where state is the
// systemd ActiveState.
type ServicesCollector struct {
	Units []string
	// Connect opens the systemd connection. Defaults to the system bus.
	Connect func(ctx context.Context) (UnitLister, error)
}

// Name implements Collector.
func (c *ServicesCollector) Name() string {
	return Services
}

// Collect implements Collector. A host without a reachable systemd reports
// no services.
func (c *ServicesCollector) Collect(ctx context.Context) ([]string, error) {
	connect := c.Connect
	if connect == nil {
		connect = systemBus
	}

	conn, err := connect(ctx)
	if err != nil {
		slog.Debug("systemd not reachable", slog.String("error", err.Error()))
		return []string{}, nil
	}
	defer conn.Close()

	statuses, err := conn.ListUnitsByNamesContext(ctx, c.Units)
	if err != nil {
		return nil, fmt.Errorf("failed to list systemd units: %w", err)
	}

	states := make(map[string]string, len(statuses))
	for _, st := range statuses {
		state := st.ActiveState
		if st.LoadState == "not-found" {
			state = "not-found"
		}
		states[st.Name] = state
	}

	out := make([]string, 0, len(c.Units))
	for _, u := range c.Units {
		state, ok := states[u]
		if !ok {
			state = "unknown"
		}
		out = append(out, u+"="+state)
	}
	return out, nil
}

func systemBus(ctx context.Context) (UnitLister, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
