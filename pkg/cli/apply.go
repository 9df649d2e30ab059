package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/manifest"
	"github.com/treydock/puppet-subscription-manager/pkg/provider"
)

func applyCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Attach and remove pools to match a manifest",
		Description: `Reads a PoolList manifest and converges the consumed pools:

  kind: PoolList
  pools:
    - id: 1a2b3c4d5e6f1234567890abcdef12345
      ensure: present
    - id: 1234abc
      ensure: absent

Every entry is validated before subscription-manager is called. The
consumed pools are listed once; each entry is then attached or removed as
needed. A failing entry does not stop the others, but the command exits
nonzero and reports every failure with its pool id.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"f"},
				Required: true,
				Usage:    "PoolList manifest (.yaml, .yml or .json)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "report planned changes without calling attach or remove",
			},
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("manifest")
			desired, err := manifest.Load(path)
			if err != nil {
				return fmt.Errorf("invalid manifest %s: %w", path, err)
			}

			p := provider.New(newRunner(cmd), provider.WithDryRun(cmd.Bool("dry-run")))
			report := p.Reconcile(ctx, desired)

			slog.Info("reconciled pools",
				slog.Int("declared", len(desired)),
				slog.Int("changed", report.Changed()),
				slog.Int("failed", len(report.Failed())),
				slog.Bool("dry_run", report.DryRun),
			)

			ser, err := newSerializer(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", slog.String("error", err.Error()))
				}
			}()

			if err := ser.Serialize(ctx, report); err != nil {
				return err
			}

			return report.Err()
		},
	}
}
