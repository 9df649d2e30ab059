package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/manifest"
	"github.com/treydock/puppet-subscription-manager/pkg/pool"
	"github.com/treydock/puppet-subscription-manager/pkg/provider"
)

func poolsCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "pools",
		Usage: "List, attach and remove subscription pools",
		Commands: []*cli.Command{
			poolsListCmd(newRunner),
			poolsAttachCmd(newRunner),
			poolsRemoveCmd(newRunner),
		},
	}
}

func poolsListCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the pools consumed by this system",
		Description: `Prints the consumed pools as a PoolList document. The YAML form can be
edited (add "ensure: absent" to an entry) and passed to "rhsmctl apply".

  rhsmctl pools list --format yaml --output pools.yaml
  rhsmctl pools list --format table`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			pools, err := provider.New(newRunner(cmd)).ConsumedPools(ctx)
			if err != nil {
				return err
			}

			ser, err := newSerializer(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", slog.String("error", err.Error()))
				}
			}()

			return ser.Serialize(ctx, manifest.NewPoolList(pools))
		},
	}
}

func poolsAttachCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "attach",
		Usage: "Attach a pool by id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Required: true,
				Usage:    "hexadecimal pool id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := provider.NewResource(map[string]any{"id": cmd.String("id")})
			if err != nil {
				return err
			}
			if err := provider.New(newRunner(cmd)).Create(ctx, r); err != nil {
				return err
			}
			slog.Info("pool attached", slog.String("id", r.ID()))
			return nil
		},
	}
}

func poolsRemoveCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove a consumed pool by serial, or by id",
		Description: `With --serial the entitlement is removed directly. With only --id the
consumed pools are listed first to find its serial.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "serial",
				Usage: "entitlement serial of the consumed pool",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "pool id, used to look up the serial when --serial is not given",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			serial, id := cmd.String("serial"), cmd.String("id")
			if serial == "" && id == "" {
				return fmt.Errorf("one of --serial or --id is required")
			}

			p := provider.New(newRunner(cmd))
			r := &provider.Resource{Pool: pool.Pool{ID: id, Serial: serial}}

			if serial == "" {
				if err := pool.ValidateID(id); err != nil {
					return err
				}
				if err := p.Prefetch(ctx, map[string]*provider.Resource{id: r}); err != nil {
					return err
				}
				if !r.Exists() {
					return fmt.Errorf("pool %s is not consumed by this system", id)
				}
			}

			serial = r.Serial()
			if err := p.Destroy(ctx, r); err != nil {
				return err
			}
			slog.Info("pool removed", slog.String("id", id), slog.String("serial", serial))
			return nil
		},
	}
}
