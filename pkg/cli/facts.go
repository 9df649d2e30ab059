package cli

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/cache"
	"github.com/treydock/puppet-subscription-manager/pkg/facts"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

func factsCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "facts",
		Usage: "Report subscription facts",
		Description: `Collects inventory facts: ` + strings.Join(facts.Names(), ", ") + `.

Repository and pool facts are cached per fact under --cache-dir and reused
while younger than --ttl. A host without subscription-manager reports empty
facts.

  rhsmctl facts --fact rhsm_enabled_repos --format yaml
  rhsmctl facts --output cm://inventory/node-1 --exclude '*-debug-*'`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "fact",
				Usage: "fact to collect, can be repeated (default: all)",
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Value:   cache.DefaultDir,
				Usage:   "directory for cached fact values",
				Sources: cli.EnvVars("RHSM_CACHE_DIR"),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: cache.DefaultTTL,
				Usage: "how long cached fact values stay fresh",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "always query subscription-manager",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "drop repository ids matching prefix*, *suffix or *contains* patterns",
			},
			&cli.StringSliceFlag{
				Name:  "service-unit",
				Value: facts.DefaultServiceUnits,
				Usage: "systemd unit reported by rhsm_services, can be repeated",
			},
			outputFlag(),
			formatFlag(),
			kubeconfigFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f := facts.NewDefaultFactory(runner.NewMemo(newRunner(cmd)))
			f.CacheDir = cmd.String("cache-dir")
			f.TTL = cmd.Duration("ttl")
			f.NoCache = cmd.Bool("no-cache")
			f.Exclude = cmd.StringSlice("exclude")
			f.ServiceUnits = slices.Clone(cmd.StringSlice("service-unit"))

			ser, err := newSerializer(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", slog.String("error", err.Error()))
				}
			}()

			s := &facts.Snapshotter{
				Version:    version,
				Factory:    f,
				Facts:      cmd.StringSlice("fact"),
				Serializer: ser,
			}
			return s.Measure(ctx)
		},
	}
}
