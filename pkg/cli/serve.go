package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/api"
	"github.com/treydock/puppet-subscription-manager/pkg/cache"
	"github.com/treydock/puppet-subscription-manager/pkg/facts"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
	"github.com/treydock/puppet-subscription-manager/pkg/server"
)

func serveCmd(newRunner RunnerFunc) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve facts and pools over HTTP",
		Description: `Starts the inventory API:

  GET /v1/facts   fact snapshot (?fact=name to select)
  GET /v1/pools   consumed pools
  GET /health, /ready, /metrics

Facts are collected at startup and on --refresh-schedule (cron syntax,
e.g. "@every 30m" or "0 * * * *"). Every collection runs the tool and
rewrites the files in --cache-dir, keeping them fresh for "rhsmctl facts".`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   server.DefaultConfig().Port,
				Usage:   "listen port",
				Sources: cli.EnvVars(server.EnvPort),
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen address (default: all interfaces)",
			},
			&cli.StringFlag{
				Name:  "refresh-schedule",
				Value: api.DefaultRefreshSchedule,
				Usage: "cron schedule for background fact refresh, empty to disable",
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Value:   cache.DefaultDir,
				Usage:   "directory for cached fact values",
				Sources: cli.EnvVars("RHSM_CACHE_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := server.DefaultConfig()
			cfg.Port = int(cmd.Int("port"))
			cfg.Address = cmd.String("address")

			cacheDir := cmd.String("cache-dir")

			return api.Serve(ctx, api.Options{
				Version:         version,
				Runner:          newRunner(cmd),
				Config:          cfg,
				RefreshSchedule: cmd.String("refresh-schedule"),
				Factory:         serveFactory(cacheDir),
			})
		},
	}
}

// serveFactory always collects from the tool; the cache files are written
// for other readers but never served.
func serveFactory(cacheDir string) api.FactoryFunc {
	return func(r runner.Runner) facts.Factory {
		f := facts.NewDefaultFactory(r)
		f.CacheDir = cacheDir
		f.Refresh = true
		return f
	}
}
