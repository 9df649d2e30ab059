package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/treydock/puppet-subscription-manager/pkg/logging"
	"github.com/treydock/puppet-subscription-manager/pkg/runner"
)

const name = "rhsmctl"

var (
	// overridden during build with ldflags, e.g.
	// -X "github.com/treydock/puppet-subscription-manager/pkg/cli.version=1.0.0"
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// RunnerFunc builds the subscription-manager runner from the global flags.
type RunnerFunc func(cmd *cli.Command) runner.Runner

func defaultRunner(cmd *cli.Command) runner.Runner {
	return runner.New(
		runner.WithPath(cmd.String("tool")),
		runner.WithTimeout(cmd.Duration("timeout")),
	)
}

// Execute runs the CLI with os.Args and exits nonzero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultRunner).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(newRunner RunnerFunc) *cli.Command {
	var logCloser io.Closer

	return &cli.Command{
		Name:                  name,
		Usage:                 "Manage and report Red Hat subscription state",
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tool",
				Value:   runner.DefaultPath,
				Usage:   "path to the subscription-manager executable",
				Sources: cli.EnvVars("RHSM_TOOL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   runner.DefaultTimeout,
				Usage:   "time limit for a single subscription-manager invocation",
				Sources: cli.EnvVars("RHSM_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit logs as JSON",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "also write logs to this file, rotated by size",
				Sources: cli.EnvVars("RHSM_LOG_FILE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logCloser = logging.SetDefaultStructuredLogger(name, version,
				logging.WithDebug(cmd.Bool("debug")),
				logging.WithJSON(cmd.Bool("log-json")),
				logging.WithFile(cmd.String("log-file")),
			)
			return ctx, nil
		},
		After: func(_ context.Context, _ *cli.Command) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			poolsCmd(newRunner),
			applyCmd(newRunner),
			factsCmd(newRunner),
			serveCmd(newRunner),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			commandLister(ctx, cmd)
			return nil
		},
	}
}

// commandLister prints the visible subcommands.
func commandLister(_ context.Context, cmd *cli.Command) {
	if cmd == nil {
		return
	}
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	for _, c := range cmd.Commands {
		if c.Hidden {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-8s %s\n", c.Name, c.Usage); err != nil {
			slog.Debug("failed to list commands", slog.String("error", err.Error()))
			return
		}
	}
}
