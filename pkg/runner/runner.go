// Package runner executes the subscription-manager command line tool.
//
// The tool is located once per Exec and every invocation passes the exact
// argument vector to the process (no shell). Invocations are serialized:
// subscription-manager holds a global lock on the entitlement database and
// is not safe to drive concurrently. Each call is a single attempt bounded
// by a timeout; a nonzero exit or a timeout is reported as a
// *errors.CommandError carrying the captured output.
//
// # Usage
//
//	r := runner.New(runner.WithTimeout(30 * time.Second))
//	out, err := r.Run(ctx, "list", "--consumed")
//	if errors.Is(err, rhsmerrors.ErrToolNotFound) {
//	    // host is not RHSM managed
//	}
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
)

const (
	// DefaultPath is where RHEL installs subscription-manager.
	DefaultPath = "/usr/sbin/subscription-manager"

	// DefaultTimeout bounds a single invocation. Attaching pools against a
	// slow Satellite can legitimately take a minute.
	DefaultTimeout = 2 * time.Minute

	tracerName = "github.com/treydock/puppet-subscription-manager/pkg/runner"
)

// Runner runs subscription-manager with the given arguments and returns its
// standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Option configures an Exec.
type Option func(*Exec)

// WithPath overrides the executable path.
func WithPath(path string) Option {
	return func(e *Exec) {
		if path != "" {
			e.path = path
		}
	}
}

// WithTimeout sets the per-invocation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) {
		e.timeout = d
	}
}

// WithLookup replaces the executable check. The function returns nil when
// path is a usable executable.
func WithLookup(fn func(path string) error) Option {
	return func(e *Exec) {
		if fn != nil {
			e.lookup = fn
		}
	}
}

// Exec is the production Runner backed by os/exec.
type Exec struct {
	path    string
	timeout time.Duration
	lookup  func(path string) error

	once       sync.Once
	resolveErr error

	mu sync.Mutex
}

// New returns an Exec with defaults applied.
func New(opts ...Option) *Exec {
	e := &Exec{
		path:    DefaultPath,
		timeout: DefaultTimeout,
		lookup:  statExecutable,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the executable path, or an error wrapping
// errors.ErrToolNotFound if the tool is not installed. The check runs once.
func (e *Exec) Path() (string, error) {
	e.once.Do(func() {
		if err := e.lookup(e.path); err != nil {
			e.resolveErr = fmt.Errorf("%w at %s: %v", rhsmerrors.ErrToolNotFound, e.path, err)
			slog.Debug("subscription-manager unavailable", slog.String("path", e.path), slog.String("error", err.Error()))
		}
	})
	return e.path, e.resolveErr
}

// Run invokes the tool. It blocks until the process exits or the timeout
// elapses.
func (e *Exec) Run(ctx context.Context, args ...string) (string, error) {
	path, err := e.Path()
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := subcommand(args)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "subscription-manager "+sub,
		trace.WithAttributes(attribute.StringSlice("rhsm.args", args)))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Labels, booleans and dates are only stable in the C locale.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	cmd.WaitDelay = 5 * time.Second

	slog.Debug("running subscription-manager", slog.String("args", strings.Join(args, " ")))

	start := time.Now()
	runErr := cmd.Run()
	commandDuration.WithLabelValues(sub).Observe(time.Since(start).Seconds())

	if runErr == nil {
		commandTotal.WithLabelValues(sub, "success").Inc()
		return stdout.String(), nil
	}

	ce := &rhsmerrors.CommandError{
		Args:     append([]string(nil), args...),
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      runErr,
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		ce.ExitCode = exitErr.ExitCode()
	}

	status := "error"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		ce.TimedOut = true
		status = "timeout"
	}
	commandTotal.WithLabelValues(sub, status).Inc()

	span.RecordError(ce)
	span.SetStatus(codes.Error, status)

	slog.Debug("subscription-manager failed",
		slog.String("args", strings.Join(args, " ")),
		slog.Int("exit_code", ce.ExitCode),
		slog.Bool("timed_out", ce.TimedOut),
	)

	return ce.Stdout, ce
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return "none"
	}
	return args[0]
}

func statExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
