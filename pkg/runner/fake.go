package runner

import (
	"context"
	"strings"
	"sync"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
)

// Fake is a scripted Runner for tests. Responses are keyed by the space
// joined argument vector; unscripted commands fail with exit status 1.
type Fake struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     [][]string
}

type fakeResponse struct {
	out string
	err error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]fakeResponse)}
}

// On scripts the response for args and returns the Fake for chaining.
func (f *Fake) On(out string, err error, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = fakeResponse{out: out, err: err}
	return f
}

// Run records the call and returns the scripted response.
func (f *Fake) Run(ctx context.Context, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string(nil), args...))

	res, ok := f.responses[strings.Join(args, " ")]
	if !ok {
		return "", &rhsmerrors.CommandError{
			Args:     append([]string(nil), args...),
			ExitCode: 1,
			Stderr:   "unexpected command",
		}
	}
	return res.out, res.err
}

// Calls returns a copy of every recorded argument vector in call order.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// CallCount returns how many times args was run.
func (f *Fake) CallCount(args ...string) int {
	key := strings.Join(args, " ")

	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.Join(c, " ") == key {
			n++
		}
	}
	return n
}
