package runner

import (
	"context"
	"strings"
	"sync"
)

// Memo remembers the result of each distinct argument vector for its own
// lifetime. It is meant for read-only commands during a single fact run:
// enabled pools and identity facts can share one "list --consumed" call.
// Never wrap mutating commands in a Memo.
type Memo struct {
	runner Runner

	mu      sync.Mutex
	results map[string]memoResult
}

type memoResult struct {
	out string
	err error
}

// NewMemo wraps r.
func NewMemo(r Runner) *Memo {
	return &Memo{
		runner:  r,
		results: make(map[string]memoResult),
	}
}

// Run returns the remembered result for args, invoking the wrapped runner on
// first use. Errors are remembered too so a failing command is not retried
// within the same run.
func (m *Memo) Run(ctx context.Context, args ...string) (string, error) {
	key := strings.Join(args, "\x00")

	m.mu.Lock()
	defer m.mu.Unlock()

	if res, ok := m.results[key]; ok {
		return res.out, res.err
	}

	out, err := m.runner.Run(ctx, args...)
	m.results[key] = memoResult{out: out, err: err}
	return out, err
}
