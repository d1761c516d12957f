package command

import (
	"context"
	"sync"

	"github.com/dccforge/go_dcc/internal/host"
)

var (
	globalMu     sync.Mutex
	globalRunner *Runner
)

// InitRunner builds the process-wide runner and makes it available through
// Current and Execute. Calling it again replaces the previous runner.
func InitRunner(h host.Host, catalog Catalog, opts Options) (*Runner, error) {
	r, err := NewRunner(h, catalog, opts)
	if err != nil {
		return nil, err
	}

	globalMu.Lock()
	globalRunner = r
	globalMu.Unlock()

	return r, nil
}

// Current returns the process-wide runner installed by InitRunner, or
// ErrRunnerNotInitialized.
func Current() (*Runner, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalRunner == nil {
		return nil, ErrRunnerNotInitialized
	}

	return globalRunner, nil
}

// ResetRunner clears the process-wide runner. Intended for tests and for
// host teardown.
func ResetRunner() {
	globalMu.Lock()
	globalRunner = nil
	globalMu.Unlock()
}

// Execute runs a command through the process-wide runner. It is the
// convenience entry point for callers that do not hold a runner reference.
func Execute(ctx context.Context, id string, kwargs map[string]any) (any, error) {
	r, err := Current()
	if err != nil {
		return nil, err
	}

	return r.Run(ctx, id, kwargs)
}
