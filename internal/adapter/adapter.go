// Package adapter isolates every subprocess exec behind a per-tool
// interface, per spec §9: "Adapters are the only code allowed to invoke
// exec." Tests substitute a [Runner] that returns canned output instead
// of shelling out to rpm/systemctl/readelf/file/podman.
package adapter

import (
	"context"
	"os/exec"
)

// Runner executes a named tool with arguments and returns its stdout.
// A non-nil error from a tool that simply isn't installed should be
// distinguishable via [exec.ErrNotFound] / [os.IsNotExist] so callers
// can downgrade to an info warning rather than treating it as fatal.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec is the production [Runner]: a thin wrapper over [exec.CommandContext].
type Exec struct{}

// Run implements [Runner].
func (Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return out, &ExitError{Name: name, Args: args, Stderr: ee.Stderr, Err: ee}
		}
		return out, err
	}
	return out, nil
}

// ExitError carries a tool's stderr alongside the wrapped *exec.ExitError
// so adapters can log it without re-running the command.
type ExitError struct {
	Name   string
	Args   []string
	Stderr []byte
	Err    error
}

func (e *ExitError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Fake is a [Runner] for tests: it returns the next canned response for
// the named tool regardless of arguments.
type Fake struct {
	Responses map[string][]byte
	Errors    map[string]error
}

// Run implements [Runner].
func (f *Fake) Run(_ context.Context, name string, _ ...string) ([]byte, error) {
	if err, ok := f.Errors[name]; ok && err != nil {
		return nil, err
	}
	return f.Responses[name], nil
}
