// Package launcher starts one simulation invocation and waits for it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrLaunch marks failures to start the external process at all.
var ErrLaunch = errors.New("launch failed")

// Request describes a single invocation. Argv[0] is the executable.
type Request struct {
	Argv      []string
	OutputDir string
	Log       io.Writer
	Priority  *int
}

// Launcher runs requests. Launch returns the exit code of a process that ran
// to completion (zero or not) with a nil error; a process that could not be
// started yields -1 and an error matching ErrLaunch. A process terminated by a
// signal yields -1 and a *SignalError. When ctx ends first the process is
// killed and ctx's error is returned.
type Launcher interface {
	Preflight(ctx context.Context) error
	Launch(ctx context.Context, req Request) (int, error)
}

// LaunchError carries the executable that failed to start.
type LaunchError struct {
	Executable string
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Executable, e.Err)
}

func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunch, e.Err}
}

// SignalError reports a process that started but was terminated by a signal
// instead of exiting.
type SignalError struct {
	Signal string
}

func (e *SignalError) Error() string {
	return "killed by signal: " + e.Signal
}
