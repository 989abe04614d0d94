package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalnine/simsweep/internal/observability"
	"go.uber.org/zap"
)

// waitDelay bounds how long Wait blocks on output held open by orphaned
// grandchildren after the process is killed.
const waitDelay = 5 * time.Second

var ErrExecutableNotFound = errors.New("simulator executable not found")

// Prioritizer lowers the scheduling priority of a started process.
type Prioritizer func(pid, niceness int) error

// Process runs each request as a local child process.
type Process struct {
	Executable string
	Script     string
	Env        []string
	Prioritize Prioritizer
}

// NewProcess returns a process launcher using the platform prioritizer.
func NewProcess(executable, script string, env []string) *Process {
	return &Process{
		Executable: executable,
		Script:     script,
		Env:        env,
		Prioritize: SetPriority,
	}
}

// ResolveExecutable returns the first candidate that exists. Names without
// a path separator are looked up on PATH.
func ResolveExecutable(primary string, candidates []string) (string, error) {
	tried := make([]string, 0, len(candidates)+1)
	for _, c := range append([]string{primary}, candidates...) {
		if c == "" {
			continue
		}
		tried = append(tried, c)
		if !strings.ContainsRune(c, filepath.Separator) {
			if p, err := exec.LookPath(c); err == nil {
				return p, nil
			}
			continue
		}
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return "", fmt.Errorf("resolving %s: %w", c, err)
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrExecutableNotFound, strings.Join(tried, ", "))
}

func (p *Process) Preflight(ctx context.Context) error {
	if p.Executable != "" {
		if _, err := ResolveExecutable(p.Executable, nil); err != nil {
			return err
		}
	}
	if p.Script != "" {
		if _, err := os.Stat(p.Script); err != nil {
			return fmt.Errorf("checking simulation script: %w", err)
		}
	}
	return nil
}

func (p *Process) Launch(ctx context.Context, req Request) (int, error) {
	if len(req.Argv) == 0 {
		return -1, &LaunchError{Err: errors.New("empty invocation")}
	}
	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...)
	cmd.Stdout = req.Log
	cmd.Stderr = req.Log
	cmd.WaitDelay = waitDelay
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}

	if err := cmd.Start(); err != nil {
		return -1, &LaunchError{Executable: req.Argv[0], Err: err}
	}
	// Applied after Start, so the process runs at our own priority for the
	// moment until Prioritize returns.
	if req.Priority != nil && p.Prioritize != nil {
		if err := p.Prioritize(cmd.Process.Pid, *req.Priority); err != nil {
			observability.CLILogger.Warn("lowering priority failed",
				zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		}
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if sig, ok := terminatingSignal(exitErr); ok {
			return -1, &SignalError{Signal: sig}
		}
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("waiting for %s: %w", req.Argv[0], err)
}
