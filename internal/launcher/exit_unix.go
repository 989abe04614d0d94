//go:build unix

package launcher

import (
	"os/exec"
	"syscall"
)

// terminatingSignal names the signal that killed the process, if any.
func terminatingSignal(err *exec.ExitError) (string, bool) {
	ws, ok := err.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return "", false
	}
	return ws.Signal().String(), true
}
