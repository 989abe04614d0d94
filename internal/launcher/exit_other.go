//go:build !unix

package launcher

import "os/exec"

func terminatingSignal(err *exec.ExitError) (string, bool) {
	return "", false
}
