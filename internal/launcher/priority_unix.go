//go:build unix

package launcher

import "golang.org/x/sys/unix"

// SetPriority sets the nice value of pid.
func SetPriority(pid, niceness int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, pid, niceness)
}
