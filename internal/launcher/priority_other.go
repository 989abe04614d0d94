//go:build !unix

package launcher

func SetPriority(pid, niceness int) error {
	return nil
}
