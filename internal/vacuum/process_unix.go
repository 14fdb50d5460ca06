//go:build unix

package vacuum

import (
	"strconv"
	"syscall"
)

func parsePID(s string) (int, bool) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive checks liveness the POSIX-idiomatic way: signal 0 performs
// error checking without actually delivering a signal.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil
}
