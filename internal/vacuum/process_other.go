//go:build !unix

package vacuum

import (
	"os"
	"strconv"
)

func parsePID(s string) (int, bool) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
