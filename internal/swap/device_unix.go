//go:build unix

package swap

import (
	"fmt"
	"os"
	"syscall"
)

// deviceOf returns the device ID backing path's filesystem, used by
// CheckSameFilesystem to enforce that atomic rename stays on one device.
func deviceOf(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("unsupported platform for device inspection")
	}
	return uint64(sys.Dev), nil
}
