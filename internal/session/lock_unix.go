//go:build !windows

package session

import (
	"errors"
	"os"
	"syscall"
)

// processAlive probes a PID with signal 0. A permission error still means
// the process exists, just under another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
