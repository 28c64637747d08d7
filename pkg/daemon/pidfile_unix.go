//go:build !windows

package daemon

import (
	"golang.org/x/sys/unix"
)

// isProcessRunning checks if a process with the given PID is currently running.
// Signal 0 checks for existence; EPERM means it exists under another user.
func isProcessRunning(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
