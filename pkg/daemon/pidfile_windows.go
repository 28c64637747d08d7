//go:build windows

package daemon

import (
	"golang.org/x/sys/windows"
)

// stillActive is the exit code reported for a process that has not exited.
const stillActive = 259

// isProcessRunning checks if a process with the given PID is currently running.
func isProcessRunning(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid)) //nolint:gosec // pid is positive
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h) //nolint:errcheck

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
