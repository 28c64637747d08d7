// Package daemon keeps a single wsnap agent per workspace.
package daemon

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"thoreinstein.com/wsnap/pkg/errors"
)

const daemonDirName = "wsnap"

// daemonDir returns the directory where PID files are stored.
func daemonDir() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, daemonDirName)
}

// EnsureDir ensures the daemon directory exists with correct permissions (0700).
func EnsureDir() error {
	dir := daemonDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create daemon directory %q", dir)
	}
	return os.Chmod(dir, 0o700)
}

// PIDFile records the agent that owns a workspace.
type PIDFile struct {
	path string
}

// ForWorkspace returns the PID file of the workspace at dir. The file
// lives outside the workspace so it never shows up in a snapshot.
func ForWorkspace(dir string) *PIDFile {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	sum := sha256.Sum256([]byte(dir))
	name := "wsnap-" + hex.EncodeToString(sum[:6]) + ".pid"
	return &PIDFile{path: filepath.Join(daemonDir(), name)}
}

// Path returns the absolute path to the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

// Read reads the process ID from the PID file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Owner returns the PID of a live agent holding the file, if any.
func (p *PIDFile) Owner() (int, bool) {
	pid, err := p.Read()
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, isProcessRunning(pid)
}

// Acquire claims the workspace for this process. It fails with a
// DaemonError when another live process holds it; a stale or malformed
// file is replaced.
func (p *PIDFile) Acquire() error {
	self := os.Getpid()
	if pid, running := p.Owner(); running && pid != self {
		return errors.NewDaemonError("Acquire", "another wsnap agent (pid "+strconv.Itoa(pid)+") is watching this workspace")
	}

	if err := EnsureDir(); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(self)), 0o600); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

// Release removes the PID file if this process owns it.
func (p *PIDFile) Release() error {
	pid, err := p.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return os.Remove(p.path)
	}
	if pid != os.Getpid() {
		return nil
	}
	return os.Remove(p.path)
}
