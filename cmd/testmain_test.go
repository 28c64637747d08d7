package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

// TestMain isolates the cmd tests from the user's environment: HOME, the
// git global config and the PID file directory all point into a scratch
// directory that is removed afterwards.
func TestMain(m *testing.M) {
	os.Setenv("GO_TEST", "true")

	scratch, err := os.MkdirTemp("", "wsnap-cmd-test-")
	if err != nil {
		panic(err)
	}

	gitConfig := filepath.Join(scratch, "gitconfig")
	content := "[user]\n\tname = Test User\n\temail = test@example.com\n[commit]\n\tgpgsign = false\n[init]\n\tdefaultBranch = main\n"
	if err := os.WriteFile(gitConfig, []byte(content), 0o644); err != nil {
		panic(err)
	}

	os.Setenv("HOME", scratch)
	os.Setenv("XDG_RUNTIME_DIR", scratch)
	os.Setenv("GIT_CONFIG_GLOBAL", gitConfig)
	os.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	code := m.Run()

	os.RemoveAll(scratch)
	os.Exit(code)
}
