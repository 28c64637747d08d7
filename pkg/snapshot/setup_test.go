package snapshot

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/wsnap/pkg/git"
	"thoreinstein.com/wsnap/pkg/identity"
	"thoreinstein.com/wsnap/pkg/nested"
)

// isolateGit points git at an empty system config and a global config
// holding only a test identity.
func isolateGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	global := filepath.Join(t.TempDir(), "gitconfig")
	content := "[user]\n\tname = Test User\n\temail = test@example.com\n[init]\n\tdefaultBranch = main\n[commit]\n\tgpgsign = false\n"
	require.NoError(t, os.WriteFile(global, []byte(content), 0o644))
	t.Setenv("GIT_CONFIG_GLOBAL", global)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

// newWorkspace creates a workspace with src/universe and one nested
// repository at src/core/pkg.
func newWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "src", "universe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "src", "universe", "params.yaml"), []byte("speed: 1\n"), 0o644))

	pkg := filepath.Join(ws, "src", "core", "pkg")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "main.c"), []byte("int main;\n"), 0o644))
	runGit(t, pkg, "init")
	return ws
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func newTestSetup(ws string) *Setup {
	client := git.NewClient(ws, false)
	guard := nested.NewGuard(filepath.Join(ws, "src"), nil)
	committer := NewCommitter(client, guard, Options{})
	return NewSetup(ws, client, committer, SetupOptions{
		SourceDir:     "src",
		IgnoreEntries: []string{".vscode/", "build/", "install/", "log/", "__pycache__/"},
		Fallback:      identity.Identity{Name: "wsnap", Email: identity.EmptyEmail},
	})
}

func subjects(t *testing.T, ws string) []string {
	t.Helper()
	h, err := git.OpenHistory(ws)
	require.NoError(t, err)
	commits, err := h.Commits(0)
	require.NoError(t, err)
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Subject)
	}
	return out
}

func TestSetup_FreshWorkspace(t *testing.T) {
	isolateGit(t)
	ws := newWorkspace(t)
	s := newTestSetup(ws)
	ctx := context.Background()

	require.False(t, s.Done())
	require.NoError(t, s.Ensure(ctx))
	assert.True(t, s.Done())

	assert.Equal(t, []string{
		"Snapshot taken: " + InitReason,
		CreateIgnoreMessage,
	}, subjects(t, ws))

	data, err := os.ReadFile(filepath.Join(ws, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".vscode/\nbuild/\ninstall/\nlog/\n__pycache__/\n", string(data))

	assert.Equal(t, "Test User", runGit(t, ws, "config", "--local", "user.name"))
	assert.Equal(t, "test@example.com", runGit(t, ws, "config", "--local", "user.email"))

	// The nested repository is captured as plain files, not as a gitlink.
	assert.Equal(t, "100644", strings.Fields(runGit(t, ws, "ls-files", "-s", "src/core/pkg/main.c"))[0])
	assert.DirExists(t, filepath.Join(ws, "src", "core", "pkg", ".git"))
	assert.NoDirExists(t, filepath.Join(ws, "src", "core", "pkg", nested.DisabledName))
}

func TestSetup_Idempotent(t *testing.T) {
	isolateGit(t)
	ws := newWorkspace(t)
	s := newTestSetup(ws)
	ctx := context.Background()

	require.NoError(t, s.Ensure(ctx))
	first := subjects(t, ws)
	ignore1, err := os.ReadFile(filepath.Join(ws, ".gitignore"))
	require.NoError(t, err)

	require.NoError(t, s.Ensure(ctx))
	assert.Equal(t, first, subjects(t, ws))

	// A crash before the sentinel was written reruns the whole setup
	// without adding commits.
	require.NoError(t, os.Remove(s.SentinelPath()))
	require.NoError(t, s.Ensure(ctx))
	assert.True(t, s.Done())
	assert.Equal(t, first, subjects(t, ws))

	ignore2, err := os.ReadFile(filepath.Join(ws, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, string(ignore1), string(ignore2))
}

func TestSetup_MetaRepository(t *testing.T) {
	isolateGit(t)
	ws := newWorkspace(t)
	runGit(t, ws, "init")
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".gitignore"), []byte("/src/\nbuild/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "autoware.repos"), []byte("repositories: {}\n"), 0o644))
	runGit(t, ws, "add", ".")
	runGit(t, ws, "commit", "-m", "upstream")

	s := newTestSetup(ws)
	require.NoError(t, s.Ensure(context.Background()))

	data, err := os.ReadFile(filepath.Join(ws, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "# /src/\nbuild/\n", string(data))

	assert.Equal(t, []string{
		"Snapshot taken: " + InitReason,
		RepairIgnoreMessage,
		"upstream",
	}, subjects(t, ws))
	assert.NotEmpty(t, runGit(t, ws, "ls-files", "src/universe/params.yaml"))
}

func TestSetup_SentinelShortCircuits(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".git", SentinelName), nil, 0o644))

	mock := &git.MockCommandRunner{}
	client := git.NewClientWithRunner(ws, mock)
	s := NewSetup(ws, client, NewCommitter(client, nested.NewGuard(filepath.Join(ws, "src"), nil), Options{}), SetupOptions{})

	require.NoError(t, s.Ensure(context.Background()))
	assert.Empty(t, mock.Calls())
}

func TestSentinelName(t *testing.T) {
	assert.Equal(t, "3134559c-8a45-4d8a-a037-71835eedc5d8", SentinelName)
}

func TestIgnoreCommitMessages(t *testing.T) {
	// Existing workspace histories carry these exact subjects.
	assert.Equal(t, "Create `.gitignore` for snapshots", CreateIgnoreMessage)
	assert.Equal(t, "Remove src directory from `.gitignore`", RepairIgnoreMessage)
}
