package git

import (
	"context"
	"strings"
	"sync"
)

// MockCommandRunner is a CommandRunner for tests. Calls are recorded in
// order; behavior is delegated to RunFunc and OutputFunc when set.
type MockCommandRunner struct {
	RunFunc    func(dir string, name string, args ...string) error
	OutputFunc func(dir string, name string, args ...string) ([]byte, error)

	mu    sync.Mutex
	calls []string
}

// Run implements CommandRunner.
func (m *MockCommandRunner) Run(_ context.Context, dir string, name string, args ...string) error {
	m.record(name, args)
	if m.RunFunc != nil {
		return m.RunFunc(dir, name, args...)
	}
	return nil
}

// Output implements CommandRunner.
func (m *MockCommandRunner) Output(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	m.record(name, args)
	if m.OutputFunc != nil {
		return m.OutputFunc(dir, name, args...)
	}
	return []byte{}, nil
}

// Calls returns every recorded invocation as "name arg1 arg2 ...".
func (m *MockCommandRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallsWithPrefix returns the recorded invocations starting with prefix.
func (m *MockCommandRunner) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockCommandRunner) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

// Compile-time checks.
var (
	_ CommandRunner = (*MockCommandRunner)(nil)
	_ CommandRunner = (*RealCommandRunner)(nil)
)
