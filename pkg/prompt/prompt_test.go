package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalPrompter_Answers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		prefill string
		want    string
		wantOK  bool
	}{
		{"typed answer", "tuned the planner\n", "", "tuned the planner", true},
		{"empty takes prefill", "\n", "Ada <ada@example.com>", "Ada <ada@example.com>", true},
		{"empty without prefill", "\n", "", "", true},
		{"dot dismisses", ".\n", "previous", "", false},
		{"end of input dismisses", "", "previous", "", false},
		{"surrounding space trimmed", "  x  \n", "", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewTerminalPrompterWithIO(strings.NewReader(tt.input), &out)

			got, ok, err := p.AskReason(context.Background(), "Describe your change.", tt.prefill)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), ReasonTitle)
			if tt.prefill != "" {
				assert.Contains(t, out.String(), "["+tt.prefill+"]")
			}
		})
	}
}

func TestTerminalPrompter_SequentialQuestions(t *testing.T) {
	var out bytes.Buffer
	p := NewTerminalPrompterWithIO(strings.NewReader("new sensor driver\nAda <ada@example.com>\n"), &out)
	ctx := context.Background()

	reason, ok, err := p.AskReason(ctx, "reason?", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new sensor driver", reason)

	id, ok, err := p.AskIdentity(ctx, "identity?", "Your Name <you@example.com>")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada <ada@example.com>", id)
	assert.Contains(t, out.String(), IdentityTitle)

	// Input is exhausted: further questions are dismissed.
	_, ok, err = p.AskReason(ctx, "reason?", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTerminalPrompter_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewTerminalPrompterWithIO(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok, err := p.AskReason(ctx, "reason?", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTerminalPrompter_NotInteractive(t *testing.T) {
	p := NewTerminalPrompterWithIO(strings.NewReader("answer\n"), io.Discard)
	p.interactive = func() bool { return false }

	_, ok, err := p.AskIdentity(context.Background(), "identity?", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

// fakeDialog writes a shell script standing in for zenity.
func fakeDialog(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "zenity")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestDialogPrompter(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{"answer", `echo "fixed localization"`, "fixed localization", true, false},
		{"empty answer", `echo ""`, "", true, false},
		{"cancelled", `exit 1`, "", false, false},
		{"timed out", `exit 5`, "", false, false},
		{"broken", `echo "cannot open display" >&2; exit 255`, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDialogPrompter(fakeDialog(t, tt.script), nil)
			got, ok, err := p.AskReason(context.Background(), "reason?", "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("AskReason() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialogPrompter_Arguments(t *testing.T) {
	// The fake prints its arguments one per line.
	p := NewDialogPrompter(fakeDialog(t, `for a in "$@"; do echo "$a"; done`), nil)

	got, ok, err := p.AskIdentity(context.Background(), "Enter your name", "Ada <ada@example.com>")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Join([]string{
		"--entry",
		"--title=" + IdentityTitle,
		"--text=Enter your name",
		"--entry-text=Ada <ada@example.com>",
	}, "\n"), got)
}

func TestNew_Modes(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/zenity", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }
	display := func(k string) string {
		if k == "DISPLAY" {
			return ":0"
		}
		return ""
	}
	headless := func(string) string { return "" }

	tests := []struct {
		name     string
		mode     string
		lookPath func(string) (string, error)
		getenv   func(string) string
		want     string
		wantErr  bool
	}{
		{"terminal", ModeTerminal, found, display, "terminal", false},
		{"dialog", ModeDialog, found, headless, "dialog", false},
		{"dialog without zenity", ModeDialog, missing, display, "", true},
		{"auto with display", ModeAuto, found, display, "dialog", false},
		{"auto headless", ModeAuto, found, headless, "terminal", false},
		{"auto without zenity", ModeAuto, missing, display, "terminal", false},
		{"unknown", "gui", found, display, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newPrompter(tt.mode, tt.lookPath, tt.getenv)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			switch tt.want {
			case "terminal":
				assert.IsType(t, &TerminalPrompter{}, p)
			case "dialog":
				assert.IsType(t, &DialogPrompter{}, p)
			}
		})
	}
}
