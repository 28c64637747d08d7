// Package prompt asks the user for a snapshot reason and a committer
// identity. Either question may be dismissed.
package prompt

import (
	"context"
	"os"
	"os/exec"

	wsnaperrors "thoreinstein.com/wsnap/pkg/errors"
)

// Prompter asks the user questions. The boolean result is false when the
// user dismissed the question.
type Prompter interface {
	AskReason(ctx context.Context, prompt, prefill string) (string, bool, error)
	AskIdentity(ctx context.Context, prompt, prefill string) (string, bool, error)
}

// Question titles.
const (
	ReasonTitle   = "Take a snapshot?"
	IdentityTitle = "Who are you?"
)

// Supported prompt modes.
const (
	ModeAuto     = "auto"
	ModeTerminal = "terminal"
	ModeDialog   = "dialog"
)

// DialogBinary is the desktop dialog program used by DialogPrompter.
const DialogBinary = "zenity"

// New returns the Prompter for mode. In auto mode a desktop dialog is used
// when a display is available and zenity is installed, and the terminal
// otherwise.
func New(mode string) (Prompter, error) {
	return newPrompter(mode, exec.LookPath, os.Getenv)
}

func newPrompter(mode string, lookPath func(string) (string, error), getenv func(string) string) (Prompter, error) {
	coord := NewCoordinator()

	switch mode {
	case ModeTerminal:
		return NewTerminalPrompter(coord), nil
	case ModeDialog:
		bin, err := lookPath(DialogBinary)
		if err != nil {
			return nil, wsnaperrors.NewConfigErrorWithCause("prompt.mode", DialogBinary+" is not installed", err)
		}
		return NewDialogPrompter(bin, coord), nil
	case ModeAuto, "":
		if getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != "" {
			if bin, err := lookPath(DialogBinary); err == nil {
				return NewDialogPrompter(bin, coord), nil
			}
		}
		return NewTerminalPrompter(coord), nil
	default:
		return nil, wsnaperrors.NewConfigError("prompt.mode", "unknown prompt mode "+mode)
	}
}
