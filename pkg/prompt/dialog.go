package prompt

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// zenity exit statuses that mean the dialog was closed without an answer.
const (
	dialogCancelled = 1
	dialogTimedOut  = 5
)

// DialogPrompter asks questions with desktop entry dialogs (zenity).
type DialogPrompter struct {
	binary string
	coord  *Coordinator
}

// NewDialogPrompter creates a DialogPrompter running binary.
func NewDialogPrompter(binary string, coord *Coordinator) *DialogPrompter {
	if coord == nil {
		coord = NewCoordinator()
	}
	return &DialogPrompter{binary: binary, coord: coord}
}

// AskReason implements Prompter.
func (p *DialogPrompter) AskReason(ctx context.Context, prompt, prefill string) (string, bool, error) {
	return p.ask(ctx, ReasonTitle, prompt, prefill)
}

// AskIdentity implements Prompter.
func (p *DialogPrompter) AskIdentity(ctx context.Context, prompt, prefill string) (string, bool, error) {
	return p.ask(ctx, IdentityTitle, prompt, prefill)
}

func (p *DialogPrompter) ask(ctx context.Context, title, prompt, prefill string) (string, bool, error) {
	unlock := p.coord.Lock()
	defer unlock()

	// #nosec G204 - the binary is resolved from PATH, arguments are not shell-interpreted
	cmd := exec.CommandContext(ctx, p.binary,
		"--entry",
		"--title="+title,
		"--text="+prompt,
		"--entry-text="+prefill,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case dialogCancelled, dialogTimedOut:
				return "", false, nil
			}
		}
		return "", false, errors.Wrapf(err, "%s failed: %s", p.binary, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimRight(stdout.String(), "\r\n"), true, nil
}

var _ Prompter = (*DialogPrompter)(nil)
