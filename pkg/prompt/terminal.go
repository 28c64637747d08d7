package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chainguard-dev/clog"
	"golang.org/x/term"
)

// DismissInput is the answer that dismisses a terminal question.
const DismissInput = "."

// TerminalPrompter asks questions on the controlling terminal. An empty
// answer accepts the pre-filled value; end of input or a single "."
// dismisses the question.
type TerminalPrompter struct {
	in          io.Reader
	out         io.Writer
	coord       *Coordinator
	interactive func() bool

	startOnce sync.Once
	lines     chan string
}

// NewTerminalPrompter creates a TerminalPrompter on stdin and stderr.
// Questions are dismissed without asking when stdin is not a terminal.
func NewTerminalPrompter(coord *Coordinator) *TerminalPrompter {
	return &TerminalPrompter{
		in:    os.Stdin,
		out:   os.Stderr,
		coord: coord,
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
		},
	}
}

// NewTerminalPrompterWithIO creates a TerminalPrompter on the given streams
// (for testing). It always considers itself interactive.
func NewTerminalPrompterWithIO(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:          in,
		out:         out,
		coord:       NewCoordinator(),
		interactive: func() bool { return true },
	}
}

// AskReason implements Prompter.
func (p *TerminalPrompter) AskReason(ctx context.Context, prompt, prefill string) (string, bool, error) {
	return p.ask(ctx, ReasonTitle, prompt, prefill)
}

// AskIdentity implements Prompter.
func (p *TerminalPrompter) AskIdentity(ctx context.Context, prompt, prefill string) (string, bool, error) {
	return p.ask(ctx, IdentityTitle, prompt, prefill)
}

func (p *TerminalPrompter) ask(ctx context.Context, title, prompt, prefill string) (string, bool, error) {
	if !p.interactive() {
		clog.FromContext(ctx).Warnf("stdin is not a terminal, dismissing %q", title)
		return "", false, nil
	}

	unlock := p.coord.Lock()
	defer unlock()

	p.startOnce.Do(p.startReader)

	fmt.Fprintf(p.out, "\n%s\n%s\n", title, prompt)
	if prefill != "" {
		fmt.Fprintf(p.out, "[%s] ", prefill)
	}
	fmt.Fprint(p.out, "> ")

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", false, ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return "", false, nil
		}
		input := strings.TrimSpace(line)
		switch input {
		case DismissInput:
			return "", false, nil
		case "":
			return prefill, true, nil
		default:
			return input, true, nil
		}
	}
}

// startReader reads lines in the background so that a question can be
// abandoned when its context is cancelled.
func (p *TerminalPrompter) startReader() {
	p.lines = make(chan string)
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()
}

var _ Prompter = (*TerminalPrompter)(nil)
