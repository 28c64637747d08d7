package agent

import (
	"context"

	"thoreinstein.com/wsnap/pkg/identity"
	"thoreinstein.com/wsnap/pkg/prompt"
)

// DialogState is a state of the snapshot dialog.
type DialogState int

const (
	// StateReason asks for the reason of the snapshot.
	StateReason DialogState = iota
	// StateIdentity asks who takes the snapshot.
	StateIdentity
	// StateDone means a reason and a valid identity were collected.
	StateDone
	// StateCanceled means the user dismissed the reason question.
	StateCanceled
)

// String returns the state name.
func (s DialogState) String() string {
	switch s {
	case StateReason:
		return "reason"
	case StateIdentity:
		return "identity"
	case StateDone:
		return "done"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the dialog ends in this state.
func (s DialogState) Terminal() bool {
	return s == StateDone || s == StateCanceled
}

// Question texts.
const (
	ReasonPrompt   = "Changes were detected in the workspace.\nDescribe what you changed."
	IdentityPrompt = "Enter the name and email address to commit with, as \"Name <email>\"."
)

// Result is the outcome of a dialog.
type Result struct {
	State        DialogState
	Reason       string
	IdentityText string            // Last identity answer as typed
	Identity     identity.Identity // Set when State is StateDone
}

// Dialog collects a reason and an identity through a Prompter.
type Dialog struct {
	prompter prompt.Prompter
	config   identity.ConfigReader
}

// NewDialog creates a Dialog. config supplies the identity placeholder when
// the user has not typed one yet.
func NewDialog(p prompt.Prompter, config identity.ConfigReader) *Dialog {
	return &Dialog{prompter: p, config: config}
}

// Run drives the dialog until it is done or canceled. reason and
// identityText pre-fill the questions. Dismissing the identity question
// goes back to the reason; an identity that does not parse is asked again.
func (d *Dialog) Run(ctx context.Context, reason, identityText string) (Result, error) {
	res := Result{State: StateReason, Reason: reason, IdentityText: identityText}

	for !res.State.Terminal() {
		next, err := d.step(ctx, &res)
		if err != nil {
			return res, err
		}
		res.State = next
	}
	return res, nil
}

// step asks the question of the current state and returns the next state.
func (d *Dialog) step(ctx context.Context, res *Result) (DialogState, error) {
	switch res.State {
	case StateReason:
		text, ok, err := d.prompter.AskReason(ctx, ReasonPrompt, res.Reason)
		if err != nil {
			return res.State, err
		}
		if !ok {
			return StateCanceled, nil
		}
		res.Reason = text
		return StateIdentity, nil

	case StateIdentity:
		placeholder := identity.PlaceholderFor(ctx, res.IdentityText, d.config)
		text, ok, err := d.prompter.AskIdentity(ctx, IdentityPrompt, placeholder)
		if err != nil {
			return res.State, err
		}
		if !ok {
			return StateReason, nil
		}
		res.IdentityText = text
		id, valid := identity.Parse(text)
		if !valid {
			return StateIdentity, nil
		}
		res.Identity = id
		return StateDone, nil
	}
	return res.State, nil
}
