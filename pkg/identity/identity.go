// Package identity resolves and parses committer identities.
//
// An identity is a name plus an email. The email may be the empty marker
// "<>", which git accepts as an explicitly empty address.
package identity

import (
	"context"
	"strings"
)

// EmptyEmail is the marker for an explicitly empty email address.
const EmptyEmail = "<>"

// Placeholder is offered when neither a previous answer nor a configured
// identity is available.
const Placeholder = "Your Name <you@example.com>"

// Identity is a committer name and email.
type Identity struct {
	Name  string
	Email string
}

// String renders the identity in the "Name <email>" form accepted by
// git commit --author. The empty marker renders as "Name <>".
func (i Identity) String() string {
	if i.Email == EmptyEmail {
		return i.Name + " <>"
	}
	return i.Name + " <" + i.Email + ">"
}

// Valid reports whether the identity has a name and an email (possibly the
// empty marker).
func (i Identity) Valid() bool {
	return strings.TrimSpace(i.Name) != "" && i.Email != ""
}

// ConfigReader reads git configuration values. *git.Client satisfies it.
type ConfigReader interface {
	ConfigGet(ctx context.Context, key string) (string, error)
}

// Resolve reads user.name and user.email from git configuration. It returns
// false when either is missing, when the email is the empty marker, or when
// the configuration cannot be read.
func Resolve(ctx context.Context, cfg ConfigReader) (Identity, bool) {
	name, err := cfg.ConfigGet(ctx, "user.name")
	if err != nil {
		return Identity{}, false
	}
	email, err := cfg.ConfigGet(ctx, "user.email")
	if err != nil {
		return Identity{}, false
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || email == EmptyEmail {
		return Identity{}, false
	}
	return Identity{Name: name, Email: email}, true
}

// Parse parses text of the exact form "Name <email>": a single " <"
// separator, a non-blank name and a trailing ">". "Name <>" yields the
// empty email marker. Any other input yields false and a zero Identity.
func Parse(text string) (Identity, bool) {
	parts := strings.Split(text, " <")
	if len(parts) != 2 {
		return Identity{}, false
	}

	name := strings.TrimSpace(parts[0])
	rest := parts[1]
	if name == "" || !strings.HasSuffix(rest, ">") {
		return Identity{}, false
	}

	email := strings.TrimSuffix(rest, ">")
	if email == "" {
		email = EmptyEmail
	}
	return Identity{Name: name, Email: email}, true
}

// PlaceholderFor returns the text to pre-fill an identity prompt with: the
// previous answer, else the resolved identity, else Placeholder.
func PlaceholderFor(ctx context.Context, previous string, cfg ConfigReader) string {
	if previous != "" {
		return previous
	}
	if id, ok := Resolve(ctx, cfg); ok {
		return id.String()
	}
	return Placeholder
}
