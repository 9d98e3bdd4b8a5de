// Package greet implements the built-in greeting task: resolve an
// optional name, capitalize it, and emit a single greeting line.
package greet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrIdentityUnavailable indicates no name was supplied and the current
// user identity could not be determined from the OS.
var ErrIdentityUnavailable = errors.New("current user identity unavailable")

// IdentityProvider resolves the login name of the invoking user.
// Injected so tests can run without touching real process state.
type IdentityProvider interface {
	CurrentUser() (string, error)
}

// OSIdentity resolves the login name from the operating system.
type OSIdentity struct{}

// CurrentUser returns the OS-reported login name. It consults os/user
// first, then the USER and LOGNAME environment variables, the same
// sources getlogin-style lookups draw from.
func (OSIdentity) CurrentUser() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	for _, key := range []string{"USER", "LOGNAME"} {
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	return "", ErrIdentityUnavailable
}

// Greeter produces greeting messages for named or resolved recipients.
type Greeter struct {
	identity IdentityProvider
}

// New creates a Greeter. A nil identity falls back to OSIdentity.
func New(identity IdentityProvider) *Greeter {
	if identity == nil {
		identity = OSIdentity{}
	}
	return &Greeter{identity: identity}
}

// Greet writes "Hello, {Name}!" for the given name. An empty name
// resolves to the current user identity. Nothing is written on error.
func (g *Greeter) Greet(w io.Writer, name string) error {
	resolved, err := g.Resolve(name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Hello, %s!\n", Capitalize(resolved))
	return err
}

// Resolve returns the name to greet: the input if non-empty, otherwise
// the identity provider's answer.
func (g *Greeter) Resolve(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	resolved, err := g.identity.CurrentUser()
	if err != nil {
		return "", fmt.Errorf("resolve name: %w", err)
	}
	if resolved == "" {
		return "", fmt.Errorf("resolve name: %w", ErrIdentityUnavailable)
	}
	return resolved, nil
}

// Capitalize uppercases the first rune and lowercases the rest.
// Idempotent: Capitalize(Capitalize(s)) == Capitalize(s).
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
