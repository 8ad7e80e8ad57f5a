package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	ErrLoginDisabled  = errors.New("operator login is not configured")
	ErrBadCredentials = errors.New("invalid operator credentials")
	ErrLockedOut      = errors.New("too many failed logins, try again later")
)

type TokenIssuer interface {
	GenerateOperatorToken(name string) (string, error)
}

// Authenticator exchanges the shared operator password for a token.
// The name only labels the token subject.
type Authenticator struct {
	hash    string
	issuer  TokenIssuer
	lockout Lockout
}

type AuthenticatorOption func(*Authenticator)

// WithLockout locks out clients after repeated bad passwords
func WithLockout(l Lockout) AuthenticatorOption {
	return func(a *Authenticator) { a.lockout = l }
}

func NewAuthenticator(passwordHash string, issuer TokenIssuer, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{hash: passwordHash, issuer: issuer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) Enabled() bool {
	return a != nil && a.hash != ""
}

// Login checks the password for the given client key (usually the remote
// address). Lockout lookups that fail reject the login.
func (a *Authenticator) Login(ctx context.Context, client, name, password string) (string, error) {
	if !a.Enabled() {
		return "", ErrLoginDisabled
	}
	if a.lockout != nil {
		locked, err := a.lockout.Locked(ctx, client)
		if err != nil {
			return "", fmt.Errorf("lockout lookup: %w", err)
		}
		if locked {
			return "", ErrLockedOut
		}
	}

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return "", ErrBadCredentials
	}

	ok, err := CheckPassword(password, a.hash)
	if err != nil {
		log.Printf("[ERROR] Auth: operator password hash unusable: %v", err)
		return "", ErrLoginDisabled
	}
	if !ok {
		log.Printf("[Auth] Failed login for %q from %s", name, client)
		if a.lockout != nil {
			if err := a.lockout.Fail(ctx, client); err != nil {
				log.Printf("[ERROR] Auth: record failed login: %v", err)
			}
		}
		return "", ErrBadCredentials
	}

	if a.lockout != nil {
		if err := a.lockout.Clear(ctx, client); err != nil {
			log.Printf("[ERROR] Auth: clear failed logins: %v", err)
		}
	}
	return a.issuer.GenerateOperatorToken(name)
}
