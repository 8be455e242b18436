// Package token supplies bearer tokens to the HTTP client.
//
// A Provider is consulted on every request, so a token that rotates on disk
// (a mounted secret, for example) is picked up without restarting streams'
// owners or rebuilding clients.
package token

import (
	"strings"

	"github.com/kbukum/tweetkit/errors"
)

// Provider returns the bearer token to use for the next request.
type Provider interface {
	Token() string
}

// Static is a Provider for a fixed token.
type Static struct {
	token string
}

// NewStatic returns a Provider that always yields tok.
func NewStatic(tok string) (*Static, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, errors.InvalidToken("bearer token is empty")
	}
	return &Static{token: tok}, nil
}

// Token implements Provider.
func (s *Static) Token() string {
	return s.token
}
