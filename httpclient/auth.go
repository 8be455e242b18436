package httpclient

import (
	"net/http"

	"github.com/kbukum/tweetkit/token"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses a fixed Bearer token.
	AuthBearer
	// AuthToken uses a Bearer token read from a token.Provider per request.
	AuthToken
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Provider supplies the bearer token (AuthToken).
	Provider token.Provider
	// Username is the basic auth username (AuthBasic).
	Username string
	// Password is the basic auth password (AuthBasic).
	Password string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// TokenAuth creates a bearer auth config whose token is read from p on
// every request, so rotated tokens take effect without rebuilding the adapter.
func TokenAuth(p token.Provider) *AuthConfig {
	return &AuthConfig{Type: AuthToken, Provider: p}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// NoAuth disables authentication. As a per-request override it suppresses
// the adapter's default auth.
func NoAuth() *AuthConfig {
	return &AuthConfig{Type: AuthNone}
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthToken:
		if a.Provider != nil {
			if tok := a.Provider.Token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
}
