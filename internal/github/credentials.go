package github

import (
	"fmt"
	"strings"
)

// AuthType tells how a request authenticates.
type AuthType int

const (
	AuthAnonymous AuthType = iota
	AuthBasic
	AuthToken
)

// String returns the config spelling of the auth type.
func (t AuthType) String() string {
	switch t {
	case AuthBasic:
		return "basic"
	case AuthToken:
		return "token"
	default:
		return "anonymous"
	}
}

// ParseAuthType parses the config spelling produced by AuthType.String.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anonymous":
		return AuthAnonymous, nil
	case "basic":
		return AuthBasic, nil
	case "token":
		return AuthToken, nil
	default:
		return AuthAnonymous, fmt.Errorf("unknown auth type %q", s)
	}
}

// Credentials is an immutable snapshot of how to authenticate against one host.
// Changing any part produces a new value.
type Credentials struct {
	authType AuthType
	host     string
	login    string
	secret   string
	useProxy bool
}

// NewAnonymous returns credentials that send no Authorization header.
func NewAnonymous(host string) Credentials {
	return Credentials{authType: AuthAnonymous, host: host, useProxy: true}
}

// NewBasic returns login/password credentials.
func NewBasic(host, login, password string) Credentials {
	return Credentials{authType: AuthBasic, host: host, login: login, secret: password, useProxy: true}
}

// NewToken returns OAuth/personal-access-token credentials.
func NewToken(host, token string) Credentials {
	return Credentials{authType: AuthToken, host: host, secret: token, useProxy: true}
}

// WithProxy returns a copy with the proxy flag set to useProxy.
func (c Credentials) WithProxy(useProxy bool) Credentials {
	c.useProxy = useProxy
	return c
}

// WithHost returns a copy bound to another host.
func (c Credentials) WithHost(host string) Credentials {
	c.host = host
	return c
}

func (c Credentials) Type() AuthType { return c.authType }
func (c Credentials) Host() string   { return c.host }
func (c Credentials) UseProxy() bool { return c.useProxy }

// IsAnonymous reports whether the credentials carry no identity.
func (c Credentials) IsAnonymous() bool {
	return c.authType == AuthAnonymous
}

// Basic returns the login and password for basic credentials.
func (c Credentials) Basic() (login, password string, ok bool) {
	if c.authType != AuthBasic {
		return "", "", false
	}
	return c.login, c.secret, true
}

// Token returns the token for token credentials.
func (c Credentials) Token() (string, bool) {
	if c.authType != AuthToken {
		return "", false
	}
	return c.secret, true
}

// Login returns the login for basic credentials, empty otherwise.
func (c Credentials) Login() string {
	return c.login
}

// Validate performs the offline part of a credential check: a host must be set,
// basic credentials need both login and password, token credentials need a token,
// and anonymous credentials are never valid for an authenticated call.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.host) == "" {
		return authFailure("target host not defined")
	}

	switch c.authType {
	case AuthBasic:
		if strings.TrimSpace(c.login) == "" || strings.TrimSpace(c.secret) == "" {
			return authFailure("empty login or password")
		}
	case AuthToken:
		if strings.TrimSpace(c.secret) == "" {
			return authFailure("empty token")
		}
	default:
		return authFailure("anonymous connection not allowed")
	}
	return nil
}

// String never includes the secret.
func (c Credentials) String() string {
	switch c.authType {
	case AuthBasic:
		return fmt.Sprintf("basic(%s@%s)", c.login, c.host)
	case AuthToken:
		return fmt.Sprintf("token(%s)", c.host)
	default:
		return fmt.Sprintf("anonymous(%s)", c.host)
	}
}

func requireIdentity(c Credentials) error {
	if c.IsAnonymous() {
		return authFailure("authentication required: anonymous credentials not allowed")
	}
	return nil
}
