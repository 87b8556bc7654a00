package github

import (
	"context"
	"net/url"
)

// ScopedTokenRequest is the body of POST /authorizations.
type ScopedTokenRequest struct {
	Scopes []string `json:"scopes"`
	Note   string   `json:"note"`
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context, creds Credentials) (User, error) {
	if err := requireIdentity(creds); err != nil {
		return User{}, err
	}
	return getJSON[User](ctx, c, creds, "/user")
}

// CurrentUserDetailed returns the full record of the authenticated user.
func (c *Client) CurrentUserDetailed(ctx context.Context, creds Credentials) (UserDetailed, error) {
	if err := requireIdentity(creds); err != nil {
		return UserDetailed{}, err
	}
	return getJSON[UserDetailed](ctx, c, creds, "/user")
}

// CheckCredentials validates creds offline and then with a round trip to /user.
func (c *Client) CheckCredentials(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	_, err := c.CurrentUser(ctx, creds)
	return err
}

// TokenScopes returns the OAuth scopes granted to creds, read from the
// X-OAuth-Scopes header of HEAD /user.
func (c *Client) TokenScopes(ctx context.Context, creds Credentials) ([]string, error) {
	if err := requireIdentity(creds); err != nil {
		return nil, err
	}
	header, err := c.head(ctx, creds, "/user")
	if err != nil {
		return nil, err
	}
	values := header.Values("X-OAuth-Scopes")
	if len(values) == 0 {
		return nil, emptyResponse("scopes header not found")
	}

	var scopes []string
	for _, v := range values {
		scopes = append(scopes, parseScopes(v)...)
	}
	return scopes, nil
}

// CreateScopedToken creates an OAuth token with the given scopes. Only basic
// credentials may create authorizations.
func (c *Client) CreateScopedToken(ctx context.Context, creds Credentials, note string, scopes ...string) (string, error) {
	if err := requireIdentity(creds); err != nil {
		return "", err
	}
	if scopes == nil {
		scopes = []string{}
	}
	auth, err := postJSON[Authorization](ctx, c, creds, "/authorizations", ScopedTokenRequest{Scopes: scopes, Note: note})
	if err != nil {
		return "", err
	}
	if auth.Token == "" {
		return "", emptyResponse("authorization contains no token")
	}
	return auth.Token, nil
}

// ReadOnlyToken creates a token that can read repo. Private repositories need
// the "repo" scope; public ones need none.
func (c *Client) ReadOnlyToken(ctx context.Context, creds Credentials, repo RepoPath, note string) (string, error) {
	info, err := c.RepoDetailed(ctx, creds, repo)
	if err != nil {
		return "", err
	}
	if info.Private {
		return c.CreateScopedToken(ctx, creds, note, "repo")
	}
	return c.CreateScopedToken(ctx, creds, note)
}

// userPath builds /users/<login><suffix> with login escaped.
func userPath(login, suffix string) string {
	return "/users/" + url.PathEscape(login) + suffix
}
