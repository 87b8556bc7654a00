package github

import (
	"context"
	"net/url"
)

type gistFileRequest struct {
	Content string `json:"content"`
}

// CreateGistRequest is the body of POST /gists.
type CreateGistRequest struct {
	Description string                     `json:"description"`
	Public      bool                       `json:"public"`
	Files       map[string]gistFileRequest `json:"files"`
}

// CreateGist uploads files as a new gist. An empty file list fails with
// ErrEmptyFileSet before anything is sent.
func (c *Client) CreateGist(ctx context.Context, creds Credentials, files []FileContent, description string, private bool) (Gist, error) {
	if len(files) == 0 {
		return Gist{}, ErrEmptyFileSet
	}
	if err := requireIdentity(creds); err != nil {
		return Gist{}, err
	}

	req := CreateGistRequest{
		Description: description,
		Public:      !private,
		Files:       make(map[string]gistFileRequest, len(files)),
	}
	for _, f := range files {
		req.Files[f.Name] = gistFileRequest{Content: f.Content}
	}
	return postJSON[Gist](ctx, c, creds, "/gists", req)
}

// Gist fetches a gist by id.
func (c *Client) Gist(ctx context.Context, creds Credentials, id string) (Gist, error) {
	return getJSON[Gist](ctx, c, creds, "/gists/"+url.PathEscape(id))
}

// DeleteGist deletes a gist by id.
func (c *Client) DeleteGist(ctx context.Context, creds Credentials, id string) error {
	if err := requireIdentity(creds); err != nil {
		return err
	}
	return c.delete(ctx, creds, "/gists/"+url.PathEscape(id))
}
