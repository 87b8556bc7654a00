package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ghclient/internal/logging"
)

// Client runs typed API operations on top of an Invoker. It holds no credentials:
// every call receives the snapshot it should use.
type Client struct {
	invoker Invoker
	logger  *logging.AppLogger
}

// NewClient creates a Client. A nil logger uses the default application logger.
func NewClient(invoker Invoker, logger *logging.AppLogger) *Client {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Client{invoker: invoker, logger: logger}
}

// response is a classified, fully read API response.
type response struct {
	body   json.RawMessage
	header http.Header
	next   string
}

// do sends req and classifies the answer. Non-OK statuses come back as *APIError.
func (c *Client) do(ctx context.Context, creds Credentials, req Request) (*response, error) {
	var out *response
	err := c.invoker.Invoke(ctx, creds, req, func(raw *RawResponse) error {
		if err := checkStatus(raw, ResolveAPIOrigin(creds.Host())); err != nil {
			return err
		}

		var body json.RawMessage
		if raw.StatusCode != http.StatusNoContent && req.Method != MethodHead {
			decoded, err := decodeBody(raw.Body)
			if err != nil {
				return err
			}
			body = decoded
		}

		next, foreign := nextPagePath(raw.Header.Get("Link"), creds.Host())
		if foreign != "" {
			c.logger.Warn("Next page link points to another host, following path only",
				"link_host", foreign, "api_origin", ResolveAPIOrigin(creds.Host()))
		}

		out = &response{body: body, header: raw.Header, next: next}
		return nil
	})
	if err != nil {
		c.logger.Debug("Request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, err
	}
	return out, nil
}

func getJSON[T any](ctx context.Context, c *Client, creds Credentials, path string, headers ...Header) (T, error) {
	resp, err := c.do(ctx, creds, Request{Method: MethodGet, Path: path, Headers: headers})
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeJSON[T](resp.body)
}

func postJSON[T any](ctx context.Context, c *Client, creds Credentials, path string, payload any, headers ...Header) (T, error) {
	var zero T
	body, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("failed to encode request body: %w", err)
	}
	resp, err := c.do(ctx, creds, Request{Method: MethodPost, Path: path, Body: body, Headers: headers})
	if err != nil {
		return zero, err
	}
	return decodeJSON[T](resp.body)
}

func (c *Client) delete(ctx context.Context, creds Credentials, path string) error {
	_, err := c.do(ctx, creds, Request{Method: MethodDelete, Path: path})
	return err
}

func (c *Client) head(ctx context.Context, creds Credentials, path string) (http.Header, error) {
	resp, err := c.do(ctx, creds, Request{Method: MethodHead, Path: path})
	if err != nil {
		return nil, err
	}
	return resp.header, nil
}
