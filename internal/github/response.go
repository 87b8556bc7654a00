package github

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// TimestampLayout is the only timestamp format the API client accepts.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Outcome is the classification of an HTTP status code.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAuthFailure
	OutcomeStatusFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAuthFailure:
		return "auth failure"
	default:
		return "status failure"
	}
}

// Classify maps a status code to an Outcome.
func Classify(statusCode int) Outcome {
	switch statusCode {
	case 200, 201, 202, 204:
		return OutcomeOK
	case 400, 401, 402, 403:
		return OutcomeAuthFailure
	default:
		return OutcomeStatusFailure
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// checkStatus turns a non-OK response into an *APIError. The body is read to
// extract the server's message; if that fails the status text is used alone.
func checkStatus(resp *RawResponse, host string) error {
	outcome := Classify(resp.StatusCode)
	if outcome == OutcomeOK {
		return nil
	}

	message := errorMessage(resp)
	if outcome == OutcomeAuthFailure {
		return &APIError{
			Kind:       KindAuthentication,
			StatusCode: resp.StatusCode,
			Message:    "Request response: " + message,
			Host:       host,
		}
	}
	return &APIError{
		Kind:       KindStatus,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%d: %s", resp.StatusCode, message),
		Host:       host,
	}
}

func errorMessage(resp *RawResponse) string {
	status := resp.StatusText()
	if resp.Body == nil {
		return status
	}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return status
	}
	return status + " - " + body.Message
}

// decodeBody reads a success body. It returns nil for an absent body or a JSON
// null, and a malformed-response error when the bytes are not valid JSON.
func decodeBody(r io.Reader) (json.RawMessage, error) {
	if r == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Message: "failed to read response body", Err: err}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, malformed("response is not valid JSON", errors.New(truncate(string(data), 64)))
	}
	return json.RawMessage(data), nil
}

// decodeJSON maps a decoded body onto T.
func decodeJSON[T any](raw json.RawMessage) (T, error) {
	var v T
	if raw == nil {
		return v, emptyResponse("empty response")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, malformed(fmt.Sprintf("cannot decode response into %T", v), err)
	}
	return v, nil
}

// decodeArray is decodeJSON for endpoints that must answer with a JSON array.
func decodeArray[T any](raw json.RawMessage) ([]T, error) {
	if raw == nil {
		return nil, emptyResponse("empty response")
	}
	if raw[0] != '[' {
		return nil, malformed("wrong json result format", fmt.Errorf("expected JSON array, got %s", truncate(string(raw), 32)))
	}
	return decodeJSON[[]T](raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Timestamp is a UTC time in TimestampLayout on the wire.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	// time.Parse accepts fractional seconds the layout does not name.
	if parsed.Format(TimestampLayout) != s {
		return fmt.Errorf("invalid timestamp %q: expected layout %s", s, TimestampLayout)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(TimestampLayout))
}

// String formats the time for display.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// parseScopes splits an X-OAuth-Scopes header value.
func parseScopes(header string) []string {
	var scopes []string
	for _, s := range strings.Split(header, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
