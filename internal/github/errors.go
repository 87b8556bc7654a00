package github

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API exchange.
type ErrorKind int

const (
	// KindAuthentication means the server rejected the credentials (400/401/402/403)
	// or an operation that needs identity was called anonymously.
	KindAuthentication ErrorKind = iota
	// KindStatus is any other non-2xx status.
	KindStatus
	// KindTransport covers network failures, including certificate validation.
	KindTransport
	// KindMalformedResponse means the body could not be decoded into the expected shape.
	KindMalformedResponse
	// KindEmptyResponse means a body was required but none (or JSON null) was returned.
	KindEmptyResponse
)

// String returns a short name for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication failure"
	case KindStatus:
		return "status failure"
	case KindTransport:
		return "transport failure"
	case KindMalformedResponse:
		return "malformed response"
	case KindEmptyResponse:
		return "empty response"
	default:
		return "unknown failure"
	}
}

var (
	// ErrCanceledByUser is returned when the user dismisses the credential prompt.
	// Callers should abort silently.
	ErrCanceledByUser = errors.New("authentication canceled by user")

	// ErrEmptyFileSet is returned by CreateGist when no files are given.
	ErrEmptyFileSet = errors.New("gist must contain at least one file")

	// ErrNoMorePages is returned by Pager.Next when the pager is exhausted.
	ErrNoMorePages = errors.New("pager has no more pages")
)

// APIError is the classified failure of a single HTTP exchange.
type APIError struct {
	Kind       ErrorKind
	StatusCode int    // set for KindAuthentication and KindStatus when a response was received
	Message    string // human-readable message, may embed the server's error message
	Host       string // API host the request was sent to
	Err        error  // underlying cause for transport and decode failures
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthenticationFailure reports whether err carries an authentication failure.
func IsAuthenticationFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuthentication
}

// IsCanceled reports whether the user canceled a credential prompt somewhere in err's chain.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceledByUser)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func authFailure(message string) *APIError {
	return &APIError{Kind: KindAuthentication, Message: message}
}

func malformed(message string, cause error) *APIError {
	return &APIError{Kind: KindMalformedResponse, Message: message, Err: cause}
}

func emptyResponse(message string) *APIError {
	return &APIError{Kind: KindEmptyResponse, Message: message}
}
