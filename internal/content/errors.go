package content

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a pipeline failure for the HTTP layer.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindDownload   ErrorKind = "download"
	KindExtraction ErrorKind = "extraction"
	KindProvider   ErrorKind = "provider"
	KindServer     ErrorKind = "server"
)

// MsgProviderFailed is the only provider detail shown to clients.
const MsgProviderFailed = "AI processing failed. Please try again."

// Error is a user-facing pipeline failure. Message is safe to return to the
// client; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	// Index is the 1-based position of the offending file, 0 when not file related.
	Index int
	URL   string
	Debug map[string]any
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps err to a response status. Errors that are not *Error are
// server errors.
func HTTPStatus(err error) int {
	var ce *Error
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch ce.Kind {
	case KindValidation, KindDownload, KindExtraction:
		return http.StatusBadRequest
	case KindProvider:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationError(msg string, debug map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Debug: debug}
}

func providerError(err error) *Error {
	return &Error{Kind: KindProvider, Message: MsgProviderFailed, Err: err}
}
