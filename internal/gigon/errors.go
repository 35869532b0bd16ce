package gigon

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrNetwork  = errors.New("network error")
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// NetworkError reports a request that could not be sent or completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// StatusError is a non-success response from the collaborator.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ConflictError is returned when the collaborator rejects a write because a
// record for the pair already exists.
type ConflictError struct {
	*StatusError
}

func (e *ConflictError) Unwrap() error { return e.StatusError }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError is returned when the target of a mutation does not exist.
type NotFoundError struct {
	*StatusError
}

func (e *NotFoundError) Unwrap() error { return e.StatusError }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func classifyStatus(method, path string, code int, body string) error {
	base := &StatusError{Method: method, Path: path, Code: code, Body: body}
	switch code {
	case http.StatusConflict:
		return &ConflictError{StatusError: base}
	case http.StatusNotFound:
		return &NotFoundError{StatusError: base}
	default:
		return base
	}
}

// Kind names the error class for logs and UI banners.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNetwork):
		return "network"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return "status"
	}
	return "other"
}
