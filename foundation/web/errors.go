package web

import (
	"errors"
	"net/http"
)

// Error is used to pass an error during the request through the application
// with a fixed HTTP status.
type Error struct {
	Err    error
	Status int
}

// NewRequestError wraps a provided error with an HTTP status code.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is implemented by application errors that know which HTTP
// status they map to.
type StatusError interface {
	error
	HTTPStatus() int
}

// resolve picks the status and client-facing message for err. Server side
// failures never leak their cause.
func resolve(err error) (int, string) {
	status := http.StatusInternalServerError

	var webErr *Error
	var statusErr StatusError

	switch {
	case errors.As(err, &webErr):
		status = webErr.Status
	case errors.As(err, &statusErr):
		status = statusErr.HTTPStatus()
	}

	if status >= http.StatusInternalServerError {
		return status, "Internal Server Error"
	}

	if webErr != nil {
		return status, webErr.Error()
	}
	return status, statusErr.Error()
}
