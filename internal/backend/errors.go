package backend

import (
	"errors"
	"fmt"

	"github.com/StrateZone/Web-sub000/internal/cart"
)

// ErrTimeout means the backend did not answer within the client timeout.
var ErrTimeout = errors.New("backend: request timed out")

var ErrUnrecognizedMessage = errors.New("backend: unrecognized conflict message")

// RejectionError is a refusal the cart can recover from by dropping items.
type RejectionError struct {
	Rejection cart.Rejection
	Message   string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected booking (%s): %s", e.Rejection.Kind, e.Message)
	}
	return fmt.Sprintf("backend rejected booking (%s)", e.Rejection.Kind)
}

type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "backend transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// UnknownError covers any response that is neither success nor a known rejection.
type UnknownError struct {
	Status int
	Body   string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("backend error: status=%d body=%q", e.Status, e.Body)
}
