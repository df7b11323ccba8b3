package orders

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a missing order.
var ErrNotFound = errors.New("order not found")

// ErrInvalidTransition marks a staff change the status table rejects.
var ErrInvalidTransition = errors.New("invalid status transition")

// StatusError carries an HTTP-mapped failure across the service boundary.
// The tracking layer only ever inspects the code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// HTTPStatus exposes the code for duck-typed checks without importing
// this package.
func (e *StatusError) HTTPStatus() int { return e.Code }
