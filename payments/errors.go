package payments

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no transaction exists for the queried checkout ID.
	ErrNotFound = errors.New("transaction not found")

	// ErrMalformedCallback means the payload is missing the stkCallback
	// body. Distinct from a well-formed "payment failed" notification.
	ErrMalformedCallback = errors.New("malformed callback payload")
)

// ValidationError rejects bad caller input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RejectedError is a business-level refusal from the payment network: the
// push request reached Daraja but was not accepted.
type RejectedError struct {
	Description string
}

func (e *RejectedError) Error() string {
	return "payment initiation rejected: " + e.Description
}
