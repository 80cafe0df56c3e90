package daraja

import "fmt"

// APIError is a non-2xx response from the Daraja API, carrying the upstream
// status and body so callers can propagate them. Transport failures are
// returned as plain errors without a status.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daraja: upstream returned %d: %s", e.StatusCode, e.Body)
}
