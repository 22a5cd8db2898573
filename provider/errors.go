package provider

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a 2xx body can't be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s status %d", e.Endpoint, e.StatusCode)
}

// Message is the detail sent by the service, or a status fallback.
func (e *StatusError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}
