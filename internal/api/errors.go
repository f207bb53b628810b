package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for transport-level failures. Callers branch on these to
// word user-facing notices.
var (
	// ErrUnreachable indicates the persistence API could not be reached at all.
	ErrUnreachable = errors.New("persistence API unreachable")

	// ErrTimeout indicates the request was sent but no response arrived in time.
	ErrTimeout = errors.New("persistence API request timed out")
)

// ValidationError is a server-reported rejection naming the offending fields.
type ValidationError struct {
	Message       string
	Details       string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s (missing: %s)", e.Message, strings.Join(e.MissingFields, ", "))
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// ServerError is any other non-2xx response from the persistence API.
type ServerError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

// classifyTransport maps a failed round trip onto the taxonomy: timeouts are
// distinguished from plain unreachability, everything else stays wrapped.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
