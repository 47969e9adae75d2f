package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorClass classifies a failed attempt for logging and metrics.
type ErrorClass string

const (
	// ErrorClassNetwork covers transport failures: timeouts, resets,
	// DNS errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient covers 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer covers 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassDeadline covers attempts aborted by the batch deadline.
	ErrorClassDeadline ErrorClass = "deadline"

	// ErrorClassMalformed covers unreadable or truncated responses and
	// unbuildable requests.
	ErrorClassMalformed ErrorClass = "malformed"
)

// StatusError reports a non-2xx response; with strict status checking
// every such response counts as a failed attempt.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// classifyError maps an attempt error onto its ErrorClass.
func classifyError(err error) ErrorClass {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 {
			return ErrorClassServer
		}
		return ErrorClassClient
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorClassDeadline
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorClassNetwork
	}

	return ErrorClassMalformed
}
