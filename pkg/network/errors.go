package network

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRemoteRejected = errors.New("remote rejected request")
	ErrTransport      = errors.New("transport error")
)

// RemoteRejectedError is returned for any non-2xx relay response
type RemoteRejectedError struct {
	StatusCode int
	Reason     string
}

func newRemoteRejected(statusCode int) *RemoteRejectedError {
	reason := http.StatusText(statusCode)
	if reason == "" {
		reason = "UNKNOWN STATUS"
	}
	return &RemoteRejectedError{StatusCode: statusCode, Reason: reason}
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Reason, e.StatusCode)
}

// Is makes errors.Is(err, ErrRemoteRejected) hold
func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// TransportError wraps failures below HTTP status handling: dialing,
// proxying, timeouts and broken bodies
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
