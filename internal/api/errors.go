package api

import (
	"errors"
	"fmt"
	"strings"
)

// TransportFailure is the message carried by a RemoteError when the request
// never produced an HTTP response (connection refused, DNS, timeout).
const TransportFailure = "Failed to fetch"

// RemoteError reports a failed call against the admin API. Status is zero for
// transport failures.
type RemoteError struct {
	Message string
	Status  int
	Err     error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransport reports whether err is a network-class failure. Only these are
// worth retrying; a 4xx with a server message is final.
func IsTransport(err error) bool {
	var remote *RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.Status == 0 && strings.Contains(remote.Message, TransportFailure)
}

// StatusOf returns the HTTP status of a RemoteError, or zero.
func StatusOf(err error) int {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status
	}
	return 0
}

// MessageOf returns the user-facing message for err. Remote errors yield the
// server message verbatim.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}
