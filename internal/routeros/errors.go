package routeros

import (
	"errors"
	"fmt"
)

// ConnectionError reports a network-level failure reaching the device
// (DNS, connection refused, timeout).
type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to router at %s:%d, check host and credentials: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HTTPError reports a request the device rejected with an HTTP status >= 400.
// RemoteMessage carries the error text extracted from the response body when
// the device provided one.
type HTTPError struct {
	Status        int
	RemoteMessage string
}

func (e *HTTPError) Error() string {
	if e.RemoteMessage != "" {
		return fmt.Sprintf("router rejected request (HTTP %d): %s", e.Status, e.RemoteMessage)
	}
	return fmt.Sprintf("router rejected request (HTTP %d)", e.Status)
}

// ProtocolError reports a malformed response, which usually means the remote
// API is incompatible with this client.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid response from router on %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NotFoundError reports a resource id that could not be resolved on the
// device, including via the list-scan fallback.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
