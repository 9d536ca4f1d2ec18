package redfish

import "fmt"

// ConnectivityError means the BMC could not be reached at all:
// DNS failure, refused connection, or the fixed request timeout.
type ConnectivityError struct {
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("bmc %s unreachable: %v", e.Host, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ProtocolError means the BMC answered with a non-success status.
// StatusCode carries the upstream status so callers can distinguish
// auth failures (401/403) from everything else.
type ProtocolError struct {
	Host       string
	Resource   string
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("bmc %s returned %d for %s", e.Host, e.StatusCode, e.Resource)
}

// ParseError means the BMC answered 2xx but the body was not the
// Redfish JSON we expected.
type ParseError struct {
	Host     string
	Resource string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bmc %s sent malformed payload for %s: %v", e.Host, e.Resource, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
