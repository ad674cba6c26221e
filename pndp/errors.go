package pndp

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is wrapped by a ParseError when the frame ends before a header does.
	ErrTruncated = errors.New("truncated")
	// ErrMalformed is wrapped by a ParseError when a header contradicts itself.
	ErrMalformed = errors.New("malformed")
	// ErrTimeout is returned by a Source when no frame arrived within the read timeout.
	// It is not a failure.
	ErrTimeout = errors.New("read timeout")
	// ErrQueueFull is returned by QueuedInstaller when the request had to be dropped.
	ErrQueueFull   = errors.New("install queue full")
	ErrQueueClosed = errors.New("install queue closed")
)

// ConfigError reports a startup configuration value that cannot be used
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError reports a frame that could not be decoded.
// Offset is where decoding stopped, Len the number of bytes captured.
type ParseError struct {
	Layer  string
	Offset int
	Len    int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s header %v at offset %d (frame length %d)", e.Layer, e.Err, e.Offset, e.Len)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CaptureError ends the capture loop
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string { return "capture " + e.Op + ": " + e.Err.Error() }

func (e *CaptureError) Unwrap() error { return e.Err }

type InstallError struct {
	Request InstallRequest
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install proxy neighbor %s dev %s: %v", e.Request.Address, e.Request.Interface, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
