package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusy is returned when a submission arrives while the previous one is
// still in flight.
var ErrBusy = errors.New("operation already in progress")

// ConfigurationError reports missing or rejected credentials. It is raised
// before any network call is made.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("configuration error: %s is not set", e.Key)
}

// CaptureError reports that a media device could not be used.
type CaptureError struct {
	Device string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s capture failed: %v", e.Device, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// TransportError wraps a failure returned by the AI service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports model output that did not match the expected schema.
type ParseError struct {
	Schema string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response does not match %s: %v", e.Schema, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsCredentialError reports whether err means the API key is missing or was
// rejected by the service.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "API key") ||
		strings.Contains(msg, "API_KEY") ||
		strings.Contains(msg, "金鑰")
}
