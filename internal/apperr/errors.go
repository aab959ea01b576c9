// Package apperr defines the error kinds the agent reports to callers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDirectoryUnavailable is returned when no usable printer cache exists yet.
var ErrDirectoryUnavailable = errors.New("printer list unavailable")

// ValidationError reports an incomplete or malformed request. It is caused by
// the caller and is never retried.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("incomplete print data: missing %s", strings.Join(e.Missing, ", "))
	}
	return "invalid print data: " + e.Reason
}

// RenderError reports order data the layout engine could not turn into a
// document.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render receipt: %s: %v", e.Reason, e.Err)
	}
	return "render receipt: " + e.Reason
}

func (e *RenderError) Unwrap() error { return e.Err }

// PrintError reports a failed submission to the printing subsystem. Its
// message is the cause's message, unchanged.
type PrintError struct {
	Printer string
	Err     error
}

func (e *PrintError) Error() string {
	if e.Err == nil {
		return "print failed"
	}
	return e.Err.Error()
}

func (e *PrintError) Unwrap() error { return e.Err }

// Renderf builds a RenderError from a format string.
func Renderf(format string, args ...any) *RenderError {
	return &RenderError{Reason: fmt.Sprintf(format, args...)}
}
