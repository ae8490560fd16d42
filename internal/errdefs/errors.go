// Package errdefs defines the error taxonomy shared by the service layers.
// The REST layer maps these types to HTTP status codes; everything else
// wraps them with fmt.Errorf("%w").
package errdefs

import (
	"fmt"
	"time"
)

// ValidationError means the caller's input violates an invariant (bad
// namespace prefix, missing required field). Raised before any subprocess
// or network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means the requested resource does not exist.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// UnauthorizedError means the request carries no valid credential.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// AccessError means the credential is valid but lacks permission (missing
// scope, wrong client).
type AccessError struct {
	Message string
}

func (e *AccessError) Error() string { return e.Message }

// ExecutionError means an external tool (helm, kubectl) exited non-zero or
// produced unparseable output. Stderr is kept for server-side logs; the
// HTTP body only carries Message.
type ExecutionError struct {
	Message string
	Command string
	Stderr  string
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Stderr)
	}
	return e.Message
}

// TimeoutError means a subprocess exceeded its configured deadline. Kept
// distinct from ExecutionError so operators can tell "cluster unreachable"
// from "cluster rejected the call".
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// BinaryNotFoundError means the executable is missing from PATH.
type BinaryNotFoundError struct {
	Binary string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("binary %q not found in PATH", e.Binary)
}

// CloudflareError means the Cloudflare API returned HTTP >= 400 or a body
// with success:false.
type CloudflareError struct {
	Message    string
	StatusCode int
}

func (e *CloudflareError) Error() string {
	return fmt.Sprintf("cloudflare api error (status %d): %s", e.StatusCode, e.Message)
}
