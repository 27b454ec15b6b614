package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by an import run wraps exactly one of these.
var (
	// ErrInputNotFound means an input file is missing.
	ErrInputNotFound = errors.New("input not found")

	// ErrParse means an input file is not well-formed JSON.
	ErrParse = errors.New("parse error")

	// ErrMapping means a source record lacks a required field.
	ErrMapping = errors.New("mapping error")

	// ErrMissingCredentials means the GitHub credentials are not configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrRemoteNotFound is a 404 from the remote, usually a permissions problem.
	ErrRemoteNotFound = errors.New("remote not found")

	// ErrRemoteForbidden is a 403 from the remote, usually the daily invite cap.
	ErrRemoteForbidden = errors.New("remote forbidden")
)

// MappingError reports a source record that could not be turned into a payload.
// Index is -1 when the problem is with the section rather than a record.
type MappingError struct {
	Section string
	Index   int
	Field   string
	Reason  string
}

func (e *MappingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Section, e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s[%d]: %s", e.Section, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s[%d].%s: %s", e.Section, e.Index, e.Field, e.Reason)
}

func (e *MappingError) Unwrap() error {
	return ErrMapping
}

// RemoteError is a failed call to the remote repository client.
// Kind is ErrRemoteNotFound, ErrRemoteForbidden, or nil for any other failure.
type RemoteError struct {
	Op     string // e.g. "import issue"
	Target string // e.g. repository full name or member login
	Kind   error
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRemoteNotFound)
}

// IsForbidden reports whether err is a remote 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrRemoteForbidden)
}

// ErrorCode returns the short machine-readable code used in JSON error output.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrMapping):
		return "mapping_error"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrRemoteNotFound):
		return "not_found"
	case errors.Is(err, ErrRemoteForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
