package env

import (
	"errors"
	"fmt"
	"strings"

	"envin/internal/standard"
)

var (
	// ErrInvalidEnv is wrapped by every validation failure.
	ErrInvalidEnv = errors.New("invalid environment variables")
	// ErrInvalidAccess is wrapped by every blocked read.
	ErrInvalidAccess = errors.New("attempted to access a server-side environment variable on the client")
)

// EnvError is returned by Define when validation fails.
type EnvError struct {
	Issues standard.Issues
	// Hook is the error returned by Options.OnError, if any.
	Hook error
}

func (e *EnvError) Error() string {
	msg := "envin: " + ErrInvalidEnv.Error()
	if e.Hook != nil {
		msg += ": " + e.Hook.Error()
	}
	if len(e.Issues) > 0 {
		msg += ": " + e.Issues.Error()
	}
	return msg
}

func (e *EnvError) Unwrap() []error {
	if e.Hook != nil {
		return []error{ErrInvalidEnv, e.Hook}
	}
	return []error{ErrInvalidEnv}
}

// AccessError is returned by Env.Get for a read that crosses the client
// boundary.
type AccessError struct {
	Variable string
	Hook     error
}

func (e *AccessError) Error() string {
	msg := fmt.Sprintf("envin: %s: %s", ErrInvalidAccess.Error(), e.Variable)
	if e.Hook != nil {
		msg += ": " + e.Hook.Error()
	}
	return msg
}

func (e *AccessError) Unwrap() []error {
	if e.Hook != nil {
		return []error{ErrInvalidAccess, e.Hook}
	}
	return []error{ErrInvalidAccess}
}

// StrictError reports a strict values source that does not match the schema
// keys exactly.
type StrictError struct {
	Missing []string
	Unknown []string
}

func (e *StrictError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(e.Unknown, ", "))
	}
	return "envin: strict values do not match schema: " + strings.Join(parts, "; ")
}
