// Package standard defines the adapter contract every validator must satisfy
// to be used by envin, and the dictionary form used to validate a whole set
// of environment variables at once.
//
// Any validation library can be plugged in by wrapping its schema objects in
// a type with a single method:
//
//	Validate(value any) standard.Result
//
// A missing variable is passed to Validate as nil. Adapters decide whether
// nil is acceptable (optional or defaulted fields).
package standard

import (
	"errors"
	"fmt"
)

// Version of the adapter contract implemented by this package.
const Version = 1

// ErrAsync is returned when an adapter hands back a pending result.
// Validation must complete without yielding.
var ErrAsync = errors.New("validation must be synchronous")

// Schema is the single capability envin needs from a validator.
type Schema interface {
	Validate(value any) Result
}

// Vendored is optionally implemented by adapters to name the library
// behind them.
type Vendored interface {
	Vendor() string
}

// Describer is optionally implemented by adapters that carry a human
// description of the variable.
type Describer interface {
	Description() string
}

// Result is the outcome of Validate. Exactly one of the three shapes is
// meaningful: a success Value, a non-empty Issues list, or a Pending channel
// from an adapter that could not finish synchronously.
type Result struct {
	Value   any
	Issues  Issues
	Pending <-chan Result
}

// Success returns a successful result holding v.
func Success(v any) Result { return Result{Value: v} }

// Failure returns a failed result holding the given issues.
func Failure(issues ...Issue) Result { return Result{Issues: Issues(issues)} }

// Deferred returns a pending result. The engine rejects it.
func Deferred(ch <-chan Result) Result { return Result{Pending: ch} }

// OK reports whether the result is a synchronous success.
func (r Result) OK() bool { return r.Pending == nil && len(r.Issues) == 0 }

// Failed reports whether the result carries issues.
func (r Result) Failed() bool { return len(r.Issues) > 0 }

// EnsureSynchronous returns an error wrapping ErrAsync when r is pending.
func EnsureSynchronous(r Result, message string) error {
	if r.Pending == nil {
		return nil
	}
	if message == "" {
		return ErrAsync
	}
	return fmt.Errorf("%s: %w", message, ErrAsync)
}

// VendorOf returns the vendor name of s, or "unknown".
func VendorOf(s Schema) string {
	if v, ok := s.(Vendored); ok {
		return v.Vendor()
	}
	return "unknown"
}

// DescriptionOf returns the description carried by s, if any.
func DescriptionOf(s Schema) string {
	if d, ok := s.(Describer); ok {
		return d.Description()
	}
	return ""
}

// Func adapts a plain function to Schema.
type Func func(value any) Result

// Validate calls f.
func (f Func) Validate(value any) Result { return f(value) }
