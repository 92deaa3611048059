// Package errs defines the core error taxonomy shared by every package in
// this module: a fixed set of kinds, never a growing zoo of sentinel
// values, so callers can branch on Kind with a single switch.
package errs

import "fmt"

// Kind classifies a core error per spec: InvalidInstance is fatal to a run,
// the rest are recovered inside the search loops.
type Kind int

const (
	// InvalidInstance marks a structural violation discovered at
	// construction time (missing eligibility, negative processing time,
	// malformed dimensions). Always propagates to the caller.
	InvalidInstance Kind = iota
	// IneligibleAssignment marks a decode that selected a machine with
	// infinite (ineligible) processing time.
	IneligibleAssignment
	// EvaluationFailure wraps any other transient error encountered while
	// evaluating a candidate (e.g. a decode precondition violation deeper
	// in the pipeline).
	EvaluationFailure
	// Cancelled marks cooperative cancellation of a search loop.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidInstance:
		return "InvalidInstance"
	case IneligibleAssignment:
		return "IneligibleAssignment"
	case EvaluationFailure:
		return "EvaluationFailure"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this module's packages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under the given kind. If err is nil, New returns nil, so
// callers can write `return errs.New(errs.InvalidInstance, validate())`.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a new Error with a formatted message and no wrapped cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
