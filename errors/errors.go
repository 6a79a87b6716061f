package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the runtime the error occurred
type Phase string

const (
	PhaseAlloc   Phase = "alloc"   // memory manager
	PhaseBytes   Phase = "bytes"   // byte container operations
	PhaseUnicode Phase = "unicode" // UTF-8 codec
	PhaseNumber  Phase = "number"  // numeric boxing and coercion
	PhaseCompare Phase = "compare" // structural equality and ordering
	PhasePrint   Phase = "print"   // toString and exception printing
	PhaseMeta    Phase = "meta"    // type-metadata table
	PhaseHost    Phase = "host"    // host imports and module init
	PhaseRuntime Phase = "runtime" // refcounting and value construction
)

// Kind categorizes the error. The first six kinds correspond one-to-one to
// the built-in exception variants.
type Kind string

const (
	KindFailure          Kind = "failure"
	KindInvalidArgument  Kind = "invalid_argument"
	KindIndexOutOfBounds Kind = "index_out_of_bounds"
	KindMalformedUnicode Kind = "malformed_unicode"
	KindAssertion        Kind = "assertion"
	KindDivisionByZero   Kind = "division_by_zero"

	KindOverflow    Kind = "overflow"
	KindNotFound    Kind = "not_found"
	KindOutOfMemory Kind = "out_of_memory"
	KindCorrupt     Kind = "corrupt"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	// ByteOffset is the offset a bounds or decode failure refers to, when
	// one exists. Negative means unset.
	ByteOffset int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteByte('/')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.ByteOffset >= 0 {
		fmt.Fprintf(&b, " at byte %d", e.ByteOffset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind, regardless of
// phase.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:      phase,
			Kind:       kind,
			ByteOffset: -1,
		},
	}
}

// Offset sets the byte offset the error refers to
func (b *Builder) Offset(off int64) *Builder {
	b.err.ByteOffset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// IndexOutOfBounds creates a bounds error for an index against a length
func IndexOutOfBounds(phase Phase, index, length int64) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindIndexOutOfBounds,
		Detail:     fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		ByteOffset: index,
		Value:      index,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, msg string, args ...any) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindInvalidArgument,
		Detail:     fmt.Sprintf(msg, args...),
		ByteOffset: -1,
	}
}

// MalformedUnicode creates a malformed UTF-8 error
func MalformedUnicode(msg string, args ...any) *Error {
	return &Error{
		Phase:      PhaseUnicode,
		Kind:       KindMalformedUnicode,
		Detail:     fmt.Sprintf(msg, args...),
		ByteOffset: -1,
	}
}

// Failure creates a user-level failure error
func Failure(msg string) *Error {
	return &Error{
		Phase:      PhaseRuntime,
		Kind:       KindFailure,
		Detail:     msg,
		ByteOffset: -1,
	}
}

// Assertion creates an assertion failure error
func Assertion() *Error {
	return &Error{
		Phase:      PhaseRuntime,
		Kind:       KindAssertion,
		Detail:     "assertion failed",
		ByteOffset: -1,
	}
}

// DivisionByZero creates a division by zero error
func DivisionByZero(phase Phase) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindDivisionByZero,
		Detail:     "division by zero",
		ByteOffset: -1,
	}
}

// NotFound creates a lookup miss error
func NotFound(phase Phase, msg string, args ...any) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindNotFound,
		Detail:     fmt.Sprintf(msg, args...),
		ByteOffset: -1,
	}
}
