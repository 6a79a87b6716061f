// Package errors provides structured error types for the grain-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). Kind mirrors the exception taxonomy compiled programs
// observe: an *Error crossing the runtime boundary is converted to the
// matching exception variant before it is printed.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBytes, errors.KindIndexOutOfBounds).
//		Offset(12).
//		Detail("read of 8 bytes past length %d", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.IndexOutOfBounds(errors.PhaseBytes, idx, length)
//	err := errors.InvalidArgument(errors.PhaseBytes, "size must be non-negative")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
