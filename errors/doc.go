// Package errors provides structured error types for the extres library.
//
// Errors are categorized by Phase (which subsystem failed) and Kind (error category).
// The Error type carries the resource name, Go type name, offending value and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTable, errors.KindNotFound).
//		Name("shaders/blur").
//		Type("*modules.Program").
//		Detail("no source for %q", "shaders/blur").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CapacityExceeded(errors.PhaseArray, 6)
//	err := errors.OutOfBounds(errors.PhaseArray, 6, 6)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
