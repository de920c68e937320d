// Package errors provides structured error types for the wasm-pack library.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind (error
// category). The Error type carries the offending subject (a path, command,
// volume or package name), a human-readable detail and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMissingVolume).
//		Subject("metadata").
//		Detail("the container has no such volume").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.IO("/tmp/pkg.webc", cause)
//	err := errors.Internal(errors.PhaseMetadata, "foo-1.2.3", "fully-qualified name has no '@'")
//
// Every Kind is itself an error value, so callers can match a category
// regardless of phase:
//
//	if errors.Is(err, errors.KindMissingFileInVolume) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
