package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pipeline stage produced the error
type Phase string

const (
	PhaseRead     Phase = "read"     // input normalization
	PhasePack     Phase = "pack"     // directory/archive to container
	PhaseParse    Phase = "parse"    // container and interface parsing
	PhaseMetadata Phase = "metadata" // package identity
	PhaseExtract  Phase = "extract"  // commands and libraries
	PhaseResolve  Phase = "resolve"  // volume references
)

// Kind categorizes the error
type Kind string

const (
	KindIO                       Kind = "io"
	KindMissingDescriptor        Kind = "missing_descriptor"
	KindPack                     Kind = "pack"
	KindParse                    Kind = "parse"
	KindInvalidPackageName       Kind = "invalid_package_name"
	KindUnresolvedCommandAtom    Kind = "unresolved_command_atom"
	KindMissingAtom              Kind = "missing_atom"
	KindInvalidBindingMetadata   Kind = "invalid_binding_metadata"
	KindMissingExports           Kind = "missing_exports"
	KindNonUTF8Interface         Kind = "non_utf8_interface"
	KindInterfaceParse           Kind = "interface_parse"
	KindMissingModuleAtom        Kind = "missing_module_atom"
	KindUndeterminableModuleName Kind = "undeterminable_module_name"
	KindMalformedReference       Kind = "malformed_reference"
	KindMissingVolume            Kind = "missing_volume"
	KindMissingFileInVolume      Kind = "missing_file_in_volume"
	KindDuplicate                Kind = "duplicate"
	KindInternal                 Kind = "internal"
)

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// Error is the structured error type used throughout the library
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Subject string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Subject != "" {
		b.WriteString(" at ")
		b.WriteString(e.Subject)
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

// Is reports whether target matches this error.
// A Kind matches on kind alone, an *Error matches on phase and kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Subject sets the offending path, name or volume
func (b *Builder) Subject(s string) *Builder {
	b.err.Subject = s
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

// IO creates an error for an unreadable path
func IO(path string, cause error) *Error {
	return &Error{
		Phase:   PhaseRead,
		Kind:    KindIO,
		Subject: path,
		Detail:  "unable to read",
		Cause:   cause,
	}
}

// MissingDescriptor creates an error for a package directory without a descriptor
func MissingDescriptor(dir, descriptor string) *Error {
	return &Error{
		Phase:   PhaseRead,
		Kind:    KindMissingDescriptor,
		Subject: dir,
		Detail:  fmt.Sprintf("the directory doesn't contain a %q file", descriptor),
	}
}

// Pack creates an error for a failed packer invocation
func Pack(path string, cause error) *Error {
	return &Error{
		Phase:   PhasePack,
		Kind:    KindPack,
		Subject: path,
		Detail:  "unable to pack the files into a container",
		Cause:   cause,
	}
}

// ParseFailed creates a container parsing error
func ParseFailed(path string, cause error) *Error {
	return &Error{
		Phase:   PhaseParse,
		Kind:    KindParse,
		Subject: path,
		Detail:  "unable to parse as a WEBC file",
		Cause:   cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, subject string, cause error, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
		Cause:   cause,
	}
}

// NotFound creates a lookup failure of the given kind
func NotFound(phase Phase, kind Kind, what, name string, cause error) *Error {
	return &Error{
		Phase:   phase,
		Kind:    kind,
		Subject: name,
		Detail:  fmt.Sprintf("%s %q not found", what, name),
		Cause:   cause,
	}
}

// Duplicate creates an error for a name declared more than once
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindDuplicate,
		Subject: name,
		Detail:  fmt.Sprintf("%s %q declared more than once", what, name),
	}
}

// Internal creates an error for a violated format invariant
func Internal(phase Phase, subject, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInternal,
		Subject: subject,
		Detail:  detail,
	}
}
