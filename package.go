package wasmpack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wippyai/wasm-pack/abi"
	"github.com/wippyai/wasm-pack/wai"
)

// ErrInvalidPackageName is returned by ParsePackageName.
var ErrInvalidPackageName = errors.New("invalid package name")

// Package is a loaded WebAssembly package.
type Package struct {
	Metadata  Metadata
	Libraries []Library
	Commands  []Command
}

// Metadata identifies a package.
type Metadata struct {
	Name        PackageName
	Version     string
	Description string
}

// String returns "name@version".
func (m Metadata) String() string {
	return m.Name.String() + "@" + m.Version
}

// PackageName is an optionally namespaced package name ("wasmer/python").
type PackageName struct {
	Namespace string
	Name      string
}

// ParsePackageName validates and splits a package name. Each segment must
// start with a letter, digit or underscore and may then contain dots and
// dashes as well. At most one "/" separates namespace and name.
func ParsePackageName(s string) (PackageName, error) {
	ns, name, namespaced := strings.Cut(s, "/")
	if !namespaced {
		name, ns = ns, ""
	}

	if namespaced && !validSegment(ns) {
		return PackageName{}, fmt.Errorf("%w %q: bad namespace", ErrInvalidPackageName, s)
	}
	if !validSegment(name) {
		return PackageName{}, fmt.Errorf("%w %q", ErrInvalidPackageName, s)
	}
	return PackageName{Namespace: ns, Name: name}, nil
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		case (c == '-' || c == '.') && i > 0:
		default:
			return false
		}
	}
	return true
}

// String returns the name in "namespace/name" form.
func (n PackageName) String() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "/" + n.Name
}

// MarshalText implements encoding.TextMarshaler.
func (n PackageName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PackageName) UnmarshalText(text []byte) error {
	parsed, err := ParsePackageName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Command is a runnable entry point backed by a WebAssembly module.
type Command struct {
	Name string
	Wasm []byte
}

// Library is a module together with its language-binding interfaces.
type Library struct {
	Module  Module
	Exports *wai.Interface
	Imports []*wai.Interface
}

// Module is a WebAssembly module referenced by a library binding.
type Module struct {
	Name string
	Abi  abi.Kind
	Wasm []byte
}
