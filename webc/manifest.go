package webc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Well-known manifest keys and URLs.
const (
	// PackageAnnotation is the package annotation holding name and version.
	PackageAnnotation = "wapm"

	// RunnerWASI is the command annotation namespace for WASI commands.
	RunnerWASI = "wasi"

	// WASICommandRunner is the runner URL for WASI commands.
	WASICommandRunner = "https://webc.org/runner/wasi/command@unstable_"

	// WasmAtomKind is the kind URL for WebAssembly atoms.
	WasmAtomKind = "https://webc.org/kind/wasm"

	// BindingKindWit and BindingKindWai prefix a binding's kind ("wai@0.2.0").
	BindingKindWit = "wit"
	BindingKindWai = "wai"

	// AtomsScheme prefixes module references in bindings.
	AtomsScheme = "atoms://"
)

// ErrInvalidBindings is returned when a binding's annotations don't match its kind.
var ErrInvalidBindings = errors.New("invalid bindings")

// Manifest is the structured metadata section of a container.
type Manifest struct {
	Package    OrderedMap[cbor.RawMessage] `cbor:"package"`
	Atoms      OrderedMap[Atom]            `cbor:"atoms"`
	Commands   OrderedMap[Command]         `cbor:"commands"`
	Use        OrderedMap[string]          `cbor:"use"`
	Origin     string                      `cbor:"origin,omitempty"`
	Entrypoint string                      `cbor:"entrypoint,omitempty"`
	Bindings   []Binding                   `cbor:"bindings"`
}

// Atom declares a raw module blob.
type Atom struct {
	Kind      string `cbor:"kind"`
	Signature string `cbor:"signature"`
}

// Command declares a runnable entry point.
type Command struct {
	Annotations OrderedMap[cbor.RawMessage] `cbor:"annotations"`
	Runner      string                      `cbor:"runner"`
}

// PackageInfo is the "wapm" package annotation.
type PackageInfo struct {
	Name        string `cbor:"name"`
	Version     string `cbor:"version"`
	Description string `cbor:"description,omitempty"`
	License     string `cbor:"license,omitempty"`
	Repository  string `cbor:"repository,omitempty"`
	Homepage    string `cbor:"homepage,omitempty"`
}

// WASIAnnotation is the "wasi" command annotation.
type WASIAnnotation struct {
	Atom     string   `cbor:"atom"`
	Package  string   `cbor:"package,omitempty"`
	MainArgs []string `cbor:"main_args,omitempty"`
}

// SetAnnotation encodes v under key in the command's annotations.
func (c *Command) SetAnnotation(key string, v any) error {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q annotation: %w", key, err)
	}
	c.Annotations.Set(key, raw)
	return nil
}

// SetPackageInfo stores the package annotation.
func (m *Manifest) SetPackageInfo(info PackageInfo) error {
	raw, err := cbor.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode package annotation: %w", err)
	}
	m.Package.Set(PackageAnnotation, raw)
	return nil
}

// PackageInfo decodes the package annotation. The bool is false when absent.
func (m *Manifest) PackageInfo() (PackageInfo, bool, error) {
	var info PackageInfo
	raw, ok := m.Package.Get(PackageAnnotation)
	if !ok {
		return info, false, nil
	}
	if err := cbor.Unmarshal(raw, &info); err != nil {
		return info, true, fmt.Errorf("decode package annotation: %w", err)
	}
	return info, true, nil
}

// Binding is a manifest entry describing language-binding metadata.
type Binding struct {
	Name        string          `cbor:"name"`
	Kind        string          `cbor:"kind"`
	Annotations cbor.RawMessage `cbor:"annotations"`
}

// Bindings is the decoded form of a Binding: either *WitBindings or *WaiBindings.
type Bindings interface {
	// Exports returns the exports interface reference, if any.
	Exports() (string, bool)
	// Module returns the module reference ("atoms://<name>").
	Module() string
	isBindings()
}

// WitBindings carry an exports interface only.
type WitBindings struct {
	ExportsRef string `cbor:"exports"`
	ModuleRef  string `cbor:"module"`
}

func (b *WitBindings) Exports() (string, bool) { return b.ExportsRef, b.ExportsRef != "" }
func (b *WitBindings) Module() string          { return b.ModuleRef }
func (*WitBindings) isBindings()               {}

// WaiBindings carry an optional exports interface plus explicit imports.
type WaiBindings struct {
	ExportsRef string   `cbor:"exports,omitempty"`
	ModuleRef  string   `cbor:"module"`
	Imports    []string `cbor:"imports,omitempty"`
}

func (b *WaiBindings) Exports() (string, bool) { return b.ExportsRef, b.ExportsRef != "" }
func (b *WaiBindings) Module() string          { return b.ModuleRef }
func (*WaiBindings) isBindings()               {}

// NewBinding builds a manifest binding. The kind prefix is derived from b.
func NewBinding(name, version string, b Bindings) (Binding, error) {
	var prefix string
	switch b.(type) {
	case *WitBindings:
		prefix = BindingKindWit
	case *WaiBindings:
		prefix = BindingKindWai
	default:
		return Binding{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidBindings, b)
	}

	raw, err := cbor.Marshal(map[string]Bindings{prefix: b})
	if err != nil {
		return Binding{}, fmt.Errorf("encode bindings: %w", err)
	}
	return Binding{
		Name:        name,
		Kind:        prefix + "@" + version,
		Annotations: raw,
	}, nil
}

// Bindings decodes the binding's annotations according to its kind.
func (b *Binding) Bindings() (Bindings, error) {
	prefix, _, _ := strings.Cut(b.Kind, "@")

	switch prefix {
	case BindingKindWit:
		var ann struct {
			Wit *WitBindings `cbor:"wit"`
		}
		if err := cbor.Unmarshal(b.Annotations, &ann); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBindings, err)
		}
		if ann.Wit == nil {
			return nil, fmt.Errorf("%w: kind %q has no %q annotation", ErrInvalidBindings, b.Kind, BindingKindWit)
		}
		return ann.Wit, nil

	case BindingKindWai:
		var ann struct {
			Wai *WaiBindings `cbor:"wai"`
		}
		if err := cbor.Unmarshal(b.Annotations, &ann); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBindings, err)
		}
		if ann.Wai == nil {
			return nil, fmt.Errorf("%w: kind %q has no %q annotation", ErrInvalidBindings, b.Kind, BindingKindWai)
		}
		return ann.Wai, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidBindings, b.Kind)
	}
}
