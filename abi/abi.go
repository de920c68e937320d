package abi

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Kind is the runtime ABI a module targets.
type Kind uint8

const (
	None Kind = iota
	Wasi
)

// String returns "none" or "wasi".
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Wasi:
		return "wasi"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case None, Wasi:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("abi: unknown kind %d", uint8(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*k = None
	case "wasi":
		*k = Wasi
	default:
		return fmt.Errorf("abi: unknown kind %q", text)
	}
	return nil
}

// Classifier decides which ABI a module targets.
type Classifier interface {
	Classify(wasm []byte) Kind
}

// Marker is the byte sequence MarkerClassifier searches for.
const Marker = "wasi_snapshot_preview"

// Module names that identify WASI imports.
const (
	ModuleWASIPreview1 = "wasi_snapshot_preview1"
	ModuleWASIUnstable = "wasi_unstable"
)

// MarkerClassifier reports Wasi when Marker occurs anywhere in the module.
type MarkerClassifier struct{}

// Classify implements Classifier.
func (MarkerClassifier) Classify(wasm []byte) Kind {
	if bytes.Contains(wasm, []byte(Marker)) {
		return Wasi
	}
	return None
}

// ImportClassifier reports Wasi when the module imports a function from a
// WASI module. Bytes that fail to compile fall back to MarkerClassifier.
type ImportClassifier struct{}

// Classify implements Classifier.
func (ImportClassifier) Classify(wasm []byte) Kind {
	kind, err := classifyImports(context.Background(), wasm)
	if err != nil {
		Logger().Debug("module did not compile, using marker heuristic",
			zap.Int("size", len(wasm)),
			zap.Error(err))
		return MarkerClassifier{}.Classify(wasm)
	}
	return kind
}

func classifyImports(ctx context.Context, wasm []byte) (Kind, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return None, err
	}
	defer compiled.Close(ctx)

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		switch module {
		case ModuleWASIPreview1, ModuleWASIUnstable:
			Logger().Debug("wasi import found",
				zap.String("module", module),
				zap.String("name", name))
			return Wasi, nil
		}
	}
	return None, nil
}

// Default returns the classifier used when none is configured.
func Default() Classifier {
	return MarkerClassifier{}
}

// ByName returns the classifier for a detection mode: "marker" or "imports".
func ByName(name string) (Classifier, error) {
	switch name {
	case "", "marker":
		return MarkerClassifier{}, nil
	case "imports":
		return ImportClassifier{}, nil
	}
	return nil, fmt.Errorf("abi: unknown detection mode %q", name)
}
