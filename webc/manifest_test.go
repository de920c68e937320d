package webc

import (
	"errors"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		in      Bindings
		kind    string
		exports string
		module  string
		imports []string
	}{
		{
			name:    "wit",
			in:      &WitBindings{ExportsRef: "metadata://calc.wit", ModuleRef: "atoms://calc"},
			kind:    "wit@0.1.0",
			exports: "metadata://calc.wit",
			module:  "atoms://calc",
		},
		{
			name: "wai with imports",
			in: &WaiBindings{
				ExportsRef: "metadata://exports.wai",
				ModuleRef:  "atoms://lib",
				Imports:    []string{"metadata://b.wai", "metadata://a.wai"},
			},
			kind:    "wai@0.2.0",
			exports: "metadata://exports.wai",
			module:  "atoms://lib",
			imports: []string{"metadata://b.wai", "metadata://a.wai"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ver, _ := strings.Cut(tt.kind, "@")
			b, err := NewBinding("library-bindings", ver, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, b.Kind)

			data, err := cbor.Marshal(b)
			require.NoError(t, err)
			var back Binding
			require.NoError(t, cbor.Unmarshal(data, &back))

			decoded, err := back.Bindings()
			require.NoError(t, err)
			exports, ok := decoded.Exports()
			assert.True(t, ok)
			assert.Equal(t, tt.exports, exports)
			assert.Equal(t, tt.module, decoded.Module())

			if wai, ok := decoded.(*WaiBindings); ok {
				assert.Equal(t, tt.imports, wai.Imports)
			}
		})
	}
}

func TestBindingInvalid(t *testing.T) {
	witAnn, err := cbor.Marshal(map[string]any{"wit": map[string]string{"module": "atoms://x"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		b    Binding
	}{
		{"unknown kind", Binding{Kind: "pirita@1.0", Annotations: witAnn}},
		{"mismatched annotation", Binding{Kind: "wai@0.2.0", Annotations: witAnn}},
		{"garbage annotation", Binding{Kind: "wit@0.1.0", Annotations: cbor.RawMessage{0xff}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Bindings()
			assert.True(t, errors.Is(err, ErrInvalidBindings), "got %v", err)
		})
	}
}

func TestWaiBindingsWithoutExports(t *testing.T) {
	b, err := NewBinding("lib", "0.2.0", &WaiBindings{ModuleRef: "atoms://lib"})
	require.NoError(t, err)

	decoded, err := b.Bindings()
	require.NoError(t, err)
	_, ok := decoded.Exports()
	assert.False(t, ok)
}

func TestManifestPackageInfo(t *testing.T) {
	var m Manifest
	_, ok, err := m.PackageInfo()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetPackageInfo(PackageInfo{Name: "wasmer/python", Version: "3.12.0", Description: "interpreter"}))

	info, ok, err := m.PackageInfo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "wasmer/python", info.Name)
	assert.Equal(t, "3.12.0", info.Version)
	assert.Equal(t, "interpreter", info.Description)
}
