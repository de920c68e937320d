package loader

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/abi"
	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/pack"
	"github.com/wippyai/wasm-pack/wai"
	"github.com/wippyai/wasm-pack/webc"
)

var (
	plainWasm = []byte("\x00asm\x01\x00\x00\x00")
	wasiWasm  = append([]byte("\x00asm\x01\x00\x00\x00\x00\x20"), "wasi_snapshot_preview1fd_write"...)
)

const (
	calcWai = "add: func(a: u32, b: u32) -> u32"
	hostWai = "log: func(msg: string)"
)

type fixture struct {
	manifest webc.Manifest
	atoms    map[string][]byte
	files    map[string]map[string][]byte
	flat     map[string]map[string][]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		atoms: map[string][]byte{},
		files: map[string]map[string][]byte{},
		flat:  map[string]map[string][]byte{},
	}
	require.NoError(t, f.manifest.SetPackageInfo(webc.PackageInfo{
		Name:        "wasmer/calc",
		Version:     "1.2.3",
		Description: "A calculator",
	}))
	return f
}

func (f *fixture) atom(name string, wasm []byte) *fixture {
	f.atoms[name] = wasm
	return f
}

func (f *fixture) file(volume, p, content string) *fixture {
	if f.files[volume] == nil {
		f.files[volume] = map[string][]byte{}
	}
	f.files[volume][p] = []byte(content)
	return f
}

func (f *fixture) flatFile(volume, p, content string) *fixture {
	if f.flat[volume] == nil {
		f.flat[volume] = map[string][]byte{}
	}
	f.flat[volume][p] = []byte(content)
	return f
}

func (f *fixture) command(t *testing.T, name, atom string) *fixture {
	t.Helper()
	cmd := webc.Command{Runner: webc.WASICommandRunner}
	require.NoError(t, cmd.SetAnnotation(webc.RunnerWASI, webc.WASIAnnotation{Atom: atom}))
	f.manifest.Commands.Set(name, cmd)
	return f
}

func (f *fixture) binding(t *testing.T, b webc.Bindings) *fixture {
	t.Helper()
	binding, err := webc.NewBinding(pack.BindingName, "0.2.0", b)
	require.NoError(t, err)
	f.manifest.Bindings = append(f.manifest.Bindings, binding)
	return f
}

func (f *fixture) bytes(t *testing.T) []byte {
	t.Helper()
	b := webc.NewBuilder(f.manifest)
	for name, wasm := range f.atoms {
		require.NoError(t, b.AddAtom(name, wasm))
	}
	for volume, files := range f.files {
		for p, content := range files {
			require.NoError(t, b.Volume(volume).AddFile(p, content))
		}
	}
	for volume, files := range f.flat {
		for p, content := range files {
			require.NoError(t, b.Volume(volume).AddFlatFile(p, content))
		}
	}
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func calcFixture(t *testing.T) *fixture {
	return newFixture(t).
		atom("calc", wasiWasm).
		atom("tool", plainWasm).
		command(t, "zeta", "tool").
		command(t, "alpha", "calc").
		file("metadata", "wai/calc.wai", calcWai).
		file("metadata", "wai/host.wai", hostWai).
		binding(t, &webc.WaiBindings{
			ExportsRef: "metadata://wai/calc.wai",
			ModuleRef:  "atoms://calc",
			Imports:    []string{"metadata://wai/host.wai"},
		})
}

func TestLoadBytes(t *testing.T) {
	pkg, err := New().LoadBytes(context.Background(), calcFixture(t).bytes(t))
	require.NoError(t, err)

	assert.Equal(t, wasmpack.Metadata{
		Name:        wasmpack.PackageName{Namespace: "wasmer", Name: "calc"},
		Version:     "1.2.3",
		Description: "A calculator",
	}, pkg.Metadata)

	require.Len(t, pkg.Commands, 2)
	assert.Equal(t, "zeta", pkg.Commands[0].Name)
	assert.Equal(t, plainWasm, pkg.Commands[0].Wasm)
	assert.Equal(t, "alpha", pkg.Commands[1].Name)
	assert.Equal(t, wasiWasm, pkg.Commands[1].Wasm)

	require.Len(t, pkg.Libraries, 1)
	lib := pkg.Libraries[0]
	assert.Equal(t, "calc", lib.Module.Name)
	assert.Equal(t, abi.Wasi, lib.Module.Abi)
	assert.Equal(t, wasiWasm, lib.Module.Wasm)

	assert.Equal(t, "calc", lib.Exports.Name)
	require.NotNil(t, lib.Exports.Function("add"))
	require.Len(t, lib.Imports, 1)
	assert.Equal(t, "host", lib.Imports[0].Name)
	assert.NotNil(t, lib.Imports[0].Function("log"))
}

func TestLoadBytesDeterministic(t *testing.T) {
	data := calcFixture(t).bytes(t)
	l := New()

	a, err := l.LoadBytes(context.Background(), data)
	require.NoError(t, err)
	b, err := l.LoadBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoadBytesOwnsBuffers(t *testing.T) {
	data := calcFixture(t).bytes(t)
	pkg, err := New().LoadBytes(context.Background(), data)
	require.NoError(t, err)

	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, wasiWasm, pkg.Libraries[0].Module.Wasm)
	assert.Equal(t, plainWasm, pkg.Commands[0].Wasm)
}

func TestLoadBytesZeroImports(t *testing.T) {
	data := newFixture(t).
		atom("calc", plainWasm).
		file("metadata", "calc.wit", calcWai).
		binding(t, &webc.WitBindings{ExportsRef: "metadata://calc.wit", ModuleRef: "atoms://calc"}).
		bytes(t)

	pkg, err := New().LoadBytes(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, pkg.Libraries, 1)
	assert.NotNil(t, pkg.Libraries[0].Imports)
	assert.Len(t, pkg.Libraries[0].Imports, 0)
	assert.Equal(t, abi.None, pkg.Libraries[0].Module.Abi)
	assert.Empty(t, pkg.Commands)
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		fqName string
		want   wasmpack.Metadata
		kind   errors.Kind
	}{
		{fqName: "foo@1.2.3", want: wasmpack.Metadata{Name: wasmpack.PackageName{Name: "foo"}, Version: "1.2.3"}},
		{fqName: "ns/foo@0.1.0@beta", want: wasmpack.Metadata{Name: wasmpack.PackageName{Namespace: "ns", Name: "foo"}, Version: "0.1.0@beta"}},
		{fqName: "foo-1.2.3", kind: errors.KindInternal},
		{fqName: "", kind: errors.KindInternal},
		{fqName: "foo@", kind: errors.KindInternal},
		{fqName: "bad name@1.0.0", kind: errors.KindInvalidPackageName},
		{fqName: "a/b/c@1.0.0", kind: errors.KindInvalidPackageName},
	}

	for _, tt := range tests {
		t.Run(tt.fqName, func(t *testing.T) {
			got, err := extractMetadata(tt.fqName)
			if tt.kind != "" {
				assert.ErrorIs(t, err, tt.kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadBytesWithoutPackageAnnotation(t *testing.T) {
	b := webc.NewBuilder(webc.Manifest{})
	data, err := b.Bytes()
	require.NoError(t, err)

	_, err = New().LoadBytes(context.Background(), data)
	assert.ErrorIs(t, err, errors.KindInternal)
}

func TestLoadBytesErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) []byte
		kind  errors.Kind
	}{
		{
			name:  "not a container",
			build: func(*testing.T) []byte { return []byte("garbage") },
			kind:  errors.KindParse,
		},
		{
			name: "command without wasi annotation",
			build: func(t *testing.T) []byte {
				f := newFixture(t).atom("calc", plainWasm)
				f.manifest.Commands.Set("calc", webc.Command{Runner: webc.WASICommandRunner})
				return f.bytes(t)
			},
			kind: errors.KindUnresolvedCommandAtom,
		},
		{
			name: "command atom missing",
			build: func(t *testing.T) []byte {
				return newFixture(t).command(t, "calc", "gone").bytes(t)
			},
			kind: errors.KindMissingAtom,
		},
		{
			name: "unknown binding kind",
			build: func(t *testing.T) []byte {
				f := newFixture(t).atom("calc", plainWasm)
				f.manifest.Bindings = append(f.manifest.Bindings, webc.Binding{Name: "x", Kind: "python@1.0", Annotations: []byte{0xa0}})
				return f.bytes(t)
			},
			kind: errors.KindInvalidBindingMetadata,
		},
		{
			name: "wai binding without exports",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					binding(t, &webc.WaiBindings{ModuleRef: "atoms://calc"}).
					bytes(t)
			},
			kind: errors.KindMissingExports,
		},
		{
			name: "non utf-8 interface",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					file("metadata", "calc.wai", "\xff\xfe").
					binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
					bytes(t)
			},
			kind: errors.KindNonUTF8Interface,
		},
		{
			name: "unparsable interface",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					file("metadata", "calc.wai", "add: func(").
					binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
					bytes(t)
			},
			kind: errors.KindInterfaceParse,
		},
		{
			name: "unparsable import",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					file("metadata", "calc.wai", calcWai).
					file("metadata", "host.wai", "record {").
					binding(t, &webc.WaiBindings{
						ExportsRef: "metadata://calc.wai",
						ModuleRef:  "atoms://calc",
						Imports:    []string{"metadata://host.wai"},
					}).
					bytes(t)
			},
			kind: errors.KindInterfaceParse,
		},
		{
			name: "module atom missing",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					file("metadata", "calc.wai", calcWai).
					binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
					bytes(t)
			},
			kind: errors.KindMissingModuleAtom,
		},
		{
			name: "module ref without an atom name",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					file("metadata", "calc.wai", calcWai).
					binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://"}).
					bytes(t)
			},
			kind: errors.KindUndeterminableModuleName,
		},
		{
			name: "module referenced twice",
			build: func(t *testing.T) []byte {
				return newFixture(t).
					atom("calc", plainWasm).
					file("metadata", "calc.wai", calcWai).
					binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
					binding(t, &webc.WitBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
					bytes(t)
			},
			kind: errors.KindDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().LoadBytes(context.Background(), tt.build(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var e *errors.Error
			assert.ErrorAs(t, err, &e)
		})
	}
}

func TestResolveVolumeFile(t *testing.T) {
	data := newFixture(t).
		file("metadata", "a/b/c.wit", "nested").
		flatFile("legacy", "a/b/c.wit", "flat").
		bytes(t)
	c, err := webc.Parse(data, webc.DefaultParseOptions())
	require.NoError(t, err)
	pkg := c.PackageName()

	t.Run("nested", func(t *testing.T) {
		got, err := New().resolveVolumeFile(c, pkg, "metadata://a/b/c.wit")
		require.NoError(t, err)
		assert.Equal(t, "nested", string(got))
	})

	t.Run("legacy flat entry", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		got, err := New(WithLogger(zap.New(core))).resolveVolumeFile(c, pkg, "legacy://a/b/c.wit")
		require.NoError(t, err)

		v, err := c.Volume(pkg, "legacy")
		require.NoError(t, err)
		entry, ok := v.Entry(webc.File("a/b/c.wit"))
		require.True(t, ok)
		assert.Equal(t, v.Data[entry.OffsetStart:entry.OffsetEnd], got)
		assert.Equal(t, "flat", string(got))
		assert.Equal(t, 1, logs.FilterMessage("resolved volume file through a legacy flat entry").Len())
	})

	t.Run("legacy fallback disabled", func(t *testing.T) {
		_, err := New(WithLegacyPathFallback(false)).resolveVolumeFile(c, pkg, "legacy://a/b/c.wit")
		assert.ErrorIs(t, err, errors.KindMissingFileInVolume)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New().resolveVolumeFile(c, pkg, "metadata://missing.wit")
		assert.ErrorIs(t, err, errors.KindMissingFileInVolume)
		assert.NotErrorIs(t, err, errors.KindMissingVolume)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		_, err := New().resolveVolumeFile(c, pkg, "metadata://a/b")
		assert.ErrorIs(t, err, errors.KindMissingFileInVolume)
	})

	t.Run("missing volume", func(t *testing.T) {
		_, err := New().resolveVolumeFile(c, pkg, "nope://a/b/c.wit")
		assert.ErrorIs(t, err, errors.KindMissingVolume)
		assert.NotErrorIs(t, err, errors.KindMissingFileInVolume)
	})

	t.Run("malformed reference", func(t *testing.T) {
		_, err := New().resolveVolumeFile(c, pkg, "metadata:/a/b/c.wit")
		assert.ErrorIs(t, err, errors.KindMalformedReference)
	})
}

func TestLoadBytesLegacyBindings(t *testing.T) {
	data := newFixture(t).
		atom("calc", plainWasm).
		flatFile("metadata", "wai/calc.wai", calcWai).
		binding(t, &webc.WaiBindings{ExportsRef: "metadata://wai/calc.wai", ModuleRef: "atoms://calc"}).
		bytes(t)

	pkg, err := New().LoadBytes(context.Background(), data)
	require.NoError(t, err)
	assert.NotNil(t, pkg.Libraries[0].Exports.Function("add"))

	_, err = New(WithLegacyPathFallback(false)).LoadBytes(context.Background(), data)
	assert.ErrorIs(t, err, errors.KindMissingFileInVolume)
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"calc":          "calc",
		"calc.wasm":     "calc",
		"dir/calc.wasm": "calc",
		"a.b.wasm":      "a.b",
		".hidden":       ".hidden",
		"":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, fileStem(in), in)
	}
}

func TestOptions(t *testing.T) {
	var gotName string
	parser := func(name, source string) (*wai.Interface, error) {
		gotName = name
		return &wai.Interface{Name: name}, nil
	}
	classifier := classifierFunc(func([]byte) abi.Kind { return abi.Wasi })

	data := newFixture(t).
		atom("calc", plainWasm).
		file("metadata", "calc.wai", "not parsed").
		binding(t, &webc.WaiBindings{ExportsRef: "metadata://calc.wai", ModuleRef: "atoms://calc"}).
		bytes(t)

	pkg, err := New(WithInterfaceParser(parser), WithClassifier(classifier)).LoadBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "calc", gotName)
	assert.Equal(t, abi.Wasi, pkg.Libraries[0].Module.Abi)
}

func TestChecksumVerification(t *testing.T) {
	data := calcFixture(t).file("zz", "pad", "padding").bytes(t)
	// The last byte belongs to the "zz" volume, which nothing references.
	data[len(data)-1] ^= 0xff

	_, err := New().LoadBytes(context.Background(), data)
	assert.ErrorIs(t, err, errors.KindParse)

	_, err = New(WithParseOptions(webc.ParseOptions{})).LoadBytes(context.Background(), data)
	assert.NoError(t, err)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().LoadBytes(ctx, calcFixture(t).bytes(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errors.KindIO)

	_, err = New().Load(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

type classifierFunc func([]byte) abi.Kind

func (f classifierFunc) Classify(wasm []byte) abi.Kind { return f(wasm) }

const calcDescriptor = `
[package]
name = "wasmer/calc"
version = "0.1.0"
description = "A calculator"

[[module]]
name = "calc"
source = "target/calc.wasm"
abi = "wasi"
bindings = { wai-version = "0.2.0", exports = "wai/calc.wai" }

[[command]]
name = "calc"
module = "calc"
`

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func calcTree() map[string]string {
	return map[string]string{
		pack.DescriptorFile: calcDescriptor,
		"target/calc.wasm":  string(wasiWasm),
		"wai/calc.wai":      calcWai,
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, calcTree())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "deeper"), 0o755))

	pkg, err := Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "wasmer/calc@0.1.0", pkg.Metadata.String())
	require.Len(t, pkg.Commands, 1)
	assert.Equal(t, "calc", pkg.Commands[0].Name)
	assert.Equal(t, wasiWasm, pkg.Commands[0].Wasm)
	require.Len(t, pkg.Libraries, 1)
	assert.Equal(t, abi.Wasi, pkg.Libraries[0].Module.Abi)
}

func TestReadTree(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, calcTree())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "deeper"), 0o755))

	files, err := readTree(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"target/calc.wasm", "wai/calc.wai", pack.DescriptorFile}, files.Paths())
	assert.Equal(t, []string{"empty", "empty/deeper", "target", "wai"}, files.Dirs())
}

func TestReadTreeSymlinkedDirectory(t *testing.T) {
	dir := t.TempDir()
	tree := calcTree()
	delete(tree, "wai/calc.wai")
	writeTree(t, dir, tree)

	target := t.TempDir()
	writeTree(t, target, map[string]string{"calc.wai": calcWai})
	if err := os.Symlink(target, filepath.Join(dir, "wai")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := readTree(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"target/calc.wasm", "wai/calc.wai", pack.DescriptorFile}, files.Paths())
	assert.Equal(t, []string{"target", "wai"}, files.Dirs())

	pkg, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, pkg.Libraries, 1)
	assert.Equal(t, "calc", pkg.Libraries[0].Exports.Name)
}

func TestReadTreeSymlinkCycle(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, calcTree())
	if err := os.Symlink(dir, filepath.Join(dir, "wai", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := readTree(dir)
	assert.ErrorIs(t, err, errors.KindIO)
	assert.ErrorContains(t, err, "symlink cycle")
}

func TestLoadExtensionIsCaseSensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.WEBC")
	require.NoError(t, os.WriteFile(path, calcFixture(t).bytes(t), 0o644))

	// Only ".webc" is read as a container; anything else is unpacked as an archive.
	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, errors.KindPack)
}

func TestLoadDirectoryWithoutDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"target/calc.wasm": string(plainWasm)})

	_, err := Load(context.Background(), dir)
	assert.ErrorIs(t, err, errors.KindMissingDescriptor)
}

func TestLoadDirectoryPackFailure(t *testing.T) {
	dir := t.TempDir()
	tree := calcTree()
	delete(tree, "target/calc.wasm")
	writeTree(t, dir, tree)

	_, err := Load(context.Background(), dir)
	assert.ErrorIs(t, err, errors.KindPack)
}

func TestLoadContainerFile(t *testing.T) {
	data := calcFixture(t).bytes(t)
	path := filepath.Join(t.TempDir(), "calc"+webc.Extension)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	fromFile, err := Load(context.Background(), path)
	require.NoError(t, err)
	fromBytes, err := New().LoadBytes(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, fromBytes, fromFile)
}

func TestLoadArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for p, content := range calcTree() {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     p,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "calc.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	pkg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "wasmer/calc@0.1.0", pkg.Metadata.String())
	assert.Equal(t, "A calculator", pkg.Metadata.Description)
}

func TestLoadArchiveNotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, errors.KindPack)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.webc"))
	assert.ErrorIs(t, err, errors.KindIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type recordingPacker struct {
	basePath string
	files    pack.Files
	data     []byte
}

func (p *recordingPacker) Pack(files pack.Files, basePath string) ([]byte, error) {
	p.files, p.basePath = files, basePath
	return p.data, nil
}

func (p *recordingPacker) UnpackArchive([]byte) (pack.Files, error) {
	return pack.Files{}, nil
}

func TestWithPacker(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, calcTree())

	p := &recordingPacker{data: calcFixture(t).bytes(t)}
	pkg, err := New(WithPacker(p)).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.basePath)
	assert.Contains(t, p.files.Paths(), pack.DescriptorFile)
	assert.Equal(t, "wasmer/calc@1.2.3", pkg.Metadata.String())

	archive := filepath.Join(t.TempDir(), "pkg.tar.gz")
	require.NoError(t, os.WriteFile(archive, []byte("ignored"), 0o644))
	_, err = New(WithPacker(p)).Load(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, "", p.basePath)
}
