package webc

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"

	"github.com/wippyai/wasm-pack/webc/internal/binary"
)

// Builder assembles a container from a manifest, atoms and named volumes.
type Builder struct {
	manifest Manifest
	atoms    *VolumeBuilder
	volumes  map[string]*VolumeBuilder
}

// NewBuilder starts a container from m. Atoms added later are recorded in
// the builder's copy of the manifest.
func NewBuilder(m Manifest) *Builder {
	return &Builder{
		manifest: m,
		atoms:    NewVolumeBuilder(),
		volumes:  map[string]*VolumeBuilder{},
	}
}

// Manifest returns the manifest being built.
func (b *Builder) Manifest() *Manifest {
	return &b.manifest
}

// AddAtom stores a WebAssembly module and declares it in the manifest.
func (b *Builder) AddAtom(name string, wasm []byte) error {
	if _, exists := b.manifest.Atoms.Get(name); exists {
		return fmt.Errorf("duplicate atom %q", name)
	}
	if err := b.atoms.AddFlatFile(name, wasm); err != nil {
		return fmt.Errorf("atom %q: %w", name, err)
	}
	b.manifest.Atoms.Set(name, Atom{
		Kind:      WasmAtomKind,
		Signature: digest.FromBytes(wasm).String(),
	})
	return nil
}

// Volume returns the named volume, creating it on first use.
func (b *Builder) Volume(name string) *VolumeBuilder {
	v, ok := b.volumes[name]
	if !ok {
		v = NewVolumeBuilder()
		b.volumes[name] = v
	}
	return v
}

// Bytes encodes the container.
func (b *Builder) Bytes() ([]byte, error) {
	return Write(b.manifest, b.atoms, b.volumes)
}

// Write encodes a container. Volumes are written in name order and a
// sha256 checksum is recorded over the body.
func Write(m Manifest, atoms *VolumeBuilder, volumes map[string]*VolumeBuilder) ([]byte, error) {
	manifestBytes, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return writeContainer(manifestBytes, atoms, volumes), nil
}

func writeContainer(manifestBytes []byte, atoms *VolumeBuilder, volumes map[string]*VolumeBuilder) []byte {
	if atoms == nil {
		atoms = NewVolumeBuilder()
	}

	names := make([]string, 0, len(volumes))
	for name := range volumes {
		names = append(names, name)
	}
	sort.Strings(names)

	vw := binary.NewWriter()
	for _, name := range names {
		vw.WriteName(name)
		vw.WriteSection(volumes[name].Bytes())
	}

	body := binary.NewWriter()
	body.WriteSection(manifestBytes)
	body.WriteSection(atoms.Bytes())
	body.WriteSection(vw.Bytes())

	out := binary.NewWriter()
	out.WriteBytes([]byte(magic))
	out.WriteBytes([]byte(version1))
	out.WriteBytes([]byte(checksumSHA256))
	out.WriteName(digest.FromBytes(body.Bytes()).String())
	out.WriteBytes([]byte(signatureNone))
	out.WriteSection(nil)
	out.WriteBytes(body.Bytes())
	return out.Bytes()
}
