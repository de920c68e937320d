package webc

import (
	"bytes"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"

	"github.com/wippyai/wasm-pack/webc/internal/binary"
)

// Extension is the file extension of packed containers.
const Extension = ".webc"

const (
	magic          = "\x00webc"
	version1       = "001"
	typeWidth      = 16
	checksumSHA256 = "sha256----------"
	checksumNone   = "----------------"
	signatureNone  = "----------------"
)

// Container errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrUnknownPackage     = errors.New("unknown package")
)

// ParseError reports the section and byte offset where decoding failed.
type ParseError = binary.ParseError

var manifestDecMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// ParseOptions controls container parsing.
type ParseOptions struct {
	// VerifyChecksum rejects containers whose checksum does not match.
	VerifyChecksum bool
}

// DefaultParseOptions returns the options used when none are given.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{VerifyChecksum: true}
}

// Container is a parsed WEBC container. It borrows the buffer it was parsed from.
type Container struct {
	manifest    Manifest
	atoms       *Volume
	volumes     map[string]*Volume
	volumeNames []string
	packageName string
	checksum    digest.Digest
}

// Parse decodes a container held entirely in memory.
func Parse(data []byte, opts ParseOptions) (*Container, error) {
	r := binary.NewReader(data)

	head, err := r.ReadBytes(len(magic))
	if err != nil {
		return nil, r.WrapError("magic", err)
	}
	if string(head) != magic {
		return nil, r.WrapError("magic", fmt.Errorf("%w: %q", ErrInvalidMagic, head))
	}

	ver, err := r.ReadBytes(len(version1))
	if err != nil {
		return nil, r.WrapError("version", err)
	}
	if string(ver) != version1 {
		return nil, r.WrapError("version", fmt.Errorf("%w: %q", ErrUnsupportedVersion, ver))
	}

	checksumType, err := r.ReadBytes(typeWidth)
	if err != nil {
		return nil, r.WrapError("checksum", err)
	}
	checksum, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("checksum", err)
	}
	if _, err := r.ReadBytes(typeWidth); err != nil {
		return nil, r.WrapError("signature", err)
	}
	if _, err := r.ReadSection(); err != nil {
		return nil, r.WrapError("signature", err)
	}

	c := &Container{volumes: map[string]*Volume{}}
	body := data[r.Position():]

	switch string(checksumType) {
	case checksumSHA256:
		d, err := digest.Parse(string(checksum))
		if err != nil {
			return nil, r.WrapError("checksum", err)
		}
		c.checksum = d
		if opts.VerifyChecksum && d.Algorithm().FromBytes(body) != d {
			return nil, r.WrapError("checksum", fmt.Errorf("%w: want %s", ErrChecksumMismatch, d))
		}
	case checksumNone:
	default:
		return nil, r.WrapError("checksum", fmt.Errorf("unknown checksum type %q", checksumType))
	}

	manifestBytes, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("manifest", err)
	}
	if err := manifestDecMode.Unmarshal(manifestBytes, &c.manifest); err != nil {
		return nil, r.WrapError("manifest", err)
	}

	atomsBytes, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("atoms", err)
	}
	if c.atoms, err = ParseVolume(atomsBytes); err != nil {
		return nil, r.WrapError("atoms", err)
	}

	volumesBytes, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("volumes", err)
	}
	if err := c.parseVolumes(volumesBytes); err != nil {
		return nil, r.WrapError("volumes", err)
	}

	if r.Len() != 0 {
		return nil, r.WrapError("trailer", fmt.Errorf("%d trailing bytes", r.Len()))
	}

	info, ok, err := c.manifest.PackageInfo()
	if err != nil {
		return nil, r.WrapError("manifest", err)
	}
	if ok {
		c.packageName = info.Name + "@" + info.Version
	}
	return c, nil
}

func (c *Container) parseVolumes(data []byte) error {
	r := binary.NewReader(data)
	for r.Len() > 0 {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		raw, err := r.ReadSection()
		if err != nil {
			return fmt.Errorf("volume %q: %w", name, err)
		}
		if _, dup := c.volumes[name]; dup {
			return fmt.Errorf("duplicate volume %q", name)
		}
		v, err := ParseVolume(raw)
		if err != nil {
			return fmt.Errorf("volume %q: %w", name, err)
		}
		c.volumes[name] = v
		c.volumeNames = append(c.volumeNames, name)
	}
	return nil
}

// Manifest returns the decoded manifest.
func (c *Container) Manifest() *Manifest {
	return &c.manifest
}

// Checksum returns the recorded checksum, empty when the container has none.
func (c *Container) Checksum() digest.Digest {
	return c.checksum
}

// PackageName returns "name@version" from the package annotation, or "" when absent.
func (c *Container) PackageName() string {
	return c.packageName
}

// ListCommands returns command names in manifest order.
func (c *Container) ListCommands() []string {
	return c.manifest.Commands.Keys()
}

// AtomNameForCommand returns the atom named by a command's runner annotation.
func (c *Container) AtomNameForCommand(runner, command string) (string, bool) {
	cmd, ok := c.manifest.Commands.Get(command)
	if !ok {
		return "", false
	}
	raw, ok := cmd.Annotations.Get(runner)
	if !ok {
		return "", false
	}
	var ann struct {
		Atom string `cbor:"atom"`
	}
	if err := cbor.Unmarshal(raw, &ann); err != nil || ann.Atom == "" {
		return "", false
	}
	return ann.Atom, true
}

// AtomNames returns the names of all atoms, sorted.
func (c *Container) AtomNames() []string {
	entries, _ := c.atoms.ReadDir("")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Dir {
			out = append(out, e.Path)
		}
	}
	return out
}

// Atom returns an atom's bytes for the given package. The slice aliases
// the parsed buffer.
func (c *Container) Atom(pkg, name string) ([]byte, error) {
	if err := c.checkPackage(pkg); err != nil {
		return nil, err
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("atom %q: %w", name, ErrNotFound)
	}
	data, err := c.atoms.GetFile(name)
	if err != nil {
		return nil, fmt.Errorf("atom %q: %w", name, err)
	}
	return data, nil
}

// Volume returns a named volume for the given package.
func (c *Container) Volume(pkg, name string) (*Volume, error) {
	if err := c.checkPackage(pkg); err != nil {
		return nil, err
	}
	v, ok := c.volumes[name]
	if !ok {
		return nil, fmt.Errorf("volume %q: %w", name, ErrNotFound)
	}
	return v, nil
}

// VolumeNames returns volume names in container order.
func (c *Container) VolumeNames() []string {
	out := make([]string, len(c.volumeNames))
	copy(out, c.volumeNames)
	return out
}

func (c *Container) checkPackage(pkg string) error {
	if pkg != c.packageName {
		return fmt.Errorf("%w %q", ErrUnknownPackage, pkg)
	}
	return nil
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return bytes.HasPrefix(data, []byte(magic))
}
