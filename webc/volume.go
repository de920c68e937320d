package webc

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/wippyai/wasm-pack/webc/internal/binary"
)

// Volume lookup errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrIsDirectory = errors.New("is a directory")
)

const (
	entryDir  byte = 0
	entryFile byte = 1
)

// DirOrFile distinguishes a directory marker from a file at a relative path.
type DirOrFile struct {
	Path string
	Dir  bool
}

// Dir returns a directory marker key.
func Dir(p string) DirOrFile { return DirOrFile{Path: p, Dir: true} }

// File returns a file key.
func File(p string) DirOrFile { return DirOrFile{Path: p} }

func (d DirOrFile) String() string {
	if d.Dir {
		return d.Path + "/"
	}
	return d.Path
}

// FileEntry is a byte range within a volume's data section.
// Directory markers carry a zero FileEntry.
type FileEntry struct {
	OffsetStart uint64
	OffsetEnd   uint64
}

// Len returns the size of the range.
func (e FileEntry) Len() uint64 {
	return e.OffsetEnd - e.OffsetStart
}

type node struct {
	children map[string]*node
	name     string
	entry    FileEntry
	dir      bool
}

// Volume is a parsed, path-addressed bundle of files.
type Volume struct {
	root    *node
	entries map[DirOrFile]FileEntry
	// Data is the raw data section that file entries point into.
	Data []byte
}

// GetFile walks path segment by segment and returns the file's bytes.
// The returned slice aliases Data.
func (v *Volume) GetFile(p string) ([]byte, error) {
	clean := normalizePath(p)
	if clean == "" {
		return nil, fmt.Errorf("%q: %w", p, ErrIsDirectory)
	}

	n := v.root
	for _, seg := range strings.Split(clean, "/") {
		if !n.dir {
			return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
		}
		child, ok := n.children[seg]
		if !ok {
			return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
		}
		n = child
	}

	if n.dir {
		return nil, fmt.Errorf("%q: %w", p, ErrIsDirectory)
	}
	return v.Data[n.entry.OffsetStart:n.entry.OffsetEnd:n.entry.OffsetEnd], nil
}

// ReadDir lists the entry names directly under path, sorted.
func (v *Volume) ReadDir(p string) ([]DirOrFile, error) {
	n := v.root
	if clean := normalizePath(p); clean != "" {
		for _, seg := range strings.Split(clean, "/") {
			child, ok := n.children[seg]
			if !ok || !child.dir {
				return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
			}
			n = child
		}
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DirOrFile, len(names))
	for i, name := range names {
		out[i] = DirOrFile{Path: name, Dir: n.children[name].dir}
	}
	return out, nil
}

// Entries returns every directory and file keyed by its slash-joined path.
func (v *Volume) Entries() map[DirOrFile]FileEntry {
	out := make(map[DirOrFile]FileEntry, len(v.entries))
	for k, e := range v.entries {
		out[k] = e
	}
	return out
}

// Entry looks up a single key in the flattened view.
func (v *Volume) Entry(key DirOrFile) (FileEntry, bool) {
	e, ok := v.entries[key]
	return e, ok
}

func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

type pendingListing struct {
	dir    *node
	prefix string
	offset int
}

// ParseVolume decodes a volume. Listings are walked with a worklist.
func ParseVolume(data []byte) (*Volume, error) {
	r := binary.NewReader(data)
	header, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("volume header", err)
	}
	body, err := r.ReadSection()
	if err != nil {
		return nil, r.WrapError("volume data", err)
	}
	if r.Len() != 0 {
		return nil, r.WrapError("volume", fmt.Errorf("%d trailing bytes", r.Len()))
	}

	v := &Volume{
		root:    &node{dir: true, children: map[string]*node{}},
		entries: map[DirOrFile]FileEntry{},
		Data:    body,
	}
	if len(header) == 0 {
		return v, nil
	}

	hr := binary.NewReader(header)
	visited := map[int]bool{}
	work := []pendingListing{{dir: v.root, offset: 0}}

	for len(work) > 0 {
		cur := work[0]
		work = work[1:]

		if visited[cur.offset] {
			return nil, hr.WrapError("volume header", fmt.Errorf("listing at %d referenced twice", cur.offset))
		}
		visited[cur.offset] = true

		if err := hr.Seek(cur.offset); err != nil {
			return nil, hr.WrapError("volume header", err)
		}
		count, err := hr.ReadU64LE()
		if err != nil {
			return nil, hr.WrapError("volume listing", err)
		}
		if count > uint64(hr.Len()) {
			return nil, hr.WrapError("volume listing", fmt.Errorf("entry count %d exceeds header", count))
		}

		for i := uint64(0); i < count; i++ {
			kind, err := hr.ReadByte()
			if err != nil {
				return nil, hr.WrapError("volume entry", err)
			}
			name, err := hr.ReadName()
			if err != nil {
				return nil, hr.WrapError("volume entry", err)
			}
			if name == "" || name == "." || name == ".." {
				return nil, hr.WrapError("volume entry", fmt.Errorf("invalid entry name %q", name))
			}
			if _, dup := cur.dir.children[name]; dup {
				return nil, hr.WrapError("volume entry", fmt.Errorf("duplicate entry %q", name))
			}

			full := name
			if cur.prefix != "" {
				full = cur.prefix + "/" + name
			}

			switch kind {
			case entryDir:
				off, err := hr.ReadU64LE()
				if err != nil {
					return nil, hr.WrapError("volume entry", err)
				}
				if off <= uint64(cur.offset) || off >= uint64(len(header)) {
					return nil, hr.WrapError("volume entry", fmt.Errorf("directory %q has invalid listing offset %d", full, off))
				}
				child := &node{name: name, dir: true, children: map[string]*node{}}
				cur.dir.children[name] = child
				addFlat(v.entries, Dir(full), FileEntry{})
				work = append(work, pendingListing{dir: child, prefix: full, offset: int(off)})

			case entryFile:
				start, err := hr.ReadU64LE()
				if err != nil {
					return nil, hr.WrapError("volume entry", err)
				}
				end, err := hr.ReadU64LE()
				if err != nil {
					return nil, hr.WrapError("volume entry", err)
				}
				if start > end || end > uint64(len(body)) {
					return nil, hr.WrapError("volume entry", fmt.Errorf("file %q has invalid range %d..%d", full, start, end))
				}
				e := FileEntry{OffsetStart: start, OffsetEnd: end}
				cur.dir.children[name] = &node{name: name, entry: e}
				addFlat(v.entries, File(full), e)

			default:
				return nil, hr.WrapError("volume entry", fmt.Errorf("unknown entry kind %d", kind))
			}
		}
	}

	return v, nil
}

// addFlat keeps the first entry seen for a key. Listings are visited
// breadth-first, so a legacy root-level entry wins over a nested one.
func addFlat(m map[DirOrFile]FileEntry, k DirOrFile, e FileEntry) {
	if _, ok := m[k]; !ok {
		m[k] = e
	}
}

// VolumeBuilder accumulates files and encodes a volume.
type VolumeBuilder struct {
	root *node
	data [][]byte
}

// NewVolumeBuilder creates an empty volume builder.
func NewVolumeBuilder() *VolumeBuilder {
	return &VolumeBuilder{root: &node{dir: true, children: map[string]*node{}}}
}

// AddDir adds a directory and any missing parents.
func (b *VolumeBuilder) AddDir(p string) error {
	clean := normalizePath(p)
	if clean == "" {
		return nil
	}
	_, err := b.mkdirAll(strings.Split(clean, "/"))
	return err
}

// AddFile adds a file, creating one nested directory entry per path segment.
func (b *VolumeBuilder) AddFile(p string, content []byte) error {
	clean := normalizePath(p)
	if clean == "" {
		return fmt.Errorf("empty file path %q", p)
	}
	segs := strings.Split(clean, "/")
	parent, err := b.mkdirAll(segs[:len(segs)-1])
	if err != nil {
		return err
	}
	return b.addChildFile(parent, segs[len(segs)-1], content)
}

// AddFlatFile adds a root-level file whose single name is the whole path,
// separators included. This is the legacy encoding some packers produced.
func (b *VolumeBuilder) AddFlatFile(p string, content []byte) error {
	clean := normalizePath(p)
	if clean == "" {
		return fmt.Errorf("empty file path %q", p)
	}
	return b.addChildFile(b.root, clean, content)
}

func (b *VolumeBuilder) addChildFile(parent *node, name string, content []byte) error {
	if existing, ok := parent.children[name]; ok {
		if existing.dir {
			return fmt.Errorf("%q: %w", name, ErrIsDirectory)
		}
		return fmt.Errorf("duplicate file %q", name)
	}
	idx := uint64(len(b.data))
	b.data = append(b.data, content)
	// entry.OffsetStart temporarily holds the content index until encoding
	parent.children[name] = &node{name: name, entry: FileEntry{OffsetStart: idx}}
	return nil
}

func (b *VolumeBuilder) mkdirAll(segs []string) (*node, error) {
	n := b.root
	for _, seg := range segs {
		child, ok := n.children[seg]
		if !ok {
			child = &node{name: seg, dir: true, children: map[string]*node{}}
			n.children[seg] = child
		} else if !child.dir {
			return nil, fmt.Errorf("%q is a file", seg)
		}
		n = child
	}
	return n, nil
}

// Bytes encodes the volume. Listings are laid out breadth-first and
// entries are sorted by name, so output is deterministic.
func (b *VolumeBuilder) Bytes() []byte {
	type listing struct {
		dir   *node
		names []string
	}

	var listings []listing
	offsets := map[*node]uint64{}
	queue := []*node{b.root}
	var off uint64
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		names := make([]string, 0, len(dir.children))
		for name := range dir.children {
			names = append(names, name)
		}
		sort.Strings(names)

		offsets[dir] = off
		off += 8
		for _, name := range names {
			child := dir.children[name]
			off += 1 + 8 + uint64(len(name))
			if child.dir {
				off += 8
				queue = append(queue, child)
			} else {
				off += 16
			}
		}
		listings = append(listings, listing{dir: dir, names: names})
	}

	header := binary.NewWriter()
	data := binary.NewWriter()
	for _, l := range listings {
		header.WriteU64LE(uint64(len(l.names)))
		for _, name := range l.names {
			child := l.dir.children[name]
			if child.dir {
				header.Byte(entryDir)
				header.WriteName(name)
				header.WriteU64LE(offsets[child])
				continue
			}
			content := b.data[child.entry.OffsetStart]
			start := uint64(data.Len())
			data.WriteBytes(content)
			header.Byte(entryFile)
			header.WriteName(name)
			header.WriteU64LE(start)
			header.WriteU64LE(start + uint64(len(content)))
		}
	}

	out := binary.NewWriter()
	out.WriteSection(header.Bytes())
	out.WriteSection(data.Bytes())
	return out.Bytes()
}
