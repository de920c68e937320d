// Package webc reads and writes WEBC v1 package containers.
//
// A container bundles a CBOR manifest, an atoms volume holding raw
// WebAssembly modules, and any number of named volumes holding auxiliary
// files such as interface definitions.
//
// # Layout
//
// All integers are unsigned 64-bit little-endian.
//
//	magic            "\x00webc"
//	version          "001"
//	checksum type    16 bytes, "sha256----------" or "----------------"
//	checksum         u64 length + digest string ("sha256:<hex>")
//	signature type   16 bytes
//	signature        u64 length + bytes (ignored)
//	manifest         u64 length + CBOR
//	atoms            u64 length + volume
//	volumes          u64 length + repeated (u64 name length, name, u64 volume length, volume)
//
// The checksum covers every byte after the signature section.
//
// # Volumes
//
// A volume is a header of directory listings followed by a data section.
// Each listing entry names a single path segment; directories point at
// the offset of their child listing, files at a byte range in the data
// section. Volume.GetFile walks segments, while Volume.Entries exposes a
// flattened view keyed by DirOrFile.
//
// Some historical packers wrote a single root-level file entry whose name
// contains separators (a file literally called "a/b/c.wit"). GetFile does
// not find such entries, but they are visible in Entries under the same
// key a nested file would have.
//
// # Parsing
//
//	c, err := webc.Parse(data, webc.DefaultParseOptions())
//	if err != nil {
//	    return err
//	}
//	pkg := c.PackageName() // "namespace/name@1.2.3"
//	wasm, err := c.Atom(pkg, "python")
//
// Slices returned by a Container alias the parsed buffer.
package webc
