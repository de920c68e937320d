package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered writing utilities for container encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU64LE writes a little-endian uint64 (fixed 8 bytes).
func (w *Writer) WriteU64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteSection writes a u64 length prefix followed by data.
func (w *Writer) WriteSection(data []byte) {
	w.WriteU64LE(uint64(len(data)))
	w.buf.Write(data)
}

// WriteName writes a length-prefixed string.
func (w *Writer) WriteName(s string) {
	w.WriteU64LE(uint64(len(s)))
	w.buf.WriteString(s)
}

// PatchU64LE overwrites 8 bytes at off with v.
func (w *Writer) PatchU64LE(off int, v uint64) {
	binary.LittleEndian.PutUint64(w.buf.Bytes()[off:off+8], v)
}
