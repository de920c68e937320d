package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytesAliases(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if &got[0] != &data[0] {
		t.Error("ReadBytes should not copy")
	}
	if cap(got) != 3 {
		t.Errorf("cap = %d, appending must not clobber the backing buffer", cap(got))
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU64LE(0xdeadbeef)
	w.WriteName("metadata")
	w.WriteSection([]byte{9, 8, 7})
	w.Byte(0x42)

	r := NewReader(w.Bytes())

	v, err := r.ReadU64LE()
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("ReadU64LE = %x, %v", v, err)
	}
	name, err := r.ReadName()
	if err != nil || name != "metadata" {
		t.Fatalf("ReadName = %q, %v", name, err)
	}
	sec, err := r.ReadSection()
	if err != nil || !bytes.Equal(sec, []byte{9, 8, 7}) {
		t.Fatalf("ReadSection = %v, %v", sec, err)
	}
	b, err := r.ReadByte()
	if err != nil || b != 0x42 {
		t.Fatalf("ReadByte = %x, %v", b, err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestReaderReadLengthTooLarge(t *testing.T) {
	w := NewWriter()
	w.WriteU64LE(100)
	w.WriteBytes([]byte{1, 2})

	r := NewReader(w.Bytes())
	_, err := r.ReadSection()
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestReaderReadNameInvalidUTF8(t *testing.T) {
	w := NewWriter()
	w.WriteSection([]byte{0xff, 0xfe})

	r := NewReader(w.Bytes())
	if _, err := r.ReadName(); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if err := r.Seek(2); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	b, _ := r.ReadByte()
	if b != 3 {
		t.Errorf("after Seek(2) got %d, want 3", b)
	}
	if err := r.Seek(4); err == nil {
		t.Error("expected error seeking past end")
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter()
	w.WriteU64LE(0)
	w.WriteBytes([]byte("abc"))
	w.PatchU64LE(0, 3)

	r := NewReader(w.Bytes())
	sec, err := r.ReadSection()
	if err != nil || string(sec) != "abc" {
		t.Errorf("patched section = %q, %v", sec, err)
	}
}

func TestParseError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, _ = r.ReadByte()
	err := r.WrapError("manifest", io.ErrUnexpectedEOF)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("expected *ParseError")
	}
	if pe.Position != 1 || pe.Section != "manifest" {
		t.Errorf("got %+v", pe)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ParseError should unwrap to cause")
	}
	if got := err.Error(); got != "webc: manifest at position 1: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}
