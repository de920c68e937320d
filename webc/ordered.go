package webc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/fxamacker/cbor/v2"
)

// ErrDuplicateKey is returned when a CBOR map repeats a key.
var ErrDuplicateKey = errors.New("duplicate map key")

const (
	cborMajorMap   = 5
	cborNull       = 0xf6
	cborBreak      = 0xff
	cborIndefinite = 31
)

// OrderedMap is a string-keyed map that keeps insertion order and
// round-trips through CBOR without reordering.
type OrderedMap[V any] struct {
	values map[string]V
	keys   []string
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates entries in insertion order.
func (m OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// MarshalCBOR encodes the entries as a definite-length CBOR map in order.
func (m OrderedMap[V]) MarshalCBOR() ([]byte, error) {
	out := appendMapHeader(nil, uint64(len(m.keys)))
	for _, k := range m.keys {
		kb, err := cbor.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := cbor.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out = append(out, kb...)
		out = append(out, vb...)
	}
	return out, nil
}

// UnmarshalCBOR decodes a CBOR map, preserving key order. Duplicate keys are rejected.
func (m *OrderedMap[V]) UnmarshalCBOR(data []byte) error {
	*m = OrderedMap[V]{}
	if len(data) == 1 && data[0] == cborNull {
		return nil
	}

	count, indefinite, rest, err := readMapHeader(data)
	if err != nil {
		return err
	}

	for i := uint64(0); indefinite || i < count; i++ {
		if indefinite {
			if len(rest) == 0 {
				return errors.New("cbor: unterminated indefinite-length map")
			}
			if rest[0] == cborBreak {
				rest = rest[1:]
				break
			}
		}

		var key string
		rest, err = cbor.UnmarshalFirst(rest, &key)
		if err != nil {
			return fmt.Errorf("cbor: map key %d: %w", i, err)
		}
		if _, dup := m.values[key]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateKey, key)
		}

		var value V
		rest, err = cbor.UnmarshalFirst(rest, &value)
		if err != nil {
			return fmt.Errorf("cbor: map value %q: %w", key, err)
		}
		m.Set(key, value)
	}

	if len(rest) != 0 {
		return fmt.Errorf("cbor: %d trailing bytes after map", len(rest))
	}
	return nil
}

func appendMapHeader(b []byte, n uint64) []byte {
	const major = cborMajorMap << 5
	switch {
	case n < 24:
		return append(b, major|byte(n))
	case n <= 0xff:
		return append(b, major|24, byte(n))
	case n <= 0xffff:
		return binary.BigEndian.AppendUint16(append(b, major|25), uint16(n))
	case n <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(b, major|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(b, major|27), n)
	}
}

func readMapHeader(data []byte) (count uint64, indefinite bool, rest []byte, err error) {
	if len(data) == 0 {
		return 0, false, nil, errors.New("cbor: empty input")
	}
	head := data[0]
	if head>>5 != cborMajorMap {
		return 0, false, nil, fmt.Errorf("cbor: expected map, got major type %d", head>>5)
	}

	info := head & 0x1f
	data = data[1:]
	var width int
	switch {
	case info < 24:
		return uint64(info), false, data, nil
	case info == 24:
		width = 1
	case info == 25:
		width = 2
	case info == 26:
		width = 4
	case info == 27:
		width = 8
	case info == cborIndefinite:
		return 0, true, data, nil
	default:
		return 0, false, nil, fmt.Errorf("cbor: invalid map length encoding %d", info)
	}

	if len(data) < width {
		return 0, false, nil, errors.New("cbor: truncated map header")
	}
	switch width {
	case 1:
		count = uint64(data[0])
	case 2:
		count = uint64(binary.BigEndian.Uint16(data))
	case 4:
		count = uint64(binary.BigEndian.Uint32(data))
	case 8:
		count = binary.BigEndian.Uint64(data)
	}
	return count, false, data[width:], nil
}
