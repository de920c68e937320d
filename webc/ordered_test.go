package webc

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	var m OrderedMap[int]
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("zeta", 4)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	v, ok := m.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	data, err := cbor.Marshal(m)
	require.NoError(t, err)

	var back OrderedMap[int]
	require.NoError(t, cbor.Unmarshal(data, &back))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, back.Keys())

	var seen []int
	for _, v := range back.All() {
		seen = append(seen, v)
	}
	assert.Equal(t, []int{4, 2, 3}, seen)
}

func TestOrderedMapUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		keys    []string
		wantErr error
	}{
		{
			name: "definite",
			data: []byte{0xa2, 0x61, 'b', 0x01, 0x61, 'a', 0x02},
			keys: []string{"b", "a"},
		},
		{
			name: "indefinite",
			data: []byte{0xbf, 0x61, 'x', 0x01, 0xff},
			keys: []string{"x"},
		},
		{
			name: "null",
			data: []byte{0xf6},
			keys: []string{},
		},
		{
			name:    "duplicate key",
			data:    []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02},
			wantErr: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m OrderedMap[int]
			err := m.UnmarshalCBOR(tt.data)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.keys, m.Keys())
		})
	}
}

func TestOrderedMapRejectsNonMap(t *testing.T) {
	var m OrderedMap[int]
	assert.Error(t, m.UnmarshalCBOR([]byte{0x01}))
	assert.Error(t, m.UnmarshalCBOR([]byte{0xa1, 0x61, 'a'}))
	assert.Error(t, m.UnmarshalCBOR(nil))
}
