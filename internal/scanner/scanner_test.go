package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binlens/internal/buffer"
	"binlens/internal/codec"
	"binlens/internal/errs"
)

func TestFindAndReplaceFloat(t *testing.T) {
	b := buffer.New([]byte{0x00, 0x00, 0x80, 0x3F})

	off, err := FindAndReplace(b, codec.FromFloat32(2.0))
	require.ErrorIs(t, err, errs.ErrValueNotFound, "1.0 is not within tolerance of 2.0")
	assert.Zero(t, off)

	// Searching for a value within tolerance of the stored 1.0 rewrites it.
	off, err = FindAndReplace(b, codec.FromFloat32(1.0004))
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, codec.Encode(codec.FromFloat32(1.0004)), b.Snapshot())
}

func TestFindAndReplaceFloatExact(t *testing.T) {
	b := buffer.New([]byte{0x00, 0x00, 0x80, 0x3F})
	require.NoError(t, b.WriteWindow(0, codec.Encode(codec.FromFloat32(2.0))))

	off, err := FindAndReplace(b, codec.FromFloat32(2.0))
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x40}, b.Snapshot())
}

func TestFindUnalignedStride(t *testing.T) {
	data := []byte{0xAA, 0x39, 0x05, 0x00, 0x00, 0xBB}
	b := buffer.New(data)

	off, err := Find(b, codec.FromInt32(1337))
	require.NoError(t, err)
	assert.Equal(t, 1, off)
	assert.Equal(t, data, b.Snapshot(), "Find must not write")
}

func TestFindLowestOffsetWins(t *testing.T) {
	b := buffer.New([]byte{0x07, 0x00, 0x07, 0x00, 0x07, 0x00})

	off, err := FindAndReplace(b, codec.FromUint16(7))
	require.NoError(t, err)
	assert.Equal(t, 0, off)
}

func TestFindAndReplaceLastWindow(t *testing.T) {
	b := buffer.New([]byte{0x01, 0x02, 0x03, 0xFE, 0xFF})

	off, err := FindAndReplace(b, codec.FromInt16(-2))
	require.NoError(t, err)
	assert.Equal(t, 3, off)
	assert.Equal(t, 5, b.Len())
}

func TestFindAndReplaceFailuresLeaveBufferUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		target  codec.Value
		wantErr error
	}{
		{"too short", []byte{0x01, 0x02, 0x03}, codec.FromInt32(1), errs.ErrInvalidInput},
		{"empty", nil, codec.FromUint16(0), errs.ErrInvalidInput},
		{"absent int", []byte{1, 2, 3, 4, 5, 6}, codec.FromInt32(99), errs.ErrValueNotFound},
		{"absent float", []byte{0, 0, 0x80, 0x3F}, codec.FromFloat32(1.01), errs.ErrValueNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buffer.New(tt.data)
			before := b.Snapshot()

			_, err := FindAndReplace(b, tt.target)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, b.Snapshot())
		})
	}
}

func TestRescanFindsReplacedOffset(t *testing.T) {
	data := []byte{0x10, 0x20, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3F, 0x30}
	b := buffer.New(data)

	off, err := FindAndReplace(b, codec.FromFloat32(1.0))
	require.NoError(t, err)
	assert.Equal(t, 4, off)

	again, err := Find(b, codec.FromFloat32(1.0))
	require.NoError(t, err)
	assert.Equal(t, off, again)
}

func TestReplaceRewritesFoundWindow(t *testing.T) {
	b := buffer.New([]byte{0x00, 0x00, 0x80, 0x3F})

	off, err := Replace(b, codec.FromFloat32(1.0), codec.FromFloat32(2.0))
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x40}, b.Snapshot())
}

func TestReplaceKindMismatch(t *testing.T) {
	b := buffer.New([]byte{0x01, 0x00, 0x00, 0x00})

	_, err := Replace(b, codec.FromInt32(1), codec.FromUint32(2))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, b.Snapshot())
}
