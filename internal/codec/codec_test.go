package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binlens/internal/errs"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		key   string
		want  Kind
		width int
	}{
		{"float", Float32, 4},
		{"int", Int32, 4},
		{"unsigned int", Uint32, 4},
		{"short", Int16, 2},
		{"unsigned short", Uint16, 2},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			k, err := ParseKind(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
			assert.Equal(t, tt.width, k.Width())
			assert.Equal(t, tt.key, k.Key())
		})
	}

	for _, bad := range []string{"", "double", "Float", "unsigned", "int32"} {
		_, err := ParseKind(bad)
		assert.ErrorIs(t, err, errs.ErrInvalidInput, "key %q", bad)
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  []byte
	}{
		{"float one", FromFloat32(1.0), []byte{0x00, 0x00, 0x80, 0x3F}},
		{"float two", FromFloat32(2.0), []byte{0x00, 0x00, 0x00, 0x40}},
		{"int minus one", FromInt32(-1), []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"int", FromInt32(0x01020304), []byte{0x04, 0x03, 0x02, 0x01}},
		{"unsigned int", FromUint32(0xDEADBEEF), []byte{0xEF, 0xBE, 0xAD, 0xDE}},
		{"short", FromInt16(-2), []byte{0xFE, 0xFF}},
		{"unsigned short", FromUint16(0x1234), []byte{0x34, 0x12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.value))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		FromFloat32(0), FromFloat32(-1.5), FromFloat32(math.MaxFloat32), FromFloat32(math.SmallestNonzeroFloat32),
		FromInt32(math.MinInt32), FromInt32(math.MaxInt32), FromInt32(0),
		FromUint32(0), FromUint32(math.MaxUint32),
		FromInt16(math.MinInt16), FromInt16(math.MaxInt16),
		FromUint16(0), FromUint16(math.MaxUint16),
	}
	for _, v := range values {
		got, err := Decode(v.Kind(), Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v, got, "%s %s", v.Kind(), v)
	}
}

func TestDecodeAcceptsEveryShortPattern(t *testing.T) {
	for _, k := range []Kind{Int16, Uint16} {
		for n := 0; n <= math.MaxUint16; n++ {
			w := []byte{byte(n), byte(n >> 8)}
			v, err := Decode(k, w)
			if err != nil {
				t.Fatalf("Decode(%s, %x) failed: %v", k, w, err)
			}
			if got := Encode(v); got[0] != w[0] || got[1] != w[1] {
				t.Fatalf("Encode(Decode(%s, %x)) = %x", k, w, got)
			}
		}
	}
}

func TestDecodeWrongWidth(t *testing.T) {
	_, err := Decode(Float32, []byte{1, 2})
	assert.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestDecodeNaNPattern(t *testing.T) {
	v, err := Decode(Float32, []byte{0x01, 0x00, 0xC0, 0x7F})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(v.Float32())))
	assert.False(t, v.Matches(v), "NaN never matches under tolerance")
}

func TestParse(t *testing.T) {
	tests := []struct {
		kind    Kind
		text    string
		want    Value
		wantErr bool
	}{
		{Float32, "2.0", FromFloat32(2), false},
		{Float32, " -1.25e2 ", FromFloat32(-125), false},
		{Float32, ".5", FromFloat32(0.5), false},
		{Float32, "1e39", Value{}, true},
		{Float32, "abc", Value{}, true},
		{Float32, "NaN", Value{}, true},
		{Float32, "inf", Value{}, true},
		{Float32, "0x1p-2", Value{}, true},
		{Float32, "1_0", Value{}, true},
		{Float32, "1_000.5", Value{}, true},
		{Int32, "-2147483648", FromInt32(math.MinInt32), false},
		{Int32, "+42", FromInt32(42), false},
		{Int32, "2147483648", Value{}, true},
		{Int32, "1.5", Value{}, true},
		{Int32, "1_0", Value{}, true},
		{Uint32, "4294967295", FromUint32(math.MaxUint32), false},
		{Uint32, "-1", Value{}, true},
		{Int16, "-32768", FromInt16(math.MinInt16), false},
		{Int16, "32768", Value{}, true},
		{Uint16, "65535", FromUint16(math.MaxUint16), false},
		{Uint16, "65536", Value{}, true},
		{Uint16, "0x10", Value{}, true},
		{Int32, "", Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Key()+"/"+tt.text, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, FromFloat32(1.0).Matches(FromFloat32(1.0005)))
	assert.False(t, FromFloat32(1.0).Matches(FromFloat32(1.002)))
	assert.True(t, FromFloat32(1000000).Matches(FromFloat32(1000000)))
	assert.True(t, FromInt32(7).Matches(FromInt32(7)))
	assert.False(t, FromInt32(7).Matches(FromInt32(8)))
	assert.False(t, FromInt16(7).Matches(FromInt32(7)), "kinds differ")
	assert.True(t, FromUint16(65535).Matches(FromUint16(65535)))
}
