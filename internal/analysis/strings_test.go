package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binlens/internal/buffer"
	"binlens/internal/errs"
)

func TestExtractDropsShortRuns(t *testing.T) {
	b := buffer.New([]byte("hi\x00\x00ABCDE\x01"))

	recs, err := Extract(b, DefaultMinLength)
	require.NoError(t, err)
	assert.Equal(t, []StringRecord{{Offset: 4, Length: 5, Text: "ABCDE"}}, recs)
}

func TestExtractBytes(t *testing.T) {
	tests := []struct {
		name string
		data string
		min  int
		want []StringRecord
	}{
		{
			name: "empty",
			data: "",
			min:  4,
			want: nil,
		},
		{
			name: "whole buffer printable",
			data: "GLIBC_2.17",
			min:  4,
			want: []StringRecord{{Offset: 0, Length: 10, Text: "GLIBC_2.17"}},
		},
		{
			name: "tab and newline break runs",
			data: "abcd\tefgh\nijk",
			min:  4,
			want: []StringRecord{
				{Offset: 0, Length: 4, Text: "abcd"},
				{Offset: 5, Length: 4, Text: "efgh"},
			},
		},
		{
			name: "high bytes break runs",
			data: "abc\xe9defg\x7fxyz~",
			min:  3,
			want: []StringRecord{
				{Offset: 0, Length: 3, Text: "abc"},
				{Offset: 4, Length: 4, Text: "defg"},
				{Offset: 9, Length: 4, Text: "xyz~"},
			},
		},
		{
			name: "space and tilde are printable",
			data: "\x00 ~ ~\x00",
			min:  4,
			want: []StringRecord{{Offset: 1, Length: 4, Text: " ~ ~"}},
		},
		{
			name: "min length one",
			data: "a\x00b",
			min:  1,
			want: []StringRecord{
				{Offset: 0, Length: 1, Text: "a"},
				{Offset: 2, Length: 1, Text: "b"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBytes([]byte(tt.data), tt.min)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInvariants(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte((i*7 + i/13) % 256)
	}

	for _, min := range []int{1, 2, 4, 8} {
		recs, err := ExtractBytes(data, min)
		require.NoError(t, err)

		prevEnd := -1
		for _, r := range recs {
			assert.GreaterOrEqual(t, r.Length, min)
			assert.Greater(t, r.Offset, prevEnd, "records must be disjoint and increasing")
			assert.LessOrEqual(t, r.End(), len(data))
			assert.Equal(t, string(data[r.Offset:r.End()]), r.Text)
			if r.Offset > 0 {
				c := data[r.Offset-1]
				assert.False(t, c >= 0x20 && c <= 0x7E, "run must be maximal on the left")
			}
			if r.End() < len(data) {
				c := data[r.End()]
				assert.False(t, c >= 0x20 && c <= 0x7E, "run must be maximal on the right")
			}
			prevEnd = r.End()
		}
	}
}

func TestExtractRejectsMinLength(t *testing.T) {
	_, err := ExtractBytes([]byte("abcd"), 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestRenderAndLocate(t *testing.T) {
	recs, err := ExtractBytes([]byte("\x00\x00main\x00\x01\x02.text\x00printf"), 4)
	require.NoError(t, err)
	rt := Render(recs)

	assert.Equal(t, "main\n.text\nprintf", rt.String())
	assert.Equal(t, 3, rt.Lines())

	tests := []struct {
		pos    int
		record int
		offset int
		ok     bool
	}{
		{pos: 0, record: 0, offset: 2, ok: true},
		{pos: 3, record: 0, offset: 5, ok: true},
		{pos: 4, ok: false}, // separator
		{pos: 5, record: 1, offset: 9, ok: true},
		{pos: 11, record: 2, offset: 15, ok: true},
		{pos: 16, record: 2, offset: 20, ok: true},
		{pos: 17, ok: false},
		{pos: -1, ok: false},
	}
	for _, tt := range tests {
		rec, off, ok := rt.Locate(tt.pos)
		assert.Equal(t, tt.ok, ok, "pos %d", tt.pos)
		if tt.ok {
			assert.Equal(t, tt.record, rec, "pos %d", tt.pos)
			assert.Equal(t, tt.offset, off, "pos %d", tt.pos)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	rt := Render(nil)
	assert.Equal(t, "", rt.String())
	_, _, ok := rt.Locate(0)
	assert.False(t, ok)
}

type fakeSections map[int]string

func (f fakeSections) Locate(off int) (string, uint64, bool) {
	name, ok := f[off]
	if !ok {
		return "", 0, false
	}
	return name, 0x400000 + uint64(off), true
}

func TestAnnotate(t *testing.T) {
	recs := []StringRecord{
		{Offset: 0, Length: 10, Text: "_ZN3foo3barEv"},
		{Offset: 20, Length: 6, Text: "printf"},
	}
	Annotate(recs, AnnotateOptions{
		Sections: fakeSections{20: ".dynstr"},
		Demangle: true,
	})

	assert.Equal(t, "foo::bar()", recs[0].Demangled)
	assert.Empty(t, recs[0].Section)
	assert.Empty(t, recs[1].Demangled)
	assert.Equal(t, ".dynstr", recs[1].Section)
	assert.Equal(t, uint64(0x400014), recs[1].Address)
	assert.Zero(t, recs[0].Address)
}

func TestEscapeUnprintable(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("abc"), "abc"},
		{"control", []byte("a\x01b"), "a\\u0001b"},
		{"invalid utf8", []byte{0xff, 'a'}, "\\xFFa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeUnprintable(tt.in))
		})
	}

	esc, hex := FormatRecovered([]byte{0x00, 0x00, 0x00, 0x40})
	assert.Equal(t, "\\u0000\\u0000\\u0000@", esc)
	assert.Equal(t, "00000040", hex)
}
