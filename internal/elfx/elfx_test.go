package elfx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfImage returns the bytes of the running test binary, skipping when the
// platform does not produce ELF executables.
func selfImage(t *testing.T) []byte {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	data, err := os.ReadFile(exe)
	require.NoError(t, err)
	if !IsELF(data) {
		t.Skip("test binary is not ELF on this platform")
	}
	return data
}

func TestParseSelf(t *testing.T) {
	data := selfImage(t)

	im, err := Parse(data)
	require.NoError(t, err)
	require.NotEmpty(t, im.Sections)

	var text Section
	for _, s := range im.Sections {
		if s.Name == ".text" {
			text = s
		}
	}
	require.NotZero(t, text.Size, ".text section expected")

	name, addr, ok := im.Locate(int(text.Off))
	require.True(t, ok)
	assert.Equal(t, ".text", name)
	assert.Equal(t, text.VA, addr)

	name, addr, ok = im.Locate(int(text.Off + text.Size - 1))
	require.True(t, ok)
	assert.Equal(t, ".text", name)
	assert.Equal(t, text.VA+text.Size-1, addr)

	for i := 1; i < len(im.Sections); i++ {
		assert.LessOrEqual(t, im.Sections[i-1].Off, im.Sections[i].Off)
	}
}

func TestLocateSections(t *testing.T) {
	im := &Image{Sections: []Section{
		{Name: ".rodata", VA: 0x400100, Off: 0x100, Size: 0x20},
		{Name: ".data", VA: 0x601200, Off: 0x200, Size: 0x10},
		{Name: ".comment", Off: 0x300, Size: 0x10},
	}}

	tests := []struct {
		off  int
		want string
		addr uint64
		ok   bool
	}{
		{0x0ff, "", 0, false},
		{0x100, ".rodata", 0x400100, true},
		{0x11f, ".rodata", 0x40011f, true},
		{0x120, "", 0, false},
		{0x205, ".data", 0x601205, true},
		{0x210, "", 0, false},
		{0x304, ".comment", 0, true},
		{-1, "", 0, false},
	}
	for _, tt := range tests {
		name, addr, ok := im.Locate(tt.off)
		assert.Equal(t, tt.ok, ok, "off 0x%x", tt.off)
		assert.Equal(t, tt.want, name, "off 0x%x", tt.off)
		assert.Equal(t, tt.addr, addr, "off 0x%x", tt.off)
	}
}

func TestLocateFallsBackToSegments(t *testing.T) {
	im := &Image{Loads: []Seg{{Vaddr: 0x10000, Off: 0, Filesz: 0x1000, Flags: 5}}}

	name, addr, ok := im.Locate(0x10)
	require.True(t, ok)
	assert.Contains(t, name, "LOAD(")
	assert.Equal(t, uint64(0x10010), addr)

	_, _, ok = im.Locate(0x1000)
	assert.False(t, ok)
}

func TestParseRejectsNonELF(t *testing.T) {
	assert.False(t, IsELF([]byte("MZ\x90\x00")))
	_, err := Parse([]byte("not an elf file at all"))
	assert.Error(t, err)
}
