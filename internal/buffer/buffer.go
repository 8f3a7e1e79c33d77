// Package buffer holds the mutable in-memory copy of a loaded file.
package buffer

import (
	"fmt"
	"math"

	"binlens/internal/errs"
)

// Buffer owns a contiguous byte sequence. Its length is fixed for its
// lifetime; windows are overwritten in place and never resize it.
type Buffer struct {
	data []byte
}

// New returns a Buffer holding a private copy of data.
func New(data []byte) *Buffer {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Buffer{data: owned}
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// ReadWindow returns a copy of the width bytes starting at offset.
func (b *Buffer) ReadWindow(offset, width int) ([]byte, error) {
	end, err := b.bounds(offset, width)
	if err != nil {
		return nil, err
	}
	out := make([]byte, width)
	copy(out, b.data[offset:end])
	return out, nil
}

// WriteWindow overwrites len(p) bytes starting at offset.
func (b *Buffer) WriteWindow(offset int, p []byte) error {
	end, err := b.bounds(offset, len(p))
	if err != nil {
		return err
	}
	copy(b.data[offset:end], p)
	return nil
}

// Snapshot returns a copy of the full contents, suitable for writing to disk.
func (b *Buffer) Snapshot() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// View returns the backing slice for read-only scanning. Callers must not
// modify it or hold on to it across a write.
func (b *Buffer) View() []byte {
	return b.data
}

// bounds checks [offset, offset+width) against the buffer, guarding the
// addition against overflow.
func (b *Buffer) bounds(offset, width int) (int, error) {
	if offset < 0 || width < 0 || offset > math.MaxInt-width {
		return 0, fmt.Errorf("offset=%d width=%d: %w", offset, width, errs.ErrOutOfBounds)
	}
	end := offset + width
	if end > len(b.data) {
		return 0, fmt.Errorf("end=%d > len=%d: %w", end, len(b.data), errs.ErrOutOfBounds)
	}
	return end, nil
}
