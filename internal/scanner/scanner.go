// Package scanner finds typed numeric values inside a buffer and rewrites
// them in place.
//
// The scan is a plain linear walk at byte stride 1: every offset from 0 to
// len-width is decoded, regardless of alignment. No index is built, so a
// call costs O(len * width) in the worst case.
package scanner

import (
	"fmt"

	"binlens/internal/buffer"
	"binlens/internal/codec"
	"binlens/internal/errs"
)

// Find returns the lowest offset whose window decodes to a value matching
// target. The buffer is not modified.
func Find(b *buffer.Buffer, target codec.Value) (int, error) {
	width := target.Kind().Width()
	if b.Len() < width {
		return 0, fmt.Errorf("buffer of %d bytes is shorter than %s width %d: %w",
			b.Len(), target.Kind(), width, errs.ErrInvalidInput)
	}

	data := b.View()
	for off := 0; off <= len(data)-width; off++ {
		v, err := codec.Decode(target.Kind(), data[off:off+width])
		if err != nil {
			return 0, err
		}
		if target.Matches(v) {
			return off, nil
		}
	}
	return 0, fmt.Errorf("%s %s: %w", target.Kind(), target, errs.ErrValueNotFound)
}

// FindAndReplace locates the first window matching target and overwrites
// it with target's encoding, returning the offset written. On any error the
// buffer is left untouched.
func FindAndReplace(b *buffer.Buffer, target codec.Value) (int, error) {
	return Replace(b, target, target)
}

// Replace locates the first window matching find and overwrites it with the
// encoding of with. Both values must share a kind.
func Replace(b *buffer.Buffer, find, with codec.Value) (int, error) {
	if find.Kind() != with.Kind() {
		return 0, fmt.Errorf("replace %s with %s: %w", find.Kind(), with.Kind(), errs.ErrInvalidInput)
	}
	off, err := Find(b, find)
	if err != nil {
		return 0, err
	}
	if err := b.WriteWindow(off, codec.Encode(with)); err != nil {
		return 0, fmt.Errorf("write %s at 0x%x: %w", with.Kind(), off, err)
	}
	return off, nil
}
