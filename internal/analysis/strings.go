package analysis

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ianlancetaylor/demangle"
	"golang.org/x/text/encoding/charmap"

	"binlens/internal/buffer"
	"binlens/internal/errs"
)

// StringRecord is one printable run recovered from a buffer. Offset and
// Length refer to the buffer at extraction time, not to the rendered text.
type StringRecord struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Text   string `json:"text"`

	// Section names the ELF section holding Offset, when known.
	Section string `json:"section,omitempty"`
	// Address is the virtual address Offset is mapped at, when known.
	Address uint64 `json:"address,omitempty"`
	// Demangled is the demangled form of Text when Text is a mangled symbol.
	Demangled string `json:"demangled,omitempty"`
}

// End returns the offset one past the last byte of the record.
func (r StringRecord) End() int { return r.Offset + r.Length }

// Extract scans b for printable runs of at least minLength bytes.
func Extract(b *buffer.Buffer, minLength int) ([]StringRecord, error) {
	return ExtractBytes(b.View(), minLength)
}

// ExtractBytes scans data left to right for maximal runs of bytes in the
// visible ASCII range 0x20..0x7E. Runs shorter than minLength and every
// non-printable byte are dropped without a placeholder. Records come back in
// byte order and never overlap.
func ExtractBytes(data []byte, minLength int) ([]StringRecord, error) {
	if minLength < 1 {
		return nil, fmt.Errorf("minimum string length %d: %w", minLength, errs.ErrInvalidInput)
	}

	var records []StringRecord
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minLength {
			records = append(records, StringRecord{
				Offset: start,
				Length: end - start,
				Text:   decodeRun(data[start:end]),
			})
		}
		start = -1
	}

	for i, c := range data {
		if c >= printableLow && c <= printableHigh {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(data))

	return records, nil
}

// decodeRun decodes a run as single-byte Latin text. Anything the decoder
// rejects is elided rather than reported.
func decodeRun(run []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(run)
	if err != nil {
		return strings.ToValidUTF8(string(run), "")
	}
	return string(decoded)
}

// SectionLookup resolves a file offset to the name of the region holding it
// and the virtual address it is mapped at (0 when unmapped).
type SectionLookup interface {
	Locate(offset int) (name string, addr uint64, ok bool)
}

// AnnotateOptions selects which annotations Annotate fills in.
type AnnotateOptions struct {
	Sections SectionLookup // nil skips section names
	Demangle bool
}

// Annotate fills the Section, Address and Demangled fields of records in place.
func Annotate(records []StringRecord, opts AnnotateOptions) {
	for i := range records {
		r := &records[i]
		if opts.Sections != nil {
			if name, addr, ok := opts.Sections.Locate(r.Offset); ok {
				r.Section, r.Address = name, addr
			}
		}
		if opts.Demangle {
			r.Demangled = demangleSymbol(r.Text)
		}
	}
}

// demangleSymbol returns the demangled form of a C++ or Rust symbol, or ""
// when s is not a mangled name.
func demangleSymbol(s string) string {
	if !strings.HasPrefix(s, "_Z") && !strings.HasPrefix(s, "_R") {
		return ""
	}
	out, err := demangle.ToString(s, demangle.NoClones)
	if err != nil || out == s {
		return ""
	}
	return out
}

// RenderedText is the records' texts joined by newlines, in record order.
//
// It is a lossy, read-only view: skipped bytes leave no trace, so rendered
// offsets cannot be inverted into an editable byte mapping. Locate maps a
// rendered offset back to the record and buffer offset it came from.
type RenderedText struct {
	text      string
	records   []StringRecord
	lineStart []int // rendered offset of each record's first byte
}

// Render builds the rendered view of records.
func Render(records []StringRecord) RenderedText {
	var sb strings.Builder
	starts := make([]int, 0, len(records))
	for i, r := range records {
		if i > 0 {
			sb.WriteString(lineSeparator)
		}
		starts = append(starts, sb.Len())
		sb.WriteString(r.Text)
	}
	return RenderedText{text: sb.String(), records: records, lineStart: starts}
}

func (rt RenderedText) String() string { return rt.text }

// Lines returns the number of rendered lines (one per record).
func (rt RenderedText) Lines() int { return len(rt.lineStart) }

// Locate maps an offset in the rendered text to the index of the record it
// falls in and the corresponding byte offset in the buffer. Offsets on a
// line separator report ok = false.
func (rt RenderedText) Locate(pos int) (record int, offset int, ok bool) {
	if pos < 0 || pos >= len(rt.text) {
		return 0, 0, false
	}
	i := sort.Search(len(rt.lineStart), func(i int) bool { return rt.lineStart[i] > pos }) - 1
	if i < 0 {
		return 0, 0, false
	}
	col := pos - rt.lineStart[i]
	r := rt.records[i]
	if col >= len(r.Text) {
		return 0, 0, false
	}
	return i, r.Offset + col, true
}

// EscapeUnprintable returns a string where printable Unicode runes are preserved.
// Control and unprintable runes are escaped as \uXXXX. Invalid UTF-8 is escaped as \xXX.
func EscapeUnprintable(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteString(fmt.Sprintf("\\x%02X", b[0]))
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteString(fmt.Sprintf("\\u%04X", r))
		}
		b = b[size:]
	}
	return sb.String()
}

// FormatRecovered returns both the escaped string and the hex encoding of b.
// Used when reporting the bytes of an edited window.
func FormatRecovered(b []byte) (string, string) {
	return EscapeUnprintable(b), fmt.Sprintf("%x", b)
}
