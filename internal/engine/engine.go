// Package engine holds the state behind one open file: its byte buffer, the
// strings extracted from it and the text-search cursor. It is the only entry
// point the CLI and TUI use.
//
// An Engine is single-owner and synchronous. Only value edits mutate the
// buffer; a failed operation leaves buffer and matches as they were.
package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"binlens/internal/analysis"
	"binlens/internal/buffer"
	"binlens/internal/codec"
	"binlens/internal/elfx"
	"binlens/internal/errs"
	"binlens/internal/logging"
	"binlens/internal/scanner"
	"binlens/internal/search"
)

// Engine is constructed empty, populated by Load, and replaced wholesale by
// the next Load.
type Engine struct {
	minLength int
	demangle  bool
	log       *logging.LoggerCloser

	path     string
	buf      *buffer.Buffer
	image    *elfx.Image
	records  []analysis.StringRecord
	rendered analysis.RenderedText
	nav      *search.Navigator
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinLength sets the shortest printable run reported as a string.
func WithMinLength(n int) Option {
	return func(e *Engine) { e.minLength = n }
}

// WithDemangle enables demangling of symbol-like strings.
func WithDemangle(on bool) Option {
	return func(e *Engine) { e.demangle = on }
}

// WithLogger routes engine logs to lg.
func WithLogger(lg *logging.LoggerCloser) Option {
	return func(e *Engine) { e.log = lg }
}

// New returns an engine with no buffer loaded.
func New(opts ...Option) *Engine {
	e := &Engine{
		minLength: analysis.DefaultMinLength,
		nav:       search.NewNavigator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	return e
}

// Fork returns an empty engine configured like e. Loading into a fork
// leaves e untouched, so a load can run off the goroutine that owns e.
func (e *Engine) Fork() *Engine {
	return New(WithMinLength(e.minLength), WithDemangle(e.demangle), WithLogger(e.log))
}

// Load replaces the current buffer with a copy of data and extracts its
// strings. The search state is discarded.
func (e *Engine) Load(data []byte) error {
	return e.load("", data)
}

// LoadFile reads path and loads its contents. Save without a path writes
// back to it.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return e.load(path, data)
}

func (e *Engine) load(path string, data []byte) error {
	buf := buffer.New(data)
	records, err := analysis.Extract(buf, e.minLength)
	if err != nil {
		return err
	}

	var image *elfx.Image
	if elfx.IsELF(data) {
		if image, err = elfx.Parse(data); err != nil {
			e.log.Warn("ELF header present but unparsable", "path", path, "err", err)
			image = nil
		}
	}

	e.path, e.buf, e.image = path, buf, image
	e.setRecords(records)
	e.log.Debug("Loaded buffer", "path", path, "bytes", buf.Len(), "strings", len(records), "elf", image != nil)
	return nil
}

func (e *Engine) setRecords(records []analysis.StringRecord) {
	opts := analysis.AnnotateOptions{Demangle: e.demangle}
	if e.image != nil {
		opts.Sections = e.image
	}
	analysis.Annotate(records, opts)

	e.records = records
	e.rendered = analysis.Render(records)
	e.nav.Reset()
}

// Loaded reports whether a buffer is present.
func (e *Engine) Loaded() bool { return e.buf != nil }

// Path returns the file the buffer was loaded from, if any.
func (e *Engine) Path() string { return e.path }

// Len returns the size of the loaded buffer.
func (e *Engine) Len() int {
	if e.buf == nil {
		return 0
	}
	return e.buf.Len()
}

// MinLength returns the configured minimum string length.
func (e *Engine) MinLength() int { return e.minLength }

// Image returns the ELF section index, or nil when the buffer is not ELF.
func (e *Engine) Image() *elfx.Image { return e.image }

// Records returns the strings extracted at the last load or edit.
func (e *Engine) Records() []analysis.StringRecord { return e.records }

// Rendered returns the newline-joined string view. It omits every skipped
// byte and is never written back to the buffer.
func (e *Engine) Rendered() analysis.RenderedText { return e.rendered }

// Snapshot returns the buffer's current bytes.
func (e *Engine) Snapshot() ([]byte, error) {
	if e.buf == nil {
		return nil, errs.ErrNoBufferLoaded
	}
	return e.buf.Snapshot(), nil
}

// Window returns width bytes of the buffer starting at offset.
func (e *Engine) Window(offset, width int) ([]byte, error) {
	if e.buf == nil {
		return nil, errs.ErrNoBufferLoaded
	}
	return e.buf.ReadWindow(offset, width)
}

// Save writes the buffer's bytes verbatim to w.
func (e *Engine) Save(w io.Writer) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(snap)); err != nil {
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

// SaveFile writes the buffer to path, or to the loaded path when path is
// empty.
func (e *Engine) SaveFile(path string) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	if path == "" {
		path = e.path
	}
	if path == "" {
		return fmt.Errorf("buffer was not loaded from a file, no save path: %w", errs.ErrInvalidInput)
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, snap, mode); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	e.log.Info("Saved buffer", "path", path, "bytes", len(snap))
	return nil
}

// Search finds every occurrence of term in the rendered strings and selects
// the first.
func (e *Engine) Search(term string) (search.MatchSet, error) {
	if e.buf == nil {
		return search.MatchSet{Index: -1}, errs.ErrNoBufferLoaded
	}
	m, err := e.nav.Search(e.rendered.String(), term)
	if err != nil {
		return m, err
	}
	e.log.Debug("Searched strings", "term", term, "matches", m.Len())
	return m, nil
}

// Next selects the following match.
func (e *Engine) Next() search.MatchSet { return e.nav.Next() }

// Prev selects the preceding match.
func (e *Engine) Prev() search.MatchSet { return e.nav.Prev() }

// Matches returns the current match set.
func (e *Engine) Matches() search.MatchSet { return e.nav.Matches() }

// Current returns the selected match position.
func (e *Engine) Current() (search.Position, bool) { return e.nav.Current() }

// Searched reports whether a search has run since the last load or edit.
func (e *Engine) Searched() bool { return e.nav.Searched() }

// Term returns the last searched term.
func (e *Engine) Term() string { return e.nav.Term() }

// Origin maps a match position back to the record index and buffer offset
// it was found at.
func (e *Engine) Origin(p search.Position) (record, offset int, ok bool) {
	return e.rendered.Locate(p.Offset)
}

// Edit is the outcome of a successful value edit.
type Edit struct {
	Offset int
	Kind   codec.Kind
	Old    []byte
	New    []byte
}

// Hit is the window a value lookup matched.
type Hit struct {
	Offset int
	Kind   codec.Kind
	Bytes  []byte
}

// FindValue parses text as typeKey and returns the first matching window
// without modifying the buffer.
func (e *Engine) FindValue(typeKey, text string) (Hit, error) {
	if e.buf == nil {
		return Hit{}, errs.ErrNoBufferLoaded
	}
	v, err := parseValue(typeKey, text)
	if err != nil {
		return Hit{}, err
	}
	off, err := scanner.Find(e.buf, v)
	if err != nil {
		return Hit{}, err
	}
	window, err := e.Window(off, v.Kind().Width())
	if err != nil {
		return Hit{}, err
	}
	return Hit{Offset: off, Kind: v.Kind(), Bytes: window}, nil
}

// EditValue parses text as typeKey, finds the first window matching it and
// rewrites that window with the parsed value.
func (e *Engine) EditValue(typeKey, text string) (Edit, error) {
	return e.ReplaceValue(typeKey, text, text)
}

// ReplaceValue finds the first window matching findText and rewrites it
// with withText, both parsed as typeKey. Strings are re-extracted afterwards
// so the rendered view reflects the edit.
func (e *Engine) ReplaceValue(typeKey, findText, withText string) (Edit, error) {
	if e.buf == nil {
		return Edit{}, errs.ErrNoBufferLoaded
	}
	find, err := parseValue(typeKey, findText)
	if err != nil {
		return Edit{}, err
	}
	with, err := parseValue(typeKey, withText)
	if err != nil {
		return Edit{}, err
	}

	before := e.buf.Snapshot()
	off, err := scanner.Replace(e.buf, find, with)
	if err != nil {
		e.log.Debug("Value edit failed", "type", typeKey, "find", findText, "err", err)
		return Edit{}, err
	}

	width := with.Kind().Width()
	edit := Edit{
		Offset: off,
		Kind:   with.Kind(),
		Old:    before[off : off+width],
		New:    codec.Encode(with),
	}

	records, err := analysis.Extract(e.buf, e.minLength)
	if err != nil {
		return Edit{}, err
	}
	e.setRecords(records)

	e.log.Info("Edited value", "type", typeKey, "offset", fmt.Sprintf("0x%x", off), "value", with)
	return edit, nil
}

func parseValue(typeKey, text string) (codec.Value, error) {
	kind, err := codec.ParseKind(typeKey)
	if err != nil {
		return codec.Value{}, err
	}
	return codec.Parse(kind, text)
}
