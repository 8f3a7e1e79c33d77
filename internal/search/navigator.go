// Package search finds literal occurrences of a term in rendered text and
// keeps a cursor over them.
package search

import (
	"fmt"
	"strings"

	"binlens/internal/errs"
)

// Position locates a match in the searched text. Offset is an absolute
// byte offset; Line is 1-based and Column is a 0-based byte column.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Line, p.Column)
}

// MatchSet is the ordered result of one search plus a cursor. Index is -1
// when nothing is selected.
type MatchSet struct {
	Positions []Position
	Index     int
}

// Len returns the number of matches.
func (m MatchSet) Len() int { return len(m.Positions) }

// Current returns the selected position, if any.
func (m MatchSet) Current() (Position, bool) {
	if m.Index < 0 || m.Index >= len(m.Positions) {
		return Position{}, false
	}
	return m.Positions[m.Index], true
}

// Next advances the cursor unless it is already on the last match.
func (m MatchSet) Next() MatchSet {
	if m.Index < len(m.Positions)-1 {
		m.Index++
	}
	return m
}

// Prev moves the cursor back unless it is already on the first match.
func (m MatchSet) Prev() MatchSet {
	if m.Index > 0 {
		m.Index--
	}
	return m
}

func emptySet() MatchSet {
	return MatchSet{Index: -1}
}

// Find returns every non-overlapping occurrence of term in text, scanning
// left to right and resuming after the end of each occurrence. Matching is
// exact and case-sensitive.
func Find(text, term string) (MatchSet, error) {
	if term == "" {
		return emptySet(), fmt.Errorf("empty search term: %w", errs.ErrInvalidInput)
	}

	set := emptySet()
	line, lineStart := 1, 0
	scanned := 0
	for pos := 0; pos <= len(text)-len(term); {
		i := strings.Index(text[pos:], term)
		if i < 0 {
			break
		}
		at := pos + i

		// Advance the line counter over text between the last match and this one.
		nl := strings.Count(text[scanned:at], "\n")
		if nl > 0 {
			line += nl
			lineStart = scanned + strings.LastIndexByte(text[scanned:at], '\n') + 1
		}
		scanned = at

		set.Positions = append(set.Positions, Position{Offset: at, Line: line, Column: at - lineStart})
		pos = at + len(term)
	}

	if len(set.Positions) > 0 {
		set.Index = 0
	}
	return set, nil
}

// Navigator holds the text being searched, the last term and its matches.
// A zero Navigator is in the "no search performed" state.
type Navigator struct {
	term    string
	matches MatchSet
	init    bool
}

// NewNavigator returns a Navigator with no search performed.
func NewNavigator() *Navigator {
	return &Navigator{matches: emptySet()}
}

// Search replaces the current matches with every occurrence of term in
// text. An empty term is rejected and leaves the previous state intact.
func (n *Navigator) Search(text, term string) (MatchSet, error) {
	set, err := Find(text, term)
	if err != nil {
		return n.Matches(), err
	}
	n.term, n.matches, n.init = term, set, true
	return set, nil
}

// Next steps to the following match; a no-op on the last one.
func (n *Navigator) Next() MatchSet {
	n.matches = n.Matches().Next()
	return n.matches
}

// Prev steps to the preceding match; a no-op on the first one.
func (n *Navigator) Prev() MatchSet {
	n.matches = n.Matches().Prev()
	return n.matches
}

// Current returns the selected match position.
func (n *Navigator) Current() (Position, bool) {
	return n.Matches().Current()
}

// Reset discards the search, returning to the "no search performed" state.
func (n *Navigator) Reset() {
	*n = Navigator{matches: emptySet()}
}

// Matches returns the current match set.
func (n *Navigator) Matches() MatchSet {
	if !n.init {
		return emptySet()
	}
	return n.matches
}

// Searched reports whether a search has been performed since the last reset.
func (n *Navigator) Searched() bool { return n.init }

// Term returns the last successfully searched term.
func (n *Navigator) Term() string { return n.term }
