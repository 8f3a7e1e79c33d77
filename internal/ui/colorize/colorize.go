// Package colorize applies terminal syntax highlighting to binlens listings.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ListingLexer tokenises lines of the form
//
//	00000004  [.rodata]  some text  ; demangled
//	3:12  00000104  some text
var ListingLexer = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:    "binlens-listing",
		Aliases: []string{"binlens"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `^\d+:\d+(?=\s)`, Type: chroma.NameFunction},
				{Pattern: `(?<=^|\s)[0-9a-f]{8,16}(?=\s)`, Type: chroma.LiteralNumberHex},
				{Pattern: `\[[^\]\n]*\]`, Type: chroma.NameLabel},
				{Pattern: `  ; [^\n]*`, Type: chroma.Comment},
				{Pattern: `\n`, Type: chroma.Text},
				{Pattern: `[ \t]+`, Type: chroma.TextWhitespace},
				{Pattern: `.+?(?=  ; |\n|$)`, Type: chroma.LiteralString},
			},
		}
	},
))

// getListingStyle returns the listing style with fallbacks
func getListingStyle() *chroma.Style {
	candidates := []string{"binlens-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Disabled reports whether colouring is turned off via BINLENS_NO_COLOR.
func Disabled() bool {
	return os.Getenv("BINLENS_NO_COLOR") != ""
}

// ColorizeListing highlights a strings or search listing. The input is
// returned unchanged when colours are disabled or tokenising fails.
func ColorizeListing(listing string) (string, error) {
	if Disabled() {
		return listing, nil
	}

	iterator, err := ListingLexer.Tokenise(nil, listing)
	if err != nil {
		return listing, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getListingStyle(), iterator); err != nil {
		return listing, err
	}
	return buf.String(), nil
}
