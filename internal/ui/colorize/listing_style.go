package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// ListingDark colours string listings: grey offsets, teal section tags,
// golden string bodies and dim annotations.
var ListingDark = styles.Register(chroma.MustNewStyle("binlens-dark", chroma.StyleEntries{
	chroma.Text:             "#FFFFFF",
	chroma.Background:       "bg:#1e1e1e",
	chroma.LiteralNumberHex: "#4F4F4F", // Offsets
	chroma.NameLabel:        "#7C9C9D", // [section]
	chroma.LiteralString:    "#EACD53", // Extracted text
	chroma.Comment:          "#6A9955", // Demangled symbol
	chroma.NameFunction:     "#FF5F87", // Search match line:col
}))
