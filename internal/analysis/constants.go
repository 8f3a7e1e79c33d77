// Package analysis extracts printable strings from binary buffers and maps
// them back to the offsets they came from.
package analysis

// Constants for string extraction
const (
	// DefaultMinLength is the shortest printable run reported as a string
	DefaultMinLength = 4

	// printableLow and printableHigh bound the visible ASCII range
	printableLow  = 0x20
	printableHigh = 0x7E

	// lineSeparator joins records in the rendered view
	lineSeparator = "\n"
)
