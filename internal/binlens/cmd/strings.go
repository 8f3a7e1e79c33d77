package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"binlens/internal/analysis"
	"binlens/internal/engine"
	"binlens/internal/ui/colorize"
)

var stringsCmd = &cobra.Command{
	Use:   "strings [file]",
	Short: "List printable strings with their byte offsets",
	Long: `List every run of printable ASCII of at least --min-length bytes, in file order,
with the offset it starts at. Use - to read from stdin.`,
	Example: `
# Dump strings of at least 6 bytes
binlens strings -m 6 /path/to/binary

# Machine-readable output with demangled symbols
binlens strings --json --demangle libfoo.so
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		showSections, _ := cmd.Flags().GetBool("sections")

		eng, closeLog := openEngine(cfg)
		defer closeLog()
		if err := loadInput(eng, args[0], cmd.InOrStdin()); err != nil {
			return err
		}
		return runStrings(cmd.OutOrStdout(), eng, stringsOptions{
			JSON:     jsonOutput,
			Sections: showSections,
			Color:    !cfg.NoColor && isTerminal(cmd.OutOrStdout()),
		})
	},
}

type stringsOptions struct {
	JSON     bool
	Sections bool
	Color    bool
}

func runStrings(w io.Writer, eng *engine.Engine, opts stringsOptions) error {
	records := eng.Records()
	if opts.JSON {
		if records == nil {
			records = []analysis.StringRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(formatRecord(r, opts.Sections && eng.Image() != nil))
		sb.WriteByte('\n')
	}
	return writeListing(w, sb.String(), opts.Color)
}

// formatRecord renders one listing line: offset, optional section tag, text
// and optional demangled annotation.
func formatRecord(r analysis.StringRecord, withSection bool) string {
	line := fmt.Sprintf("%08x  ", r.Offset)
	if withSection {
		section := r.Section
		if section == "" {
			section = "-"
		}
		line += fmt.Sprintf("[%s]  ", section)
	}
	line += r.Text
	if r.Demangled != "" {
		line += "  ; " + r.Demangled
	}
	return line
}

func writeListing(w io.Writer, listing string, color bool) error {
	if color {
		if colored, err := colorize.ColorizeListing(listing); err == nil {
			listing = colored
		}
	}
	_, err := io.WriteString(w, listing)
	return err
}

// loadInput loads path into eng, reading stdin when path is "-".
func loadInput(eng *engine.Engine, path string, stdin io.Reader) error {
	if path != "-" {
		return eng.LoadFile(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return eng.Load(data)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && termIsTerminal(f.Fd())
}

func init() {
	stringsCmd.Flags().BoolP("json", "j", false, "Output records as JSON")
	stringsCmd.Flags().BoolP("sections", "s", true, "Show the ELF section of each string when available")
	rootCmd.AddCommand(stringsCmd)
}
