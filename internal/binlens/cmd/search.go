package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"binlens/internal/engine"
)

var searchCmd = &cobra.Command{
	Use:   "search [file] [term]",
	Short: "Find a literal term in the extracted strings",
	Long: `Search the extracted strings for every non-overlapping, case-sensitive occurrence
of term. Each match is reported as line:column in the strings view together with
the file offset it came from.`,
	Example: `
# Find version tags
binlens search /path/to/binary GLIBC_
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")

		eng, closeLog := openEngine(cfg)
		defer closeLog()
		if err := loadInput(eng, args[0], cmd.InOrStdin()); err != nil {
			return err
		}
		return runSearch(cmd.OutOrStdout(), eng, args[1], jsonOutput, !cfg.NoColor && isTerminal(cmd.OutOrStdout()))
	},
}

// MatchOutput is one search hit in JSON output
type MatchOutput struct {
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Position   int    `json:"position"`
	FileOffset int    `json:"file_offset"`
	Text       string `json:"text"`
}

func runSearch(w io.Writer, eng *engine.Engine, term string, jsonOutput, color bool) error {
	set, err := eng.Search(term)
	if err != nil {
		return err
	}

	records := eng.Records()
	out := make([]MatchOutput, 0, set.Len())
	for _, p := range set.Positions {
		m := MatchOutput{Line: p.Line, Column: p.Column, Position: p.Offset, FileOffset: -1}
		if rec, off, ok := eng.Origin(p); ok {
			m.FileOffset = off
			m.Text = records[rec].Text
		}
		out = append(out, m)
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var sb strings.Builder
	for _, m := range out {
		// A term starting with the line separator has no originating byte.
		offset := "--------"
		if m.FileOffset >= 0 {
			offset = fmt.Sprintf("%08x", m.FileOffset)
		}
		fmt.Fprintf(&sb, "%d:%d  %s  %s\n", m.Line, m.Column, offset, m.Text)
	}
	if err := writeListing(w, sb.String(), color); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d match(es) for %q\n", set.Len(), term)
	return err
}

func init() {
	searchCmd.Flags().BoolP("json", "j", false, "Output matches as JSON")
	rootCmd.AddCommand(searchCmd)
}
