package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"binlens/internal/analysis"
	"binlens/internal/codec"
	"binlens/internal/engine"
)

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Find a typed value and rewrite it in place",
	Long: `Scan the file at every byte offset for the first little-endian value of --type
that matches --find (or --value when --find is omitted) and overwrite it with
--value. Floats match within an absolute tolerance of 0.001; integers match exactly.

Types: float, int, unsigned int, short, unsigned short.`,
	Example: `
# Replace the first float equal to 1.0 with 2.0, writing a copy
binlens edit game.sav --type float --find 1.0 --value 2.0 -o patched.sav

# Only report where a short would be written
binlens edit --dry-run --type short --value 1337 data.bin
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := editOptions{}
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.Value, _ = cmd.Flags().GetString("value")
		opts.Find, _ = cmd.Flags().GetString("find")
		opts.Output, _ = cmd.Flags().GetString("output")
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

		if args[0] == "-" && opts.Output == "" && !opts.DryRun {
			return fmt.Errorf("--output is required when reading from stdin")
		}

		eng, closeLog := openEngine(cfg)
		defer closeLog()
		if err := loadInput(eng, args[0], cmd.InOrStdin()); err != nil {
			return err
		}
		return runEdit(cmd.OutOrStdout(), eng, opts)
	},
}

type editOptions struct {
	Type   string
	Value  string
	Find   string
	Output string
	DryRun bool
}

func runEdit(w io.Writer, eng *engine.Engine, opts editOptions) error {
	if opts.Type == "" || opts.Value == "" {
		return fmt.Errorf("--type and --value are required")
	}
	find := opts.Find
	if find == "" {
		find = opts.Value
	}

	if opts.DryRun {
		hit, err := eng.FindValue(opts.Type, find)
		if err != nil {
			return err
		}
		_, hex := analysis.FormatRecovered(hit.Bytes)
		_, err = fmt.Fprintf(w, "%s %s found at 0x%08x (%s)\n", hit.Kind.Key(), find, hit.Offset, hex)
		return err
	}

	edit, err := eng.ReplaceValue(opts.Type, find, opts.Value)
	if err != nil {
		return err
	}
	_, oldHex := analysis.FormatRecovered(edit.Old)
	_, newHex := analysis.FormatRecovered(edit.New)
	if _, err := fmt.Fprintf(w, "%s written at 0x%08x (%s -> %s)\n", edit.Kind.Key(), edit.Offset, oldHex, newHex); err != nil {
		return err
	}

	if err := eng.SaveFile(opts.Output); err != nil {
		return err
	}
	dest := opts.Output
	if dest == "" {
		dest = eng.Path()
	}
	_, err = fmt.Fprintf(w, "saved %d bytes to %s\n", eng.Len(), dest)
	return err
}

func init() {
	editCmd.Flags().StringP("type", "t", "", "Value type: "+strings.Join(typeKeys(), ", "))
	editCmd.Flags().StringP("value", "v", "", "Value to write")
	editCmd.Flags().String("find", "", "Value to search for (defaults to --value)")
	editCmd.Flags().StringP("output", "o", "", "Write the result here instead of overwriting the input")
	editCmd.Flags().Bool("dry-run", false, "Report the offset without writing")
	rootCmd.AddCommand(editCmd)
}

func typeKeys() []string {
	keys := make([]string, 0, len(codec.Kinds))
	for _, k := range codec.Kinds {
		keys = append(keys, k.Key())
	}
	return keys
}
