package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"binlens/internal/engine"
	"binlens/internal/logging"
	blog "binlens/internal/binlens/log"
)

var termIsTerminal = term.IsTerminal

// openEngine returns an engine logging per cfg and a func that releases
// the logger.
func openEngine(cfg Config) (*engine.Engine, func()) {
	lg := logging.NewLogger()
	return newEngine(cfg, lg), func() { _ = lg.Close() }
}

func init() {
	rootCmd.PersistentFlags().IntP("min-length", "m", DefaultConfig().MinLength, "Shortest printable run reported as a string")
	rootCmd.PersistentFlags().Bool("demangle", false, "Annotate mangled C++ and Rust symbols")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the strings listing without the TUI")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "binlens [file]",
	Short: "Inspect strings and patch typed values in binary files",
	Long: `binlens loads a binary file, extracts its printable strings with the offsets they
came from, searches them, and rewrites little-endian numeric values in place.
Saving always writes the file's bytes verbatim; the strings view is read-only.`,
	Example: `
# Open a file in the interactive viewer
binlens /path/to/binary

# Print strings without the TUI
binlens -n /path/to/binary
  `,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		blog.Setup(cfg.Debug)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %v", err)
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		if !termIsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv("BINLENS_NO_COLOR", "1")
		}

		if noTUI {
			eng, closeLog := openEngine(cfg)
			defer closeLog()
			if err := eng.LoadFile(absPath); err != nil {
				return err
			}
			return runStrings(cmd.OutOrStdout(), eng, stringsOptions{
				Sections: true,
				Color:    !cfg.NoColor && isTerminal(cmd.OutOrStdout()),
			})
		}

		// The alt screen owns the terminal, so engine logs only go to a file.
		lg := logging.Discard()
		if os.Getenv("BINLENS_LOG_TO_FILE") == "1" {
			lg = logging.NewLogger()
		}
		defer lg.Close()

		program := tea.NewProgram(
			NewModel(absPath, newEngine(cfg, lg)),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func Execute() {
	// Bypass fang's styled output when piping so listings stay plain.
	if !termIsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
