package cmd

import (
	"fmt"
	"os"
	"strconv"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"binlens/internal/analysis"
	"binlens/internal/engine"
	"binlens/internal/logging"
)

// Config represents configuration for the binlens tool
type Config struct {
	MinLength int  `json:"minLength" jsonschema:"title=Minimum Length,description=Shortest printable run reported as a string,minimum=1,default=4"`
	Demangle  bool `json:"demangle" jsonschema:"title=Demangle,description=Annotate mangled C++ and Rust symbols with their demangled form"`
	NoColor   bool `json:"noColor" jsonschema:"title=No Color,description=Disable colored output"`
	Debug     bool `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{MinLength: analysis.DefaultMinLength}
}

// configFromEnv applies BINLENS_MIN_LENGTH, BINLENS_DEMANGLE and
// BINLENS_NO_COLOR on top of cfg.
func configFromEnv(cfg Config) (Config, error) {
	if v := os.Getenv("BINLENS_MIN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("BINLENS_MIN_LENGTH: %v", err)
		}
		cfg.MinLength = n
	}
	if v := os.Getenv("BINLENS_DEMANGLE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("BINLENS_DEMANGLE: %v", err)
		}
		cfg.Demangle = on
	}
	if os.Getenv("BINLENS_NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return cfg, nil
}

// loadConfig resolves defaults, then environment, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg, err := configFromEnv(DefaultConfig())
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("min-length") {
		cfg.MinLength, _ = flags.GetInt("min-length")
	}
	if flags.Changed("demangle") {
		cfg.Demangle, _ = flags.GetBool("demangle")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}

	if cfg.MinLength < 1 {
		return cfg, fmt.Errorf("min-length must be at least 1, got %d", cfg.MinLength)
	}
	if cfg.NoColor {
		os.Setenv("BINLENS_NO_COLOR", "1")
	}
	return cfg, nil
}

// newEngine builds an engine configured from cfg, logging through lg.
func newEngine(cfg Config, lg *logging.LoggerCloser) *engine.Engine {
	if cfg.Debug {
		lg.SetLevel(charmlog.DebugLevel)
	}
	return engine.New(
		engine.WithMinLength(cfg.MinLength),
		engine.WithDemangle(cfg.Demangle),
		engine.WithLogger(lg),
	)
}
