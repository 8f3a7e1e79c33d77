// Package log installs the process-wide slog logger used by the CLI.
// Records are formatted by charmbracelet/log so slog output matches the
// engine logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup routes slog to stderr. Only the first call has an effect.
func Setup(debug bool) {
	SetupWithWriter(os.Stderr, debug)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(w io.Writer, debug bool) {
	initOnce.Do(func() {
		handler := charmlog.NewWithOptions(w, charmlog.Options{
			Level:        charmlog.InfoLevel,
			Prefix:       "binlens",
			ReportCaller: debug,
		})
		if debug {
			handler.SetLevel(charmlog.DebugLevel)
		}

		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic logs a recovered panic with its stack under name and then
// runs cleanup. Use it deferred.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}
	if Initialized() {
		slog.Error(fmt.Sprintf("Panic in %s", name),
			"panic", r,
			"stack", string(debug.Stack()))
	} else {
		fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", name, r, debug.Stack())
	}
	if cleanup != nil {
		cleanup()
	}
}
