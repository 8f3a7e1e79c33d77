package main

import (
	"log/slog"
	"net/http"
	"os"

	_ "net/http/pprof" // profiling

	"binlens/internal/binlens/cmd"
	"binlens/internal/binlens/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("binlens terminated due to unhandled panic")
	})

	if os.Getenv("BINLENS_PROFILE") != "" {
		go func() {
			slog.Info("Serving pprof at localhost:6060")
			if httpErr := http.ListenAndServe("localhost:6060", nil); httpErr != nil {
				slog.Error("Failed to pprof listen", "error", httpErr)
			}
		}()
	}

	cmd.Execute()
}
