package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFromEnv(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"", false, true},
		{"warn", false, false},
		{"error", false, false},
	}
	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			t.Setenv("BINLENS_LOG_LEVEL", tt.level)
			var buf bytes.Buffer
			lg := NewLoggerWithWriter(&buf)

			lg.Debug("debug line")
			lg.Info("info line")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
			assert.Equal(t, tt.wantDebug, lg.GetLevel() == log.DebugLevel)
		})
	}
}

func TestLoggerPrefix(t *testing.T) {
	t.Setenv("BINLENS_LOG_PREFIX", "scan ")
	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Info("loaded", "bytes", 42)

	assert.Contains(t, buf.String(), "scan")
	assert.Contains(t, buf.String(), "bytes=42")
	require.NoError(t, lg.Close())
}

func TestDiscard(t *testing.T) {
	lg := Discard()
	lg.Error("dropped")
	assert.NoError(t, lg.Close())
}
