package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# binlens\n\n- **size** 42 bytes\n", 60)
	assert.Contains(t, out, "binlens")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "bytes")
}

func TestGetMarkdownRenderer(t *testing.T) {
	assert.NotNil(t, GetMarkdownRenderer(40))
}
