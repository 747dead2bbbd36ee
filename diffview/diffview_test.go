package diffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylorza/zopt/config"
)

func TestRenderMarksAddedAndRemovedLines(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Diff.ColorOutput = false

	out, err := Render("ld a, 0\nret\n", "xor a\nret\n", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "-ld a, 0")
	require.Contains(t, out, "+xor a")
}

func TestRenderIdenticalTextProducesNoHunks(t *testing.T) {
	cfg := config.DefaultConfig()
	out, err := Render("ret\n", "ret\n", cfg)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestRenderColorOutputWrapsChangedLines(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Diff.ColorOutput = true

	out, err := Render("ld a, 0\n", "xor a\n", cfg)
	require.NoError(t, err)
	require.True(t, strings.Contains(out, ansiRed) || strings.Contains(out, ansiGreen))
	require.Contains(t, out, ansiReset)
}
