package guiapp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGUICreation(t *testing.T) {
	g := newGUI()
	require.NotNil(t, g)
	require.NotNil(t, g.Service)
	require.NotNil(t, g.BeforeView)
	require.NotNil(t, g.AfterView)
	require.NotNil(t, g.RulesPathLabel)
	require.NotNil(t, g.InputPathLabel)
}

func TestOnOptimizeWithoutFilesShowsNoCrash(t *testing.T) {
	g := newGUI()
	// Neither rulesPath nor inputPath set; onOptimize must not panic.
	g.onOptimize()
}

func TestDiffSummary(t *testing.T) {
	require.Equal(t, "2 lines -> 1 lines", diffSummary("a\nb\n", "c\n"))
	require.Equal(t, "1 lines -> 1 lines", diffSummary("a\n", "a\n"))
}
