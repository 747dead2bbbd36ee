// Package diffview renders a before/after unified diff of a rewrite,
// honoring the ambient config.Config.Diff section: context-line count
// and whether +/-/@@ lines get wrapped in ANSI color. This is the
// optimizer's counterpart to the teacher's config.Display.ColorOutput
// and debugger.CodeContextLinesBefore/After constants (debugger/
// constants.go), which size and color the source view around the
// instruction of interest the same way ours does around a rewrite.
package diffview

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/taylorza/zopt/config"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// Render builds a unified diff between before and after, keeping
// cfg.Diff.ContextLines of unchanged lines around each hunk and, when
// cfg.Diff.ColorOutput is set, wrapping added/removed/hunk-header lines
// in ANSI escapes the way a terminal diff tool would.
func Render(before, after string, cfg *config.Config) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  cfg.Diff.ContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", err
	}
	if !cfg.Diff.ColorOutput {
		return text, nil
	}
	return colorize(text), nil
}

func colorize(diffText string) string {
	lines := strings.Split(diffText, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File headers stay plain.
		case strings.HasPrefix(line, "+"):
			lines[i] = ansiGreen + line + ansiReset
		case strings.HasPrefix(line, "-"):
			lines[i] = ansiRed + line + ansiReset
		case strings.HasPrefix(line, "@@"):
			lines[i] = ansiCyan + line + ansiReset
		}
	}
	return strings.Join(lines, "\n")
}
