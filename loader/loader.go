// Package loader turns a rule-file path and an input-program path into a
// ready-to-run engine.Engine, and commits the rewritten program back to
// disk atomically: write to a sibling ".tmp" file, then unlink the
// original and rename the temp file over it, per spec.md §6. Retargeted
// from the teacher's "load a parsed program into the VM" loader
// responsibility (loader/loader.go) to "load rules + program into the
// window engine."
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/taylorza/zopt/config"
	"github.com/taylorza/zopt/engine"
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/rule"
	"github.com/taylorza/zopt/zerr"
)

// LoadRules reads and compiles the rule file at path into an
// *engine.Engine, sharing a fresh intern.Table across the rule set. The
// engine's rewrite cap and max window size ceiling are taken from
// cfg.Engine; pass config.DefaultConfig() for the built-in defaults.
func LoadRules(path string, cfg *config.Config) (*engine.Engine, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified rule file path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.New(zerr.FileNotFound, fmt.Sprintf("rule file not found: %s", path))
		}
		return nil, zerr.New(zerr.FileNotFound, err.Error())
	}

	table := intern.NewTable()
	rules, err := rule.Parse(data, table)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewWithLimits(table, rules, cfg.Engine.RewriteCap, cfg.Engine.MaxWindowSizeCeiling)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// fileSource adapts a bufio.Scanner to engine.LineSource. Scanner
// already normalizes LF/CR/CRLF terminators and line-length handling is
// done by rule.SplitLines-equivalent truncation applied here per line.
type fileSource struct {
	scanner *bufio.Scanner
}

func newFileSource(r io.Reader) *fileSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1024*1024)
	s.Split(scanLinesAnyEnding)
	return &fileSource{scanner: s}
}

func (f *fileSource) ReadLine() (string, bool, error) {
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	line := f.scanner.Text()
	if len(line) > rule.MaxLineLength {
		line = line[:rule.MaxLineLength]
	}
	return line, true, nil
}

// scanLinesAnyEnding is bufio.ScanLines generalized to also split on a
// bare '\r' (old Mac line endings), matching spec.md §6's "LF, CR, or
// CRLF" input contract; bufio.ScanLines alone only understands LF and
// CRLF.
func scanLinesAnyEnding(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			return i + 1, dropCR(data[:i]), nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Not enough data to know if '\r' is followed by '\n'.
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

// fileSink writes lines terminated by a single '\n', per spec.md §6's
// output normalization.
type fileSink struct {
	w *bufio.Writer
}

func newFileSink(w io.Writer) *fileSink {
	return &fileSink{w: bufio.NewWriter(w)}
}

func (f *fileSink) WriteLine(line string) error {
	if _, err := f.w.WriteString(line); err != nil {
		return err
	}
	return f.w.WriteByte('\n')
}

func (f *fileSink) Flush() error {
	return f.w.Flush()
}

// RunFile loads inputPath's lines through eng and commits the rewritten
// program over inputPath atomically: output is first written to
// "<inputPath>.tmp", then the original is unlinked and the temp file is
// renamed into place. A failure between unlink and rename leaves the
// output sitting in the temp path, per spec.md §6.
func RunFile(eng *engine.Engine, inputPath string) error {
	in, err := os.Open(inputPath) // #nosec G304 -- user-specified input file path
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.New(zerr.FileNotFound, fmt.Sprintf("input file not found: %s", inputPath))
		}
		return zerr.New(zerr.FileNotFound, err.Error())
	}
	defer in.Close()

	tmpPath := inputPath + ".tmp"
	out, err := os.Create(tmpPath) // #nosec G304 -- sibling temp file of a user-specified path
	if err != nil {
		return zerr.New(zerr.OutOfMemory, err.Error())
	}

	src := newFileSource(in)
	sink := newFileSink(out)

	runErr := eng.Run(src, sink)
	flushErr := sink.Flush()
	closeErr := out.Close()

	if runErr != nil {
		os.Remove(tmpPath)
		return runErr
	}
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return closeErr
	}

	if err := os.Remove(inputPath); err != nil {
		return err
	}
	return os.Rename(tmpPath, inputPath)
}
