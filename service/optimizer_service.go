package service

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/taylorza/zopt/config"
	"github.com/taylorza/zopt/diffview"
	"github.com/taylorza/zopt/engine"
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/loader"
	"github.com/taylorza/zopt/rule"
)

// serviceLog is the service package's diagnostic logger, teacher style
// (service/debugger_service.go's init()): silent by default, writing to
// a fixed temp-dir log file when ZOPT_DEBUG is set in the environment.
var serviceLog *log.Logger

func init() {
	if os.Getenv("ZOPT_DEBUG") != "" {
		logPath := filepath.Join(os.TempDir(), "zopt-service-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			serviceLog = log.New(os.Stderr, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			serviceLog = log.New(f, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		serviceLog = log.New(io.Discard, "", 0)
	}
}

// OptimizerService owns one compiled rule set and hands out fresh
// engines for each run, guarded by a single mutex so the CLI, the
// inspector, the GUI, and the web API can all drive the same loaded
// rules safely.
//
// Lock Ordering:
// OptimizerService's mu guards rules/table/status only. A *Session
// returned by NewSession owns its own engine and is not safe for
// concurrent use by more than one caller; callers that hand a Session
// to a UI goroutine must not also drive it from another goroutine.
type OptimizerService struct {
	mu      sync.RWMutex
	cfg     *config.Config
	table   *intern.Table
	rules   []*rule.Rule
	status  Status
	lastErr error
}

// NewOptimizerService returns an OptimizerService with no rules loaded,
// using config.DefaultConfig() for its engine tunables and diff/stats
// formatting.
func NewOptimizerService() *OptimizerService {
	return NewOptimizerServiceWithConfig(config.DefaultConfig())
}

// NewOptimizerServiceWithConfig returns an OptimizerService with no
// rules loaded, applying cfg's engine tunables (rewrite cap, max window
// size ceiling) to every engine it builds and cfg's diff settings to
// every RunResult.Diff it renders.
func NewOptimizerServiceWithConfig(cfg *config.Config) *OptimizerService {
	return &OptimizerService{cfg: cfg, status: StatusIdle}
}

// LoadRules compiles the rule file at path and makes it the active rule
// set for future runs.
func (s *OptimizerService) LoadRules(path string) error {
	serviceLog.Printf("LoadRules: %s", path)
	eng, err := loader.LoadRules(path, s.cfg)
	if err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastErr = err
		s.mu.Unlock()
		serviceLog.Printf("LoadRules failed: %v", err)
		return err
	}
	s.mu.Lock()
	s.table = eng.Table
	s.rules = eng.Rules
	s.status = StatusIdle
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// LoadRulesFromText compiles rule-file content supplied directly (as the
// web API receives it) rather than read from disk.
func (s *OptimizerService) LoadRulesFromText(text string) error {
	table := intern.NewTable()
	rules, err := rule.Parse([]byte(text), table)
	if err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	if _, err := engine.NewWithLimits(table, rules, s.cfg.Engine.RewriteCap, s.cfg.Engine.MaxWindowSizeCeiling); err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.table = table
	s.rules = rules
	s.status = StatusIdle
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Status returns the service's last known status.
func (s *OptimizerService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LastError returns the error from the most recent failed load or run,
// if any.
func (s *OptimizerService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// RuleCount reports how many rules are currently loaded.
func (s *OptimizerService) RuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

func (s *OptimizerService) newEngine() (*engine.Engine, error) {
	s.mu.RLock()
	table, rules := s.table, s.rules
	s.mu.RUnlock()
	if table == nil {
		return nil, errNoRulesLoaded
	}
	return engine.NewWithLimits(table, rules, s.cfg.Engine.RewriteCap, s.cfg.Engine.MaxWindowSizeCeiling)
}

// OptimizeFile runs the loaded rules over inputPath and commits the
// result back atomically (loader.RunFile's contract).
func (s *OptimizerService) OptimizeFile(inputPath string) (*RunResult, error) {
	eng, err := s.newEngine()
	if err != nil {
		return nil, err
	}

	serviceLog.Printf("OptimizeFile: %s", inputPath)
	s.setStatus(StatusRunning)
	if err := loader.RunFile(eng, inputPath); err != nil {
		s.setFailed(err)
		serviceLog.Printf("OptimizeFile failed: %v", err)
		return nil, err
	}
	s.setStatus(StatusDone)

	return &RunResult{TotalRewrites: eng.Stats.TotalRewrites}, nil
}

// OptimizeText runs the loaded rules over an in-memory program and
// returns the rewritten text, without touching the filesystem — used by
// the GUI and the web API. The result's Diff is rendered per s.cfg.Diff.
func (s *OptimizerService) OptimizeText(input string) (string, *RunResult, error) {
	eng, err := s.newEngine()
	if err != nil {
		return "", nil, err
	}

	src := newTextSource(input)
	dst := &textSink{}

	serviceLog.Printf("OptimizeText: %d input lines", src.total)
	s.setStatus(StatusRunning)
	if err := eng.Run(src, dst); err != nil {
		s.setFailed(err)
		serviceLog.Printf("OptimizeText failed: %v", err)
		return "", nil, err
	}
	s.setStatus(StatusDone)

	out := dst.String()
	diffText, err := diffview.Render(input, out, s.cfg)
	if err != nil {
		serviceLog.Printf("diff render failed: %v", err)
		diffText = ""
	}
	return out, &RunResult{
		InputLineCount:  src.total,
		OutputLineCount: len(dst.lines),
		TotalRewrites:   eng.Stats.TotalRewrites,
		Diff:            diffText,
	}, nil
}

func (s *OptimizerService) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *OptimizerService) setFailed(err error) {
	s.mu.Lock()
	s.status = StatusFailed
	s.lastErr = err
	s.mu.Unlock()
}

// textSource adapts an in-memory string to engine.LineSource, splitting
// on the same LF/CR/CRLF boundaries rule.SplitLines recognizes for rule
// files.
type textSource struct {
	lines []string
	pos   int
	total int
}

func newTextSource(text string) *textSource {
	lines := rule.SplitLines([]byte(text))
	return &textSource{lines: lines, total: len(lines)}
}

func (t *textSource) ReadLine() (string, bool, error) {
	if t.pos >= len(t.lines) {
		return "", false, nil
	}
	line := t.lines[t.pos]
	t.pos++
	return line, true, nil
}

// textSink collects written lines in memory, joined with '\n' on String.
type textSink struct {
	lines []string
}

func (t *textSink) WriteLine(line string) error {
	t.lines = append(t.lines, line)
	return nil
}

func (t *textSink) String() string {
	if len(t.lines) == 0 {
		return ""
	}
	return strings.Join(t.lines, "\n") + "\n"
}
