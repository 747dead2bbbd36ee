// Package engine implements the sliding-window rewrite loop: it holds
// the fixed-capacity line window, drives rule matching in declaration
// order, applies the winning replacement, and emits lines that no rule
// claims. Everything here is single-threaded and synchronous, per the
// rewrite engine's concurrency model; only the ambient CLI/API/GUI
// layers above it use goroutines.
package engine

import (
	"github.com/taylorza/zopt/intern"
	"github.com/taylorza/zopt/langexpr"
	"github.com/taylorza/zopt/rule"
	"github.com/taylorza/zopt/zerr"
)

// DefaultRewriteCap bounds the number of consecutive rewrites the engine
// will apply at a single window position before treating the rule set as
// self-regenerating. The reference implementation has no such cap; this
// is the resolved open question from spec.md §9 item 3.
const DefaultRewriteCap = 1000

// LineSource supplies input lines one at a time, matching the external
// buffered-I/O collaborator's read_line contract: ReadLine returns
// ok=false once the source is exhausted.
type LineSource interface {
	ReadLine() (line string, ok bool, err error)
}

// LineSink receives output lines in emission order.
type LineSink interface {
	WriteLine(line string) error
}

// Engine is the window engine: one interning table, one compiled rule
// set, one fixed-capacity window, reused across an entire optimizer run.
// It is not safe for concurrent use.
type Engine struct {
	Table *intern.Table
	Rules []*rule.Rule

	// MaxWindowSize is the largest pattern_linecount across all rules,
	// clamped to rule.MaxWindowSize. It bounds how full the window is
	// ever kept.
	MaxWindowSize int

	// RewriteCap is the per-position consecutive-rewrite limit (spec.md
	// §9 open question 3). Zero means DefaultRewriteCap.
	RewriteCap int

	window     [rule.MaxWindowSize]string
	windowSize int
	bindings   langexpr.Bindings
	applies    int

	Stats Stats
}

// StepOutcome classifies what one call to Step did.
type StepOutcome int

const (
	// StepApplied means a rule matched at the current window position and
	// its replacement was spliced in; the window has not advanced.
	StepApplied StepOutcome = iota
	// StepEmitted means no rule matched at the current position, so its
	// front line was written out and the window advanced by one.
	StepEmitted
	// StepDone means the window is empty and there is nothing left to do.
	StepDone
)

// StepResult reports the outcome of a single Step call, for callers that
// want to observe the engine working one unit at a time (the inspector).
type StepResult struct {
	Outcome     StepOutcome
	Rule        *rule.Rule
	RuleIndex   int
	EmittedLine string
}

// Window returns a copy of the lines currently held in the sliding
// window, front to back.
func (e *Engine) Window() []string {
	out := make([]string, e.windowSize)
	copy(out, e.window[:e.windowSize])
	return out
}

// Bindings returns the placeholder bindings left by the most recent
// rule-match attempt, for display purposes. Right after a step that
// applied a rule they are that rule's bindings; after a step that
// emitted a line they hold whatever the last failed attempt captured.
func (e *Engine) Bindings() *langexpr.Bindings {
	return &e.bindings
}

// Prime fills the window from src so Step can be called directly,
// without going through Run.
func (e *Engine) Prime(src LineSource) error {
	return e.fill(src)
}

// Step performs one unit of engine work: it tries every rule in
// declaration order against the current window position, applies the
// first rule that matches and would change the window (StepApplied) and
// leaves the window at the
// same position, or — if nothing matches — writes the front line to dst
// and advances the window by one (StepEmitted). It reports StepDone once
// the window is empty. The window must already be primed (Run does this
// automatically; direct callers should call Prime first).
func (e *Engine) Step(src LineSource, dst LineSink) (*StepResult, error) {
	if e.windowSize == 0 {
		return &StepResult{Outcome: StepDone}, nil
	}

	r, ri, err := e.firstMatch()
	if err != nil {
		return nil, err
	}
	if r != nil {
		if e.applies >= e.rewriteCap() {
			return nil, zerr.At(zerr.InvalidRule, r.SourceLine,
				"rewrite cap exceeded: this rule keeps regenerating its own match at the same window position")
		}
		if err := e.splice(r, src); err != nil {
			return nil, err
		}
		e.Stats.recordApply(ri)
		e.applies++
		return &StepResult{Outcome: StepApplied, Rule: r, RuleIndex: ri}, nil
	}

	e.applies = 0
	line := e.window[0]
	if dst != nil {
		if err := dst.WriteLine(line); err != nil {
			return nil, err
		}
	}
	e.shift(1)
	if err := e.fill(src); err != nil {
		return nil, err
	}
	return &StepResult{Outcome: StepEmitted, EmittedLine: line}, nil
}

// New builds an Engine from a compiled rule set using the default
// rewrite cap and no ceiling on the computed max window size beyond
// rule.MaxWindowSize. See NewWithLimits for a version that honors
// config.Config's engine tunables.
func New(table *intern.Table, rules []*rule.Rule) (*Engine, error) {
	return NewWithLimits(table, rules, 0, 0)
}

// NewWithLimits builds an Engine from a compiled rule set, applying the
// ambient tunables a caller loaded from config.Config.Engine:
// rewriteCap bounds consecutive rewrites at one window position (<= 0
// means DefaultRewriteCap), and maxWindowCeiling clamps the computed max
// window size even if a rule file declares longer patterns than that
// (<= 0 means no additional ceiling beyond rule.MaxWindowSize). It
// rejects any rule whose replacement would overflow the resulting max
// window size (spec.md §9 open question 2: rejected at rule-compile
// time as InvalidRule).
func NewWithLimits(table *intern.Table, rules []*rule.Rule, rewriteCap, maxWindowCeiling int) (*Engine, error) {
	maxWindow := 1
	for _, r := range rules {
		if n := len(r.Pattern); n > maxWindow {
			maxWindow = n
		}
	}
	if maxWindow > rule.MaxWindowSize {
		maxWindow = rule.MaxWindowSize
	}
	if maxWindowCeiling > 0 && maxWindow > maxWindowCeiling {
		maxWindow = maxWindowCeiling
	}

	for _, r := range rules {
		if len(r.Replacement) > maxWindow {
			return nil, zerr.Atf(zerr.InvalidRule, r.SourceLine,
				"replacement has %d lines, exceeding the engine's max window size %d",
				len(r.Replacement), maxWindow)
		}
	}

	return &Engine{
		Table:         table,
		Rules:         rules,
		MaxWindowSize: maxWindow,
		RewriteCap:    rewriteCap,
		Stats:         newStats(len(rules)),
	}, nil
}

func (e *Engine) rewriteCap() int {
	if e.RewriteCap <= 0 {
		return DefaultRewriteCap
	}
	return e.RewriteCap
}

// fill reads from src until the window holds MaxWindowSize lines or src
// is exhausted.
func (e *Engine) fill(src LineSource) error {
	for e.windowSize < e.MaxWindowSize {
		line, ok, err := src.ReadLine()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		e.window[e.windowSize] = line
		e.windowSize++
	}
	return nil
}

// Run drains src through the rewrite loop and writes the rewritten
// program to dst, per spec.md §4.7. It repeatedly calls Step, which
// applies rules in declaration order and restarts the scan at the same
// window position (spec.md §4.7 step 2a) until nothing matches, then
// emits the front line and advances.
func (e *Engine) Run(src LineSource, dst LineSink) error {
	if err := e.fill(src); err != nil {
		return err
	}
	for {
		res, err := e.Step(src, dst)
		if err != nil {
			return err
		}
		if res.Outcome == StepDone {
			return nil
		}
	}
}

// firstMatch returns the first rule (in declaration order) that
// structurally matches the current window, whose constraint, if any,
// evaluates non-zero, and whose rendered replacement would change the
// window, leaving e.bindings populated from that rule's match. A rule
// whose replacement reproduces the matched lines exactly is a no-op and
// is passed over. It returns (nil, -1) if no rule applies.
func (e *Engine) firstMatch() (*rule.Rule, int, error) {
	for ri, r := range e.Rules {
		e.bindings.Reset()
		if !rule.MatchRule(r, e.window[:e.windowSize], &e.bindings) {
			continue
		}
		if r.Constraint != nil {
			v, err := langexpr.Evaluate(r.Constraint, &e.bindings, r.SourceLine)
			if err != nil {
				return nil, -1, err
			}
			if v == 0 {
				continue
			}
		}
		if len(r.Replacement) == len(r.Pattern) {
			same := true
			for i, tmpl := range r.Replacement {
				out, err := rule.SubstituteLine(tmpl.String(), &e.bindings, e.Table, r.SourceLine)
				if err != nil {
					return nil, -1, err
				}
				if r.ReplacementBlank[i] || out != e.window[i] {
					same = false
					break
				}
			}
			if same {
				continue
			}
		}
		return r, ri, nil
	}
	return nil, -1, nil
}

// splice applies r's replacement at the front of the window: render each
// replacement line, compact the remainder of the window down, and
// refill the tail from src. See spec.md §4.8.
func (e *Engine) splice(r *rule.Rule, src LineSource) error {
	p := len(r.Pattern)

	rendered := make([]string, 0, len(r.Replacement))
	for i, tmpl := range r.Replacement {
		if r.ReplacementBlank[i] {
			continue
		}
		out, err := rule.SubstituteLine(tmpl.String(), &e.bindings, e.Table, r.SourceLine)
		if err != nil {
			return err
		}
		rendered = append(rendered, out)
	}
	rlen := len(rendered)

	tail := append([]string(nil), e.window[p:e.windowSize]...)
	newSize := rlen + len(tail)
	if newSize > rule.MaxWindowSize {
		return zerr.At(zerr.InvalidRule, r.SourceLine, "replacement would overflow the window buffer")
	}

	copy(e.window[:rlen], rendered)
	copy(e.window[rlen:newSize], tail)
	e.windowSize = newSize

	return e.fill(src)
}

// shift drops the first n lines of the window, moving the remainder to
// the front.
func (e *Engine) shift(n int) {
	if n >= e.windowSize {
		e.windowSize = 0
		return
	}
	copy(e.window[:e.windowSize-n], e.window[n:e.windowSize])
	e.windowSize -= n
}
