// Package service provides a thread-safe facade over loader and engine,
// shared by the CLI, the inspector TUI, the GUI, and the web API.
// Grounded on the teacher's service package (service/debugger_service.go,
// service/types.go): a mutex-guarded struct wrapping the core execution
// engine, with small value types describing observable state for the
// front-ends to render.
package service

// Status is a snapshot of where a run currently stands.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WindowState is a point-in-time view of the engine's sliding window,
// for front-ends that want to show the user what the engine is looking
// at right now.
type WindowState struct {
	Lines    []string
	Bindings map[int]string
}

// RewriteEvent records one applied rule, in firing order, for the
// inspector's history pane.
type RewriteEvent struct {
	RuleIndex  int
	RuleLine   int
	WindowLine int
}

// RunResult summarizes a completed optimize run.
type RunResult struct {
	InputLineCount  int
	OutputLineCount int
	Rewrites        []RewriteEvent
	TotalRewrites   uint64

	// Diff is a unified before/after diff rendered per the service's
	// config.Config.Diff settings (context lines, color output). Only
	// populated by OptimizeText, which has both texts in hand; empty for
	// OptimizeFile, which streams the rewrite to disk instead.
	Diff string
}
