// Package inspector provides an optional terminal UI for stepping
// through an optimizer run one engine action at a time: the sliding
// window, the current placeholder bindings, and a log of applied rules,
// updated live as the user steps. Grounded on the teacher's debugger TUI
// (debugger/tui.go): a tview.Application driving a fixed Flex layout of
// bordered TextViews, with a command input line and F-key shortcuts,
// built on gdamore/tcell and rivo/tview.
package inspector

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/taylorza/zopt/engine"
	"github.com/taylorza/zopt/langexpr"
	"github.com/taylorza/zopt/service"
)

// inspectorLog is the inspector package's diagnostic logger, the same
// ZOPT_DEBUG-gated pattern as service's serviceLog (teacher style,
// service/debugger_service.go's init()): silent by default, writing to a
// fixed temp-dir log file when ZOPT_DEBUG is set in the environment.
var inspectorLog *log.Logger

func init() {
	if os.Getenv("ZOPT_DEBUG") != "" {
		logPath := filepath.Join(os.TempDir(), "zopt-inspector-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			inspectorLog = log.New(os.Stderr, "INSPECTOR: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			inspectorLog = log.New(f, "INSPECTOR: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		inspectorLog = log.New(io.Discard, "", 0)
	}
}

// TUI is the step-through inspector.
type TUI struct {
	App     *tview.Application
	Pages   *tview.Pages
	Session *service.Session

	MainLayout   *tview.Flex
	WindowView   *tview.TextView
	BindingsView *tview.TextView
	HistoryView  *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField

	done    bool
	notices []string
}

// NewTUI builds an inspector TUI over an already-primed Session.
func NewTUI(session *service.Session) *TUI {
	return newTUI(session, tview.NewApplication())
}

// NewTUIWithScreen builds an inspector TUI against a caller-supplied
// tcell.Screen, so tests can drive it with tcell.NewSimulationScreen
// instead of a real terminal.
func NewTUIWithScreen(session *service.Session, screen tcell.Screen) *TUI {
	app := tview.NewApplication().SetScreen(screen)
	return newTUI(session, app)
}

func newTUI(session *service.Session, app *tview.Application) *TUI {
	t := &TUI{
		App:     app,
		Session: session,
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.RefreshAll()
	return t
}

func (t *TUI) initializeViews() {
	t.WindowView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.WindowView.SetBorder(true).SetTitle(" Window ")

	t.BindingsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.BindingsView.SetBorder(true).SetTitle(" Bindings ")

	t.HistoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.HistoryView.SetBorder(true).SetTitle(" Rules applied ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output so far ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command (step / run / quit) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	leftPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.WindowView, 0, 2, false).
		AddItem(t.BindingsView, 8, 0, false)

	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.HistoryView, 0, 1, false).
		AddItem(t.OutputView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPanel, 0, 1, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			t.executeCommand("step")
			return nil
		case tcell.KeyF5:
			t.executeCommand("run")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := strings.TrimSpace(t.CommandInput.GetText())
	t.CommandInput.SetText("")
	if cmd == "" {
		cmd = "step"
	}
	t.executeCommand(cmd)
}

// executeCommand interprets one command typed into the input field or
// triggered by a function key.
func (t *TUI) executeCommand(cmd string) {
	inspectorLog.Printf("executeCommand: %q", cmd)
	switch cmd {
	case "quit", "q":
		t.App.Stop()
		return
	case "step", "s":
		t.step()
	case "run", "r":
		for !t.done {
			if !t.step() {
				break
			}
		}
	default:
		t.flash(fmt.Sprintf("[red]unknown command:[white] %s", cmd))
	}
	t.RefreshAll()
}

func (t *TUI) step() bool {
	if t.done {
		return false
	}
	res, err := t.Session.Step()
	if err != nil {
		inspectorLog.Printf("step failed: %v", err)
		t.flash(fmt.Sprintf("[red]error:[white] %v", err))
		t.done = true
		return false
	}
	inspectorLog.Printf("step: outcome=%v", res.Outcome)
	if res.Outcome == engine.StepDone {
		t.done = true
		t.flash("[green]run complete[white]")
		return false
	}
	return true
}

func (t *TUI) flash(msg string) {
	t.notices = append(t.notices, msg)
}

// RefreshAll redraws every panel from the session's current state.
func (t *TUI) RefreshAll() {
	t.updateWindowView()
	t.updateBindingsView()
	t.updateHistoryView()
	t.updateOutputView()
	t.App.Draw()
}

func (t *TUI) updateWindowView() {
	t.WindowView.Clear()
	ws := t.Session.Window()
	if len(ws.Lines) == 0 {
		fmt.Fprintln(t.WindowView, "[yellow]window empty[white]")
		return
	}
	for i, line := range ws.Lines {
		fmt.Fprintf(t.WindowView, "%2d  %s\n", i, line)
	}
}

func (t *TUI) updateBindingsView() {
	t.BindingsView.Clear()
	ws := t.Session.Window()
	if len(ws.Bindings) == 0 {
		fmt.Fprintln(t.BindingsView, "[yellow]no bindings[white]")
		return
	}
	for i := 0; i < langexpr.NumSlots; i++ {
		if v, ok := ws.Bindings[i]; ok {
			fmt.Fprintf(t.BindingsView, "$%d = %q\n", i, v)
		}
	}
}

func (t *TUI) updateHistoryView() {
	t.HistoryView.Clear()
	for i, ev := range t.Session.Events() {
		fmt.Fprintf(t.HistoryView, "%3d  rule@line%d (#%d)\n", i+1, ev.RuleLine, ev.RuleIndex)
	}
}

func (t *TUI) updateOutputView() {
	t.OutputView.Clear()
	fmt.Fprint(t.OutputView, t.Session.Output())
	for _, msg := range t.notices {
		fmt.Fprintln(t.OutputView, msg)
	}
}

// Run starts the tview event loop.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.Pages, true).EnableMouse(true).Run()
}
