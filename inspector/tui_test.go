package inspector

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/taylorza/zopt/service"
)

func newTestSession(t *testing.T) *service.Session {
	t.Helper()
	svc := service.NewOptimizerService()
	require.NoError(t, svc.LoadRulesFromText("pattern:\nld a, $0\nreplacement:\nxor $0\n"))
	sess, err := svc.NewSession("ld a, 7\nret\n")
	require.NoError(t, err)
	return sess
}

func newTestTUI(t *testing.T) *TUI {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	return NewTUIWithScreen(newTestSession(t), screen)
}

func TestNewTUIRendersInitialWindow(t *testing.T) {
	tui := newTestTUI(t)
	require.Contains(t, tui.WindowView.GetText(true), "ld a, 7")
}

func TestExecuteCommandStepAppliesRule(t *testing.T) {
	tui := newTestTUI(t)
	tui.executeCommand("step")
	require.Contains(t, tui.BindingsView.GetText(true), "$0")
	require.False(t, tui.done)
}

func TestExecuteCommandRunCompletes(t *testing.T) {
	tui := newTestTUI(t)
	tui.executeCommand("run")
	require.True(t, tui.done)
	require.Equal(t, "xor 7\nret\n", tui.Session.Output())
}

func TestExecuteCommandUnknownFlashesError(t *testing.T) {
	tui := newTestTUI(t)
	tui.executeCommand("bogus")
	require.Contains(t, tui.OutputView.GetText(true), "unknown command")
}

func TestHandleCommandClearsInputOnEnter(t *testing.T) {
	tui := newTestTUI(t)
	tui.CommandInput.SetText("step")
	tui.handleCommand(tcell.KeyEnter)
	require.Equal(t, "", tui.CommandInput.GetText())
}
