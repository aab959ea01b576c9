package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/dispatch"
	"github.com/thereceipt/print-agent/internal/printer"
)

type fakeExecutor struct {
	got    []string
	result *command.Result
}

func (f *fakeExecutor) Execute(_ context.Context, cmd string) *command.Result {
	f.got = append(f.got, cmd)
	return f.result
}

func TestJobHistory_KeepsNewestFirst(t *testing.T) {
	h := NewJobHistory(2)
	for i := 1; i <= 3; i++ {
		h.Add(dispatch.Outcome{OrderID: fmt.Sprint(i)})
	}
	h.Add(dispatch.Outcome{OrderID: "4", Err: errors.New("offline")})

	recent := h.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "4", recent[0].OrderID)
	assert.Equal(t, "3", recent[1].OrderID)

	printed, failed := h.Counts()
	assert.Equal(t, 3, printed)
	assert.Equal(t, 1, failed)
}

func TestTViewApp_ExecuteCommandLogsResult(t *testing.T) {
	exec := &fakeExecutor{result: &command.Result{
		Success: true,
		Message: "Found 1 printer(s)",
		Data: map[string]interface{}{
			"printers": []map[string]interface{}{{"name": "Kitchen", "isDefault": true}},
		},
	}}
	app := NewTViewApp(exec, ":4000")

	app.executeCommand("printers")

	assert.Equal(t, []string{"printers"}, exec.got)
	text := app.logsArea.GetText(true)
	assert.Contains(t, text, "Found 1 printer(s)")
	assert.Contains(t, text, "Kitchen")
}

func TestTViewApp_ExecuteCommandError(t *testing.T) {
	exec := &fakeExecutor{result: &command.Result{Error: "printer list unavailable"}}
	app := NewTViewApp(exec, ":4000")

	app.executeCommand("printers")
	assert.Contains(t, app.logsArea.GetText(true), "printer list unavailable")

	app.executeCommand("clear")
	assert.Empty(t, app.logsArea.GetText(true))
	assert.Len(t, exec.got, 1)
}

func TestTViewApp_PanelsBeforeRun(t *testing.T) {
	app := NewTViewApp(&fakeExecutor{}, ":4000")

	app.SetPrinters([]printer.Descriptor{{Name: "Bar"}, {Name: "tcp://10.0.0.5", IsDefault: true}})
	require.Equal(t, 2, app.printersList.GetItemCount())
	main, secondary := app.printersList.GetItemText(0)
	assert.Contains(t, main, "tcp://10.0.0.5")
	assert.Contains(t, secondary, "default")

	app.RecordOutcome(dispatch.Outcome{OrderID: "7", Printer: "Bar", At: time.Now(), Err: errors.New("offline")})
	assert.Equal(t, "#7", app.jobsTable.GetCell(1, 1).Text)
	assert.Equal(t, "offline", app.jobsTable.GetCell(1, 4).Text)
	assert.Contains(t, app.statusBox.GetText(true), "Failed: 1")
}

func TestLogWriter_SplitsLines(t *testing.T) {
	app := NewTViewApp(&fakeExecutor{}, ":4000")

	_, err := app.LogWriter().Write([]byte("12:00:00\tINFO\tagent started\n12:00:01\tERROR\tprint failed\n"))
	require.NoError(t, err)

	text := app.logsArea.GetText(true)
	assert.Contains(t, text, "agent started")
	assert.Contains(t, text, "print failed")
}
