// Package tui is the terminal dashboard shown when the agent runs with -tui
package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/dispatch"
	"github.com/thereceipt/print-agent/internal/printer"
)

// Executor runs text commands
type Executor interface {
	Execute(ctx context.Context, cmd string) *command.Result
}

// TViewApp is the dashboard: printers, recent jobs, status, logs and a
// command line
type TViewApp struct {
	App      *tview.Application
	executor Executor
	history  *JobHistory
	addr     string

	flex         *tview.Flex
	printersList *tview.List
	jobsTable    *tview.Table
	statusBox    *tview.TextView
	logsArea     *tview.TextView
	commandInput *tview.InputField

	printers  []printer.Descriptor
	startTime time.Time

	mu      sync.Mutex
	running bool
}

// NewTViewApp creates the dashboard. addr is shown in the status panel;
// executor may be set later with SetExecutor.
func NewTViewApp(executor Executor, addr string) *TViewApp {
	t := &TViewApp{
		App:       tview.NewApplication(),
		executor:  executor,
		history:   NewJobHistory(50),
		addr:      addr,
		startTime: time.Now(),
	}
	t.setupUI()
	return t
}

// SetExecutor sets where typed commands go
func (t *TViewApp) SetExecutor(executor Executor) {
	t.mu.Lock()
	t.executor = executor
	t.mu.Unlock()
}

func (t *TViewApp) setupUI() {
	t.printersList = tview.NewList()
	t.printersList.SetBorder(true)
	t.printersList.SetTitle("Printers")

	t.jobsTable = tview.NewTable()
	t.jobsTable.SetBorder(true)
	t.jobsTable.SetTitle("Recent Jobs")

	t.statusBox = tview.NewTextView()
	t.statusBox.SetBorder(true)
	t.statusBox.SetTitle("Agent Status")
	t.statusBox.SetDynamicColors(true)

	t.logsArea = tview.NewTextView()
	t.logsArea.SetBorder(true)
	t.logsArea.SetTitle("Logs")
	t.logsArea.SetDynamicColors(true)
	t.logsArea.SetScrollable(true)
	t.logsArea.SetMaxLines(500)
	t.logsArea.SetChangedFunc(func() {
		if t.isRunning() {
			go t.App.Draw()
		}
	})

	t.commandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetPlaceholder("Type a command (e.g., 'help')").
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEnter {
				cmd := t.commandInput.GetText()
				t.commandInput.SetText("")
				go t.executeCommand(cmd)
			}
		})

	topRow := tview.NewFlex().
		AddItem(t.printersList, 0, 1, false).
		AddItem(t.jobsTable, 0, 2, false).
		AddItem(t.statusBox, 0, 1, false)

	bottom := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.logsArea, 0, 3, false).
		AddItem(t.commandInput, 1, 0, true)

	t.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, false).
		AddItem(bottom, 0, 1, true)

	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if t.commandInput.HasFocus() {
			if event.Key() == tcell.KeyEsc {
				t.App.SetFocus(t.printersList)
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			t.App.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ':':
				t.App.SetFocus(t.commandInput)
				return nil
			case 'q':
				t.App.Stop()
				return nil
			case 'r':
				go t.executeCommand("refresh")
				return nil
			}
		}
		return event
	})

	t.App.SetRoot(t.flex, true).SetFocus(t.commandInput)
	t.renderPrinters()
	t.renderJobs()
	t.renderStatus()
}

// Run shows the dashboard until the user quits or ctx ends
func (t *TViewApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.setRunning(true)
	defer t.setRunning(false)

	go t.refreshTicker(ctx)
	go func() {
		<-ctx.Done()
		t.App.Stop()
	}()

	return t.App.Run()
}

func (t *TViewApp) setRunning(running bool) {
	t.mu.Lock()
	t.running = running
	t.mu.Unlock()
}

func (t *TViewApp) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// update applies f on the event loop without waiting for it, or directly
// when the loop is not running
func (t *TViewApp) update(f func()) {
	if !t.isRunning() {
		f()
		return
	}
	go t.App.QueueUpdateDraw(f)
}

func (t *TViewApp) refreshTicker(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.update(t.renderStatus)
		}
	}
}

// SetPrinters replaces the printers panel. Safe to call from any goroutine.
func (t *TViewApp) SetPrinters(list []printer.Descriptor) {
	list = append([]printer.Descriptor(nil), list...)
	t.update(func() {
		t.printers = list
		t.renderPrinters()
	})
}

// RecordOutcome adds a finished job to the jobs panel. Safe to call from any
// goroutine.
func (t *TViewApp) RecordOutcome(o dispatch.Outcome) {
	t.history.Add(o)
	t.update(func() {
		t.renderJobs()
		t.renderStatus()
	})
}

func (t *TViewApp) renderPrinters() {
	t.printersList.Clear()

	if len(t.printers) == 0 {
		t.printersList.AddItem("No printers detected", "press r to refresh", 0, nil)
		return
	}

	sorted := append([]printer.Descriptor(nil), t.printers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].IsDefault && !sorted[j].IsDefault })

	for _, p := range sorted {
		details := "spooler"
		if target, err := printer.ParseTarget(p.Name); err == nil {
			details = target.Kind.String()
		}
		if p.IsDefault {
			details += " • default"
		}
		t.printersList.AddItem("🖨  "+p.Name, details, 0, nil)
	}
}

func (t *TViewApp) renderJobs() {
	t.jobsTable.Clear()

	headers := []string{"Status", "Order", "Printer", "Time", "Error"}
	for i, h := range headers {
		t.jobsTable.SetCell(0, i, tview.NewTableCell(h).SetAlign(tview.AlignCenter).SetSelectable(false))
	}

	for i, o := range t.history.Recent() {
		row := i + 1
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		t.jobsTable.SetCell(row, 0, tview.NewTableCell(statusIcon(o)))
		t.jobsTable.SetCell(row, 1, tview.NewTableCell("#"+o.OrderID))
		t.jobsTable.SetCell(row, 2, tview.NewTableCell(o.Printer))
		t.jobsTable.SetCell(row, 3, tview.NewTableCell(o.At.Format("15:04:05")))
		t.jobsTable.SetCell(row, 4, tview.NewTableCell(errText).SetTextColor(tcell.ColorRed))
	}
}

func (t *TViewApp) renderStatus() {
	uptime := time.Since(t.startTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	printed, failed := t.history.Counts()

	t.statusBox.SetText(fmt.Sprintf(`[green]🟢 Running[white]

Uptime: %dh %dm
API: %s
Printed: %d
Failed: [red]%d[white]`, hours, minutes, t.addr, printed, failed))
}

func (t *TViewApp) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}

	t.AddLog(cmd, "command")

	switch strings.ToLower(cmd) {
	case "clear":
		t.logsArea.Clear()
		return
	case "quit", "exit":
		t.App.Stop()
		return
	}

	t.mu.Lock()
	executor := t.executor
	t.mu.Unlock()
	if executor == nil {
		t.AddLog("commands are not available yet", "warning")
		return
	}

	result := executor.Execute(context.Background(), cmd)
	if !result.Success {
		t.AddLog(result.Error, "error")
		return
	}
	if result.Message != "" {
		t.AddLog(result.Message, "info")
	}
	if list, ok := result.Data["printers"].([]map[string]interface{}); ok {
		for _, p := range list {
			t.AddLog(fmt.Sprintf("  %v", p["name"]), "info")
		}
	}
}

// AddLog appends a line to the logs panel
func (t *TViewApp) AddLog(message string, level string) {
	var color string
	var icon string

	switch level {
	case "error":
		color = "[red]"
		icon = "❌"
	case "warning":
		color = "[yellow]"
		icon = "⚠️"
	case "command":
		color = "[cyan]"
		icon = ">"
	default:
		color = "[white]"
		icon = "ℹ️"
	}

	timeStr := time.Now().Format("15:04:05")
	fmt.Fprintf(t.logsArea, "%s[%s] %s %s[white]\n", color, timeStr, icon, tview.Escape(message))
	t.logsArea.ScrollToEnd()
}

// LogWriter creates an io.Writer that writes to the logs panel
func (t *TViewApp) LogWriter() io.Writer {
	return &tviewLogWriter{app: t}
}

type tviewLogWriter struct {
	app *TViewApp
}

func (w *tviewLogWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line == "" {
			continue
		}
		level := "info"
		switch {
		case strings.Contains(line, "ERROR"):
			level = "error"
		case strings.Contains(line, "WARN"):
			level = "warning"
		}
		w.app.AddLog(line, level)
	}
	return len(p), nil
}
