// Package command provides the text command surface shared by the HTTP API,
// the CLI and the dashboard
package command

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/internal/printer"
)

// Dispatcher prints one job
type Dispatcher interface {
	Dispatch(ctx context.Context, req order.PrintJobRequest) error
}

// Directory lists and refreshes known printers
type Directory interface {
	List() ([]printer.Descriptor, error)
	Refresh(ctx context.Context) []printer.Descriptor
}

// Previewer renders an order without printing it
type Previewer interface {
	RenderPNG(w io.Writer, rec *order.Record) error
}

// Executor executes commands
type Executor struct {
	dispatcher Dispatcher
	directory  Directory
	previewer  Previewer
	remote     bool
}

// NewExecutor creates a new command executor. previewer may be nil, in which
// case the preview command reports an error.
func NewExecutor(dispatcher Dispatcher, directory Directory, previewer Previewer) *Executor {
	return &Executor{
		dispatcher: dispatcher,
		directory:  directory,
		previewer:  previewer,
	}
}

// NewRemoteExecutor creates an executor for commands arriving over the
// network. It never touches the agent's filesystem: orders load from URLs
// only and preview is refused.
func NewRemoteExecutor(dispatcher Dispatcher, directory Directory) *Executor {
	return &Executor{
		dispatcher: dispatcher,
		directory:  directory,
		remote:     true,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(ctx context.Context, cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return &Result{
			Success: false,
			Error:   "empty command",
		}
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "print":
		return e.handlePrint(ctx, args)
	case "printers":
		return e.handlePrinters(args)
	case "refresh":
		return e.handleRefresh(ctx, args)
	case "preview":
		return e.handlePreview(ctx, args)
	case "help":
		return e.handleHelp(args)
	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s. Type 'help' for available commands", command),
		}
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		if char == '"' || char == '\'' {
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		} else if char == ' ' && !inQuotes {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
