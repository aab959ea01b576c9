package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/internal/printer"
)

// handlePrint handles print commands
// Usage: print <printer-name> <order-path|order-url>
func (e *Executor) handlePrint(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return &Result{
			Success: false,
			Error:   "usage: print <printer-name> <order-path|order-url>",
		}
	}

	printerName := args[0]
	rec, err := e.loadOrder(ctx, args[1])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to load order: %v", err),
			Data:    map[string]interface{}{"kind": "validation"},
		}
	}

	req := order.PrintJobRequest{PrinterName: printerName, Order: *rec}
	if err := e.dispatcher.Dispatch(ctx, req); err != nil {
		return &Result{
			Success: false,
			Error:   err.Error(),
			Data: map[string]interface{}{
				"kind":     ErrorKind(err),
				"order_id": rec.ID.String(),
				"printer":  printerName,
			},
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Order %s sent to %s", rec.ID, printerName),
		Data: map[string]interface{}{
			"order_id": rec.ID.String(),
			"printer":  printerName,
		},
	}
}

// handlePrinters lists the cached printers
// Usage: printers
func (e *Executor) handlePrinters(args []string) *Result {
	list, err := e.directory.List()
	if err != nil {
		return &Result{
			Success: false,
			Error:   err.Error(),
			Data:    map[string]interface{}{"kind": ErrorKind(err)},
		}
	}
	return printersResult(list)
}

// handleRefresh enumerates printers again
// Usage: refresh
func (e *Executor) handleRefresh(ctx context.Context, args []string) *Result {
	return printersResult(e.directory.Refresh(ctx))
}

// handlePreview renders an order to a PNG file without printing it
// Usage: preview <order-path|order-url> <output.png>
func (e *Executor) handlePreview(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return &Result{
			Success: false,
			Error:   "usage: preview <order-path|order-url> <output.png>",
		}
	}
	if e.remote {
		return &Result{
			Success: false,
			Error:   "preview writes local files and is not available remotely; POST the order to /preview instead",
		}
	}
	if e.previewer == nil {
		return &Result{
			Success: false,
			Error:   "preview is not available",
		}
	}

	rec, err := e.loadOrder(ctx, args[0])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to load order: %v", err),
		}
	}

	out, err := os.Create(args[1])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to create output: %v", err),
		}
	}
	renderErr := e.previewer.RenderPNG(out, rec)
	closeErr := out.Close()
	if renderErr != nil {
		os.Remove(args[1])
		return &Result{
			Success: false,
			Error:   renderErr.Error(),
			Data:    map[string]interface{}{"kind": ErrorKind(renderErr)},
		}
	}
	if closeErr != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to write output: %v", closeErr),
		}
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Preview of order %s written to %s", rec.ID, args[1]),
		Data:    map[string]interface{}{"path": args[1]},
	}
}

// handleHelp handles help command
func (e *Executor) handleHelp(args []string) *Result {
	helpText := `Available Commands:

  printers
    List the printers from the last successful refresh

  refresh
    Discover printers again and update the cached list
`
	if e.remote {
		helpText += `
  print <printer-name> <order-url>
    Fetch an order and send it to a printer
`
	} else {
		helpText += `
  print <printer-name> <order-path|order-url>
    Render an order and send it to a printer

  preview <order-path|order-url> <output.png>
    Render an order to a PNG file without printing
`
	}
	helpText += `
  help
    Show this help message

Printer names:
  Kitchen                   spooler queue name
  tcp://192.168.1.50:9100   raw ESC/POS over the network
  serial:/dev/ttyUSB0@9600  raw ESC/POS over a serial port
  usb:04b8:0202             raw ESC/POS over USB

Examples:
  print "Balcao Epson" https://pos.local/orders/7.json
`
	if !e.remote {
		helpText += `  print Kitchen ./order.json
  preview ./order.json ./order.png
`
	}

	return &Result{
		Success: true,
		Message: helpText,
	}
}

// ErrorKind names the class of a dispatch or directory error
func ErrorKind(err error) string {
	var ve *apperr.ValidationError
	var re *apperr.RenderError
	var pe *apperr.PrintError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &re):
		return "render"
	case errors.As(err, &pe):
		return "print"
	case errors.Is(err, apperr.ErrDirectoryUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

func printersResult(list []printer.Descriptor) *Result {
	names := make([]map[string]interface{}, len(list))
	for i, p := range list {
		names[i] = map[string]interface{}{
			"name":      p.Name,
			"isDefault": p.IsDefault,
		}
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Found %d printer(s)", len(list)),
		Data: map[string]interface{}{
			"printers": names,
		},
	}
}

// loadOrder reads an order from an http(s) URL, or from a file when the
// executor is local
func (e *Executor) loadOrder(ctx context.Context, source string) (*order.Record, error) {
	var data []byte
	var err error
	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err = fetchOrder(ctx, source)
	case e.remote:
		return nil, errors.New("remote commands cannot read local files; send an http(s) order URL")
	default:
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var rec order.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse order: %w", err)
	}
	return &rec, nil
}

func fetchOrder(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch order: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order from URL: %w", err)
	}
	return data, nil
}
