// Package dispatch runs a print job from request to printer and cleans up
// after it.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/artifact"
	"github.com/thereceipt/print-agent/internal/order"
)

// ReceiptRenderer turns an order into a document on disk and removes it again
type ReceiptRenderer interface {
	Render(ctx context.Context, rec *order.Record) (artifact.Document, error)
	Remove(doc artifact.Document) error
}

// Printer submits a document file to a named printer
type Printer interface {
	Print(ctx context.Context, path, printerName string) error
}

// Outcome describes one job that reached the printer
type Outcome struct {
	OrderID string
	Printer string
	Err     error
	At      time.Time
}

// Dispatcher validates, renders, prints and cleans up print jobs. Jobs are
// independent; nothing is queued or retried.
type Dispatcher struct {
	renderer ReceiptRenderer
	printer  Printer
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.RWMutex
	subscribers []func(Outcome)
}

// New creates a dispatcher.
func New(renderer ReceiptRenderer, printer Printer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		renderer: renderer,
		printer:  printer,
		logger:   logger.Named("dispatch"),
		now:      time.Now,
	}
}

// Subscribe registers fn to be called after every job that reached the
// printer. fn runs on the dispatching goroutine.
func (d *Dispatcher) Subscribe(fn func(Outcome)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

// Dispatch prints req. It returns a *apperr.ValidationError when required
// fields are missing, a *apperr.RenderError when the order cannot be laid out,
// and a *apperr.PrintError when the printer rejects the document. The rendered
// document is removed exactly once whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req order.PrintJobRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	doc, err := d.renderer.Render(ctx, &req.Order)
	if err != nil {
		return err
	}
	defer d.cleanup(doc)

	log := d.logger.With(
		zap.String("order_id", req.Order.ID.String()),
		zap.String("printer", req.PrinterName),
	)

	printErr := d.printer.Print(ctx, doc.Path, req.PrinterName)
	d.publish(Outcome{
		OrderID: req.Order.ID.String(),
		Printer: req.PrinterName,
		Err:     printErr,
		At:      d.now(),
	})

	if printErr != nil {
		log.Error("print failed", zap.Error(printErr))
		var pe *apperr.PrintError
		if errors.As(printErr, &pe) {
			return pe
		}
		return &apperr.PrintError{Printer: req.PrinterName, Err: printErr}
	}

	log.Info("order printed")
	return nil
}

func (d *Dispatcher) cleanup(doc artifact.Document) {
	if err := d.renderer.Remove(doc); err != nil {
		d.logger.Warn("failed to remove rendered receipt",
			zap.String("path", doc.Path),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) publish(o Outcome) {
	d.mu.RLock()
	subs := make([]func(Outcome), len(d.subscribers))
	copy(subs, d.subscribers)
	d.mu.RUnlock()

	for _, fn := range subs {
		fn(o)
	}
}
