package directory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/printer"
)

// Watcher refreshes a directory on a fixed interval and reports printers
// that appeared or disappeared between refreshes
type Watcher struct {
	directory *Directory
	interval  time.Duration
	logger    *zap.Logger

	onAdded   func(printer.Descriptor)
	onRemoved func(string)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher. A zero interval disables it.
func NewWatcher(directory *Directory, interval time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		directory: directory,
		interval:  interval,
		logger:    logger.Named("watcher"),
	}
}

// OnAdded sets a callback for printers that appeared
func (w *Watcher) OnAdded(callback func(printer.Descriptor)) {
	w.onAdded = callback
}

// OnRemoved sets a callback for printers that disappeared
func (w *Watcher) OnRemoved(callback func(string)) {
	w.onRemoved = callback
}

// Start begins refreshing in the background, using initial as the known
// list. It returns immediately; Stop ends it.
func (w *Watcher) Start(ctx context.Context, initial []printer.Descriptor) {
	if w.interval <= 0 {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	previous := namesOf(initial)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				previous = w.check(ctx, previous)
			}
		}
	}()
}

// Stop ends the background refresh and waits for it to finish
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) check(ctx context.Context, previous map[string]printer.Descriptor) map[string]printer.Descriptor {
	current := namesOf(w.directory.Refresh(ctx))

	for name, p := range current {
		if _, exists := previous[name]; !exists {
			w.logger.Info("printer added", zap.String("printer", name))
			if w.onAdded != nil {
				w.onAdded(p)
			}
		}
	}

	for name := range previous {
		if _, exists := current[name]; !exists {
			w.logger.Info("printer removed", zap.String("printer", name))
			if w.onRemoved != nil {
				w.onRemoved(name)
			}
		}
	}

	return current
}

func namesOf(list []printer.Descriptor) map[string]printer.Descriptor {
	m := make(map[string]printer.Descriptor, len(list))
	for _, p := range list {
		m[p.Name] = p
	}
	return m
}
