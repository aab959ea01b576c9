// Package directory keeps the list of printers the agent last discovered.
package directory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/printer"
)

// Directory refreshes the printer list from an enumerator and serves it from
// the cache file. Concurrent refreshes are not coordinated; the last one to
// save wins.
type Directory struct {
	enumerator printer.Enumerator
	cache      *Cache
	logger     *zap.Logger

	mu        sync.RWMutex
	onUpdated []func([]printer.Descriptor)
}

// New creates a directory.
func New(enumerator printer.Enumerator, cache *Cache, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		enumerator: enumerator,
		cache:      cache,
		logger:     logger.Named("directory"),
	}
}

// OnUpdated registers fn to receive every list a successful refresh saved.
func (d *Directory) OnUpdated(fn func([]printer.Descriptor)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onUpdated = append(d.onUpdated, fn)
}

// Refresh enumerates printers and replaces the cache with the result. When
// enumeration fails the cache is left as it was and the previously cached
// list is returned, empty if there is none.
func (d *Directory) Refresh(ctx context.Context) []printer.Descriptor {
	list, err := d.enumerator.Enumerate(ctx)
	if err != nil {
		d.logger.Error("printer enumeration failed, keeping cached list", zap.Error(err))
		previous, loadErr := d.cache.Load()
		if loadErr != nil {
			return []printer.Descriptor{}
		}
		return previous
	}
	if list == nil {
		list = []printer.Descriptor{}
	}

	if err := d.cache.Save(list); err != nil {
		d.logger.Error("failed to save printer cache", zap.String("path", d.cache.Path()), zap.Error(err))
	} else {
		d.logger.Info("printer list refreshed", zap.Int("count", len(list)))
	}

	d.mu.RLock()
	listeners := append([]func([]printer.Descriptor){}, d.onUpdated...)
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(list)
	}

	return list
}

// List returns the cached printer list. It fails with
// apperr.ErrDirectoryUnavailable when the cache is missing, unreadable or
// corrupt.
func (d *Directory) List() ([]printer.Descriptor, error) {
	list, err := d.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDirectoryUnavailable, err)
	}
	return list, nil
}
