// Package receipt renders orders into printable receipt files.
package receipt

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"

	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/artifact"
	"github.com/thereceipt/print-agent/internal/layout"
	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/internal/renderer"
)

// Renderer lays out, rasterizes and stores receipts
type Renderer struct {
	opts   layout.Options
	raster *renderer.Renderer
	store  *artifact.Store
	logger *zap.Logger
}

// New creates a receipt renderer.
func New(opts layout.Options, raster *renderer.Renderer, store *artifact.Store, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		opts:   opts,
		raster: raster,
		store:  store,
		logger: logger.Named("receipt"),
	}
}

// Render writes the receipt for rec to a new file. Every failure is a
// *apperr.RenderError.
func (r *Renderer) Render(ctx context.Context, rec *order.Record) (artifact.Document, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Document{}, &apperr.RenderError{Reason: "cancelled", Err: err}
	}

	img, err := r.RenderImage(rec)
	if err != nil {
		return artifact.Document{}, err
	}

	doc, err := r.store.Write(func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return artifact.Document{}, &apperr.RenderError{Reason: "write document", Err: err}
	}

	r.logger.Debug("receipt rendered",
		zap.String("order_id", rec.ID.String()),
		zap.String("path", doc.Path),
		zap.Int64("bytes", doc.Size),
	)
	return doc, nil
}

// RenderImage lays out and rasterizes rec without touching the disk.
func (r *Renderer) RenderImage(rec *order.Record) (image.Image, error) {
	display, err := layout.Build(rec, r.opts)
	if err != nil {
		return nil, asRenderError("layout", err)
	}

	img, err := r.raster.Render(display)
	if err != nil {
		return nil, asRenderError("rasterize", err)
	}
	return img, nil
}

// RenderPNG writes the PNG encoding of rec's receipt to w.
func (r *Renderer) RenderPNG(w io.Writer, rec *order.Record) error {
	img, err := r.RenderImage(rec)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Remove deletes a document written by Render.
func (r *Renderer) Remove(doc artifact.Document) error {
	return r.store.Remove(doc)
}

func asRenderError(stage string, err error) error {
	var re *apperr.RenderError
	if errors.As(err, &re) {
		return err
	}
	return &apperr.RenderError{Reason: stage, Err: err}
}
