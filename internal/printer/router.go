package printer

import (
	"context"
	"fmt"
	_ "image/png"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Spooler submits files to OS print queues
type Spooler interface {
	Print(ctx context.Context, path, name string) error
}

// Router sends a document to the transport its printer name selects
type Router struct {
	spooler Spooler
	dots    int
	logger  *zap.Logger
	connect func(ctx context.Context, t Target) (Connection, error)
}

// NewRouter creates a router. Raw printers receive images dots pixels wide.
func NewRouter(spooler Spooler, dots int, logger *zap.Logger) *Router {
	if dots <= 0 {
		dots = DefaultDots
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		spooler: spooler,
		dots:    dots,
		logger:  logger.Named("printer"),
		connect: Connect,
	}
}

// Print submits the document at path to the printer called name.
func (r *Router) Print(ctx context.Context, path, name string) error {
	target, err := ParseTarget(name)
	if err != nil {
		return err
	}

	if target.Kind == KindSpooler {
		return r.spooler.Print(ctx, path, target.Name)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	data := EncodeDocument(img, r.dots)

	conn, err := r.connect(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write to %s printer: %w", target.Kind, err)
	}

	r.logger.Debug("raw print sent",
		zap.String("printer", name),
		zap.Stringer("transport", target.Kind),
		zap.Int("bytes", len(data)),
	)
	return nil
}
