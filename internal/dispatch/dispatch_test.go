package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/artifact"
	"github.com/thereceipt/print-agent/internal/order"
)

type fakeRenderer struct {
	dir       string
	renderErr error
	removeErr error

	mu       sync.Mutex
	rendered []artifact.Document
	removed  []artifact.Document
}

func (f *fakeRenderer) Render(_ context.Context, rec *order.Record) (artifact.Document, error) {
	if f.renderErr != nil {
		return artifact.Document{}, f.renderErr
	}
	path := filepath.Join(f.dir, "pedido_"+rec.ID.String()+".png")
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		return artifact.Document{}, err
	}
	doc := artifact.Document{Path: path, Size: 3}
	f.mu.Lock()
	f.rendered = append(f.rendered, doc)
	f.mu.Unlock()
	return doc, nil
}

func (f *fakeRenderer) Remove(doc artifact.Document) error {
	f.mu.Lock()
	f.removed = append(f.removed, doc)
	f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	return os.Remove(doc.Path)
}

type fakePrinter struct {
	err   error
	calls []string
	// existed records whether the file was on disk when Print ran
	existed bool
}

func (f *fakePrinter) Print(_ context.Context, path, name string) error {
	_, statErr := os.Stat(path)
	f.existed = statErr == nil
	f.calls = append(f.calls, name)
	return f.err
}

func validRequest() order.PrintJobRequest {
	return order.PrintJobRequest{
		PrinterName: "Kitchen",
		Order: order.Record{
			ID:     "7",
			Items:  []order.LineItem{{Product: "Burger", Quantity: 2, UnitPrice: decimal.NewFromInt(15)}},
			Totals: &order.Totals{Subtotal: decimal.NewFromInt(30), Total: decimal.NewFromInt(30)},
		},
	}
}

func TestDispatch_Success(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p := &fakePrinter{}
	d := New(r, p, nil)

	var got []Outcome
	d.Subscribe(func(o Outcome) { got = append(got, o) })

	require.NoError(t, d.Dispatch(context.Background(), validRequest()))

	assert.Equal(t, []string{"Kitchen"}, p.calls)
	assert.True(t, p.existed, "document must exist while printing")
	require.Len(t, r.removed, 1)
	assert.NoFileExists(t, r.rendered[0].Path)

	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].OrderID)
	assert.NoError(t, got[0].Err)
}

func TestDispatch_MissingFieldsNeverPrint(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p := &fakePrinter{}
	d := New(r, p, nil)

	req := validRequest()
	req.PrinterName = ""
	req.Order.Totals = nil

	err := d.Dispatch(context.Background(), req)
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"printerName", "totals"}, ve.Missing)
	assert.Empty(t, p.calls)
	assert.Empty(t, r.rendered)
}

func TestDispatch_RenderErrorPropagates(t *testing.T) {
	renderErr := apperr.Renderf("bad order")
	r := &fakeRenderer{dir: t.TempDir(), renderErr: renderErr}
	p := &fakePrinter{}

	err := New(r, p, nil).Dispatch(context.Background(), validRequest())
	assert.Same(t, renderErr, err)
	assert.Empty(t, p.calls)
	assert.Empty(t, r.removed)
}

func TestDispatch_PrintFailureStillCleansUp(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	p := &fakePrinter{err: errors.New("printer offline")}
	d := New(r, p, nil)

	var got []Outcome
	d.Subscribe(func(o Outcome) { got = append(got, o) })

	err := d.Dispatch(context.Background(), validRequest())

	var pe *apperr.PrintError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "printer offline", err.Error())
	assert.Equal(t, "Kitchen", pe.Printer)

	require.Len(t, r.removed, 1)
	assert.NoFileExists(t, r.rendered[0].Path)
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)
}

func TestDispatch_CleanupFailureDoesNotMaskSuccess(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := &fakeRenderer{dir: t.TempDir(), removeErr: errors.New("permission denied")}
	p := &fakePrinter{}

	err := New(r, p, zap.New(core)).Dispatch(context.Background(), validRequest())
	assert.NoError(t, err)
	assert.Len(t, r.removed, 1)
	assert.Equal(t, 1, logs.FilterMessage("failed to remove rendered receipt").Len())
}

func TestDispatch_CleanupFailureDoesNotMaskPrintError(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir(), removeErr: errors.New("permission denied")}
	p := &fakePrinter{err: errors.New("paper out")}

	err := New(r, p, nil).Dispatch(context.Background(), validRequest())
	assert.EqualError(t, err, "paper out")
}

func TestDispatch_ConcurrentJobsUseDistinctDocuments(t *testing.T) {
	r := &fakeRenderer{dir: t.TempDir()}
	d := New(r, printerFunc(func(context.Context, string, string) error { return nil }), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Order.ID = order.ID(fmt.Sprintf("job-%d", i))
			assert.NoError(t, d.Dispatch(context.Background(), req))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.rendered, 10)
	assert.Len(t, r.removed, 10)
}

type printerFunc func(ctx context.Context, path, name string) error

func (f printerFunc) Print(ctx context.Context, path, name string) error { return f(ctx, path, name) }
