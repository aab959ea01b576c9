package order

import (
	"github.com/thereceipt/print-agent/internal/apperr"
)

// Validate checks the fields a print request cannot do without.
func (p *PrintJobRequest) Validate() error {
	var missing []string
	if p.PrinterName == "" {
		missing = append(missing, "printerName")
	}
	if p.Order.Items == nil {
		missing = append(missing, "items")
	}
	if p.Order.Totals == nil {
		missing = append(missing, "totals")
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Missing: missing}
	}
	return nil
}

// CheckRenderable reports the first problem that keeps a record from being
// laid out.
func CheckRenderable(r *Record) error {
	if r == nil {
		return apperr.Renderf("order is missing")
	}
	if r.ID == "" {
		return apperr.Renderf("order id is missing")
	}
	if r.Items == nil {
		return apperr.Renderf("order %s has no items", r.ID)
	}
	if r.Totals == nil {
		return apperr.Renderf("order %s has no totals", r.ID)
	}

	for i, item := range r.Items {
		if item.Quantity <= 0 {
			return apperr.Renderf("item %d (%s): quantity must be positive, got %d", i, item.Product, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return apperr.Renderf("item %d (%s): unit price is negative", i, item.Product)
		}
		for j, sub := range item.SubItems {
			if sub.Quantity <= 0 {
				return apperr.Renderf("item %d sub-item %d (%s): quantity must be positive, got %d", i, j, sub.Name, sub.Quantity)
			}
			if sub.UnitPrice.IsNegative() {
				return apperr.Renderf("item %d sub-item %d (%s): unit price is negative", i, j, sub.Name)
			}
		}
	}

	t := r.Totals
	if t.Subtotal.IsNegative() || t.DeliveryFee.IsNegative() || t.Total.IsNegative() {
		return apperr.Renderf("order %s has a negative total", r.ID)
	}
	return nil
}
