// Package order defines the order records the agent prints
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is a single order as received from the point of sale
type Record struct {
	ID        ID
	CreatedAt time.Time
	// CreatedAtFloating is set when createdAt arrived without an offset. Only
	// the wall clock of CreatedAt counts then; see CreatedAtIn.
	CreatedAtFloating bool
	Client            Client
	Company           Company
	PaymentMethod     string
	Items             []LineItem // nil when the request omitted items
	Totals            *Totals    // nil when the request omitted totals
}

// CreatedAtIn returns the order time as seen in loc. A floating time keeps its
// wall clock and is placed in loc.
func (r *Record) CreatedAtIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if !r.CreatedAtFloating {
		return r.CreatedAt.In(loc)
	}
	t := r.CreatedAt
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// Client identifies who placed the order
type Client struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Company identifies the seller printed in the receipt header
type Company struct {
	LegalName string `json:"legalName"`
	TaxID     string `json:"taxId"`
}

// LineItem is one purchased product. SubItems are add-ons priced on their own.
type LineItem struct {
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	SubItems  []SubItem       `json:"subItems,omitempty"`
}

// SubItem is a modifier or add-on of a LineItem
type SubItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Totals are supplied by the caller and printed as given
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// PrintJobRequest asks for one order to be printed on one printer
type PrintJobRequest struct {
	PrinterName string
	Order       Record
}

// Total returns quantity × unit price for the line, rounded for display.
func (li LineItem) Total() decimal.Decimal {
	return LineTotal(li.Quantity, li.UnitPrice)
}

// Total returns quantity × unit price for the sub-item, rounded for display.
func (si SubItem) Total() decimal.Decimal {
	return LineTotal(si.Quantity, si.UnitPrice)
}
