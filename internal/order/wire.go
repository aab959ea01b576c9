package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID is an opaque order identifier. Clients send it as a string or a number.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads createdAt as sent by clients: an RFC 3339 string, a
// date-time without offset (read in loc), a bare date, or Unix milliseconds.
func ParseTimestamp(data []byte, loc *time.Location) (time.Time, error) {
	t, _, err := parseTimestamp(data, loc)
	return t, err
}

// parseTimestamp also reports whether the value had no offset, in which case
// only its wall clock is meaningful.
func parseTimestamp(data []byte, loc *time.Location) (time.Time, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("createdAt: %q is not a timestamp", data)
		}
		return time.UnixMilli(ms), false, nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return time.Time{}, false, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	for i, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, i > 0, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("createdAt: unsupported time format %q", s)
}

type legacyClient struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
}

type legacyCompany struct {
	RazaoSocial string `json:"razaoSocial"`
	CNPJ        string `json:"cnpj"`
}

type legacySubItem struct {
	Nome       string          `json:"nome"`
	Quantidade int             `json:"quantidade"`
	Valor      decimal.Decimal `json:"valor"`
}

type legacyItem struct {
	Produto    string          `json:"produto"`
	Quantidade int             `json:"quantidade"`
	Valor      decimal.Decimal `json:"valor"`
	SubItens   []legacySubItem `json:"subItens"`
}

type legacyTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxaEntrega decimal.Decimal `json:"taxaEntrega"`
	ValorTotal  decimal.Decimal `json:"valorTotal"`
}

// wireRecord is the inbound shape: English keys plus the Portuguese keys the
// original point-of-sale clients still send.
type wireRecord struct {
	ID            ID              `json:"id"`
	CreatedAt     json.RawMessage `json:"createdAt"`
	Client        *Client         `json:"client"`
	Company       *Company        `json:"company"`
	PaymentMethod string          `json:"paymentMethod"`
	Items         []LineItem      `json:"items"`
	Totals        *Totals         `json:"totals"`

	Cliente        *legacyClient  `json:"cliente"`
	Empresa        *legacyCompany `json:"empresa"`
	FormaPagamento string         `json:"formaPagamento"`
	Itens          []legacyItem   `json:"itens"`
	Totais         *legacyTotals  `json:"totais"`
}

// UnmarshalJSON decodes an order in either vocabulary. English keys win when
// both are present.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	createdAt, floating, err := parseTimestamp(w.CreatedAt, time.UTC)
	if err != nil {
		return err
	}

	rec := Record{
		ID:                w.ID,
		CreatedAt:         createdAt,
		CreatedAtFloating: floating,
		PaymentMethod:     w.PaymentMethod,
		Items:             w.Items,
		Totals:            w.Totals,
	}

	switch {
	case w.Client != nil:
		rec.Client = *w.Client
	case w.Cliente != nil:
		rec.Client = Client{Name: w.Cliente.Nome, Phone: w.Cliente.Telefone}
	}

	switch {
	case w.Company != nil:
		rec.Company = *w.Company
	case w.Empresa != nil:
		rec.Company = Company{LegalName: w.Empresa.RazaoSocial, TaxID: w.Empresa.CNPJ}
	}

	if rec.PaymentMethod == "" {
		rec.PaymentMethod = w.FormaPagamento
	}

	if rec.Items == nil && w.Itens != nil {
		rec.Items = make([]LineItem, 0, len(w.Itens))
		for _, it := range w.Itens {
			li := LineItem{Product: it.Produto, Quantity: it.Quantidade, UnitPrice: it.Valor}
			for _, sub := range it.SubItens {
				li.SubItems = append(li.SubItems, SubItem{Name: sub.Nome, Quantity: sub.Quantidade, UnitPrice: sub.Valor})
			}
			rec.Items = append(rec.Items, li)
		}
	}

	if rec.Totals == nil && w.Totais != nil {
		rec.Totals = &Totals{
			Subtotal:    w.Totais.Subtotal,
			DeliveryFee: w.Totais.TaxaEntrega,
			Total:       w.Totais.ValorTotal,
		}
	}

	*r = rec
	return nil
}

// MarshalJSON always writes the English vocabulary.
func (r Record) MarshalJSON() ([]byte, error) {
	out := struct {
		ID            ID         `json:"id"`
		CreatedAt     string     `json:"createdAt,omitempty"`
		Client        Client     `json:"client"`
		Company       Company    `json:"company"`
		PaymentMethod string     `json:"paymentMethod,omitempty"`
		Items         []LineItem `json:"items"`
		Totals        *Totals    `json:"totals"`
	}{
		ID:            r.ID,
		Client:        r.Client,
		Company:       r.Company,
		PaymentMethod: r.PaymentMethod,
		Items:         r.Items,
		Totals:        r.Totals,
	}
	switch {
	case r.CreatedAt.IsZero():
	case r.CreatedAtFloating:
		out.CreatedAt = r.CreatedAt.Format("2006-01-02T15:04:05")
	default:
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the flat inbound body: printerName next to the order
// fields.
func (p *PrintJobRequest) UnmarshalJSON(data []byte) error {
	var head struct {
		PrinterName string `json:"printerName"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	p.PrinterName = strings.TrimSpace(head.PrinterName)
	p.Order = rec
	return nil
}
