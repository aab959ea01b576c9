// Package layout turns an order into a receipt display list. It does no I/O;
// the renderer package rasterizes what it produces.
package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

// Page geometry, in points
const (
	Margin     = 10.0
	LineHeight = 10.0
	SubIndent  = 10.0
)

// Text sizes, in points
const (
	sizeTitle    = 12.0
	sizeSection  = 10.0
	sizeCompany  = 9.0
	sizeTotal    = 9.0
	sizeBody     = 8.0
	sizeSubItem  = 7.0
	dividerStyle = "dashed"
)

// Footer codes
const (
	FooterNone    = "none"
	FooterBarcode = "barcode"
	FooterQRCode  = "qrcode"
)

// Labels holds every fixed string printed on a receipt
type Labels struct {
	Title       string
	OrderID     string
	Date        string
	Time        string
	TaxID       string
	Client      string
	Phone       string
	Payment     string
	Items       string
	Subtotal    string
	DeliveryFee string
	Total       string
	ThankYou    string
	DateLayout  string
	TimeLayout  string
}

// DefaultLabels returns the Brazilian Portuguese label set.
func DefaultLabels() Labels {
	return Labels{
		Title:       "RECIBO DE PEDIDO",
		OrderID:     "ID do Pedido:",
		Date:        "Data:",
		Time:        "Hora:",
		TaxID:       "CNPJ:",
		Client:      "Cliente:",
		Phone:       "Telefone:",
		Payment:     "Pagamento:",
		Items:       "ITENS:",
		Subtotal:    "Subtotal:",
		DeliveryFee: "Taxa de Entrega:",
		Total:       "TOTAL:",
		ThankYou:    "Obrigado pelo seu pedido!",
		DateLayout:  "02/01/2006",
		TimeLayout:  "15:04:05",
	}
}

// Options control everything about a layout that does not come from the order
type Options struct {
	PaperWidth string
	Labels     Labels
	Currency   string
	Location   *time.Location
	LogoPath   string
	FooterCode string
}

// DefaultOptions returns an 80mm layout with pt-BR labels in local time.
func DefaultOptions() Options {
	return Options{
		PaperWidth: "80mm",
		Labels:     DefaultLabels(),
		Currency:   order.DefaultCurrency,
		Location:   time.Local,
		FooterCode: FooterNone,
	}
}

// Build lays out rec as a display list. The result depends only on rec and
// opts.
func Build(rec *order.Record, opts Options) (*receiptformat.Receipt, error) {
	if err := order.CheckRenderable(rec); err != nil {
		return nil, err
	}
	if opts.PaperWidth == "" {
		opts.PaperWidth = "80mm"
	}
	if _, ok := receiptformat.PaperPoints(opts.PaperWidth); !ok {
		return nil, fmt.Errorf("unsupported paper width %q", opts.PaperWidth)
	}
	if opts.Labels == (Labels{}) {
		opts.Labels = DefaultLabels()
	}
	if opts.Currency == "" {
		opts.Currency = order.DefaultCurrency
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	switch opts.FooterCode {
	case "", FooterNone, FooterBarcode, FooterQRCode:
	default:
		return nil, fmt.Errorf("unknown footer code %q", opts.FooterCode)
	}

	b := &builder{opts: opts, labels: opts.Labels}
	b.logo()
	b.header(rec)
	b.divider()
	b.company(rec.Company)
	b.divider()
	b.client(rec)
	b.divider()
	b.items(rec.Items)
	b.divider()
	b.totals(rec.Totals)
	b.divider()
	b.footer(rec.ID)

	return &receiptformat.Receipt{
		Version:    receiptformat.Version,
		Name:       "pedido " + rec.ID.String(),
		PaperWidth: opts.PaperWidth,
		Margin:     Margin,
		LineHeight: LineHeight,
		Commands:   b.cmds,
	}, nil
}

type builder struct {
	opts   Options
	labels Labels
	cmds   []receiptformat.Command
}

func (b *builder) add(cmds ...receiptformat.Command) {
	b.cmds = append(b.cmds, cmds...)
}

func (b *builder) logo() {
	if b.opts.LogoPath == "" {
		return
	}
	b.add(receiptformat.Command{Type: receiptformat.TypeImage, Path: b.opts.LogoPath})
	b.add(receiptformat.Feed(0.5))
}

func (b *builder) header(rec *order.Record) {
	body := receiptformat.Style{Size: sizeBody}

	b.add(receiptformat.Text(b.labels.Title, "center", receiptformat.Style{Size: sizeTitle, Bold: true}))
	b.add(receiptformat.Text(fmt.Sprintf("%s #%s", b.labels.OrderID, rec.ID), "center", body))

	if !rec.CreatedAt.IsZero() {
		at := rec.CreatedAtIn(b.opts.Location)
		b.add(receiptformat.Text(b.labels.Date+" "+at.Format(b.labels.DateLayout), "center", body))
		b.add(receiptformat.Text(b.labels.Time+" "+at.Format(b.labels.TimeLayout), "center", body))
	}
}

func (b *builder) divider() {
	b.add(receiptformat.Divider(dividerStyle))
}

func (b *builder) company(c order.Company) {
	if name := strings.TrimSpace(c.LegalName); name != "" {
		b.add(receiptformat.Text(name, "center", receiptformat.Style{Size: sizeCompany, Bold: true}))
	}
	if id := strings.TrimSpace(c.TaxID); id != "" {
		b.add(receiptformat.Text(b.labels.TaxID+" "+id, "center", receiptformat.Style{Size: sizeBody}))
	}
}

func (b *builder) client(rec *order.Record) {
	body := receiptformat.Style{Size: sizeBody}
	lines := []struct{ label, value string }{
		{b.labels.Client, rec.Client.Name},
		{b.labels.Phone, rec.Client.Phone},
		{b.labels.Payment, rec.PaymentMethod},
	}
	for _, l := range lines {
		if v := strings.TrimSpace(l.value); v != "" {
			b.add(receiptformat.Text(l.label+" "+v, "left", body))
		}
	}
}

func (b *builder) items(items []order.LineItem) {
	b.add(receiptformat.Text(b.labels.Items, "left", receiptformat.Style{Size: sizeSection, Bold: true}))
	b.add(receiptformat.Feed(0.5))

	row := receiptformat.Style{Size: sizeBody}
	sub := receiptformat.Style{Size: sizeSubItem, Color: "grey", Indent: SubIndent}

	for _, item := range items {
		b.add(receiptformat.Row(
			fmt.Sprintf("%dx %s", item.Quantity, item.Product),
			order.FormatMoney(b.opts.Currency, item.Total()),
			row,
		))
		for _, si := range item.SubItems {
			b.add(receiptformat.Row(
				"- "+si.Name,
				"+ "+order.FormatMoney(b.opts.Currency, si.Total()),
				sub,
			))
		}
		b.add(receiptformat.Feed(0.3))
	}
}

func (b *builder) totals(t *order.Totals) {
	row := receiptformat.Style{Size: sizeBody}
	b.add(receiptformat.Row(b.labels.Subtotal, order.FormatMoney(b.opts.Currency, t.Subtotal), row))
	b.add(receiptformat.Row(b.labels.DeliveryFee, order.FormatMoney(b.opts.Currency, t.DeliveryFee), row))
	b.add(receiptformat.Feed(0.5))
	b.add(receiptformat.Row(b.labels.Total, order.FormatMoney(b.opts.Currency, t.Total), receiptformat.Style{Size: sizeTotal, Bold: true}))
}

func (b *builder) footer(id order.ID) {
	b.add(receiptformat.Text(b.labels.ThankYou, "center", receiptformat.Style{Size: sizeBody}))

	switch b.opts.FooterCode {
	case FooterBarcode:
		b.add(receiptformat.Feed(0.5))
		b.add(receiptformat.Command{Type: receiptformat.TypeBarcode, Value: id.String(), Format: "CODE128", Height: 30})
	case FooterQRCode:
		b.add(receiptformat.Feed(0.5))
		b.add(receiptformat.Command{Type: receiptformat.TypeQRCode, Value: id.String(), ErrorCorrection: "M"})
	}
}
