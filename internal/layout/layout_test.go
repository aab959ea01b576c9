package layout

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/print-agent/internal/apperr"
	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

func burgerOrder() *order.Record {
	return &order.Record{
		ID:            "7",
		CreatedAt:     time.Date(2024, 5, 10, 18, 30, 5, 0, time.UTC),
		Client:        order.Client{Name: "Ana", Phone: "11 99999-0000"},
		Company:       order.Company{LegalName: "Burger House LTDA", TaxID: "12.345.678/0001-90"},
		PaymentMethod: "Pix",
		Items: []order.LineItem{
			{
				Product:   "Burger",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("15.00"),
				SubItems: []order.SubItem{
					{Name: "Cheese", Quantity: 1, UnitPrice: decimal.RequireFromString("2.50")},
				},
			},
			{Product: "Soda", Quantity: 1, UnitPrice: decimal.RequireFromString("6")},
		},
		Totals: &order.Totals{
			Subtotal:    decimal.RequireFromString("30.00"),
			DeliveryFee: decimal.RequireFromString("5.00"),
			Total:       decimal.RequireFromString("35.00"),
		},
	}
}

func utcOptions() Options {
	opts := DefaultOptions()
	opts.Location = time.UTC
	return opts
}

// texts flattens the display list into the strings a reader would see, with
// item rows joined by " | ".
func texts(r *receiptformat.Receipt) []string {
	var out []string
	for _, c := range r.Commands {
		switch c.Type {
		case receiptformat.TypeText:
			out = append(out, c.Value)
		case receiptformat.TypeItem:
			out = append(out, c.LeftSide[0].Value+" | "+c.RightSide[0].Value)
		}
	}
	return out
}

func findRow(t *testing.T, r *receiptformat.Receipt, left string) (int, receiptformat.Command) {
	t.Helper()
	for i, c := range r.Commands {
		if c.Type == receiptformat.TypeItem && c.LeftSide[0].Value == left {
			return i, c
		}
	}
	t.Fatalf("no row starting with %q", left)
	return -1, receiptformat.Command{}
}

func TestBuild_FullReceipt(t *testing.T) {
	r, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)
	require.NoError(t, receiptformat.Validate(r))

	assert.Equal(t, []string{
		"RECIBO DE PEDIDO",
		"ID do Pedido: #7",
		"Data: 10/05/2024",
		"Hora: 18:30:05",
		"Burger House LTDA",
		"CNPJ: 12.345.678/0001-90",
		"Cliente: Ana",
		"Telefone: 11 99999-0000",
		"Pagamento: Pix",
		"ITENS:",
		"2x Burger | R$ 30,00",
		"- Cheese | + R$ 2,50",
		"1x Soda | R$ 6,00",
		"Subtotal: | R$ 30,00",
		"Taxa de Entrega: | R$ 5,00",
		"TOTAL: | R$ 35,00",
		"Obrigado pelo seu pedido!",
	}, texts(r))
	assert.Equal(t, Margin, r.Margin)
	assert.Equal(t, "80mm", r.PaperWidth)
}

func TestBuild_FiveDashedDividers(t *testing.T) {
	r, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)

	count := 0
	for _, c := range r.Commands {
		if c.Type == receiptformat.TypeDivider {
			count++
			assert.Equal(t, "dashed", c.Pattern)
		}
	}
	assert.Equal(t, 5, count)
}

func TestBuild_ItemRowSharesLine(t *testing.T) {
	r, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)

	_, row := findRow(t, r, "2x Burger")
	require.Len(t, row.RightSide, 1)
	assert.Equal(t, "R$ 30,00", row.RightSide[0].Value)
	assert.Equal(t, "right", row.RightSide[0].Align)
	assert.Equal(t, 8.0, row.LeftSide[0].Style.Size)
}

func TestBuild_SubItemDirectlyBelowParent(t *testing.T) {
	r, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)

	parent, _ := findRow(t, r, "2x Burger")
	idx, sub := findRow(t, r, "- Cheese")
	assert.Equal(t, parent+1, idx)

	style := sub.LeftSide[0].Style
	assert.Equal(t, "grey", style.Color)
	assert.Equal(t, SubIndent, style.Indent)
	assert.Equal(t, 7.0, style.Size)
	assert.Equal(t, "+ R$ 2,50", sub.RightSide[0].Value)

	// the row after the sub-item block is black again
	_, next := findRow(t, r, "1x Soda")
	assert.Empty(t, next.LeftSide[0].Style.Color)
	assert.Zero(t, next.LeftSide[0].Style.Indent)
}

func TestBuild_TotalIsBold(t *testing.T) {
	r, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)

	_, total := findRow(t, r, "TOTAL:")
	assert.True(t, total.LeftSide[0].Style.Bold)
	assert.True(t, total.RightSide[0].Style.Bold)
	assert.Equal(t, 9.0, total.LeftSide[0].Style.Size)
}

func TestBuild_TotalsAreNotRecomputed(t *testing.T) {
	rec := burgerOrder()
	rec.Totals.Total = decimal.RequireFromString("999.99")

	r, err := Build(rec, utcOptions())
	require.NoError(t, err)

	_, total := findRow(t, r, "TOTAL:")
	assert.Equal(t, "R$ 999,99", total.RightSide[0].Value)
}

func TestBuild_PreservesItemOrder(t *testing.T) {
	rec := burgerOrder()
	rec.Items[0], rec.Items[1] = rec.Items[1], rec.Items[0]

	r, err := Build(rec, utcOptions())
	require.NoError(t, err)

	soda, _ := findRow(t, r, "1x Soda")
	burger, _ := findRow(t, r, "2x Burger")
	assert.Less(t, soda, burger)
}

func TestBuild_RoundsLineTotals(t *testing.T) {
	rec := burgerOrder()
	rec.Items = []order.LineItem{{Product: "Candy", Quantity: 3, UnitPrice: decimal.RequireFromString("0.335")}}

	r, err := Build(rec, utcOptions())
	require.NoError(t, err)

	_, row := findRow(t, r, "3x Candy")
	assert.Equal(t, "R$ 1,01", row.RightSide[0].Value)
}

func TestBuild_OmitsEmptyOptionalLines(t *testing.T) {
	rec := burgerOrder()
	rec.CreatedAt = time.Time{}
	rec.Client = order.Client{}
	rec.Company = order.Company{}
	rec.PaymentMethod = ""

	r, err := Build(rec, utcOptions())
	require.NoError(t, err)

	for _, s := range texts(r) {
		assert.NotContains(t, s, "Data:")
		assert.NotContains(t, s, "Cliente:")
		assert.NotContains(t, s, "CNPJ:")
	}
}

func TestBuild_UsesLocation(t *testing.T) {
	opts := DefaultOptions()
	opts.Location = time.FixedZone("BRT", -3*3600)

	r, err := Build(burgerOrder(), opts)
	require.NoError(t, err)
	assert.Contains(t, texts(r), "Hora: 15:30:05")
}

func TestBuild_OffsetlessTimeKeepsWallClock(t *testing.T) {
	body := `{"id": 7, "createdAt": "2024-05-10 18:30:00",
		"items": [{"product": "Soda", "quantity": 1, "unitPrice": 6}],
		"totals": {"subtotal": 6, "deliveryFee": 0, "total": 6}}`
	var rec order.Record
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	for _, loc := range []*time.Location{
		time.UTC,
		time.FixedZone("BRT", -3*3600),
		time.FixedZone("JST", 9*3600),
	} {
		opts := DefaultOptions()
		opts.Location = loc

		r, err := Build(&rec, opts)
		require.NoError(t, err)
		assert.Contains(t, texts(r), "Data: 10/05/2024", loc.String())
		assert.Contains(t, texts(r), "Hora: 18:30:00", loc.String())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)
	b, err := Build(burgerOrder(), utcOptions())
	require.NoError(t, err)

	ja, err := a.ToJSON()
	require.NoError(t, err)
	jb, err := b.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
}

func TestBuild_FooterCodes(t *testing.T) {
	opts := utcOptions()
	opts.FooterCode = FooterBarcode
	r, err := Build(burgerOrder(), opts)
	require.NoError(t, err)
	last := r.Commands[len(r.Commands)-1]
	assert.Equal(t, receiptformat.TypeBarcode, last.Type)
	assert.Equal(t, "7", last.Value)

	opts.FooterCode = FooterQRCode
	r, err = Build(burgerOrder(), opts)
	require.NoError(t, err)
	assert.Equal(t, receiptformat.TypeQRCode, r.Commands[len(r.Commands)-1].Type)

	opts.FooterCode = "hologram"
	_, err = Build(burgerOrder(), opts)
	assert.Error(t, err)
}

func TestBuild_Logo(t *testing.T) {
	opts := utcOptions()
	opts.LogoPath = "/srv/logo.png"
	r, err := Build(burgerOrder(), opts)
	require.NoError(t, err)
	assert.Equal(t, receiptformat.TypeImage, r.Commands[0].Type)
	assert.Equal(t, "/srv/logo.png", r.Commands[0].Path)
}

func TestBuild_RejectsUnrenderable(t *testing.T) {
	rec := burgerOrder()
	rec.Items[0].Quantity = -1

	_, err := Build(rec, utcOptions())
	var re *apperr.RenderError
	assert.True(t, errors.As(err, &re))

	_, err = Build(nil, utcOptions())
	assert.True(t, errors.As(err, &re))
}

func TestBuild_ZeroOptionsUseDefaults(t *testing.T) {
	r, err := Build(burgerOrder(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "80mm", r.PaperWidth)
	assert.Equal(t, "RECIBO DE PEDIDO", r.Commands[0].Value)
}
