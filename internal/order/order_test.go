package order

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/print-agent/internal/apperr"
)

func TestLineTotal_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		quantity int
		price    string
		want     string
	}{
		{2, "15.00", "30,00"},
		{1, "2.50", "2,50"},
		{3, "0.335", "1,01"}, // 1.005 rounds up
		{1, "2.675", "2,68"},
		{7, "1.1", "7,70"},
		{10, "0.999", "9,99"},
	}

	for _, tt := range tests {
		got := FormatAmount(LineTotal(tt.quantity, decimal.RequireFromString(tt.price)))
		assert.Equal(t, tt.want, got, "%d x %s", tt.quantity, tt.price)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "R$ 35,00", FormatMoney("R$", decimal.NewFromInt(35)))
	assert.Equal(t, "R$ 1234,50", FormatMoney(DefaultCurrency, decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00", FormatMoney("", decimal.Zero))
}

func TestID_AcceptsStringOrNumber(t *testing.T) {
	var a, b struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id": "7"}`), &b))
	assert.Equal(t, ID("7"), a.ID)
	assert.Equal(t, a.ID, b.ID)

	var c struct {
		ID ID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id": {"x": 1}}`), &c))
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := ParseTimestamp([]byte(`"2024-05-10T18:30:00Z"`), loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)))

	got, err = ParseTimestamp([]byte(`"2024-05-10 18:30:00"`), loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 10, 18, 30, 0, 0, loc)))

	got, err = ParseTimestamp([]byte(`1715365800000`), loc)
	require.NoError(t, err)
	assert.Equal(t, int64(1715365800000), got.UnixMilli())

	got, err = ParseTimestamp([]byte(`null`), loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseTimestamp([]byte(`"yesterday"`), loc)
	assert.Error(t, err)
}

func TestRecord_OffsetlessCreatedAtFloats(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "createdAt": "2024-05-10 18:30:00"}`), &rec))
	assert.True(t, rec.CreatedAtFloating)
	assert.True(t, rec.CreatedAtIn(brt).Equal(time.Date(2024, 5, 10, 18, 30, 0, 0, brt)))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"createdAt":"2024-05-10T18:30:00"`)

	var zoned Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "createdAt": "2024-05-10T18:30:00Z"}`), &zoned))
	assert.False(t, zoned.CreatedAtFloating)
	assert.Equal(t, 15, zoned.CreatedAtIn(brt).Hour())
}

func TestRecord_DecodeEnglish(t *testing.T) {
	body := `{
		"id": 7,
		"createdAt": "2024-05-10T18:30:00Z",
		"client": {"name": "Ana", "phone": "11 99999-0000"},
		"company": {"legalName": "Burger House LTDA", "taxId": "12.345.678/0001-90"},
		"paymentMethod": "Pix",
		"items": [
			{"product": "Burger", "quantity": 2, "unitPrice": 15.00,
			 "subItems": [{"name": "Cheese", "quantity": 1, "unitPrice": "2.50"}]}
		],
		"totals": {"subtotal": 30.00, "deliveryFee": 5.00, "total": 35.00}
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	assert.Equal(t, ID("7"), rec.ID)
	assert.Equal(t, "Ana", rec.Client.Name)
	assert.Equal(t, "12.345.678/0001-90", rec.Company.TaxID)
	assert.Equal(t, "Pix", rec.PaymentMethod)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Burger", rec.Items[0].Product)
	require.Len(t, rec.Items[0].SubItems, 1)
	assert.True(t, rec.Items[0].SubItems[0].UnitPrice.Equal(decimal.RequireFromString("2.5")))
	require.NotNil(t, rec.Totals)
	assert.True(t, rec.Totals.Total.Equal(decimal.NewFromInt(35)))
}

func TestRecord_DecodeLegacyMatchesEnglish(t *testing.T) {
	english := `{"id":"A1","createdAt":"2024-05-10T18:30:00Z",
		"client":{"name":"Ana","phone":"123"},
		"company":{"legalName":"Loja","taxId":"00.000.000/0001-00"},
		"paymentMethod":"Dinheiro",
		"items":[{"product":"Pizza","quantity":1,"unitPrice":40,"subItems":[{"name":"Borda","quantity":1,"unitPrice":8}]}],
		"totals":{"subtotal":48,"deliveryFee":6,"total":54}}`
	legacy := `{"id":"A1","createdAt":"2024-05-10T18:30:00Z",
		"cliente":{"nome":"Ana","telefone":"123"},
		"empresa":{"razaoSocial":"Loja","cnpj":"00.000.000/0001-00"},
		"formaPagamento":"Dinheiro",
		"itens":[{"produto":"Pizza","quantidade":1,"valor":40,"subItens":[{"nome":"Borda","quantidade":1,"valor":8}]}],
		"totais":{"subtotal":48,"taxaEntrega":6,"valorTotal":54}}`

	var a, b Record
	require.NoError(t, json.Unmarshal([]byte(english), &a))
	require.NoError(t, json.Unmarshal([]byte(legacy), &b))

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestRecord_NonNumericMoneyFailsDecoding(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"id":1,"items":[{"product":"X","quantity":1,"unitPrice":"abc"}],"totals":{}}`), &rec)
	assert.Error(t, err)
}

func TestPrintJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{"complete", `{"printerName":"Kitchen","id":1,"items":[],"totals":{"subtotal":0,"deliveryFee":0,"total":0}}`, nil},
		{"no printer", `{"id":1,"items":[],"totals":{}}`, []string{"printerName"}},
		{"blank printer", `{"printerName":"  ","id":1,"items":[],"totals":{}}`, []string{"printerName"}},
		{"no items", `{"printerName":"Kitchen","id":1,"totals":{}}`, []string{"items"}},
		{"nothing", `{}`, []string{"printerName", "items", "totals"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req PrintJobRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			err := req.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.missing, ve.Missing)
		})
	}
}

func TestCheckRenderable(t *testing.T) {
	valid := func() *Record {
		return &Record{
			ID:     "1",
			Items:  []LineItem{{Product: "Burger", Quantity: 1, UnitPrice: decimal.NewFromInt(10), SubItems: []SubItem{{Name: "Bacon", Quantity: 1, UnitPrice: decimal.NewFromInt(3)}}}},
			Totals: &Totals{Subtotal: decimal.NewFromInt(13), Total: decimal.NewFromInt(13)},
		}
	}

	assert.NoError(t, CheckRenderable(valid()))

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"no id", func(r *Record) { r.ID = "" }},
		{"no items", func(r *Record) { r.Items = nil }},
		{"no totals", func(r *Record) { r.Totals = nil }},
		{"negative quantity", func(r *Record) { r.Items[0].Quantity = -1 }},
		{"zero quantity", func(r *Record) { r.Items[0].Quantity = 0 }},
		{"negative price", func(r *Record) { r.Items[0].UnitPrice = decimal.NewFromInt(-1) }},
		{"negative sub quantity", func(r *Record) { r.Items[0].SubItems[0].Quantity = -2 }},
		{"negative total", func(r *Record) { r.Totals.Total = decimal.NewFromInt(-5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			var re *apperr.RenderError
			assert.True(t, errors.As(CheckRenderable(r), &re))
		})
	}

	var re *apperr.RenderError
	assert.True(t, errors.As(CheckRenderable(nil), &re))
}
