package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatter_Amount(t *testing.T) {
	es := DefaultFormatter()
	en := NewFormatter(language.English, "$")

	assert.Equal(t, "45.000", es.Amount(decimal.NewFromInt(45000)))
	assert.Equal(t, "1.234.567", es.Amount(decimal.NewFromInt(1234567)))
	assert.Equal(t, "45,000", en.Amount(decimal.NewFromInt(45000)))
	assert.Equal(t, "12.50", en.Amount(decimal.RequireFromString("12.5")))
	assert.Equal(t, "$15.000", es.Money(decimal.NewFromInt(15000)))
	assert.Equal(t, "0", es.Amount(decimal.Zero))
	assert.Equal(t, "999", es.Amount(decimal.NewFromInt(999)))
	assert.Equal(t, "-1.234,50", es.Amount(decimal.RequireFromString("-1234.5")))
	assert.Equal(t, "13", es.Amount(decimal.RequireFromString("12.999")))
}

func TestFormatter_AmountIsExact(t *testing.T) {
	es := DefaultFormatter()

	// Beyond float64 precision and the int64 range.
	assert.Equal(t, "123.456.789.012.345.678.901.234,56",
		es.Amount(decimal.RequireFromString("123456789012345678901234.56")))
	assert.Equal(t, "98.765.432.109.876.543.210.987",
		es.Amount(decimal.RequireFromString("98765432109876543210987")))
}

func TestFormatter_OrderMessage(t *testing.T) {
	f := DefaultFormatter()
	lines := []Line{
		{ID: "m1", Name: "Mate Imperial", UnitPrice: decimal.NewFromInt(15000), Image: "x.webp", Quantity: 3},
		{ID: "y1", Name: "Yerbero Artesanal", UnitPrice: decimal.NewFromInt(22000), Image: "y.webp", Quantity: 1},
	}

	want := "¡Hola! Quiero realizar el siguiente pedido:\n\n" +
		"• Mate Imperial\n" +
		"  Cantidad: 3\n" +
		"  Precio unitario: $15.000\n" +
		"  Subtotal: $45.000\n\n" +
		"• Yerbero Artesanal\n" +
		"  Cantidad: 1\n" +
		"  Precio unitario: $22.000\n" +
		"  Subtotal: $22.000\n\n" +
		"*Total: $67.000*"

	got := f.OrderMessage(lines)
	assert.Equal(t, want, got)
	assert.Equal(t, got, f.OrderMessage(lines), "message must be deterministic")
}

func TestFormatter_OrderMessageEmpty(t *testing.T) {
	got := DefaultFormatter().OrderMessage(nil)
	assert.Equal(t, "¡Hola! Quiero realizar el siguiente pedido:\n\n*Total: $0*", got)
}
