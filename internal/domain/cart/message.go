package cart

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is the storefront's display locale.
var DefaultLocale = language.MustParse("es-AR")

// Formatter renders money amounts and order messages for one locale.
type Formatter struct {
	printer  *message.Printer
	currency string
	group    string
	decimal  string
}

// NewFormatter returns a Formatter for the given locale and currency symbol.
func NewFormatter(tag language.Tag, currency string) *Formatter {
	p := message.NewPrinter(tag)
	group, dec := separators(p)
	return &Formatter{
		printer:  p,
		currency: currency,
		group:    group,
		decimal:  dec,
	}
}

// separators reads the grouping and decimal marks of p's locale from a
// rendered sample, falling back to "," and "." for non-Latin digits.
func separators(p *message.Printer) (group, dec string) {
	sample := p.Sprintf("%.1f", 1234567.5)
	i := strings.Index(sample, "234")
	j := strings.LastIndex(sample, "567")
	if !strings.HasPrefix(sample, "1") || !strings.HasSuffix(sample, "5") || i < 1 || j < i+3 || j+3 > len(sample)-1 {
		return ",", "."
	}
	return sample[1:i], sample[j+3 : len(sample)-1]
}

// DefaultFormatter formats amounts as Argentine pesos.
func DefaultFormatter() *Formatter {
	return NewFormatter(DefaultLocale, "$")
}

// Amount formats d with locale grouping, without the currency symbol. Whole
// amounts are printed without decimals; others with two.
func (f *Formatter) Amount(d decimal.Decimal) string {
	d = d.Round(2)
	places := int32(2)
	if d.IsInteger() {
		places = 0
	}
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString(f.decimal)
		b.WriteString(frac)
	}
	return b.String()
}

// Money formats d prefixed with the currency symbol.
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.currency + f.Amount(d)
}

// OrderMessage builds the checkout message for lines. Identical input always
// yields identical text.
func (f *Formatter) OrderMessage(lines []Line) string {
	var (
		b     strings.Builder
		total = decimal.Zero
	)
	b.WriteString("¡Hola! Quiero realizar el siguiente pedido:\n\n")
	for _, l := range lines {
		sub := l.Subtotal()
		total = total.Add(sub)

		b.WriteString("• " + l.Name + "\n")
		b.WriteString(f.printer.Sprintf("  Cantidad: %d\n", l.Quantity))
		b.WriteString("  Precio unitario: " + f.Money(l.UnitPrice) + "\n")
		b.WriteString("  Subtotal: " + f.Money(sub) + "\n\n")
	}
	b.WriteString("*Total: " + f.Money(total) + "*")
	return b.String()
}
