// Package currency renders whole-unit money amounts. All consumers share one
// Formatter so the same amount always reads the same way.
package currency

import (
	"errors"
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Errors returned by New.
var (
	ErrInvalidLocale   = errors.New("invalid locale")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Formatter formats whole-unit amounts for one locale and currency:
// "$1,000" for en-US, "1.000 €" for de-DE. It is safe for concurrent use.
type Formatter struct {
	tag       language.Tag
	unit      currency.Unit
	symbol    string
	placement placement
	printer   *message.Printer
}

// Default is the shared en-US / USD formatter.
var Default = MustNew("en-US", "USD") //nolint:gochecknoglobals // shared formatter

// New returns a Formatter for a BCP 47 locale and an ISO 4217 code.
func New(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnknownCurrency, code, err)
	}
	p := message.NewPrinter(tag)
	return &Formatter{
		tag:       tag,
		unit:      unit,
		symbol:    p.Sprint(currency.Symbol(unit)),
		placement: placementFor(tag),
		printer:   p,
	}, nil
}

// MustNew is New that panics on error.
func MustNew(locale, code string) *Formatter {
	f, err := New(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders amount with no decimal digits, locale grouping and the
// symbol on the locale's side. The minus sign always leads: "-$1,000",
// "-1.000 €".
func (f *Formatter) Format(amount int64) string {
	sign := ""
	mag := uint64(amount)
	if amount < 0 {
		sign = "-"
		mag = uint64(-(amount + 1)) + 1
	}
	digits := f.printer.Sprintf("%d", mag)
	switch f.placement {
	case symbolSuffix:
		return sign + digits + nbsp + f.symbol
	case symbolPrefixSpaced:
		return sign + f.symbol + nbsp + digits
	default:
		return sign + f.symbol + digits
	}
}

// Code returns the ISO 4217 currency code.
func (f *Formatter) Code() string { return f.unit.String() }

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() string { return f.tag.String() }
