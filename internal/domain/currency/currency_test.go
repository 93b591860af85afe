package currency_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/dealdesk/internal/domain/currency"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultFormatter(t *testing.T) {
	Convey("Given the shared en-US formatter", t, func() {
		f := currency.Default

		Convey("Then amounts get a symbol, grouping and no decimals", func() {
			So(f.Format(0), ShouldEqual, "$0")
			So(f.Format(999), ShouldEqual, "$999")
			So(f.Format(1000), ShouldEqual, "$1,000")
			So(f.Format(1234567), ShouldEqual, "$1,234,567")
		})

		Convey("Then negative amounts put the sign first", func() {
			So(f.Format(-1000), ShouldEqual, "-$1,000")
		})

		Convey("Then the extreme negative does not overflow", func() {
			So(f.Format(math.MinInt64), ShouldEqual, "-$9,223,372,036,854,775,808")
		})

		Convey("Then repeated calls agree", func() {
			first := f.Format(1000)
			var wg sync.WaitGroup
			results := make([]string, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = f.Format(1000)
				}(i)
			}
			wg.Wait()
			for _, r := range results {
				So(r, ShouldEqual, first)
			}
		})

		Convey("Then it reports its code and locale", func() {
			So(f.Code(), ShouldEqual, "USD")
			So(f.Locale(), ShouldEqual, "en-US")
		})
	})
}

func TestLocalizedPlacement(t *testing.T) {
	Convey("Given formatters for other locales", t, func() {
		Convey("When the locale writes the symbol after the number", func() {
			de := currency.MustNew("de-DE", "EUR")
			fr := currency.MustNew("fr-FR", "EUR")
			pt := currency.MustNew("pt-PT", "EUR")

			Convey("Then the symbol trails with a no-break space", func() {
				So(de.Format(1234567), ShouldEqual, "1.234.567\u00a0€")
				So(de.Format(-1000), ShouldEqual, "-1.000\u00a0€")
				So(fr.Format(1234567), ShouldStartWith, "1")
				So(fr.Format(1234567), ShouldEndWith, "\u00a0€")
				So(pt.Format(1000), ShouldEndWith, "\u00a0€")
			})
		})

		Convey("When the locale writes a spaced symbol first", func() {
			nl := currency.MustNew("nl-NL", "EUR")
			So(nl.Format(1000), ShouldStartWith, "€\u00a0")
			So(nl.Format(-1000), ShouldStartWith, "-€\u00a0")
		})

		Convey("When a region overrides its language", func() {
			mx := currency.MustNew("es-MX", "MXN")
			So(mx.Format(1000), ShouldNotContainSubstring, "\u00a0")
			So(currency.MustNew("es-ES", "EUR").Format(1000), ShouldEndWith, "\u00a0€")
		})

		Convey("When the locale is unlisted", func() {
			So(currency.MustNew("ja-JP", "JPY").Format(1000), ShouldEndWith, "1,000")
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given formatter settings", t, func() {
		Convey("When the currency code is unknown", func() {
			_, err := currency.New("en-US", "XYZQ")
			So(errors.Is(err, currency.ErrUnknownCurrency), ShouldBeTrue)
		})

		Convey("When the locale cannot be parsed", func() {
			_, err := currency.New("not a locale!", "USD")
			So(errors.Is(err, currency.ErrInvalidLocale), ShouldBeTrue)
		})

		Convey("When MustNew gets bad input", func() {
			So(func() { currency.MustNew("en-US", "??") }, ShouldPanic)
		})
	})
}
