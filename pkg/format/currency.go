// Package format renders engine values for display. Nothing produced here is
// ever fed back into a calculation.
package format

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/iwvelando/fincalc/pkg/mathutil"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Printer returns a message printer for a BCP 47 locale tag.
func Printer(locale string) (*message.Printer, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return message.NewPrinter(tag), nil
}

// Currency formats value as an amount of the ISO 4217 currency code using the
// digit grouping and decimal separator of locale, e.g. "R$ 1.234,50" for BRL
// in pt-BR or "-$1,234.50" for USD in en-US.
func Currency(value float64, code, locale string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	p, err := Printer(locale)
	if err != nil {
		return "", err
	}

	symbol := p.Sprint(currency.Symbol(unit))
	// Multi-letter symbols such as "R$" or "US$" read better detached.
	if utf8.RuneCountInString(symbol) > 1 {
		symbol += " "
	}

	rounded := mathutil.Round(value)
	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	return sign + symbol + Number(p, math.Abs(rounded), 2), nil
}

// Percent formats a percentage-point value with one decimal, e.g. 12.5 as
// "12.5%" in en-US or "12,5%" in pt-BR.
func Percent(value float64, locale string) (string, error) {
	p, err := Printer(locale)
	if err != nil {
		return "", err
	}
	return Number(p, value, 1) + "%", nil
}

// Number formats value with a fixed number of decimals using p's locale.
func Number(p *message.Printer, value float64, decimals int) string {
	return p.Sprint(number.Decimal(value, number.Scale(decimals)))
}
