package pipeline

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

func roundTo(v float64, decimals int) float64 {
	m := math.Pow(10, float64(decimals))
	return math.Round(v*m) / m
}

// round rounds a number, or the given field on every row.
func round(value interface{}, p model.Params) (interface{}, error) {
	decimals := p.Int("decimals", 0)
	if field := p.String("field", ""); field != "" {
		rows, err := requireRows(value)
		if err != nil {
			return nil, err
		}
		out := copyRows(rows)
		for _, row := range out {
			if n, ok := numericOnly(row[field]); ok {
				row[field] = roundTo(n, decimals)
			}
		}
		return out, nil
	}
	n, err := requireNumber(value)
	if err != nil {
		return nil, err
	}
	return roundTo(n, decimals), nil
}

func printerFor(p model.Params) (*message.Printer, error) {
	tag, err := language.Parse(p.String("locale", "en-US"))
	if err != nil {
		return nil, engerrors.InvalidParam("locale", err.Error())
	}
	return message.NewPrinter(tag), nil
}

// formatNumber renders a number with locale digit grouping, e.g. 1,234,567.
func formatNumber(value interface{}, p model.Params) (string, error) {
	n, err := requireNumber(value)
	if err != nil {
		return "", err
	}
	printer, err := printerFor(p)
	if err != nil {
		return "", err
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return printer.Sprintf("%d", int64(n)), nil
	}
	return printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3))), nil
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"CAD": "CA$",
	"AUD": "A$",
}

// formatCurrency renders an amount with the currency symbol and its standard decimals.
func formatCurrency(value interface{}, p model.Params) (string, error) {
	n, err := requireNumber(value)
	if err != nil {
		return "", err
	}
	unit, err := currency.ParseISO(p.String("currency", "USD"))
	if err != nil {
		return "", engerrors.InvalidParam("currency", err.Error())
	}
	printer, err := printerFor(p)
	if err != nil {
		return "", err
	}

	scale, _ := currency.Standard.Rounding(unit)
	symbol, ok := currencySymbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	amount := printer.Sprint(number.Decimal(n, number.MinFractionDigits(scale), number.MaxFractionDigits(scale)))
	return sign + symbol + amount, nil
}

// formatPercentage renders a number as "12.3%".
func formatPercentage(value interface{}, p model.Params) (string, error) {
	n, err := requireNumber(value)
	if err != nil {
		return "", err
	}
	decimals := p.Int("decimals", 1)
	if decimals < 0 {
		return "", engerrors.InvalidParam("decimals", "must not be negative")
	}
	return fmt.Sprintf("%.*f%%", decimals, n), nil
}
