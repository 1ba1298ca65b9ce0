// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/format"
	"github.com/iwvelando/fincalc/pkg/mathutil"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
)

// Options selects how money and percentages are displayed.
type Options struct {
	Currency string
	Locale   string
}

// WithDefaults fills a blank currency or locale with the package defaults.
func (o Options) WithDefaults() Options {
	if strings.TrimSpace(o.Currency) == "" {
		o.Currency = constants.DefaultCurrency
	}
	if strings.TrimSpace(o.Locale) == "" {
		o.Locale = constants.DefaultLocale
	}
	return o
}

// byteOrderMark makes spreadsheet applications detect UTF-8.
const byteOrderMark = "\ufeff"

// ModeLabel returns the human name of a calculation mode.
func ModeLabel(mode pricing.Mode) string {
	switch mode {
	case pricing.ModeDirect:
		return "Direct"
	case pricing.ModeTargetPrice:
		return "Target price"
	case pricing.ModeTargetVolume:
		return "Target volume"
	default:
		return string(mode)
	}
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []projection.Projection, opts Options) error {
	opts = opts.WithDefaults()
	p, err := format.Printer(opts.Locale)
	if err != nil {
		return err
	}
	money := func(v float64) string {
		s, err := format.Currency(v, opts.Currency, opts.Locale)
		if err != nil {
			return format.Number(p, v, 2)
		}
		return s
	}
	percent := func(v float64) string {
		return format.Number(p, v, 1) + "%"
	}

	var buf bytes.Buffer
	for i, result := range results {
		fmt.Fprintf(&buf, "--- Results for scenario %s (%s) ---\n", result.Name, ModeLabel(result.Mode))
		if !result.Result.Valid {
			fmt.Fprintf(&buf, "Error: %s\n", result.Result.Error)
		} else {
			writePrettyResult(&buf, p, result.Result, money, percent)
			writePrettySensitivity(&buf, result.Sensitivity, money, percent)
			for _, seek := range result.GoalSeek {
				value := seek.ValueDisplay
				if value == "" {
					value = format.Number(p, seek.Value, 2)
				}
				status := "converged"
				if !seek.Converged {
					status = "not converged"
				}
				fmt.Fprintf(&buf, "Goal seek %-8s | %s for net profit %s (%s)\n", seek.Field, value, money(seek.TargetProfit), status)
				for _, note := range seek.Notes {
					fmt.Fprintf(&buf, "  note: %s\n", note)
				}
			}
		}
		if i < len(results)-1 {
			buf.WriteString("\n")
		}
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func writePrettyResult(buf *bytes.Buffer, p *message.Printer, r pricing.Result, money, percent func(float64) string) {
	lifetime := "indefinite"
	if r.Lifetime > 0 {
		lifetime = format.Number(p, r.Lifetime, 1) + " periods"
	}
	rows := [][2]string{
		{"Unit price", money(r.Price)},
		{"Volume", format.Number(p, r.Volume, 0)},
		{"Revenue", money(r.Revenue)},
		{"Unit variable cost", money(r.UnitVariableCost)},
		{"Contribution margin", money(r.ContributionMargin)},
		{"Net profit", money(r.NetProfit)},
		{"Net margin", percent(r.NetMargin)},
		{"Break-even (units)", format.Number(p, r.BreakEvenUnits, 0)},
		{"Break-even (revenue)", money(r.BreakEvenRevenue)},
		{"Margin of safety", percent(mathutil.Points(r.MarginOfSafety))},
		{"Markup", format.Number(p, r.Markup, 2) + "x"},
		{"Fixed cost per unit", money(r.FixedCostPerUnit)},
		{"Marketing", money(r.MarketingTotal)},
		{"CAC", money(r.CAC)},
		{"Lifetime", lifetime},
		{"LTV", money(r.LTV)},
		{"LTV/CAC", format.Number(p, r.LTVToCAC, 2) + "x"},
		{"Payback", format.Number(p, r.Payback, 2) + " periods"},
		{"ROI", percent(r.ROI)},
	}

	buf.WriteString("Metric               | Value\n")
	buf.WriteString("______               | _____\n")
	for _, row := range rows {
		fmt.Fprintf(buf, "%-20s | %s\n", row[0], row[1])
	}
}

func writePrettySensitivity(buf *bytes.Buffer, points []pricing.SensitivityPoint, money, percent func(float64) string) {
	if len(points) == 0 {
		return
	}
	buf.WriteString("\nVariation | Price | Net profit | Net margin\n")
	for _, point := range points {
		marker := ""
		if point.Current {
			marker = " <"
		}
		fmt.Fprintf(buf, "%+.0f%% | %s | %s | %s%s\n",
			point.VariationPercent, money(point.Price), money(point.NetProfit), percent(point.NetMargin), marker)
	}
}

// CsvFormat writes the line-item report: a UTF-8 byte order mark, a
// semicolon separated header and one block of rows per projection. Numbers
// use a comma as decimal separator.
func CsvFormat(w io.Writer, results []projection.Projection, opts Options) error {
	opts = opts.WithDefaults()

	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write([]string{"Category", "Metric", "Value", "Unit"}); err != nil {
		return err
	}
	for _, result := range results {
		if err := writer.WriteAll(csvRows(result, opts.Currency)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString renders CsvFormat into a string, for embedding in API responses.
func CsvString(results []projection.Projection, opts Options) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results, opts); err != nil {
		return ""
	}
	return buf.String()
}

func csvRows(p projection.Projection, currency string) [][]string {
	in := p.Inputs
	value := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	marketingUnit := currency
	if in.Marketing.IsPercent() {
		marketingUnit = "%"
	}

	rows := [][]string{
		{"Scenario", "Name", p.Name, ""},
		{"Scenario", "Calculation mode", ModeLabel(p.Mode), ""},
		{"Assumptions", "Product cost (CP)", decimalCell(value(in.CP)), currency},
		{"Assumptions", "Fixed cost (CF)", decimalCell(value(in.CF)), currency},
		{"Assumptions", "Marketing", decimalCell(in.Marketing.Value()), marketingUnit},
		{"Assumptions", "Fixed fee (TxF)", decimalCell(value(in.TxF)), currency},
		{"Assumptions", "Variable fee (TxP)", decimalCell(value(in.TxP)), "%"},
		{"Assumptions", "Churn", decimalCell(value(in.Churn)), "%"},
	}

	r := p.Result
	if !r.Valid {
		return append(rows, []string{"Result", "Error", r.Error, ""})
	}

	return append(rows,
		[]string{"Result", "Unit price", decimalCell(r.Price), currency},
		[]string{"Result", "Volume", decimalCell(r.Volume), "Units"},
		[]string{"Result", "Gross revenue", decimalCell(r.Revenue), currency},
		[]string{"Result", "Net profit", decimalCell(r.NetProfit), currency},
		[]string{"Result", "Net margin", decimalCell(r.NetMargin), "%"},
		[]string{"Result", "Break-even (units)", decimalCell(r.BreakEvenUnits), "Units"},
		[]string{"Result", "Break-even (revenue)", decimalCell(r.BreakEvenRevenue), currency},
		[]string{"Result", "Margin of safety", decimalCell(mathutil.Points(r.MarginOfSafety)), "%"},
		[]string{"Result", "Markup", decimalCell(r.Markup), "x"},
		[]string{"Efficiency", "CAC", decimalCell(r.CAC), currency},
		[]string{"Efficiency", "LTV", decimalCell(r.LTV), currency},
		[]string{"Efficiency", "Lifetime", decimalCell(r.Lifetime), "Periods"},
		[]string{"Efficiency", "Payback", decimalCell(r.Payback), "Periods"},
		[]string{"Efficiency", "ROI", decimalCell(r.ROI), "%"},
	)
}

// decimalCell renders v with two decimals and a comma separator.
func decimalCell(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1)
}

// JSONFormat writes the projections as indented JSON.
func JSONFormat(w io.Writer, results []projection.Projection) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if results == nil {
		results = []projection.Projection{}
	}
	return encoder.Encode(results)
}
