// Package report renders projections as a markdown document, as HTML through
// goldmark and as PDF through headless Chromium.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/pkg/format"
	"github.com/iwvelando/fincalc/pkg/mathutil"
	"github.com/iwvelando/fincalc/pkg/output"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"golang.org/x/text/message"
)

// Options controls the report content.
type Options struct {
	output.Options
	// Title defaults to "FinCalc report".
	Title string
	// Generated is printed under the title. Zero omits the line.
	Generated time.Time
	// Commentary maps a scenario name to markdown appended to its section.
	Commentary map[string]string
}

// Markdown builds a GitHub flavored markdown report with one section per
// projection.
func Markdown(results []projection.Projection, opts Options) (string, error) {
	display := opts.Options.WithDefaults()
	p, err := format.Printer(display.Locale)
	if err != nil {
		return "", err
	}
	if _, err := format.Currency(0, display.Currency, display.Locale); err != nil {
		return "", err
	}
	money := func(v float64) string {
		s, _ := format.Currency(v, display.Currency, display.Locale)
		return s
	}
	percent := func(v float64) string {
		return format.Number(p, v, 1) + "%"
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "FinCalc report"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(title))
	if !opts.Generated.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", opts.Generated.Format("2006-01-02 15:04 MST"))
	}
	if len(results) == 0 {
		b.WriteString("No scenarios to report.\n")
		return b.String(), nil
	}

	for _, result := range results {
		fmt.Fprintf(&b, "## %s\n\n", escapeInline(result.Name))
		fmt.Fprintf(&b, "**Mode:** %s\n\n", output.ModeLabel(result.Mode))

		writeAssumptions(&b, result.Inputs, money, percent)

		if !result.Result.Valid {
			fmt.Fprintf(&b, "> **Error:** %s\n\n", escapeInline(result.Result.Error))
		} else {
			writeResults(&b, p, result.Result, money, percent)
			writeSensitivity(&b, result.Sensitivity, money, percent)
			writeGoalSeek(&b, result, money)
		}

		if text := strings.TrimSpace(opts.Commentary[result.Name]); text != "" {
			b.WriteString("### Commentary\n\n")
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}
	return b.String(), nil
}

func writeAssumptions(b *strings.Builder, in pricing.Inputs, money, percent func(float64) string) {
	rows := [][2]string{}
	add := func(label string, v *float64, render func(float64) string) {
		if v != nil {
			rows = append(rows, [2]string{label, render(*v)})
		}
	}
	add("Unit price (PVS)", in.PVS, money)
	add("Volume (Meta)", in.Meta, func(v float64) string { return fmt.Sprintf("%g", v) })
	add("Product cost (CP)", in.CP, money)
	add("Fixed cost (CF)", in.CF, money)
	if in.Marketing != nil {
		if in.Marketing.IsPercent() {
			rows = append(rows, [2]string{"Marketing", percent(in.Marketing.Value()) + " of revenue"})
		} else {
			rows = append(rows, [2]string{"Marketing", money(in.Marketing.Value())})
		}
	}
	add("Fixed fee (TxF)", in.TxF, money)
	add("Variable fee (TxP)", in.TxP, percent)
	add("Churn", in.Churn, percent)
	add("Desired margin (MLL_D)", in.MLLD, percent)

	if len(rows) == 0 {
		return
	}
	b.WriteString("### Assumptions\n\n| Input | Value |\n| --- | ---: |\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	b.WriteString("\n")
}

func writeResults(b *strings.Builder, p *message.Printer, r pricing.Result, money, percent func(float64) string) {
	lifetime := "indefinite"
	if r.Lifetime > 0 {
		lifetime = format.Number(p, r.Lifetime, 1) + " periods"
	}
	rows := [][2]string{
		{"Unit price", money(r.Price)},
		{"Volume", format.Number(p, r.Volume, 0)},
		{"Gross revenue", money(r.Revenue)},
		{"Contribution margin", money(r.ContributionMargin)},
		{"**Net profit**", "**" + money(r.NetProfit) + "**"},
		{"Net margin", percent(r.NetMargin)},
		{"Break-even (units)", format.Number(p, r.BreakEvenUnits, 0)},
		{"Break-even (revenue)", money(r.BreakEvenRevenue)},
		{"Margin of safety", percent(mathutil.Points(r.MarginOfSafety))},
		{"Markup", format.Number(p, r.Markup, 2) + "x"},
		{"CAC", money(r.CAC)},
		{"LTV", money(r.LTV)},
		{"LTV/CAC", format.Number(p, r.LTVToCAC, 2) + "x"},
		{"Lifetime", lifetime},
		{"Payback", format.Number(p, r.Payback, 2) + " periods"},
		{"ROI", percent(r.ROI)},
	}
	b.WriteString("### Results\n\n| Metric | Value |\n| --- | ---: |\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	b.WriteString("\n")

	if r.NetProfit < 0 {
		b.WriteString("> The scenario runs at a loss.\n\n")
	}
}

func writeSensitivity(b *strings.Builder, points []pricing.SensitivityPoint, money, percent func(float64) string) {
	if len(points) == 0 {
		return
	}
	b.WriteString("### Price sensitivity\n\n| Variation | Price | Net profit | Net margin |\n| ---: | ---: | ---: | ---: |\n")
	for _, point := range points {
		variation := fmt.Sprintf("%+.0f%%", point.VariationPercent)
		if point.Current {
			variation = "**" + variation + "**"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", variation,
			escapeCell(money(point.Price)), escapeCell(money(point.NetProfit)), escapeCell(percent(point.NetMargin)))
	}
	b.WriteString("\n")
}

func writeGoalSeek(b *strings.Builder, result projection.Projection, money func(float64) string) {
	if len(result.GoalSeek) == 0 {
		return
	}
	b.WriteString("### Goal seek\n\n")
	for _, seek := range result.GoalSeek {
		value := seek.ValueDisplay
		if value == "" {
			value = fmt.Sprintf("%g", seek.Value)
		}
		status := "reached"
		if !seek.Converged {
			status = "not reached"
		}
		fmt.Fprintf(b, "- **%s** %s for a net profit of %s (%s)\n", seek.Field, escapeInline(value), money(seek.TargetProfit), status)
		notes := append([]string(nil), seek.Notes...)
		sort.Strings(notes)
		for _, note := range notes {
			fmt.Fprintf(b, "  - %s\n", escapeInline(note))
		}
	}
	b.WriteString("\n")
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", "&lt;",
	">", "&gt;",
)

// escapeInline neutralizes markdown emphasis and raw HTML in user text.
func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
