package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/fincalc/pkg/optimization"
	"github.com/iwvelando/fincalc/pkg/output"
	"github.com/iwvelando/fincalc/pkg/testutil"
)

type fakeRenderer struct {
	got []byte
	err error
}

func (f *fakeRenderer) Render(_ context.Context, htmlDoc []byte) ([]byte, error) {
	f.got = htmlDoc
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func TestMarkdown(t *testing.T) {
	results := testutil.SampleProjections()
	results[0].GoalSeek = []optimization.Summary{
		{Field: "volume", ValueDisplay: "196 units", TargetProfit: 10000, Converged: true},
	}

	md, err := Markdown(results, Options{
		Options:    output.Options{Currency: "USD", Locale: "en-US"},
		Generated:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Commentary: map[string]string{"Subscription": "Raise the price."},
	})
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}

	expected := []string{
		"# FinCalc report",
		"_Generated 2024-03-01 12:00 UTC_",
		"## Subscription",
		"**Mode:** Direct",
		"| Unit price (PVS) | $89.90 |",
		"| **Net profit** | **$4,391.40** |",
		"| Break-even (units) | 26 |",
		"### Price sensitivity",
		"| **+0%** |",
		"- **volume** 196 units for a net profit of $10,000.00 (reached)",
		"### Commentary\n\nRaise the price.",
		"## Impossible",
		"**Mode:** Target price",
		"> **Error:**",
	}
	for _, want := range expected {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Count(md, "### Results") != 1 {
		t.Errorf("only valid projections get a results table")
	}
}

func TestMarkdownEscapesUserText(t *testing.T) {
	results := testutil.SampleProjections()[:1]
	results[0].Name = "<script>*bold*</script>"

	md, err := Markdown(results, Options{})
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if strings.Contains(md, "<script>") || !strings.Contains(md, `\*bold\*`) {
		t.Errorf("scenario name not escaped:\n%s", md)
	}
}

func TestMarkdownEmptyAndInvalid(t *testing.T) {
	md, err := Markdown(nil, Options{Title: "Empty"})
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(md, "# Empty") || !strings.Contains(md, "No scenarios") {
		t.Errorf("unexpected empty report:\n%s", md)
	}

	if _, err := Markdown(nil, Options{Options: output.Options{Currency: "XXXX"}}); err == nil {
		t.Errorf("expected error for invalid currency")
	}
	if _, err := Markdown(nil, Options{Options: output.Options{Locale: "??"}}); err == nil {
		t.Errorf("expected error for invalid locale")
	}
}

func TestHTML(t *testing.T) {
	doc, err := HTML("# Title\n\n## A\n\n| a | b |\n| - | - |\n| 1 | 2 |\n\n## B\n", "A & B")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	out := string(doc)

	expected := []string{
		"<!doctype html>",
		"<title>A &amp; B</title>",
		"<table>",
		"<h1>Title</h1>",
		"<h2>A</h2>",
		`<h2 data-page-break-before="true">B</h2>`,
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q\n%s", want, out)
		}
	}
}

func TestApplyPrintLayoutHooksNoopWithSingleHeading(t *testing.T) {
	in := "<h1>x</h1><h2>Only</h2><p>y</p>"
	if out := applyPrintLayoutHooks(in); out != in {
		t.Fatalf("expected no change, got: %s", out)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	results := testutil.SampleProjections()

	htmlDoc, err := Render(ctx, "html", results, Options{}, nil)
	if err != nil {
		t.Fatalf("Render(html) error = %v", err)
	}
	if !bytes.Contains(htmlDoc, []byte("<h2>Subscription</h2>")) {
		t.Errorf("unexpected html: %s", htmlDoc)
	}

	renderer := &fakeRenderer{}
	pdf, err := Render(ctx, "pdf", results, Options{}, renderer)
	if err != nil {
		t.Fatalf("Render(pdf) error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) || !bytes.Equal(renderer.got, htmlDoc) {
		t.Errorf("pdf renderer should receive the html document")
	}

	if _, err := Render(ctx, "pdf", results, Options{}, nil); !errors.Is(err, ErrNoBrowser) {
		t.Errorf("expected ErrNoBrowser without a renderer, got %v", err)
	}
	if _, err := Render(ctx, "pdf", results, Options{}, &fakeRenderer{err: errors.New("boom")}); err == nil {
		t.Errorf("expected renderer error to propagate")
	}
	if _, err := Render(ctx, "csv", results, Options{}, nil); err == nil {
		t.Errorf("expected error for unsupported format")
	}

	var buf bytes.Buffer
	if err := Write(ctx, &buf, "html", results, Options{}, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), htmlDoc) {
		t.Errorf("Write should match Render")
	}
}

func TestChromiumPDFRendererWithoutBrowser(t *testing.T) {
	r := &ChromiumPDFRenderer{}
	if r.Available() {
		t.Fatalf("renderer without a path should be unavailable")
	}
	if _, err := r.Render(context.Background(), []byte("<p>x</p>")); !errors.Is(err, ErrNoBrowser) {
		t.Fatalf("expected ErrNoBrowser, got %v", err)
	}
}

func TestChromiumPDFRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	r := NewChromiumPDFRenderer("")
	if !r.Available() {
		t.Skip("no chromium installed")
	}
	pdf, err := r.Render(context.Background(), []byte("<html><body><h1>Hello</h1></body></html>"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}
