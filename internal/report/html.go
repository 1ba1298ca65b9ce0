package report

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const styleCSS = `body{font-family:-apple-system,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;color:#1f2937;background:#fff;margin:0;padding:1.5rem;}
.report{max-width:960px;margin:0 auto;}
h1{font-size:1.6rem;border-bottom:3px solid #4f46e5;padding-bottom:.4rem;}
h2{font-size:1.25rem;margin-top:2rem;color:#312e81;}
h3{font-size:1rem;margin-top:1.2rem;color:#4b5563;text-transform:uppercase;letter-spacing:.04em;}
table{width:100%;border-collapse:collapse;font-size:.85rem;margin:.5rem 0 1rem;}
th,td{border:1px solid #d1d5db;padding:.35rem .5rem;}
thead th{background:#eef2ff;text-align:left;}
td[style*="right"],th[style*="right"]{font-variant-numeric:tabular-nums;}
blockquote{margin:.5rem 0;padding:.5rem .75rem;border-left:4px solid #dc2626;background:#fef2f2;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{@page{size:auto;margin:12mm;} body{padding:0;}}`

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts a markdown report into a standalone HTML document.
func HTML(markdown, title string) ([]byte, error) {
	var content bytes.Buffer
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	doc.WriteString(html.EscapeString(title))
	doc.WriteString("</title><style>")
	doc.WriteString(styleCSS)
	doc.WriteString("</style></head><body><main class='report'>")
	doc.WriteString(applyPrintLayoutHooks(content.String()))
	doc.WriteString("</main></body></html>")
	return doc.Bytes(), nil
}

var scenarioHeading = regexp.MustCompile(`<h2>`)

// applyPrintLayoutHooks starts every scenario after the first on a new page.
func applyPrintLayoutHooks(contentHTML string) string {
	seen := false
	return scenarioHeading.ReplaceAllStringFunc(contentHTML, func(match string) string {
		if !seen {
			seen = true
			return match
		}
		return `<h2 data-page-break-before="true">`
	})
}
