package report

import (
	"context"
	"fmt"
	"io"

	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/pkg/constants"
)

// Write renders results in an output format handled by this package
// (html or pdf) to w. renderer may be nil for html.
func Write(ctx context.Context, w io.Writer, outputFormat string, results []projection.Projection, opts Options, renderer PDFRenderer) error {
	doc, err := Render(ctx, outputFormat, results, opts, renderer)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// Render is Write into memory.
func Render(ctx context.Context, outputFormat string, results []projection.Projection, opts Options, renderer PDFRenderer) ([]byte, error) {
	markdown, err := Markdown(results, opts)
	if err != nil {
		return nil, err
	}
	title := opts.Title
	if title == "" {
		title = "FinCalc report"
	}
	htmlDoc, err := HTML(markdown, title)
	if err != nil {
		return nil, err
	}

	switch outputFormat {
	case constants.OutputFormatHTML:
		return htmlDoc, nil
	case constants.OutputFormatPDF:
		if renderer == nil {
			return nil, ErrNoBrowser
		}
		pdf, err := renderer.Render(ctx, htmlDoc)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return pdf, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", outputFormat)
	}
}
