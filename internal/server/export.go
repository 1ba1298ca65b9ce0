package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/internal/report"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/output"
)

type exportRequest struct {
	calculationRequest
	Name string `json:"name,omitempty"`
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// handleExport renders one calculation as a downloadable csv, html or pdf
// report.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	outputFormat := strings.ToLower(chi.URLParam(r, "format"))
	switch outputFormat {
	case constants.OutputFormatCSV, constants.OutputFormatHTML, constants.OutputFormatPDF:
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported export format %q, expected csv, html or pdf", outputFormat), op)
		return
	}
	if outputFormat == constants.OutputFormatPDF && h.pdf == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "pdf export is not available", op)
		return
	}

	var req exportRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	display := req.display()
	if err := validateDisplay(display); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Scenario"
	}
	mode := req.mode()
	calc, _ := h.compute(r.Context(), mode, req.Inputs)
	results := []projection.Projection{{
		Name:        name,
		Mode:        mode,
		Inputs:      req.Inputs,
		Result:      calc.Result,
		Sensitivity: calc.Sensitivity,
	}}

	var (
		body        []byte
		contentType string
	)
	switch outputFormat {
	case constants.OutputFormatCSV:
		var buf bytes.Buffer
		if err := output.CsvFormat(&buf, results, display); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		body, contentType = buf.Bytes(), "text/csv; charset=utf-8"
	default:
		doc, err := report.Render(r.Context(), outputFormat, results, report.Options{
			Options:   display,
			Title:     "FinCalc report: " + name,
			Generated: time.Now(),
		}, h.pdf)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, report.ErrNoBrowser) {
				status = http.StatusServiceUnavailable
			}
			h.respondErrorWithOp(w, status, err.Error(), op)
			return
		}
		body = doc
		contentType = "text/html; charset=utf-8"
		if outputFormat == constants.OutputFormatPDF {
			contentType = "application/pdf"
		}
	}
	h.metrics.ReportsGenerated.WithLabelValues(outputFormat).Inc()

	filename := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if filename == "" {
		filename = "scenario"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fincalc-%s.%s"`, filename, outputFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
