package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/pkg/output"
	"go.uber.org/zap"
)

type scenariosResponse struct {
	Scenarios []string                `json:"scenarios"`
	Results   []projection.Projection `json:"results"`
	CSV       string                  `json:"csv"`
	Warnings  []string                `json:"warnings,omitempty"`
	Duration  string                  `json:"duration"`
}

// handleScenarios runs every active scenario of an uploaded YAML
// configuration, the same file the CLI reads.
func (h *handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenarios"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	results, err := projection.GetProjections(h.logger, *cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to compute scenarios: %v", err), op)
		return
	}
	for _, result := range results {
		h.metrics.RecordCalculation(result.Mode, result.Result)
	}

	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}
	if results == nil {
		results = []projection.Projection{}
	}

	response := scenariosResponse{
		Scenarios: names,
		Results:   results,
		CSV:       output.CsvString(results, output.Options{Currency: cfg.Output.Currency, Locale: cfg.Output.Locale}),
		Warnings:  warnings,
		Duration:  elapsed(start),
	}

	h.logger.Info("scenarios computed",
		zap.String("op", op),
		zap.Int("scenarios", len(names)),
		zap.Int("warnings", len(warnings)),
		zap.String("duration", response.Duration),
	)

	h.writeJSON(w, http.StatusOK, response)
}
