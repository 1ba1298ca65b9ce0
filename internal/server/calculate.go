package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iwvelando/fincalc/internal/cache"
	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/internal/history"
	"github.com/iwvelando/fincalc/internal/optimizer"
	"github.com/iwvelando/fincalc/pkg/format"
	"github.com/iwvelando/fincalc/pkg/output"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

// calculationRequest is the shape shared by every endpoint that runs the
// engine on one set of inputs.
type calculationRequest struct {
	Mode     pricing.Mode   `json:"mode"`
	Inputs   pricing.Inputs `json:"inputs"`
	Currency string         `json:"currency,omitempty"`
	Language string         `json:"language,omitempty"`
	Locale   string         `json:"locale,omitempty"`
}

func (c calculationRequest) mode() pricing.Mode {
	if c.Mode == "" {
		return pricing.ModeDirect
	}
	return c.Mode
}

// display picks the currency and locale used for formatted values. Locale
// wins over Language, which the UI sends as a bare language code.
func (c calculationRequest) display() output.Options {
	locale := c.Locale
	if strings.TrimSpace(locale) == "" {
		locale = c.Language
	}
	return output.Options{Currency: c.Currency, Locale: locale}.WithDefaults()
}

// calculation is the cacheable part of a calculate response.
type calculation struct {
	Result      pricing.Result             `json:"result"`
	Sensitivity []pricing.SensitivityPoint `json:"sensitivity"`
}

type calculateRequest struct {
	calculationRequest
	Save bool `json:"save,omitempty"`
}

type calculateResponse struct {
	Result      pricing.Result             `json:"result"`
	Formatted   map[string]string          `json:"formatted,omitempty"`
	Sensitivity []pricing.SensitivityPoint `json:"sensitivity"`
	Cached      bool                       `json:"cached"`
	HistoryID   string                     `json:"historyId,omitempty"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var req calculateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	display := req.display()
	if err := validateDisplay(display); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	mode := req.mode()
	calc, cached := h.compute(r.Context(), mode, req.Inputs)

	resp := calculateResponse{
		Result:      calc.Result,
		Formatted:   formatResult(calc.Result, display),
		Sensitivity: calc.Sensitivity,
		Cached:      cached,
	}

	if req.Save && calc.Result.Valid {
		item := history.NewItem(mode, req.Inputs, calc.Result)
		item.Currency = display.Currency
		item.Language = req.Language
		err := h.history.Save(r.Context(), item)
		h.metrics.RecordHistory("save", err)
		if err != nil {
			h.logger.Error("failed to save history item",
				zap.String("op", op),
				zap.Error(err),
			)
			h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to save history", op)
			return
		}
		resp.HistoryID = item.ID
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// compute runs the engine and the default sensitivity sweep, going through
// the cache. The second return value reports a cache hit.
func (h *handler) compute(ctx context.Context, mode pricing.Mode, inputs pricing.Inputs) (calculation, bool) {
	key, keyErr := cache.Key("calculate", struct {
		Mode   pricing.Mode   `json:"mode"`
		Inputs pricing.Inputs `json:"inputs"`
	}{mode, inputs})

	if keyErr == nil {
		if data, ok := h.cache.Get(ctx, key); ok {
			var calc calculation
			if err := json.Unmarshal(data, &calc); err == nil {
				h.metrics.RecordCacheLookup(true)
				return calc, true
			}
		}
		h.metrics.RecordCacheLookup(false)
	}

	result := pricing.Calculate(mode, inputs)
	h.metrics.RecordCalculation(mode, result)
	calc := calculation{
		Result:      result,
		Sensitivity: pricing.Sensitivity(inputs, result, pricing.SensitivityOptions{}),
	}
	if calc.Sensitivity == nil {
		calc.Sensitivity = []pricing.SensitivityPoint{}
	}

	if keyErr == nil {
		if data, err := json.Marshal(calc); err == nil {
			if err := h.cache.Set(ctx, key, data); err != nil {
				h.logger.Warn("failed to cache calculation",
					zap.String("op", "server.compute"),
					zap.Error(err),
				)
			}
		}
	}
	return calc, false
}

func validateDisplay(display output.Options) error {
	_, err := format.Currency(0, display.Currency, display.Locale)
	return err
}

// formatResult renders the headline figures for display. Invalid results
// have nothing to format.
func formatResult(result pricing.Result, display output.Options) map[string]string {
	if !result.Valid {
		return nil
	}
	money := func(v float64) string {
		s, _ := format.Currency(v, display.Currency, display.Locale)
		return s
	}
	percent := func(v float64) string {
		s, _ := format.Percent(v, display.Locale)
		return s
	}
	return map[string]string{
		"price":              money(result.Price),
		"revenue":            money(result.Revenue),
		"contributionMargin": money(result.ContributionMargin),
		"netProfit":          money(result.NetProfit),
		"netMargin":          percent(result.NetMargin),
		"breakEvenRevenue":   money(result.BreakEvenRevenue),
		"cac":                money(result.CAC),
		"ltv":                money(result.LTV),
		"roi":                percent(result.ROI),
	}
}

type sensitivityRequest struct {
	calculationRequest
	Steps       int     `json:"steps,omitempty"`
	StepPercent float64 `json:"stepPercent,omitempty"`
}

type sensitivityResponse struct {
	Result pricing.Result             `json:"result"`
	Points []pricing.SensitivityPoint `json:"points"`
}

func (h *handler) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSensitivity"

	var req sensitivityRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Steps < 0 || req.StepPercent < 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "steps and stepPercent cannot be negative", op)
		return
	}
	if req.Steps > 50 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "steps cannot exceed 50", op)
		return
	}

	mode := req.mode()
	result := pricing.Calculate(mode, req.Inputs)
	h.metrics.RecordCalculation(mode, result)

	points := pricing.Sensitivity(req.Inputs, result, pricing.SensitivityOptions{
		Steps:       req.Steps,
		StepPercent: req.StepPercent,
	})
	if points == nil {
		points = []pricing.SensitivityPoint{}
	}
	h.writeJSON(w, http.StatusOK, sensitivityResponse{Result: result, Points: points})
}

type compareRequest struct {
	A pricing.Inputs `json:"a"`
	B pricing.Inputs `json:"b"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"

	var req compareRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	comparison := pricing.Compare(req.A, req.B)
	h.metrics.RecordCalculation(pricing.ModeDirect, comparison.A)
	h.metrics.RecordCalculation(pricing.ModeDirect, comparison.B)
	h.writeJSON(w, http.StatusOK, comparison)
}

type goalSeekRequest struct {
	config.GoalSeekConfig
	Inputs   pricing.Inputs `json:"inputs"`
	Currency string         `json:"currency,omitempty"`
	Locale   string         `json:"locale,omitempty"`
}

func (h *handler) handleGoalSeek(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGoalSeek"

	var req goalSeekRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	display := output.Options{Currency: req.Currency, Locale: req.Locale}.WithDefaults()
	if err := validateDisplay(display); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	cfg := req.GoalSeekConfig
	if err := cfg.Validate(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	summary, err := optimizer.Seek(req.Inputs, cfg)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	optimizer.Describe(&summary, display.Currency, display.Locale)
	h.metrics.GoalSeekIterations.Observe(float64(summary.Iterations))

	h.logger.Debug("goal seek computed",
		zap.String("op", op),
		zap.String("field", summary.Field),
		zap.Bool("converged", summary.Converged),
		zap.Int("iterations", summary.Iterations),
	)
	h.writeJSON(w, http.StatusOK, summary)
}
