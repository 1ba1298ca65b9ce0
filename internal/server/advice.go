package server

import (
	"net/http"

	"github.com/iwvelando/fincalc/internal/advisor"
	"go.uber.org/zap"
)

type adviceResponse struct {
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
}

func (h *handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAdvice"

	if h.advisor == nil {
		h.metrics.AdviceRequests.WithLabelValues("unavailable").Inc()
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "AI commentary is not configured", op)
		return
	}

	var req calculationRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	display := req.display()
	if err := validateDisplay(display); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	mode := req.mode()
	calc, _ := h.compute(r.Context(), mode, req.Inputs)
	if !calc.Result.Valid {
		h.metrics.AdviceRequests.WithLabelValues("invalid").Inc()
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, calc.Result.Error, op)
		return
	}

	analysis, err := h.advisor.Analyze(r.Context(), advisor.Request{
		Mode:     mode,
		Inputs:   req.Inputs,
		Result:   calc.Result,
		Currency: display.Currency,
		Locale:   display.Locale,
	})
	if err != nil {
		h.metrics.AdviceRequests.WithLabelValues("error").Inc()
		h.logger.Warn("advisor failed",
			zap.String("op", op),
			zap.Error(err),
		)
		h.respondErrorWithOp(w, http.StatusBadGateway, "failed to generate commentary", op)
		return
	}

	h.metrics.AdviceRequests.WithLabelValues("ok").Inc()
	h.writeJSON(w, http.StatusOK, adviceResponse{Analysis: analysis, Model: h.advisor.Model()})
}
