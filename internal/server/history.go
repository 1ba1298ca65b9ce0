package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/fincalc/internal/history"
	"github.com/iwvelando/fincalc/pkg/pricing"
)

type historyListResponse struct {
	Items []history.Item `json:"items"`
}

func (h *handler) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistoryList"

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, "limit must be a non-negative integer", op)
			return
		}
		limit = n
	}

	items, err := h.history.List(r.Context(), limit)
	h.metrics.RecordHistory("list", err)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to list history", op)
		return
	}
	if items == nil {
		items = []history.Item{}
	}
	h.writeJSON(w, http.StatusOK, historyListResponse{Items: items})
}

// handleHistorySave calculates and stores a result without returning the
// full calculate payload.
func (h *handler) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistorySave"

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
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, calc.Result.Error, op)
		return
	}

	item := history.NewItem(mode, req.Inputs, calc.Result)
	item.Currency = display.Currency
	item.Language = req.Language
	err := h.history.Save(r.Context(), item)
	h.metrics.RecordHistory("save", err)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to save history", op)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *handler) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistoryGet"

	item, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	h.metrics.RecordHistory("get", ignoreNotFound(err))
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to load history item", op)
		return
	}
	item.Mode = modeOrDirect(item.Mode)
	h.writeJSON(w, http.StatusOK, item)
}

func (h *handler) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistoryDelete"

	err := h.history.Delete(r.Context(), chi.URLParam(r, "id"))
	h.metrics.RecordHistory("delete", ignoreNotFound(err))
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to delete history item", op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHistoryClear"

	err := h.history.Clear(r.Context())
	h.metrics.RecordHistory("clear", err)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, "failed to clear history", op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, history.ErrNotFound) {
		return nil
	}
	return err
}

// modeOrDirect is used where a stored mode may predate validation.
func modeOrDirect(mode pricing.Mode) pricing.Mode {
	if mode.Valid() {
		return mode
	}
	return pricing.ModeDirect
}
