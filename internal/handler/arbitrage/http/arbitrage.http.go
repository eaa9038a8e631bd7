package http

import (
	"net/http"
	"strings"

	"github.com/krobus00/arbitrage-service/internal/entity"
)

// GetPrices expects the pair path-escaped, e.g. /api/prices/BTC%2FUSDT.
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quotes, err := h.arbitrage.GetPrices(r.Context(), symbol)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(quotes))
}

func (h *Handler) GetAllTokenPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.arbitrage.GetAllTokenPrices(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(prices))
}

func (h *Handler) DetectOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.arbitrage.DetectOpportunities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(opportunities))
}

func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.arbitrage.ListActiveOpportunities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(opportunities))
}

func (h *Handler) CreateManualSelection(w http.ResponseWriter, r *http.Request) {
	var req entity.ManualSelectionRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opportunity, err := h.arbitrage.CreateManualSelection(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, opportunity)
}

func (h *Handler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	if err := h.arbitrage.DeleteOpportunity(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse)
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req entity.ExecuteArbitrageRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.arbitrage.Execute(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetTransactionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.arbitrage.GetTransactionLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(logs))
}
