package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/service/exchange"
)

func (h *Handler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateExchangeRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	credential, err := h.exchanges.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, credential)
}

func (h *Handler) ListExchanges(w http.ResponseWriter, r *http.Request) {
	credentials, err := h.exchanges.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(credentials))
}

func (h *Handler) DeleteExchange(w http.ResponseWriter, r *http.Request) {
	if err := h.exchanges.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse)
}

func (h *Handler) TestExchangeConnection(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateExchangeRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.exchanges.TestConnection(r.Context(), req)
	switch {
	case errors.Is(err, exchange.ErrUnsupportedExchange):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Exchange %s not supported", req.Name))
		return
	case err != nil:
		cause := strings.TrimPrefix(err.Error(), exchange.ErrConnectionFailed.Error()+": ")
		writeError(w, http.StatusBadRequest, "Connection failed: "+cause)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Connected to %s successfully", req.Name),
	})
}
