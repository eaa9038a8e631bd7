package http

import (
	"net/http"

	"github.com/krobus00/arbitrage-service/internal/entity"
)

func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateTokenRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(tokens))
}

func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse)
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
