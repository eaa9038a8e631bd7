package http

import (
	"net/http"
	"strings"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
)

func (h *Handler) SaveWallet(w http.ResponseWriter, r *http.Request) {
	var req entity.SaveWalletRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wallet, err := h.wallet.Save(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

// GetWallet writes null when no wallet is configured.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallet.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

func (h *Handler) UpdateWalletBalance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	bnb, err := queryDecimal(query.Get("balance_bnb"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid balance_bnb")
		return
	}

	usdt, err := queryDecimal(query.Get("balance_usdt"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid balance_usdt")
		return
	}

	if err := h.wallet.UpdateBalance(r.Context(), bnb, usdt); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func queryDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
