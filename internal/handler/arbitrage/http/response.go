package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/krobus00/arbitrage-service/internal/service/arbitrage"
	"github.com/krobus00/arbitrage-service/internal/service/credential"
	"github.com/krobus00/arbitrage-service/internal/service/token"
	"github.com/krobus00/arbitrage-service/internal/service/wallet"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid json body")

var deletedResponse = map[string]string{"status": "deleted"}

type validation struct {
	validate *validator.Validate
}

func newValidation() *validation {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &validation{validate: v}
}

func (v *validation) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s", e.Field(), e.Tag()))
	}
	return errors.New(strings.Join(messages, "; "))
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// The returned error is safe to show to the caller.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return errInvalidBody
	}

	return h.validation.Validate(dst)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeServiceError maps service sentinels to status codes. Anything unknown
// is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, token.ErrTokenNotFound), errors.Is(err, arbitrage.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, "Token not found")
	case errors.Is(err, credential.ErrExchangeNotFound):
		writeError(w, http.StatusNotFound, "Exchange not found")
	case errors.Is(err, arbitrage.ErrOpportunityNotFound):
		writeError(w, http.StatusNotFound, "Opportunity not found")
	case errors.Is(err, wallet.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "Wallet not configured")
	case errors.Is(err, arbitrage.ErrInvalidExecutionAmount),
		errors.Is(err, arbitrage.ErrInvalidBuyPrice),
		errors.Is(err, arbitrage.ErrSameExchange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, arbitrage.ErrOpportunityNotExecutable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
