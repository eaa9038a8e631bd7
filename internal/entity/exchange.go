package entity

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

type ExchangeName string

const (
	ExchangeTokoCrypto ExchangeName = "tokocrypto"
	ExchangeBinance    ExchangeName = "binance"
)

// Ticker is the best bid/ask and last trade price of one trading pair. Missing
// upstream values are reported as zero.
type Ticker struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Last   decimal.Decimal
}

// ExchangeClient is the capability surface the arbitrage core needs from an
// exchange adapter. Pair identifiers use the unified "BASE/QUOTE" form.
type ExchangeClient interface {
	Name() string
	LoadMarkets(ctx context.Context) error
	HasSymbol(pair string) bool
	FetchTicker(ctx context.Context, pair string) (Ticker, error)
	FetchBalance(ctx context.Context) (map[string]decimal.Decimal, error)
	Close() error
}

// ExchangeClientConfig carries decrypted credentials into an adapter.
type ExchangeClientConfig struct {
	Name             string
	APIKey           string
	APISecret        string
	AdditionalParams map[string]string
	Timeout          time.Duration
	EnableRateLimit  bool
}

type ExchangeCredential struct {
	ID                        string      `db:"id" json:"id"`
	Name                      string      `db:"name" json:"name"`
	APIKeyEncrypted           string      `db:"api_key_encrypted" json:"-"`
	APISecretEncrypted        string      `db:"api_secret_encrypted" json:"-"`
	AdditionalParamsEncrypted null.String `db:"additional_params_encrypted" json:"-"`
	IsActive                  bool        `db:"is_active" json:"is_active"`
	CreatedAt                 time.Time   `db:"created_at" json:"created_at"`
}

func (e ExchangeCredential) TableName() string {
	return "exchanges"
}

type CreateExchangeRequest struct {
	Name             string            `json:"name" validate:"required"`
	APIKey           string            `json:"api_key" validate:"required"`
	APISecret        string            `json:"api_secret" validate:"required"`
	AdditionalParams map[string]string `json:"additional_params,omitempty"`
}
