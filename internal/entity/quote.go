package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a normalized ticker snapshot of one token on one exchange. It is
// consumed by detection and never stored.
type Quote struct {
	Exchange  string          `json:"exchange"`
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Last      decimal.Decimal `json:"last"`
	Timestamp time.Time       `json:"timestamp"`
}

type TokenPrices struct {
	TokenID     string  `json:"token_id"`
	TokenSymbol string  `json:"token_symbol"`
	Prices      []Quote `json:"prices"`
}
