package entity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OpportunityStatus string

const (
	OpportunityStatusDetected  OpportunityStatus = "detected"
	OpportunityStatusManual    OpportunityStatus = "manual"
	OpportunityStatusExecuting OpportunityStatus = "executing"
	OpportunityStatusCompleted OpportunityStatus = "completed"
	OpportunityStatusFailed    OpportunityStatus = "failed"
)

// ActiveOpportunityStatuses are the statuses still awaiting a user decision.
var ActiveOpportunityStatuses = []OpportunityStatus{
	OpportunityStatusDetected,
	OpportunityStatusManual,
}

// ExecutableOpportunityStatuses are the statuses an execution may start from.
var ExecutableOpportunityStatuses = []OpportunityStatus{
	OpportunityStatusDetected,
	OpportunityStatusManual,
}

func (s OpportunityStatus) IsExecutable() bool {
	return slices.Contains(ExecutableOpportunityStatuses, s)
}

type ArbitrageOpportunity struct {
	ID                    string            `db:"id" json:"id"`
	TokenID               string            `db:"token_id" json:"token_id"`
	TokenSymbol           string            `db:"token_symbol" json:"token_symbol"`
	BuyExchange           string            `db:"buy_exchange" json:"buy_exchange"`
	SellExchange          string            `db:"sell_exchange" json:"sell_exchange"`
	BuyPrice              decimal.Decimal   `db:"buy_price" json:"buy_price"`
	SellPrice             decimal.Decimal   `db:"sell_price" json:"sell_price"`
	SpreadPercent         decimal.Decimal   `db:"spread_percent" json:"spread_percent"`
	Confidence            decimal.Decimal   `db:"confidence" json:"confidence"`
	RecommendedUSDTAmount decimal.Decimal   `db:"recommended_usdt_amount" json:"recommended_usdt_amount"`
	Status                OpportunityStatus `db:"status" json:"status"`
	IsManualSelection     bool              `db:"is_manual_selection" json:"is_manual_selection"`
	PersistenceMinutes    int               `db:"persistence_minutes" json:"persistence_minutes"`
	DetectedAt            time.Time         `db:"detected_at" json:"detected_at"`
}

func (o ArbitrageOpportunity) TableName() string {
	return "arbitrage_opportunities"
}

type ManualSelectionRequest struct {
	TokenID      string `json:"token_id" validate:"required"`
	BuyExchange  string `json:"buy_exchange" validate:"required"`
	SellExchange string `json:"sell_exchange" validate:"required,nefield=BuyExchange"`
}

type ExecuteArbitrageRequest struct {
	OpportunityID string          `json:"opportunity_id" validate:"required"`
	USDTAmount    decimal.Decimal `json:"usdt_amount"`
}

type ExecutionResult struct {
	Status         OpportunityStatus `json:"status"`
	OpportunityID  string            `json:"opportunity_id"`
	USDTInvested   decimal.Decimal   `json:"usdt_invested"`
	TokensBought   decimal.Decimal   `json:"tokens_bought"`
	SellValue      decimal.Decimal   `json:"sell_value"`
	Profit         decimal.Decimal   `json:"profit"`
	ProfitPercent  decimal.Decimal   `json:"profit_percent"`
	TransactionLog []TransactionLog  `json:"-"`
}
