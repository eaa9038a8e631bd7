package entity

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

type TransactionStep string

const (
	StepValidateBalance       TransactionStep = "validate_balance"
	StepDepositToBuyExchange  TransactionStep = "deposit_to_buy_exchange"
	StepPlaceBuyOrder         TransactionStep = "place_buy_order"
	StepWithdrawToWallet      TransactionStep = "withdraw_to_wallet"
	StepDepositToSellExchange TransactionStep = "deposit_to_sell_exchange"
	StepPlaceSellOrder        TransactionStep = "place_sell_order"
	StepWithdrawProfits       TransactionStep = "withdraw_profits"
)

const TransactionStatusCompleted = "completed"

// JSONMap is a free-form jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported jsonb source type")
	}

	result := JSONMap{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

type TransactionLog struct {
	ID            string          `db:"id" json:"id"`
	OpportunityID string          `db:"opportunity_id" json:"opportunity_id"`
	Seq           int             `db:"seq" json:"-"`
	Step          TransactionStep `db:"step" json:"step"`
	Status        string          `db:"status" json:"status"`
	Details       JSONMap         `db:"details" json:"details"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

func (t TransactionLog) TableName() string {
	return "transaction_logs"
}
