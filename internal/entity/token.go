package entity

import (
	"time"

	"github.com/lib/pq"
)

type Token struct {
	ID                 string         `db:"id" json:"id"`
	Name               string         `db:"name" json:"name"`
	Symbol             string         `db:"symbol" json:"symbol"`
	ContractAddress    string         `db:"contract_address" json:"contract_address"`
	MonitoredExchanges pq.StringArray `db:"monitored_exchanges" json:"monitored_exchanges"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

func (t Token) TableName() string {
	return "tokens"
}

type CreateTokenRequest struct {
	Name               string   `json:"name" validate:"required"`
	Symbol             string   `json:"symbol" validate:"required"`
	ContractAddress    string   `json:"contract_address" validate:"required"`
	MonitoredExchanges []string `json:"monitored_exchanges"`
}
