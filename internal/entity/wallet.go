package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletConfig struct {
	ID                  string          `db:"id" json:"id"`
	Address             string          `db:"address" json:"address"`
	PrivateKeyEncrypted string          `db:"private_key_encrypted" json:"-"`
	BalanceBNB          decimal.Decimal `db:"balance_bnb" json:"balance_bnb"`
	BalanceUSDT         decimal.Decimal `db:"balance_usdt" json:"balance_usdt"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

func (w WalletConfig) TableName() string {
	return "wallet_configs"
}

type SaveWalletRequest struct {
	PrivateKey string `json:"private_key" validate:"required"`
	Address    string `json:"address,omitempty"`
}

type Stats struct {
	Tokens          int           `json:"tokens"`
	Exchanges       int           `json:"exchanges"`
	Opportunities   int           `json:"opportunities"`
	CompletedTrades int           `json:"completed_trades"`
	Wallet          *WalletConfig `json:"wallet"`
}
