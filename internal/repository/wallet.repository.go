package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
)

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Upsert replaces the single wallet row. The existing id and balances survive
// a key rotation.
func (r *WalletRepository) Upsert(ctx context.Context, wallet *entity.WalletConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing entity.WalletConfig
	err = tx.GetContext(ctx, &existing, "SELECT * FROM wallet_configs ORDER BY created_at asc LIMIT 1 FOR UPDATE")
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE wallet_configs SET address = $1, private_key_encrypted = $2, updated_at = $3 WHERE id = $4",
			wallet.Address, wallet.PrivateKeyEncrypted, wallet.UpdatedAt, existing.ID)
		if err != nil {
			return err
		}
		wallet.ID = existing.ID
		wallet.CreatedAt = existing.CreatedAt
		wallet.BalanceBNB = existing.BalanceBNB
		wallet.BalanceUSDT = existing.BalanceUSDT
	case isNoRows(err):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO wallet_configs (id, address, private_key_encrypted, balance_bnb, balance_usdt, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			wallet.ID, wallet.Address, wallet.PrivateKeyEncrypted, wallet.BalanceBNB, wallet.BalanceUSDT, wallet.CreatedAt, wallet.UpdatedAt)
		if err != nil {
			return err
		}
	default:
		return err
	}

	return tx.Commit()
}

func (r *WalletRepository) Get(ctx context.Context) (*entity.WalletConfig, error) {
	var wallet entity.WalletConfig
	err := r.db.GetContext(ctx, &wallet, "SELECT * FROM wallet_configs ORDER BY created_at asc LIMIT 1")
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, bnb, usdt decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE wallet_configs SET balance_bnb = $1, balance_usdt = $2, updated_at = $3",
		bnb, usdt, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectAffected(res)
}
