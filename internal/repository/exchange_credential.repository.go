package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
)

type ExchangeCredentialRepository struct {
	db *sqlx.DB
}

func NewExchangeCredentialRepository(db *sqlx.DB) *ExchangeCredentialRepository {
	return &ExchangeCredentialRepository{db: db}
}

func (r *ExchangeCredentialRepository) Create(ctx context.Context, credential *entity.ExchangeCredential) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(credential.TableName()).
		Columns(
			"id",
			"name",
			"api_key_encrypted",
			"api_secret_encrypted",
			"additional_params_encrypted",
			"is_active",
			"created_at",
		).
		Values(
			credential.ID,
			credential.Name,
			credential.APIKeyEncrypted,
			credential.APISecretEncrypted,
			credential.AdditionalParamsEncrypted,
			credential.IsActive,
			credential.CreatedAt,
		)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *ExchangeCredentialRepository) GetActive(ctx context.Context, limit uint64) ([]entity.ExchangeCredential, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From(entity.ExchangeCredential{}.TableName()).
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at asc").
		Limit(limit)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	credentials := make([]entity.ExchangeCredential, 0)
	err = r.db.SelectContext(ctx, &credentials, query, args...)
	return credentials, err
}

// FindActiveByName matches the exchange name case-insensitively.
func (r *ExchangeCredentialRepository) FindActiveByName(ctx context.Context, name string) (*entity.ExchangeCredential, error) {
	var credential entity.ExchangeCredential
	err := r.db.GetContext(ctx, &credential,
		"SELECT * FROM exchanges WHERE lower(name) = lower($1) AND is_active = true ORDER BY created_at desc LIMIT 1", name)
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *ExchangeCredentialRepository) GetByID(ctx context.Context, id string) (*entity.ExchangeCredential, error) {
	var credential entity.ExchangeCredential
	err := r.db.GetContext(ctx, &credential, "SELECT * FROM exchanges WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *ExchangeCredentialRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE exchanges SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ExchangeCredentialRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM exchanges WHERE is_active = true")
	return count, err
}
