package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
)

type TokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *entity.Token) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(token.TableName()).
		Columns(
			"id",
			"name",
			"symbol",
			"contract_address",
			"monitored_exchanges",
			"is_active",
			"created_at",
		).
		Values(
			token.ID,
			token.Name,
			token.Symbol,
			token.ContractAddress,
			token.MonitoredExchanges,
			token.IsActive,
			token.CreatedAt,
		)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *TokenRepository) GetActive(ctx context.Context, limit uint64) ([]entity.Token, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From(entity.Token{}.TableName()).
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at asc").
		Limit(limit)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	tokens := make([]entity.Token, 0)
	err = r.db.SelectContext(ctx, &tokens, query, args...)
	return tokens, err
}

func (r *TokenRepository) GetByID(ctx context.Context, id string) (*entity.Token, error) {
	var token entity.Token
	err := r.db.GetContext(ctx, &token, "SELECT * FROM tokens WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// SoftDelete flips is_active off. It returns sql.ErrNoRows when nothing
// changed, including tokens that were already inactive.
func (r *TokenRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tokens SET is_active = false WHERE id = $1 AND is_active = true", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *TokenRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tokens WHERE is_active = true")
	return count, err
}
