package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
)

type TransactionLogRepository struct {
	db *sqlx.DB
}

func NewTransactionLogRepository(db *sqlx.DB) *TransactionLogRepository {
	return &TransactionLogRepository{db: db}
}

// CreateMany appends the whole execution ledger in one statement so a batch is
// either fully visible or absent.
func (r *TransactionLogRepository) CreateMany(ctx context.Context, logs []entity.TransactionLog) error {
	if len(logs) == 0 {
		return nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.TransactionLog{}.TableName()).
		Columns(
			"id",
			"opportunity_id",
			"seq",
			"step",
			"status",
			"details",
			"created_at",
		)

	for _, l := range logs {
		queryBuilder = queryBuilder.Values(
			l.ID,
			l.OpportunityID,
			l.Seq,
			l.Step,
			l.Status,
			l.Details,
			l.CreatedAt,
		)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByOpportunityID returns the ledger in append order.
func (r *TransactionLogRepository) GetByOpportunityID(ctx context.Context, opportunityID string, limit uint64) ([]entity.TransactionLog, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From(entity.TransactionLog{}.TableName()).
		Where(sq.Eq{"opportunity_id": opportunityID}).
		OrderBy("created_at asc", "seq asc").
		Limit(limit)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	logs := make([]entity.TransactionLog, 0)
	err = r.db.SelectContext(ctx, &logs, query, args...)
	return logs, err
}
