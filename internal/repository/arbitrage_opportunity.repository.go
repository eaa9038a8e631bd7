package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
)

var opportunityColumns = []string{
	"id",
	"token_id",
	"token_symbol",
	"buy_exchange",
	"sell_exchange",
	"buy_price",
	"sell_price",
	"spread_percent",
	"confidence",
	"recommended_usdt_amount",
	"status",
	"is_manual_selection",
	"persistence_minutes",
	"detected_at",
}

type ArbitrageOpportunityRepository struct {
	db *sqlx.DB
}

func NewArbitrageOpportunityRepository(db *sqlx.DB) *ArbitrageOpportunityRepository {
	return &ArbitrageOpportunityRepository{db: db}
}

func (r *ArbitrageOpportunityRepository) Create(ctx context.Context, opportunity *entity.ArbitrageOpportunity) error {
	return r.CreateMany(ctx, []entity.ArbitrageOpportunity{*opportunity})
}

// CreateMany inserts the batch in a single statement.
func (r *ArbitrageOpportunityRepository) CreateMany(ctx context.Context, opportunities []entity.ArbitrageOpportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.ArbitrageOpportunity{}.TableName()).
		Columns(opportunityColumns...)

	for _, o := range opportunities {
		queryBuilder = queryBuilder.Values(
			o.ID,
			o.TokenID,
			o.TokenSymbol,
			o.BuyExchange,
			o.SellExchange,
			o.BuyPrice,
			o.SellPrice,
			o.SpreadPercent,
			o.Confidence,
			o.RecommendedUSDTAmount,
			o.Status,
			o.IsManualSelection,
			o.PersistenceMinutes,
			o.DetectedAt,
		)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *ArbitrageOpportunityRepository) GetByStatus(ctx context.Context, statuses []entity.OpportunityStatus, limit uint64) ([]entity.ArbitrageOpportunity, error) {
	opportunities := make([]entity.ArbitrageOpportunity, 0)
	if len(statuses) == 0 {
		return opportunities, nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(opportunityColumns...).
		From(entity.ArbitrageOpportunity{}.TableName()).
		Where(sq.Eq{"status": statusStrings(statuses)}).
		OrderBy("detected_at desc")
	if limit > 0 {
		queryBuilder = queryBuilder.Limit(limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &opportunities, query, args...)
	return opportunities, err
}

func (r *ArbitrageOpportunityRepository) GetByID(ctx context.Context, id string) (*entity.ArbitrageOpportunity, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(opportunityColumns...).
		From(entity.ArbitrageOpportunity{}.TableName()).
		Where(sq.Eq{"id": id})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var opportunity entity.ArbitrageOpportunity
	err = r.db.GetContext(ctx, &opportunity, query, args...)
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

// DeleteByID returns sql.ErrNoRows when the id is unknown.
func (r *ArbitrageOpportunityRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM arbitrage_opportunities WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ArbitrageOpportunityRepository) UpdateStatus(ctx context.Context, id string, status entity.OpportunityStatus) error {
	updated, err := r.TransitionStatus(ctx, id, nil, status)
	if err != nil {
		return err
	}
	if !updated {
		return sql.ErrNoRows
	}
	return nil
}

// TransitionStatus moves the opportunity to status only while its current
// status is one of from; an empty from matches any status. It reports false
// when no row matched.
func (r *ArbitrageOpportunityRepository) TransitionStatus(ctx context.Context, id string, from []entity.OpportunityStatus, to entity.OpportunityStatus) (bool, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update(entity.ArbitrageOpportunity{}.TableName()).
		Set("status", to).
		Where(sq.Eq{"id": id})
	if len(from) > 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"status": statusStrings(from)})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ArbitrageOpportunityRepository) CountByStatus(ctx context.Context, statuses []entity.OpportunityStatus) (int, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("COUNT(*)").
		From(entity.ArbitrageOpportunity{}.TableName()).
		Where(sq.Eq{"status": statusStrings(statuses)})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func statusStrings(statuses []entity.OpportunityStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
