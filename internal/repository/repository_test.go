package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("arbitrage"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db.DB, filepath.Join(findProjectRoot(t), "migration", "postgresql", "arbitrage")))

	return db
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func newOpportunity(tokenID string, status entity.OpportunityStatus, detectedAt time.Time) entity.ArbitrageOpportunity {
	return entity.ArbitrageOpportunity{
		ID:                    uuid.NewString(),
		TokenID:               tokenID,
		TokenSymbol:           "BTC",
		BuyExchange:           "tokocrypto",
		SellExchange:          "binance",
		BuyPrice:              decimal.RequireFromString("100"),
		SellPrice:             decimal.RequireFromString("101"),
		SpreadPercent:         decimal.RequireFromString("1"),
		Confidence:            decimal.RequireFromString("55"),
		RecommendedUSDTAmount: decimal.RequireFromString("100"),
		Status:                status,
		DetectedAt:            detectedAt,
	}
}

func TestRepositories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("token lifecycle", func(t *testing.T) {
		repo := NewTokenRepository(db)
		token := &entity.Token{
			ID:                 uuid.NewString(),
			Name:               "Bitcoin",
			Symbol:             "BTC",
			ContractAddress:    "0xbtc",
			MonitoredExchanges: []string{"tokocrypto", "binance"},
			IsActive:           true,
			CreatedAt:          time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, token))

		got, err := repo.GetByID(ctx, token.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"tokocrypto", "binance"}, []string(got.MonitoredExchanges))

		count, err := repo.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, repo.SoftDelete(ctx, token.ID))
		assert.ErrorIs(t, repo.SoftDelete(ctx, token.ID), sql.ErrNoRows)

		active, err := repo.GetActive(ctx, 100)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("exchange credential lookup is case insensitive", func(t *testing.T) {
		repo := NewExchangeCredentialRepository(db)
		credential := &entity.ExchangeCredential{
			ID:                        uuid.NewString(),
			Name:                      "Binance",
			APIKeyEncrypted:           "v1.key",
			APISecretEncrypted:        "v1.secret",
			AdditionalParamsEncrypted: null.String{},
			IsActive:                  true,
			CreatedAt:                 time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, credential))

		got, err := repo.FindActiveByName(ctx, "BINANCE")
		require.NoError(t, err)
		assert.Equal(t, credential.ID, got.ID)
		assert.False(t, got.AdditionalParamsEncrypted.Valid)

		require.NoError(t, repo.SoftDelete(ctx, credential.ID))
		_, err = repo.FindActiveByName(ctx, "binance")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("opportunities are listed newest first", func(t *testing.T) {
		repo := NewArbitrageOpportunityRepository(db)
		tokenID := uuid.NewString()
		now := time.Now().UTC().Truncate(time.Microsecond)

		older := newOpportunity(tokenID, entity.OpportunityStatusDetected, now.Add(-time.Minute))
		newer := newOpportunity(tokenID, entity.OpportunityStatusManual, now)
		done := newOpportunity(tokenID, entity.OpportunityStatusCompleted, now.Add(time.Minute))
		require.NoError(t, repo.CreateMany(ctx, []entity.ArbitrageOpportunity{older, newer, done}))

		active, err := repo.GetByStatus(ctx, entity.ActiveOpportunityStatuses, 50)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, newer.ID, active[0].ID)
		assert.Equal(t, older.ID, active[1].ID)
		assert.True(t, older.BuyPrice.Equal(active[1].BuyPrice))

		moved, err := repo.TransitionStatus(ctx, older.ID, entity.ExecutableOpportunityStatuses, entity.OpportunityStatusExecuting)
		require.NoError(t, err)
		assert.True(t, moved)
		moved, err = repo.TransitionStatus(ctx, older.ID, entity.ExecutableOpportunityStatuses, entity.OpportunityStatusExecuting)
		require.NoError(t, err)
		assert.False(t, moved, "second transition out of detected must not match")
		got, err := repo.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.OpportunityStatusExecuting, got.Status)

		require.NoError(t, repo.UpdateStatus(ctx, older.ID, entity.OpportunityStatusFailed))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), entity.OpportunityStatusFailed), sql.ErrNoRows)

		count, err := repo.CountByStatus(ctx, []entity.OpportunityStatus{entity.OpportunityStatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, repo.DeleteByID(ctx, newer.ID))
		assert.ErrorIs(t, repo.DeleteByID(ctx, newer.ID), sql.ErrNoRows)
	})

	t.Run("transaction logs keep append order", func(t *testing.T) {
		repo := NewTransactionLogRepository(db)
		opportunityID := uuid.NewString()
		createdAt := time.Now().UTC()
		steps := []entity.TransactionStep{
			entity.StepValidateBalance,
			entity.StepDepositToBuyExchange,
			entity.StepPlaceBuyOrder,
		}

		logs := make([]entity.TransactionLog, 0, len(steps))
		for i, step := range steps {
			logs = append(logs, entity.TransactionLog{
				ID:            uuid.NewString(),
				OpportunityID: opportunityID,
				Seq:           i + 1,
				Step:          step,
				Status:        entity.TransactionStatusCompleted,
				Details:       entity.JSONMap{"exchange": "binance"},
				CreatedAt:     createdAt,
			})
		}
		require.NoError(t, repo.CreateMany(ctx, logs))

		got, err := repo.GetByOpportunityID(ctx, opportunityID, 100)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, step := range steps {
			assert.Equal(t, step, got[i].Step)
		}
		assert.Equal(t, "binance", got[0].Details["exchange"])
	})

	t.Run("wallet upsert keeps a single row", func(t *testing.T) {
		repo := NewWalletRepository(db)
		now := time.Now().UTC()
		first := &entity.WalletConfig{
			ID:                  uuid.NewString(),
			Address:             "0xfirst",
			PrivateKeyEncrypted: "v1.first",
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		require.NoError(t, repo.Upsert(ctx, first))
		require.NoError(t, repo.UpdateBalance(ctx, decimal.RequireFromString("1.5"), decimal.RequireFromString("250")))

		second := &entity.WalletConfig{
			ID:                  uuid.NewString(),
			Address:             "0xsecond",
			PrivateKeyEncrypted: "v1.second",
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		require.NoError(t, repo.Upsert(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		got, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0xsecond", got.Address)
		assert.True(t, decimal.RequireFromString("250").Equal(got.BalanceUSDT))
	})
}
