package dashboard

import (
	"context"
	"time"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"golang.org/x/sync/errgroup"
)

type TokenCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type ExchangeCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type OpportunityCounter interface {
	CountByStatus(ctx context.Context, statuses []entity.OpportunityStatus) (int, error)
}

type WalletReader interface {
	Get(ctx context.Context) (*entity.WalletConfig, error)
}

type PoolSizer interface {
	Size() int
}

type Health struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	ExchangesActive int       `json:"exchanges_active"`
}

type Service struct {
	tokens        TokenCounter
	exchanges     ExchangeCounter
	opportunities OpportunityCounter
	wallet        WalletReader
	pool          PoolSizer
}

func NewService(tokens TokenCounter, exchanges ExchangeCounter, opportunities OpportunityCounter, wallet WalletReader, pool PoolSizer) *Service {
	return &Service{
		tokens:        tokens,
		exchanges:     exchanges,
		opportunities: opportunities,
		wallet:        wallet,
		pool:          pool,
	}
}

// Health reports the number of live pooled exchange clients.
func (s *Service) Health() Health {
	return Health{
		Status:          "healthy",
		Timestamp:       time.Now().UTC(),
		ExchangesActive: s.pool.Size(),
	}
}

func (s *Service) Stats(ctx context.Context) (*entity.Stats, error) {
	stats := &entity.Stats{}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		stats.Tokens, err = s.tokens.CountActive(ctx)
		return err
	})
	eg.Go(func() (err error) {
		stats.Exchanges, err = s.exchanges.CountActive(ctx)
		return err
	})
	eg.Go(func() (err error) {
		stats.Opportunities, err = s.opportunities.CountByStatus(ctx, entity.ActiveOpportunityStatuses)
		return err
	})
	eg.Go(func() (err error) {
		stats.CompletedTrades, err = s.opportunities.CountByStatus(ctx, []entity.OpportunityStatus{entity.OpportunityStatusCompleted})
		return err
	})
	eg.Go(func() (err error) {
		stats.Wallet, err = s.wallet.Get(ctx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}
