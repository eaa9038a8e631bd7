package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounter struct {
	n   int
	err error
}

func (c staticCounter) CountActive(ctx context.Context) (int, error) {
	return c.n, c.err
}

type statusCounter map[entity.OpportunityStatus]int

func (c statusCounter) CountByStatus(ctx context.Context, statuses []entity.OpportunityStatus) (int, error) {
	total := 0
	for _, status := range statuses {
		total += c[status]
	}
	return total, nil
}

type staticWallet struct {
	wallet *entity.WalletConfig
}

func (w staticWallet) Get(ctx context.Context) (*entity.WalletConfig, error) {
	return w.wallet, nil
}

type staticPool int

func (p staticPool) Size() int {
	return int(p)
}

func TestServiceStats(t *testing.T) {
	counts := statusCounter{
		entity.OpportunityStatusDetected:  3,
		entity.OpportunityStatusManual:    1,
		entity.OpportunityStatusCompleted: 2,
		entity.OpportunityStatusFailed:    5,
	}
	wallet := &entity.WalletConfig{Address: "0xabc"}

	svc := NewService(staticCounter{n: 4}, staticCounter{n: 2}, counts, staticWallet{wallet: wallet}, staticPool(0))
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Tokens)
	assert.Equal(t, 2, stats.Exchanges)
	assert.Equal(t, 4, stats.Opportunities)
	assert.Equal(t, 2, stats.CompletedTrades)
	assert.Equal(t, wallet, stats.Wallet)
}

func TestServiceStatsError(t *testing.T) {
	svc := NewService(staticCounter{err: errors.New("db down")}, staticCounter{}, statusCounter{}, staticWallet{}, staticPool(0))
	_, err := svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestServiceHealth(t *testing.T) {
	health := NewService(staticCounter{}, staticCounter{}, statusCounter{}, staticWallet{}, staticPool(3)).Health()
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.ExchangesActive)
}
