package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	name      string
	symbols   map[string]bool
	ticker    entity.Ticker
	tickerErr error
	delay     time.Duration

	mu        sync.Mutex
	requested []string
}

func (s *stubClient) Name() string                          { return s.name }
func (s *stubClient) LoadMarkets(ctx context.Context) error { return nil }
func (s *stubClient) HasSymbol(pair string) bool            { return s.symbols[pair] }
func (s *stubClient) Close() error                          { return nil }
func (s *stubClient) FetchTicker(ctx context.Context, pair string) (entity.Ticker, error) {
	s.mu.Lock()
	s.requested = append(s.requested, pair)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.ticker, s.tickerErr
}
func (s *stubClient) FetchBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	return nil, nil
}

type stubProvider map[string]entity.ExchangeClient

func (p stubProvider) Get(ctx context.Context, name string) (entity.ExchangeClient, bool) {
	client, ok := p[name]
	return client, ok
}

func ticker(bid, ask, last string) entity.Ticker {
	return entity.Ticker{
		Bid:  decimal.RequireFromString(bid),
		Ask:  decimal.RequireFromString(ask),
		Last: decimal.RequireFromString(last),
	}
}

func TestCandidateSymbols(t *testing.T) {
	assert.Equal(t, []string{"Btc/USDT", "BTC/USDT", "btc/usdt"}, CandidateSymbols("Btc", "USDT"))
	assert.Equal(t, []string{"BTC/USDT", "btc/usdt"}, CandidateSymbols("BTC", "USDT"))
}

func TestFetcherFetch(t *testing.T) {
	token := entity.Token{ID: "t1", Symbol: "eth"}

	t.Run("falls back to upper case pair", func(t *testing.T) {
		client := &stubClient{
			name:    "binance",
			symbols: map[string]bool{"ETH/USDT": true, "eth/usdt": true},
			ticker:  ticker("10", "11", "10.5"),
		}
		fetcher := NewFetcher(stubProvider{"binance": client}, "USDT")

		q, ok := fetcher.Fetch(context.Background(), token, "binance")
		require.True(t, ok)
		assert.Equal(t, "ETH/USDT", q.Symbol)
		assert.Equal(t, "binance", q.Exchange)
		assert.Equal(t, "11", q.Ask.String())
		assert.Equal(t, []string{"ETH/USDT"}, client.requested)
	})

	t.Run("unlisted pair is absent", func(t *testing.T) {
		client := &stubClient{name: "binance", symbols: map[string]bool{}}
		fetcher := NewFetcher(stubProvider{"binance": client}, "USDT")

		_, ok := fetcher.Fetch(context.Background(), token, "binance")
		assert.False(t, ok)
		assert.Empty(t, client.requested)
	})

	t.Run("unavailable client is absent", func(t *testing.T) {
		fetcher := NewFetcher(stubProvider{}, "USDT")

		_, ok := fetcher.Fetch(context.Background(), token, "binance")
		assert.False(t, ok)
	})

	t.Run("ticker error is absent", func(t *testing.T) {
		client := &stubClient{
			name:      "binance",
			symbols:   map[string]bool{"eth/USDT": true},
			tickerErr: errors.New("timeout"),
		}
		fetcher := NewFetcher(stubProvider{"binance": client}, "USDT")

		_, ok := fetcher.Fetch(context.Background(), token, "binance")
		assert.False(t, ok)
	})
}

func TestFetcherFetchAll(t *testing.T) {
	token := entity.Token{ID: "t1", Symbol: "BTC"}
	listed := map[string]bool{"BTC/USDT": true}

	provider := stubProvider{
		"slow":     &stubClient{name: "slow", symbols: listed, ticker: ticker("1", "2", "1.5"), delay: 50 * time.Millisecond},
		"fast":     &stubClient{name: "fast", symbols: listed, ticker: ticker("3", "4", "3.5")},
		"broken":   &stubClient{name: "broken", symbols: listed, tickerErr: errors.New("503")},
		"unlisted": &stubClient{name: "unlisted", symbols: map[string]bool{}},
	}
	fetcher := NewFetcher(provider, "USDT")

	quotes := fetcher.FetchAll(context.Background(), token, []string{"slow", "broken", "missing", "fast", "unlisted"})
	require.Len(t, quotes, 2)
	assert.Equal(t, "slow", quotes[0].Exchange)
	assert.Equal(t, "fast", quotes[1].Exchange)

	exact := fetcher.FetchPairAll(context.Background(), "btc/usdt", []string{"slow", "fast"})
	assert.Empty(t, exact)
}
