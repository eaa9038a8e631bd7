package quote

import (
	"context"
	"strings"
	"time"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type ClientProvider interface {
	Get(ctx context.Context, name string) (entity.ExchangeClient, bool)
}

type Fetcher struct {
	clients    ClientProvider
	quoteAsset string
	now        func() time.Time
}

func NewFetcher(clients ClientProvider, quoteAsset string) *Fetcher {
	quoteAsset = strings.TrimSpace(quoteAsset)
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}

	return &Fetcher{
		clients:    clients,
		quoteAsset: quoteAsset,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CandidateSymbols lists the pair ids tried for a token, in lookup order:
// canonical, upper case, lower case. Duplicates are dropped.
func CandidateSymbols(symbol, quoteAsset string) []string {
	canonical := symbol + "/" + quoteAsset
	candidates := make([]string, 0, 3)
	for _, candidate := range []string{canonical, strings.ToUpper(canonical), strings.ToLower(canonical)} {
		duplicate := false
		for _, existing := range candidates {
			if existing == candidate {
				duplicate = true
				break
			}
		}
		if !duplicate {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// Fetch returns the current quote of token on exchangeName. Absence covers an
// unavailable client, an unlisted pair and a failed ticker request.
func (f *Fetcher) Fetch(ctx context.Context, token entity.Token, exchangeName string) (*entity.Quote, bool) {
	return f.fetch(ctx, CandidateSymbols(token.Symbol, f.quoteAsset), exchangeName)
}

// FetchPair looks up one exact pair id without case fallbacks.
func (f *Fetcher) FetchPair(ctx context.Context, pair, exchangeName string) (*entity.Quote, bool) {
	return f.fetch(ctx, []string{pair}, exchangeName)
}

func (f *Fetcher) fetch(ctx context.Context, candidates []string, exchangeName string) (*entity.Quote, bool) {
	logger := logrus.WithField("exchange", exchangeName)

	client, ok := f.clients.Get(ctx, exchangeName)
	if !ok {
		return nil, false
	}

	for _, pair := range candidates {
		if !client.HasSymbol(pair) {
			continue
		}

		ticker, err := client.FetchTicker(ctx, pair)
		if err != nil {
			logger.WithField("symbol", pair).Warnf("failed to fetch ticker: %v", err)
			return nil, false
		}

		return &entity.Quote{
			Exchange:  exchangeName,
			Symbol:    pair,
			Bid:       ticker.Bid,
			Ask:       ticker.Ask,
			Last:      ticker.Last,
			Timestamp: f.now(),
		}, true
	}

	logger.WithField("symbol", candidates[0]).Debug("pair not listed")

	return nil, false
}

// FetchAll queries every exchange concurrently and returns the quotes found,
// ordered like exchanges. A failing exchange never cancels the others.
func (f *Fetcher) FetchAll(ctx context.Context, token entity.Token, exchanges []string) []entity.Quote {
	candidates := CandidateSymbols(token.Symbol, f.quoteAsset)
	return f.fanOut(ctx, exchanges, func(exchangeName string) (*entity.Quote, bool) {
		return f.fetch(ctx, candidates, exchangeName)
	})
}

// FetchPairAll is FetchAll for one exact pair id.
func (f *Fetcher) FetchPairAll(ctx context.Context, pair string, exchanges []string) []entity.Quote {
	return f.fanOut(ctx, exchanges, func(exchangeName string) (*entity.Quote, bool) {
		return f.fetch(ctx, []string{pair}, exchangeName)
	})
}

func (f *Fetcher) fanOut(ctx context.Context, exchanges []string, fetch func(exchangeName string) (*entity.Quote, bool)) []entity.Quote {
	slots := make([]*entity.Quote, len(exchanges))

	var eg errgroup.Group
	for i, exchangeName := range exchanges {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if q, ok := fetch(exchangeName); ok {
				slots[i] = q
			}
			return nil
		})
	}
	_ = eg.Wait()

	quotes := make([]entity.Quote, 0, len(exchanges))
	for _, q := range slots {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}

	return quotes
}
