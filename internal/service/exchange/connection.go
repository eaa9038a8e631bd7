package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/krobus00/arbitrage-service/internal/entity"
)

var ErrConnectionFailed = errors.New("connection failed")

// TestConnection builds a throwaway client from plaintext credentials, loads
// markets and reads the balance. The client is never cached.
func (r *Registry) TestConnection(ctx context.Context, cfg entity.ExchangeClientConfig) error {
	cfg.Name = normalizeName(cfg.Name)
	cfg.Timeout = ConnectionTestTimeout
	cfg.EnableRateLimit = true

	client, err := r.factory(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, ConnectionTestTimeout)
	defer cancel()

	if err := client.LoadMarkets(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if _, err := client.FetchBalance(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return nil
}
