package exchange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/entity"
)

const (
	DefaultClientTimeout      = 30 * time.Second
	ConnectionTestTimeout     = 15 * time.Second
	defaultRecvWindow         = int64(5000)
	defaultRateLimitPerSec    = 10.0
	defaultRateLimitBurst     = 5
	additionalParamBaseURL    = "base_url"
	additionalParamRecvWindow = "recv_window"
)

var (
	ErrUnsupportedExchange = errors.New("exchange not supported")
	ErrMarketNotFound      = errors.New("market not found")
	ErrMissingCredential   = errors.New("exchange credentials are missing")
)

// ClientFactory builds an adapter from decrypted credentials. The returned
// client has not loaded markets yet.
type ClientFactory func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error)

// NewClientFactory returns a factory for every adapter shipped with the
// service. settings are keyed by lower-cased exchange name.
func NewClientFactory(settings map[string]config.ExchangeConfig) ClientFactory {
	return func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
		name := normalizeName(cfg.Name)
		setting := settings[name]

		switch entity.ExchangeName(name) {
		case entity.ExchangeTokoCrypto:
			return NewTokocryptoExchange(cfg, setting), nil
		case entity.ExchangeBinance:
			return NewBinanceExchange(cfg, setting), nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, cfg.Name)
		}
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// unifiedSymbol renders a market the way callers address it: "BASE/QUOTE".
func unifiedSymbol(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}
