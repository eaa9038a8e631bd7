package exchange

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCredentialFinder struct {
	mock.Mock
}

func (m *MockCredentialFinder) FindActiveByName(ctx context.Context, name string) (*entity.ExchangeCredential, error) {
	args := m.Called(ctx, name)
	credential, _ := args.Get(0).(*entity.ExchangeCredential)
	return credential, args.Error(1)
}

type prefixCipher struct{}

func (prefixCipher) Decrypt(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, "enc:") {
		return "", errors.New("malformed")
	}
	return strings.TrimPrefix(sealed, "enc:"), nil
}

type fakeClient struct {
	name       string
	marketsErr error
	closed     atomic.Int32
	cfg        entity.ExchangeClientConfig
}

func (f *fakeClient) Name() string                          { return f.name }
func (f *fakeClient) LoadMarkets(ctx context.Context) error { return f.marketsErr }
func (f *fakeClient) HasSymbol(pair string) bool            { return pair == "BTC/USDT" }
func (f *fakeClient) FetchTicker(ctx context.Context, pair string) (entity.Ticker, error) {
	return entity.Ticker{Symbol: pair}, nil
}
func (f *fakeClient) FetchBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}
func (f *fakeClient) Close() error {
	f.closed.Add(1)
	return nil
}

func credentialFor(name string) *entity.ExchangeCredential {
	return &entity.ExchangeCredential{
		ID:                        "cred-" + name,
		Name:                      name,
		APIKeyEncrypted:           "enc:key",
		APISecretEncrypted:        "enc:secret",
		AdditionalParamsEncrypted: null.StringFrom(`enc:{"base_url":"http://localhost"}`),
		IsActive:                  true,
	}
}

func TestRegistryGet(t *testing.T) {
	t.Run("builds once and reuses the cached client", func(t *testing.T) {
		finder := new(MockCredentialFinder)
		finder.On("FindActiveByName", mock.Anything, "binance").Return(credentialFor("Binance"), nil).Once()

		var built []*fakeClient
		factory := func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
			client := &fakeClient{name: cfg.Name, cfg: cfg}
			built = append(built, client)
			return client, nil
		}

		registry := NewRegistry(finder, prefixCipher{}, factory)

		first, ok := registry.Get(context.Background(), "BINANCE")
		require.True(t, ok)
		second, ok := registry.Get(context.Background(), "binance")
		require.True(t, ok)

		assert.Same(t, first, second)
		require.Len(t, built, 1)
		assert.Equal(t, "key", built[0].cfg.APIKey)
		assert.Equal(t, "secret", built[0].cfg.APISecret)
		assert.Equal(t, "http://localhost", built[0].cfg.AdditionalParams["base_url"])
		assert.Equal(t, DefaultClientTimeout, built[0].cfg.Timeout)
		assert.True(t, built[0].cfg.EnableRateLimit)
		assert.Equal(t, 1, registry.Size())
		finder.AssertExpectations(t)
	})

	t.Run("missing credential is not found", func(t *testing.T) {
		finder := new(MockCredentialFinder)
		finder.On("FindActiveByName", mock.Anything, "kraken").Return(nil, sql.ErrNoRows)

		registry := NewRegistry(finder, prefixCipher{}, NewClientFactory(nil))

		client, ok := registry.Get(context.Background(), "kraken")
		assert.False(t, ok)
		assert.Nil(t, client)
		assert.Equal(t, 0, registry.Size())
	})

	t.Run("decrypt failure is not found", func(t *testing.T) {
		credential := credentialFor("binance")
		credential.APISecretEncrypted = "plain"

		finder := new(MockCredentialFinder)
		finder.On("FindActiveByName", mock.Anything, "binance").Return(credential, nil)

		registry := NewRegistry(finder, prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
			t.Fatal("factory must not be called")
			return nil, nil
		})

		_, ok := registry.Get(context.Background(), "binance")
		assert.False(t, ok)
	})

	t.Run("market load failure closes the client and is not found", func(t *testing.T) {
		finder := new(MockCredentialFinder)
		finder.On("FindActiveByName", mock.Anything, "binance").Return(credentialFor("binance"), nil)

		client := &fakeClient{name: "binance", marketsErr: errors.New("timeout")}
		registry := NewRegistry(finder, prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
			return client, nil
		})

		_, ok := registry.Get(context.Background(), "binance")
		assert.False(t, ok)
		assert.Equal(t, int32(1), client.closed.Load())
		assert.Equal(t, 0, registry.Size())
	})

	t.Run("concurrent callers leave one cached client", func(t *testing.T) {
		finder := new(MockCredentialFinder)
		finder.On("FindActiveByName", mock.Anything, "binance").Return(credentialFor("binance"), nil)

		var mu sync.Mutex
		var built []*fakeClient
		registry := NewRegistry(finder, prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
			client := &fakeClient{name: cfg.Name}
			mu.Lock()
			built = append(built, client)
			mu.Unlock()
			return client, nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := registry.Get(context.Background(), "binance")
				assert.True(t, ok)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, registry.Size())

		cached, ok := registry.Get(context.Background(), "binance")
		require.True(t, ok)

		open := 0
		for _, client := range built {
			if client.closed.Load() == 0 {
				open++
				assert.Same(t, client, cached)
			}
		}
		assert.Equal(t, 1, open)
	})
}

func TestRegistryEvictAndCloseAll(t *testing.T) {
	finder := new(MockCredentialFinder)
	finder.On("FindActiveByName", mock.Anything, mock.Anything).Return(credentialFor("binance"), nil)

	clients := map[string]*fakeClient{}
	registry := NewRegistry(finder, prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
		client := &fakeClient{name: cfg.Name}
		clients[cfg.Name] = client
		return client, nil
	})

	_, ok := registry.Get(context.Background(), "binance")
	require.True(t, ok)

	registry.Evict("Binance")
	assert.Equal(t, 0, registry.Size())
	assert.Equal(t, int32(1), clients["binance"].closed.Load())

	registry.Evict("binance")
	assert.Equal(t, int32(1), clients["binance"].closed.Load())

	_, ok = registry.Get(context.Background(), "binance")
	require.True(t, ok)
	registry.CloseAll()
	assert.Equal(t, 0, registry.Size())
	assert.Equal(t, int32(1), clients["binance"].closed.Load())
}

// slowMarketsClient blocks in LoadMarkets until released.
type slowMarketsClient struct {
	*fakeClient
	started chan struct{}
	release chan struct{}
}

func (c *slowMarketsClient) LoadMarkets(ctx context.Context) error {
	close(c.started)
	<-c.release
	return nil
}

func TestRegistryEvictDuringBuild(t *testing.T) {
	for name, discard := range map[string]func(r *Registry){
		"evict":     func(r *Registry) { r.Evict("BINANCE") },
		"close all": func(r *Registry) { r.CloseAll() },
	} {
		t.Run(name, func(t *testing.T) {
			finder := new(MockCredentialFinder)
			finder.On("FindActiveByName", mock.Anything, "binance").Return(credentialFor("binance"), nil)

			client := &slowMarketsClient{
				fakeClient: &fakeClient{name: "binance"},
				started:    make(chan struct{}),
				release:    make(chan struct{}),
			}
			registry := NewRegistry(finder, prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
				return client, nil
			})

			done := make(chan bool)
			go func() {
				_, ok := registry.Get(context.Background(), "binance")
				done <- ok
			}()

			<-client.started
			discard(registry)
			close(client.release)

			assert.False(t, <-done)
			assert.Equal(t, 0, registry.Size())
			assert.Equal(t, int32(1), client.closed.Load())
		})
	}
}

func TestRegistryTestConnection(t *testing.T) {
	t.Run("unsupported exchange", func(t *testing.T) {
		registry := NewRegistry(new(MockCredentialFinder), prefixCipher{}, NewClientFactory(nil))

		err := registry.TestConnection(context.Background(), entity.ExchangeClientConfig{Name: "nowhere"})
		assert.ErrorIs(t, err, ErrUnsupportedExchange)
	})

	t.Run("market failure is a connection failure", func(t *testing.T) {
		client := &fakeClient{name: "binance", marketsErr: errors.New("boom")}
		var got entity.ExchangeClientConfig
		registry := NewRegistry(new(MockCredentialFinder), prefixCipher{}, func(cfg entity.ExchangeClientConfig) (entity.ExchangeClient, error) {
			got = cfg
			return client, nil
		})

		err := registry.TestConnection(context.Background(), entity.ExchangeClientConfig{Name: "Binance"})
		assert.ErrorIs(t, err, ErrConnectionFailed)
		assert.Equal(t, ConnectionTestTimeout, got.Timeout)
		assert.Equal(t, int32(1), client.closed.Load())
		assert.Equal(t, 0, registry.Size())
	})
}
