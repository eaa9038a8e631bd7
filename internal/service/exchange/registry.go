package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/sirupsen/logrus"
)

type CredentialFinder interface {
	FindActiveByName(ctx context.Context, name string) (*entity.ExchangeCredential, error)
}

type Decrypter interface {
	Decrypt(sealed string) (string, error)
}

// Registry owns one long-lived client per exchange name. Clients are created
// lazily on first use and live until evicted or CloseAll.
type Registry struct {
	credentials CredentialFinder
	cipher      Decrypter
	factory     ClientFactory

	mu      sync.Mutex
	clients map[string]entity.ExchangeClient

	// epoch is bumped by CloseAll and generations[key] by Evict. A build that
	// started under an older value is discarded.
	epoch       uint64
	generations map[string]uint64
}

type buildGeneration struct {
	epoch uint64
	key   uint64
}

func NewRegistry(credentials CredentialFinder, cipher Decrypter, factory ClientFactory) *Registry {
	return &Registry{
		credentials: credentials,
		cipher:      cipher,
		factory:     factory,
		clients:     make(map[string]entity.ExchangeClient),
		generations: make(map[string]uint64),
	}
}

// generationLocked must be called with mu held.
func (r *Registry) generationLocked(key string) buildGeneration {
	return buildGeneration{epoch: r.epoch, key: r.generations[key]}
}

// Get returns the cached client for name, building it on a miss. Any failure
// while building is logged and reported as not found.
func (r *Registry) Get(ctx context.Context, name string) (entity.ExchangeClient, bool) {
	key := normalizeName(name)
	if key == "" {
		return nil, false
	}

	r.mu.Lock()
	client, ok := r.clients[key]
	started := r.generationLocked(key)
	r.mu.Unlock()
	if ok {
		return client, true
	}

	logger := logrus.WithField("exchange", key)

	client, err := r.build(ctx, key)
	if err != nil {
		logger.Warnf("exchange client unavailable: %v", err)
		return nil, false
	}

	// a racing builder may have stored a client meanwhile; the newer one wins
	// and the replaced handle is closed.
	r.mu.Lock()
	if r.generationLocked(key) != started {
		r.mu.Unlock()
		if err := client.Close(); err != nil {
			logger.Warnf("failed to close discarded exchange client: %v", err)
		}
		logger.Info("exchange evicted while its client was being built")
		return nil, false
	}
	previous, exists := r.clients[key]
	r.clients[key] = client
	r.mu.Unlock()

	if exists && previous != client {
		if err := previous.Close(); err != nil {
			logger.Warnf("failed to close replaced exchange client: %v", err)
		}
	}

	logger.Info("exchange client initialized")

	return client, true
}

func (r *Registry) build(ctx context.Context, name string) (entity.ExchangeClient, error) {
	credential, err := r.credentials.FindActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}

	cfg, err := r.decryptCredential(credential)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = DefaultClientTimeout
	cfg.EnableRateLimit = true

	client, err := r.factory(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.LoadMarkets(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("load markets: %w", err)
	}

	return client, nil
}

func (r *Registry) decryptCredential(credential *entity.ExchangeCredential) (entity.ExchangeClientConfig, error) {
	apiKey, err := r.cipher.Decrypt(credential.APIKeyEncrypted)
	if err != nil {
		return entity.ExchangeClientConfig{}, fmt.Errorf("decrypt api key: %w", err)
	}

	apiSecret, err := r.cipher.Decrypt(credential.APISecretEncrypted)
	if err != nil {
		return entity.ExchangeClientConfig{}, fmt.Errorf("decrypt api secret: %w", err)
	}

	cfg := entity.ExchangeClientConfig{
		Name:      strings.ToLower(credential.Name),
		APIKey:    apiKey,
		APISecret: apiSecret,
	}

	if credential.AdditionalParamsEncrypted.Valid && credential.AdditionalParamsEncrypted.String != "" {
		raw, err := r.cipher.Decrypt(credential.AdditionalParamsEncrypted.String)
		if err != nil {
			return entity.ExchangeClientConfig{}, fmt.Errorf("decrypt additional params: %w", err)
		}
		params := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return entity.ExchangeClientConfig{}, fmt.Errorf("decode additional params: %w", err)
		}
		cfg.AdditionalParams = params
	}

	return cfg, nil
}

// Evict closes and forgets the client cached for name, if any. A build for
// name still in flight is discarded when it finishes.
func (r *Registry) Evict(name string) {
	key := normalizeName(name)

	r.mu.Lock()
	client, ok := r.clients[key]
	delete(r.clients, key)
	r.generations[key]++
	r.mu.Unlock()

	if !ok {
		return
	}

	if err := client.Close(); err != nil {
		logrus.WithField("exchange", key).Warnf("failed to close exchange client: %v", err)
	}
}

// CloseAll closes every cached client and empties the registry. Close errors
// are ignored.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]entity.ExchangeClient)
	r.epoch++
	r.mu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
}

func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.clients)
}
