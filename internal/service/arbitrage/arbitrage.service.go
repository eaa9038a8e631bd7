package arbitrage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	activeTokenLimit        = 100
	activeExchangeLimit     = 100
	transactionLogLimit     = 100
	defaultOpportunityLimit = 50
)

var (
	ErrTokenNotFound            = errors.New("token not found")
	ErrOpportunityNotFound      = errors.New("opportunity not found")
	ErrOpportunityNotExecutable = errors.New("opportunity is not executable")
	ErrInvalidExecutionAmount   = errors.New("usdt amount must be greater than zero")
	ErrInvalidBuyPrice          = errors.New("opportunity buy price must be greater than zero")
	ErrSameExchange             = errors.New("buy and sell exchange must differ")

	errExecutionInterrupted = errors.New("opportunity left executing status during execution")
)

type TokenRepository interface {
	GetActive(ctx context.Context, limit uint64) ([]entity.Token, error)
	GetByID(ctx context.Context, id string) (*entity.Token, error)
}

type ExchangeCredentialRepository interface {
	GetActive(ctx context.Context, limit uint64) ([]entity.ExchangeCredential, error)
}

type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *entity.ArbitrageOpportunity) error
	CreateMany(ctx context.Context, opportunities []entity.ArbitrageOpportunity) error
	GetByStatus(ctx context.Context, statuses []entity.OpportunityStatus, limit uint64) ([]entity.ArbitrageOpportunity, error)
	GetByID(ctx context.Context, id string) (*entity.ArbitrageOpportunity, error)
	DeleteByID(ctx context.Context, id string) error
	// TransitionStatus sets to only while the current status is in from and
	// reports whether a row changed.
	TransitionStatus(ctx context.Context, id string, from []entity.OpportunityStatus, to entity.OpportunityStatus) (bool, error)
}

type TransactionLogRepository interface {
	CreateMany(ctx context.Context, logs []entity.TransactionLog) error
	GetByOpportunityID(ctx context.Context, opportunityID string, limit uint64) ([]entity.TransactionLog, error)
}

type QuoteFetcher interface {
	Fetch(ctx context.Context, token entity.Token, exchangeName string) (*entity.Quote, bool)
	FetchAll(ctx context.Context, token entity.Token, exchanges []string) []entity.Quote
	FetchPairAll(ctx context.Context, pair string, exchanges []string) []entity.Quote
}

type Broadcaster interface {
	Broadcast(ctx context.Context, event entity.NotificationEvent)
}

type Service struct {
	cfg             config.ArbitrageConfig
	tokenRepo       TokenRepository
	credentialRepo  ExchangeCredentialRepository
	opportunityRepo OpportunityRepository
	transactionRepo TransactionLogRepository
	fetcher         QuoteFetcher
	detector        *Detector
	dedup           Deduplicator
	broadcaster     Broadcaster
	origin          string
	now             func() time.Time
	newID           func() string
}

type ServiceOption func(*Service)

// WithDeduplicator suppresses repeated detections; see RedisDeduplicator.
func WithDeduplicator(dedup Deduplicator) ServiceOption {
	return func(s *Service) {
		s.dedup = dedup
	}
}

// WithOrigin stamps every produced event with the producing process id.
func WithOrigin(origin string) ServiceOption {
	return func(s *Service) {
		s.origin = origin
	}
}

func NewService(
	cfg config.ArbitrageConfig,
	tokenRepo TokenRepository,
	credentialRepo ExchangeCredentialRepository,
	opportunityRepo OpportunityRepository,
	transactionRepo TransactionLogRepository,
	fetcher QuoteFetcher,
	broadcaster Broadcaster,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		cfg:             cfg,
		tokenRepo:       tokenRepo,
		credentialRepo:  credentialRepo,
		opportunityRepo: opportunityRepo,
		transactionRepo: transactionRepo,
		fetcher:         fetcher,
		detector:        NewDetector(cfg),
		broadcaster:     broadcaster,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// activeExchangeNames lists credential names once each, case-insensitively, in
// creation order.
func (s *Service) activeExchangeNames(ctx context.Context) ([]string, error) {
	credentials, err := s.credentialRepo.GetActive(ctx, activeExchangeLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(credentials))
	names := make([]string, 0, len(credentials))
	for _, credential := range credentials {
		key := strings.ToLower(credential.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, credential.Name)
	}

	return names, nil
}

// exchangesForToken narrows exchanges to the token's monitored set. An empty
// monitored set means every active exchange.
func exchangesForToken(token entity.Token, exchanges []string) []string {
	if len(token.MonitoredExchanges) == 0 {
		return exchanges
	}

	filtered := make([]string, 0, len(exchanges))
	for _, name := range exchanges {
		for _, monitored := range token.MonitoredExchanges {
			if strings.EqualFold(strings.TrimSpace(monitored), name) {
				filtered = append(filtered, name)
				break
			}
		}
	}
	return filtered
}

// DetectOpportunities runs one detection cycle over every active token and
// persists the qualifying opportunities as a single batch.
func (s *Service) DetectOpportunities(ctx context.Context) ([]entity.ArbitrageOpportunity, error) {
	tokens, err := s.tokenRepo.GetActive(ctx, activeTokenLimit)
	if err != nil {
		return nil, err
	}

	exchanges, err := s.activeExchangeNames(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]*entity.ArbitrageOpportunity, len(tokens))

	var eg errgroup.Group
	if s.cfg.MaxConcurrentTokens > 0 {
		eg.SetLimit(s.cfg.MaxConcurrentTokens)
	}
	for i, token := range tokens {
		eg.Go(func() error {
			found[i] = s.detectToken(ctx, token, exchangesForToken(token, exchanges))
			return nil
		})
	}
	_ = eg.Wait()

	opportunities := make([]entity.ArbitrageOpportunity, 0, len(tokens))
	for _, opportunity := range found {
		if opportunity != nil {
			opportunities = append(opportunities, *opportunity)
		}
	}

	if len(opportunities) == 0 {
		return opportunities, nil
	}

	if err := s.opportunityRepo.CreateMany(ctx, opportunities); err != nil {
		s.forgetDedup(ctx, opportunities)
		return nil, err
	}

	for i := range opportunities {
		s.broadcast(ctx, entity.NotificationEvent{
			Type:          constant.EventTypeArbitrageDetected,
			OpportunityID: opportunities[i].ID,
			Opportunity:   &opportunities[i],
		})
	}

	logrus.WithFields(logrus.Fields{
		"tokens":        len(tokens),
		"exchanges":     len(exchanges),
		"opportunities": len(opportunities),
	}).Info("detection cycle finished")

	return opportunities, nil
}

func (s *Service) detectToken(ctx context.Context, token entity.Token, exchanges []string) *entity.ArbitrageOpportunity {
	if len(exchanges) < 2 {
		return nil
	}

	quotes := s.fetcher.FetchAll(ctx, token, exchanges)
	opportunity, ok := s.detector.Detect(token, quotes)
	if !ok {
		return nil
	}

	if s.dedup != nil {
		allowed, err := s.dedup.Allow(ctx, dedupKey(opportunity))
		if err != nil {
			logrus.WithField("token", token.Symbol).Warnf("dedup check failed, keeping opportunity: %v", err)
		} else if !allowed {
			logrus.WithFields(logrus.Fields{
				"token": token.Symbol,
				"buy":   opportunity.BuyExchange,
				"sell":  opportunity.SellExchange,
			}).Debug("opportunity suppressed by dedup window")
			return nil
		}
	}

	return opportunity
}

func dedupKey(opportunity *entity.ArbitrageOpportunity) string {
	return constant.GetOpportunityDedupKey(
		opportunity.TokenID,
		strings.ToLower(opportunity.BuyExchange),
		strings.ToLower(opportunity.SellExchange),
	)
}

// forgetDedup releases the dedup keys of a batch that failed to persist so the
// next cycle can detect it again.
func (s *Service) forgetDedup(ctx context.Context, opportunities []entity.ArbitrageOpportunity) {
	if s.dedup == nil {
		return
	}

	keys := make([]string, 0, len(opportunities))
	for i := range opportunities {
		keys = append(keys, dedupKey(&opportunities[i]))
	}
	if err := s.dedup.Forget(ctx, keys...); err != nil {
		logrus.Warnf("failed to release dedup keys: %v", err)
	}
}

func (s *Service) ListActiveOpportunities(ctx context.Context) ([]entity.ArbitrageOpportunity, error) {
	limit := s.cfg.OpportunityLimit
	if limit == 0 {
		limit = defaultOpportunityLimit
	}
	return s.opportunityRepo.GetByStatus(ctx, entity.ActiveOpportunityStatuses, limit)
}

func (s *Service) GetOpportunity(ctx context.Context, id string) (*entity.ArbitrageOpportunity, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrOpportunityNotFound
	}

	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOpportunityNotFound
	}
	if err != nil {
		return nil, err
	}
	return opportunity, nil
}

func (s *Service) DeleteOpportunity(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrOpportunityNotFound
	}

	err := s.opportunityRepo.DeleteByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOpportunityNotFound
	}
	return err
}

func (s *Service) getToken(ctx context.Context, id string) (*entity.Token, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrTokenNotFound
	}

	token, err := s.tokenRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// CreateManualSelection records a user chosen exchange pair at the current
// buy ask and sell bid. Unavailable prices are stored as zero.
func (s *Service) CreateManualSelection(ctx context.Context, req entity.ManualSelectionRequest) (*entity.ArbitrageOpportunity, error) {
	if strings.EqualFold(strings.TrimSpace(req.BuyExchange), strings.TrimSpace(req.SellExchange)) {
		return nil, ErrSameExchange
	}

	token, err := s.getToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	buyPrice, sellPrice := decimal.Zero, decimal.Zero
	if q, ok := s.fetcher.Fetch(ctx, *token, req.BuyExchange); ok {
		buyPrice = q.Ask
	}
	if q, ok := s.fetcher.Fetch(ctx, *token, req.SellExchange); ok {
		sellPrice = q.Bid
	}

	spreadPercent := decimal.Zero
	if buyPrice.IsPositive() {
		spreadPercent = sellPrice.Sub(buyPrice).Div(buyPrice).Mul(hundred)
	}

	opportunity := &entity.ArbitrageOpportunity{
		ID:                    s.newID(),
		TokenID:               token.ID,
		TokenSymbol:           token.Symbol,
		BuyExchange:           req.BuyExchange,
		SellExchange:          req.SellExchange,
		BuyPrice:              buyPrice,
		SellPrice:             sellPrice,
		SpreadPercent:         spreadPercent.Round(4),
		Confidence:            hundred,
		RecommendedUSDTAmount: hundred,
		Status:                entity.OpportunityStatusManual,
		IsManualSelection:     true,
		DetectedAt:            s.now(),
	}

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, err
	}

	return opportunity, nil
}

// GetPrices returns the exact pair symbol on every active exchange listing it.
func (s *Service) GetPrices(ctx context.Context, symbol string) ([]entity.Quote, error) {
	exchanges, err := s.activeExchangeNames(ctx)
	if err != nil {
		return nil, err
	}

	return s.fetcher.FetchPairAll(ctx, symbol, exchanges), nil
}

// GetAllTokenPrices returns quotes for every active token. Tokens without any
// quote are left out.
func (s *Service) GetAllTokenPrices(ctx context.Context) ([]entity.TokenPrices, error) {
	tokens, err := s.tokenRepo.GetActive(ctx, activeTokenLimit)
	if err != nil {
		return nil, err
	}

	exchanges, err := s.activeExchangeNames(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]*entity.TokenPrices, len(tokens))

	var eg errgroup.Group
	if s.cfg.MaxConcurrentTokens > 0 {
		eg.SetLimit(s.cfg.MaxConcurrentTokens)
	}
	for i, token := range tokens {
		eg.Go(func() error {
			quotes := s.fetcher.FetchAll(ctx, token, exchanges)
			if len(quotes) > 0 {
				found[i] = &entity.TokenPrices{
					TokenID:     token.ID,
					TokenSymbol: token.Symbol,
					Prices:      quotes,
				}
			}
			return nil
		})
	}
	_ = eg.Wait()

	prices := make([]entity.TokenPrices, 0, len(tokens))
	for _, p := range found {
		if p != nil {
			prices = append(prices, *p)
		}
	}

	return prices, nil
}

func (s *Service) GetTransactionLogs(ctx context.Context, opportunityID string) ([]entity.TransactionLog, error) {
	if uuid.Validate(opportunityID) != nil {
		return []entity.TransactionLog{}, nil
	}
	return s.transactionRepo.GetByOpportunityID(ctx, opportunityID, transactionLogLimit)
}

func (s *Service) broadcast(ctx context.Context, event entity.NotificationEvent) {
	if s.broadcaster == nil {
		return
	}
	if event.Origin == "" {
		event.Origin = s.origin
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.broadcaster.Broadcast(ctx, event)
}

func (s *Service) markFailed(ctx context.Context, id string, cause error) error {
	logger := logrus.WithField("opportunity_id", id)
	logger.Errorf("execution failed: %v", cause)

	executing := []entity.OpportunityStatus{entity.OpportunityStatusExecuting}
	if _, err := s.opportunityRepo.TransitionStatus(ctx, id, executing, entity.OpportunityStatusFailed); err != nil {
		logger.Errorf("failed to mark opportunity as failed: %v", err)
	}

	return fmt.Errorf("execute opportunity %s: %w", id, cause)
}
