package credential

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/sirupsen/logrus"
)

const listLimit = 100

var (
	ErrExchangeNotFound = errors.New("exchange not found")
)

type Repository interface {
	Create(ctx context.Context, credential *entity.ExchangeCredential) error
	GetActive(ctx context.Context, limit uint64) ([]entity.ExchangeCredential, error)
	GetByID(ctx context.Context, id string) (*entity.ExchangeCredential, error)
	SoftDelete(ctx context.Context, id string) error
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// ClientPool is the part of the exchange registry credential changes touch.
type ClientPool interface {
	Evict(name string)
	TestConnection(ctx context.Context, cfg entity.ExchangeClientConfig) error
}

type Service struct {
	repo   Repository
	cipher Encrypter
	pool   ClientPool
	now    func() time.Time
}

func NewService(repo Repository, cipher Encrypter, pool ClientPool) *Service {
	return &Service{
		repo:   repo,
		cipher: cipher,
		pool:   pool,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the credential with every secret field encrypted.
func (s *Service) Create(ctx context.Context, req entity.CreateExchangeRequest) (*entity.ExchangeCredential, error) {
	apiKey, err := s.cipher.Encrypt(req.APIKey)
	if err != nil {
		return nil, err
	}

	apiSecret, err := s.cipher.Encrypt(req.APISecret)
	if err != nil {
		return nil, err
	}

	var additionalParams null.String
	if len(req.AdditionalParams) > 0 {
		raw, err := json.Marshal(req.AdditionalParams)
		if err != nil {
			return nil, err
		}
		sealed, err := s.cipher.Encrypt(string(raw))
		if err != nil {
			return nil, err
		}
		additionalParams = null.StringFrom(sealed)
	}

	credential := &entity.ExchangeCredential{
		ID:                        uuid.NewString(),
		Name:                      strings.TrimSpace(req.Name),
		APIKeyEncrypted:           apiKey,
		APISecretEncrypted:        apiSecret,
		AdditionalParamsEncrypted: additionalParams,
		IsActive:                  true,
		CreatedAt:                 s.now(),
	}

	if err := s.repo.Create(ctx, credential); err != nil {
		logrus.WithField("exchange", credential.Name).Error(err)
		return nil, err
	}

	return credential, nil
}

func (s *Service) List(ctx context.Context) ([]entity.ExchangeCredential, error) {
	return s.repo.GetActive(ctx, listLimit)
}

// Delete deactivates the credential and drops its pooled client.
func (s *Service) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrExchangeNotFound
	}

	credential, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrExchangeNotFound
	}
	if err != nil {
		return err
	}

	err = s.repo.SoftDelete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrExchangeNotFound
	}
	if err != nil {
		return err
	}

	s.pool.Evict(credential.Name)

	return nil
}

func (s *Service) TestConnection(ctx context.Context, req entity.CreateExchangeRequest) error {
	return s.pool.TestConnection(ctx, entity.ExchangeClientConfig{
		Name:             req.Name,
		APIKey:           req.APIKey,
		APISecret:        req.APISecret,
		AdditionalParams: req.AdditionalParams,
	})
}
