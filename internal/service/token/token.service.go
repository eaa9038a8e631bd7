package token

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/sirupsen/logrus"
)

const listLimit = 100

var (
	ErrTokenNotFound = errors.New("token not found")
)

type Repository interface {
	Create(ctx context.Context, token *entity.Token) error
	GetActive(ctx context.Context, limit uint64) ([]entity.Token, error)
	GetByID(ctx context.Context, id string) (*entity.Token, error)
	SoftDelete(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, req entity.CreateTokenRequest) (*entity.Token, error) {
	monitored := make([]string, 0, len(req.MonitoredExchanges))
	for _, name := range req.MonitoredExchanges {
		name = strings.TrimSpace(name)
		if name != "" {
			monitored = append(monitored, name)
		}
	}

	token := &entity.Token{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Symbol:             strings.TrimSpace(req.Symbol),
		ContractAddress:    strings.TrimSpace(req.ContractAddress),
		MonitoredExchanges: monitored,
		IsActive:           true,
		CreatedAt:          s.now(),
	}

	if err := s.repo.Create(ctx, token); err != nil {
		logrus.WithField("symbol", token.Symbol).Error(err)
		return nil, err
	}

	return token, nil
}

func (s *Service) List(ctx context.Context) ([]entity.Token, error) {
	return s.repo.GetActive(ctx, listLimit)
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Token, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrTokenNotFound
	}

	token, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrTokenNotFound
	}

	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenNotFound
	}
	return err
}
