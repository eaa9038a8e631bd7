package wallet

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound = errors.New("wallet not configured")
)

type Repository interface {
	Upsert(ctx context.Context, wallet *entity.WalletConfig) error
	Get(ctx context.Context) (*entity.WalletConfig, error)
	UpdateBalance(ctx context.Context, bnb, usdt decimal.Decimal) error
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

type Service struct {
	repo   Repository
	cipher Encrypter
	now    func() time.Time
}

func NewService(repo Repository, cipher Encrypter) *Service {
	return &Service{
		repo:   repo,
		cipher: cipher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DeriveAddress is a placeholder address: "0x" and the first 40 hex digits
// of sha256(privateKey). It is not a real chain address.
func DeriveAddress(privateKey string) string {
	sum := sha256.Sum256([]byte(privateKey))
	return "0x" + hex.EncodeToString(sum[:])[:40]
}

func (s *Service) Save(ctx context.Context, req entity.SaveWalletRequest) (*entity.WalletConfig, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = DeriveAddress(req.PrivateKey)
	}

	sealed, err := s.cipher.Encrypt(req.PrivateKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wallet := &entity.WalletConfig{
		ID:                  uuid.NewString(),
		Address:             address,
		PrivateKeyEncrypted: sealed,
		BalanceBNB:          decimal.Zero,
		BalanceUSDT:         decimal.Zero,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Upsert(ctx, wallet); err != nil {
		return nil, err
	}

	return wallet, nil
}

// Get returns nil without error when no wallet is configured.
func (s *Service) Get(ctx context.Context) (*entity.WalletConfig, error) {
	wallet, err := s.repo.Get(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *Service) UpdateBalance(ctx context.Context, bnb, usdt decimal.Decimal) error {
	err := s.repo.UpdateBalance(ctx, bnb, usdt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrWalletNotFound
	}
	return err
}
