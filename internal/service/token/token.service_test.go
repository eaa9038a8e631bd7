package token

import (
	"context"
	"database/sql"
	"testing"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, token *entity.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRepository) GetActive(ctx context.Context, limit uint64) ([]entity.Token, error) {
	args := m.Called(ctx, limit)
	tokens, _ := args.Get(0).([]entity.Token)
	return tokens, args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*entity.Token, error) {
	args := m.Called(ctx, id)
	token, _ := args.Get(0).(*entity.Token)
	return token, args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

const tokenID = "5b1f2a4e-3c55-4e0f-9a7d-2c1e6f8b9d01"

func TestServiceCreate(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Token")).Return(nil)

	token, err := NewService(repo).Create(context.Background(), entity.CreateTokenRequest{
		Name:               " Bitcoin ",
		Symbol:             "BTC",
		ContractAddress:    "0xabc",
		MonitoredExchanges: []string{"binance", " ", " tokocrypto"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token.ID)
	assert.Equal(t, "Bitcoin", token.Name)
	assert.True(t, token.IsActive)
	assert.Equal(t, []string{"binance", "tokocrypto"}, []string(token.MonitoredExchanges))
	assert.False(t, token.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestServiceGet(t *testing.T) {
	t.Run("malformed id is not found", func(t *testing.T) {
		repo := new(MockRepository)
		_, err := NewService(repo).Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrTokenNotFound)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", mock.Anything, tokenID).Return(nil, sql.ErrNoRows)
		_, err := NewService(repo).Get(context.Background(), tokenID)
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByID", mock.Anything, tokenID).Return(&entity.Token{ID: tokenID, Symbol: "BTC"}, nil)
		token, err := NewService(repo).Get(context.Background(), tokenID)
		require.NoError(t, err)
		assert.Equal(t, "BTC", token.Symbol)
	})
}

func TestServiceList(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetActive", mock.Anything, uint64(listLimit)).Return([]entity.Token{{ID: tokenID}}, nil)

	tokens, err := NewService(repo).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestServiceDelete(t *testing.T) {
	repo := new(MockRepository)
	repo.On("SoftDelete", mock.Anything, tokenID).Return(sql.ErrNoRows).Once()
	repo.On("SoftDelete", mock.Anything, tokenID).Return(nil).Once()

	svc := NewService(repo)
	assert.ErrorIs(t, svc.Delete(context.Background(), tokenID), ErrTokenNotFound)
	assert.NoError(t, svc.Delete(context.Background(), tokenID))
	assert.ErrorIs(t, svc.Delete(context.Background(), "bad-id"), ErrTokenNotFound)
}
