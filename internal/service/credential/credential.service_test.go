package credential

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, credential *entity.ExchangeCredential) error {
	return m.Called(ctx, credential).Error(0)
}

func (m *MockRepository) GetActive(ctx context.Context, limit uint64) ([]entity.ExchangeCredential, error) {
	args := m.Called(ctx, limit)
	credentials, _ := args.Get(0).([]entity.ExchangeCredential)
	return credentials, args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*entity.ExchangeCredential, error) {
	args := m.Called(ctx, id)
	credential, _ := args.Get(0).(*entity.ExchangeCredential)
	return credential, args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockClientPool struct {
	mock.Mock
}

func (m *MockClientPool) Evict(name string) {
	m.Called(name)
}

func (m *MockClientPool) TestConnection(ctx context.Context, cfg entity.ExchangeClientConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

type prefixCipher struct {
	err error
}

func (c prefixCipher) Encrypt(plaintext string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "enc:" + plaintext, nil
}

const credentialID = "9d3c2b1a-7e6f-4a5b-8c9d-0e1f2a3b4c5d"

func TestServiceCreate(t *testing.T) {
	t.Run("encrypts every secret", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.ExchangeCredential")).Return(nil)

		credential, err := NewService(repo, prefixCipher{}, new(MockClientPool)).Create(context.Background(), entity.CreateExchangeRequest{
			Name:             "binance",
			APIKey:           "key",
			APISecret:        "secret",
			AdditionalParams: map[string]string{"recv_window": "10000"},
		})
		require.NoError(t, err)

		assert.Equal(t, "enc:key", credential.APIKeyEncrypted)
		assert.Equal(t, "enc:secret", credential.APISecretEncrypted)
		require.True(t, credential.AdditionalParamsEncrypted.Valid)

		var params map[string]string
		require.NoError(t, json.Unmarshal([]byte(credential.AdditionalParamsEncrypted.String[len("enc:"):]), &params))
		assert.Equal(t, "10000", params["recv_window"])
		assert.True(t, credential.IsActive)
	})

	t.Run("no additional params stays null", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		credential, err := NewService(repo, prefixCipher{}, new(MockClientPool)).Create(context.Background(), entity.CreateExchangeRequest{
			Name: "tokocrypto", APIKey: "k", APISecret: "s",
		})
		require.NoError(t, err)
		assert.False(t, credential.AdditionalParamsEncrypted.Valid)
	})

	t.Run("cipher failure writes nothing", func(t *testing.T) {
		repo := new(MockRepository)
		_, err := NewService(repo, prefixCipher{err: errors.New("boom")}, new(MockClientPool)).Create(context.Background(), entity.CreateExchangeRequest{
			Name: "binance", APIKey: "k", APISecret: "s",
		})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestServiceDelete(t *testing.T) {
	t.Run("evicts the pooled client", func(t *testing.T) {
		repo := new(MockRepository)
		pool := new(MockClientPool)
		repo.On("GetByID", mock.Anything, credentialID).Return(&entity.ExchangeCredential{ID: credentialID, Name: "Binance"}, nil)
		repo.On("SoftDelete", mock.Anything, credentialID).Return(nil)
		pool.On("Evict", "Binance").Return()

		require.NoError(t, NewService(repo, prefixCipher{}, pool).Delete(context.Background(), credentialID))
		pool.AssertExpectations(t)
	})

	t.Run("missing credential", func(t *testing.T) {
		repo := new(MockRepository)
		pool := new(MockClientPool)
		repo.On("GetByID", mock.Anything, credentialID).Return(nil, sql.ErrNoRows)

		err := NewService(repo, prefixCipher{}, pool).Delete(context.Background(), credentialID)
		assert.ErrorIs(t, err, ErrExchangeNotFound)
		pool.AssertNotCalled(t, "Evict", mock.Anything)
	})

	t.Run("already inactive", func(t *testing.T) {
		repo := new(MockRepository)
		pool := new(MockClientPool)
		repo.On("GetByID", mock.Anything, credentialID).Return(&entity.ExchangeCredential{ID: credentialID, Name: "binance"}, nil)
		repo.On("SoftDelete", mock.Anything, credentialID).Return(sql.ErrNoRows)

		err := NewService(repo, prefixCipher{}, pool).Delete(context.Background(), credentialID)
		assert.ErrorIs(t, err, ErrExchangeNotFound)
		pool.AssertNotCalled(t, "Evict", mock.Anything)
	})
}

func TestServiceTestConnection(t *testing.T) {
	pool := new(MockClientPool)
	want := errors.New("refused")
	pool.On("TestConnection", mock.Anything, entity.ExchangeClientConfig{
		Name: "binance", APIKey: "k", APISecret: "s",
	}).Return(want)

	err := NewService(new(MockRepository), prefixCipher{}, pool).TestConnection(context.Background(), entity.CreateExchangeRequest{
		Name: "binance", APIKey: "k", APISecret: "s",
	})
	assert.ErrorIs(t, err, want)
}
