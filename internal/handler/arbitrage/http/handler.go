package http

import (
	"context"
	"net/http"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/service/dashboard"
	"github.com/shopspring/decimal"
)

type ArbitrageService interface {
	DetectOpportunities(ctx context.Context) ([]entity.ArbitrageOpportunity, error)
	ListActiveOpportunities(ctx context.Context) ([]entity.ArbitrageOpportunity, error)
	CreateManualSelection(ctx context.Context, req entity.ManualSelectionRequest) (*entity.ArbitrageOpportunity, error)
	DeleteOpportunity(ctx context.Context, id string) error
	Execute(ctx context.Context, req entity.ExecuteArbitrageRequest) (*entity.ExecutionResult, error)
	GetPrices(ctx context.Context, symbol string) ([]entity.Quote, error)
	GetAllTokenPrices(ctx context.Context) ([]entity.TokenPrices, error)
	GetTransactionLogs(ctx context.Context, opportunityID string) ([]entity.TransactionLog, error)
}

type TokenService interface {
	Create(ctx context.Context, req entity.CreateTokenRequest) (*entity.Token, error)
	List(ctx context.Context) ([]entity.Token, error)
	Get(ctx context.Context, id string) (*entity.Token, error)
	Delete(ctx context.Context, id string) error
}

type CredentialService interface {
	Create(ctx context.Context, req entity.CreateExchangeRequest) (*entity.ExchangeCredential, error)
	List(ctx context.Context) ([]entity.ExchangeCredential, error)
	Delete(ctx context.Context, id string) error
	TestConnection(ctx context.Context, req entity.CreateExchangeRequest) error
}

type WalletService interface {
	Save(ctx context.Context, req entity.SaveWalletRequest) (*entity.WalletConfig, error)
	Get(ctx context.Context) (*entity.WalletConfig, error)
	UpdateBalance(ctx context.Context, bnb, usdt decimal.Decimal) error
}

type DashboardService interface {
	Stats(ctx context.Context) (*entity.Stats, error)
	Health() dashboard.Health
}

type Handler struct {
	arbitrage  ArbitrageService
	tokens     TokenService
	exchanges  CredentialService
	wallet     WalletService
	dashboard  DashboardService
	validation *validation
}

func NewArbitrageHTTPHandler(
	arbitrage ArbitrageService,
	tokens TokenService,
	exchanges CredentialService,
	wallet WalletService,
	dashboard DashboardService,
) *Handler {
	return &Handler{
		arbitrage:  arbitrage,
		tokens:     tokens,
		exchanges:  exchanges,
		wallet:     wallet,
		dashboard:  dashboard,
		validation: newValidation(),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/{$}", h.Root)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/stats", h.Stats)

	mux.HandleFunc("POST /api/tokens", h.CreateToken)
	mux.HandleFunc("GET /api/tokens", h.ListTokens)
	mux.HandleFunc("GET /api/tokens/{id}", h.GetToken)
	mux.HandleFunc("DELETE /api/tokens/{id}", h.DeleteToken)

	mux.HandleFunc("POST /api/exchanges", h.CreateExchange)
	mux.HandleFunc("GET /api/exchanges", h.ListExchanges)
	mux.HandleFunc("DELETE /api/exchanges/{id}", h.DeleteExchange)
	mux.HandleFunc("POST /api/exchanges/test", h.TestExchangeConnection)

	mux.HandleFunc("POST /api/wallet", h.SaveWallet)
	mux.HandleFunc("GET /api/wallet", h.GetWallet)
	mux.HandleFunc("PUT /api/wallet/balance", h.UpdateWalletBalance)

	mux.HandleFunc("GET /api/prices/{symbol}", h.GetPrices)
	mux.HandleFunc("GET /api/prices/all/tokens", h.GetAllTokenPrices)

	mux.HandleFunc("GET /api/arbitrage/detect", h.DetectOpportunities)
	mux.HandleFunc("GET /api/arbitrage/opportunities", h.ListOpportunities)
	mux.HandleFunc("POST /api/arbitrage/manual-selection", h.CreateManualSelection)
	mux.HandleFunc("DELETE /api/arbitrage/opportunities/{id}", h.DeleteOpportunity)
	mux.HandleFunc("POST /api/arbitrage/execute", h.Execute)

	mux.HandleFunc("GET /api/transactions/{id}", h.GetTransactionLogs)
}
