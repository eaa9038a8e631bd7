package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
)

const binanceDefaultBaseURL = "https://api.binance.com"

var _ entity.ExchangeClient = (*BinanceExchange)(nil)

type BinanceExchange struct {
	*restClient
}

func NewBinanceExchange(cfg entity.ExchangeClientConfig, setting config.ExchangeConfig) *BinanceExchange {
	return &BinanceExchange{
		restClient: newRESTClient(cfg, setting, binanceDefaultBaseURL),
	}
}

type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *BinanceExchange) getJSON(ctx context.Context, path string, query url.Values, signed bool, out any) error {
	status, body, err := e.get(ctx, path, query, signed)
	if err != nil {
		return err
	}

	if status >= http.StatusBadRequest {
		var apiErr binanceError
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("binance request rejected: path=%s status=%d code=%d message=%s", path, status, apiErr.Code, apiErr.Msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("binance response parse failed: path=%s status=%d body=%s", path, status, string(body))
	}

	return nil
}

func (e *BinanceExchange) LoadMarkets(ctx context.Context) error {
	var resp struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			Status     string `json:"status"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
		} `json:"symbols"`
	}

	if err := e.getJSON(ctx, "/api/v3/exchangeInfo", nil, false, &resp); err != nil {
		return err
	}

	markets := make(map[string]string, len(resp.Symbols))
	for _, item := range resp.Symbols {
		if !strings.EqualFold(item.Status, "TRADING") || item.BaseAsset == "" || item.QuoteAsset == "" {
			continue
		}
		markets[unifiedSymbol(item.BaseAsset, item.QuoteAsset)] = strings.ToUpper(item.Symbol)
	}
	e.setMarkets(markets)

	return nil
}

func (e *BinanceExchange) FetchTicker(ctx context.Context, pair string) (entity.Ticker, error) {
	symbol, err := e.nativeSymbol(pair)
	if err != nil {
		return entity.Ticker{}, err
	}

	var resp struct {
		Symbol    string `json:"symbol"`
		BidPrice  string `json:"bidPrice"`
		AskPrice  string `json:"askPrice"`
		LastPrice string `json:"lastPrice"`
	}

	if err := e.getJSON(ctx, "/api/v3/ticker/24hr", url.Values{"symbol": {symbol}}, false, &resp); err != nil {
		return entity.Ticker{}, err
	}

	return entity.Ticker{
		Symbol: pair,
		Bid:    decimalOrZero(resp.BidPrice),
		Ask:    decimalOrZero(resp.AskPrice),
		Last:   decimalOrZero(resp.LastPrice),
	}, nil
}

func (e *BinanceExchange) FetchBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var resp struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}

	if err := e.getJSON(ctx, "/api/v3/account", nil, true, &resp); err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(resp.Balances))
	for _, item := range resp.Balances {
		balances[strings.ToUpper(item.Asset)] = decimalOrZero(item.Free).Add(decimalOrZero(item.Locked))
	}

	return balances, nil
}
