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
	"github.com/sirupsen/logrus"
)

const (
	tokocryptoDefaultBaseURL = "https://www.tokocrypto.com"
	tokocryptoDepthLimit     = "5"
)

var _ entity.ExchangeClient = (*TokocryptoExchange)(nil)

type TokocryptoExchange struct {
	*restClient
}

func NewTokocryptoExchange(cfg entity.ExchangeClientConfig, setting config.ExchangeConfig) *TokocryptoExchange {
	return &TokocryptoExchange{
		restClient: newRESTClient(cfg, setting, tokocryptoDefaultBaseURL),
	}
}

// getJSON unwraps the {code, msg, data} envelope used by the open api.
func (e *TokocryptoExchange) getJSON(ctx context.Context, path string, query url.Values, signed bool, out any) error {
	status, body, err := e.get(ctx, path, query, signed)
	if err != nil {
		return err
	}

	var apiResp struct {
		Code    int             `json:"code"`
		Msg     string          `json:"msg"`
		Message string          `json:"message"`
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("tokocrypto response parse failed: path=%s status=%d body=%s", path, status, string(body))
	}

	if status >= http.StatusBadRequest || apiResp.Code != 0 || (apiResp.Success != nil && !*apiResp.Success) {
		errMsg := apiResp.Message
		if errMsg == "" {
			errMsg = apiResp.Msg
		}
		if errMsg == "" {
			errMsg = "unknown error"
		}

		return fmt.Errorf("tokocrypto request rejected: path=%s status=%d code=%d message=%s", path, status, apiResp.Code, errMsg)
	}

	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("tokocrypto data parse failed: path=%s: %w", path, err)
	}

	return nil
}

func (e *TokocryptoExchange) LoadMarkets(ctx context.Context) error {
	var data struct {
		List []struct {
			Symbol            string `json:"symbol"`
			BaseAsset         string `json:"baseAsset"`
			QuoteAsset        string `json:"quoteAsset"`
			SpotTradingEnable int    `json:"spotTradingEnable"`
		} `json:"list"`
	}

	if err := e.getJSON(ctx, "/open/v1/common/symbols", nil, false, &data); err != nil {
		return err
	}

	markets := make(map[string]string, len(data.List))
	for _, item := range data.List {
		if item.SpotTradingEnable != 1 || item.BaseAsset == "" || item.QuoteAsset == "" {
			continue
		}
		markets[unifiedSymbol(item.BaseAsset, item.QuoteAsset)] = strings.ToUpper(item.Symbol)
	}
	e.setMarkets(markets)

	return nil
}

// FetchTicker reads the top of the order book. The last trade price is best
// effort and stays zero when the trades endpoint fails.
func (e *TokocryptoExchange) FetchTicker(ctx context.Context, pair string) (entity.Ticker, error) {
	symbol, err := e.nativeSymbol(pair)
	if err != nil {
		return entity.Ticker{}, err
	}

	var depth struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}

	err = e.getJSON(ctx, "/open/v1/market/depth", url.Values{
		"symbol": {symbol},
		"limit":  {tokocryptoDepthLimit},
	}, false, &depth)
	if err != nil {
		return entity.Ticker{}, err
	}

	ticker := entity.Ticker{
		Symbol: pair,
		Bid:    bestLevelPrice(depth.Bids),
		Ask:    bestLevelPrice(depth.Asks),
		Last:   decimal.Zero,
	}

	var trades struct {
		List []struct {
			Price string `json:"price"`
		} `json:"list"`
	}
	err = e.getJSON(ctx, "/open/v1/market/trades", url.Values{
		"symbol": {symbol},
		"limit":  {"1"},
	}, false, &trades)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"exchange": e.Name(),
			"symbol":   symbol,
		}).Debugf("tokocrypto last trade unavailable: %v", err)
		return ticker, nil
	}
	if len(trades.List) > 0 {
		ticker.Last = decimalOrZero(trades.List[0].Price)
	}

	return ticker, nil
}

func (e *TokocryptoExchange) FetchBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var data struct {
		AccountAssets []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"accountAssets"`
	}

	if err := e.getJSON(ctx, "/open/v1/account/spot", nil, true, &data); err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(data.AccountAssets))
	for _, item := range data.AccountAssets {
		balances[strings.ToUpper(item.Asset)] = decimalOrZero(item.Free).Add(decimalOrZero(item.Locked))
	}

	return balances, nil
}

func bestLevelPrice(levels [][]string) decimal.Decimal {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return decimal.Zero
	}
	return decimalOrZero(levels[0][0])
}
