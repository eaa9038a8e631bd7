package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// restClient holds the transport shared by the REST adapters: credentials,
// a rate limited http client and the loaded market table.
type restClient struct {
	name       string
	apiKey     string
	apiSecret  string
	baseURL    string
	recvWindow int64
	httpClient *http.Client
	limiter    *rate.Limiter

	marketsMu sync.RWMutex
	markets   map[string]string // unified symbol -> exchange symbol
}

func newRESTClient(cfg entity.ExchangeClientConfig, setting config.ExchangeConfig, defaultBaseURL string) *restClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = setting.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}

	baseURL := strings.TrimSpace(cfg.AdditionalParams[additionalParamBaseURL])
	if baseURL == "" {
		baseURL = strings.TrimSpace(setting.BaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	recvWindow := setting.RecvWindow
	if raw := strings.TrimSpace(cfg.AdditionalParams[additionalParamRecvWindow]); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			recvWindow = parsed
		}
	}
	if recvWindow <= 0 || recvWindow > 60000 {
		recvWindow = defaultRecvWindow
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.EnableRateLimit {
		perSecond := setting.RateLimit
		if perSecond <= 0 {
			perSecond = defaultRateLimitPerSec
		}
		burst := setting.RateBurst
		if burst <= 0 {
			burst = defaultRateLimitBurst
		}
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}

	return &restClient{
		name:       normalizeName(cfg.Name),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiSecret:  strings.TrimSpace(cfg.APISecret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		recvWindow: recvWindow,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		markets:    make(map[string]string),
	}
}

func (c *restClient) Name() string {
	return c.name
}

func (c *restClient) HasSymbol(pair string) bool {
	c.marketsMu.RLock()
	defer c.marketsMu.RUnlock()

	_, ok := c.markets[pair]
	return ok
}

func (c *restClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *restClient) setMarkets(markets map[string]string) {
	c.marketsMu.Lock()
	c.markets = markets
	c.marketsMu.Unlock()
}

func (c *restClient) nativeSymbol(pair string) (string, error) {
	c.marketsMu.RLock()
	defer c.marketsMu.RUnlock()

	native, ok := c.markets[pair]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrMarketNotFound, pair, c.name)
	}
	return native, nil
}

// get issues a GET request and returns the status code and raw body. Signed
// requests carry timestamp, recvWindow and an HMAC-SHA256 signature of the
// encoded query.
func (c *restClient) get(ctx context.Context, path string, query url.Values, signed bool) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	if query == nil {
		query = url.Values{}
	}

	endpoint := c.baseURL + path
	if signed {
		if c.apiKey == "" || c.apiSecret == "" {
			return 0, nil, fmt.Errorf("%w: %s", ErrMissingCredential, c.name)
		}
		query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		query.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
		payload := query.Encode()
		endpoint += "?" + payload + "&signature=" + hmacSHA256Hex(c.apiSecret, payload)
	} else if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, body, nil
}

func hmacSHA256Hex(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func decimalOrZero(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}
