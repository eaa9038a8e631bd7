package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var (
	ServiceName    = "arbitrage-service"
	ServiceVersion = "1.0.0"
)

var (
	Env *EnvConfig
)

type EnvConfig struct {
	Env                     string                    `mapstructure:"env"`
	Log                     LogConfig                 `mapstructure:"log"`
	GracefulShutdownTimeout time.Duration             `mapstructure:"graceful_shutdown_timeout"`
	CORSOrigins             []string                  `mapstructure:"cors_origins"`
	Port                    map[string]string         `mapstructure:"port"`
	Exchanges               map[string]ExchangeConfig `mapstructure:"exchanges"`
	Database                map[string]DatabaseConfig `mapstructure:"database"`
	Redis                   map[string]RedisConfig    `mapstructure:"redis"`
	NatsJetstream           NatsJetstreamConfig       `mapstructure:"nats_jetstream"`
	Encryption              EncryptionConfig          `mapstructure:"encryption"`
	Arbitrage               ArbitrageConfig           `mapstructure:"arbitrage"`
}

type ArbitrageConfig struct {
	MinSpreadPercent     decimal.Decimal `mapstructure:"min_spread_percent"`
	ConfidenceBase       decimal.Decimal `mapstructure:"confidence_base"`
	ConfidenceMultiplier decimal.Decimal `mapstructure:"confidence_multiplier"`
	ConfidenceCap        decimal.Decimal `mapstructure:"confidence_cap"`
	AmountMultiplier     decimal.Decimal `mapstructure:"amount_multiplier"`
	MinAmount            decimal.Decimal `mapstructure:"min_amount"`
	MaxAmount            decimal.Decimal `mapstructure:"max_amount"`
	QuoteAsset           string          `mapstructure:"quote_asset"`
	DetectionInterval    time.Duration   `mapstructure:"detection_interval"`
	MaxConcurrentTokens  int             `mapstructure:"max_concurrent_tokens"`
	// DedupWindow suppresses repeated detections of the same token/buy/sell
	// triple. 0 disables it.
	DedupWindow      time.Duration `mapstructure:"dedup_window"`
	OpportunityLimit uint64        `mapstructure:"opportunity_limit"`
}

type EncryptionConfig struct {
	Secret string `mapstructure:"secret"`
	Salt   string `mapstructure:"salt"`
}

type NatsJetstreamConfig struct {
	URL             string                   `mapstructure:"url"`
	MaxRetries      int                      `mapstructure:"max_retries"`
	ReconnectFactor float64                  `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration            `mapstructure:"min_jitter"`
	MaxJitter       time.Duration            `mapstructure:"max_jitter"`
	TimeoutHandler  map[string]time.Duration `mapstructure:"timeout_handler"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	ReconnectFactor float64       `mapstructure:"reconnect_factor"`
	MinJitter       time.Duration `mapstructure:"min_jitter"`
	MaxJitter       time.Duration `mapstructure:"max_jitter"`
	MaxRetry        int           `mapstructure:"max_retry"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxActiveConns  int           `mapstructure:"max_active_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	ShowCaller bool   `mapstructure:"show_caller"`
	LogLevel   string `mapstructure:"log_level"`
}

type ExchangeConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst  int           `mapstructure:"rate_burst"`
	RecvWindow int64         `mapstructure:"recv_window"`
}

type RedisConfig struct {
	CacheDSN string `mapstructure:"cache_dsn"`
}

// DefaultArbitrageConfig holds the detection constants used when the config
// file leaves them unset.
func DefaultArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		MinSpreadPercent:     decimal.NewFromFloat(0.5),
		ConfidenceBase:       decimal.NewFromInt(50),
		ConfidenceMultiplier: decimal.NewFromInt(5),
		ConfidenceCap:        decimal.NewFromInt(95),
		AmountMultiplier:     decimal.NewFromInt(100),
		MinAmount:            decimal.NewFromInt(100),
		MaxAmount:            decimal.NewFromInt(1000),
		QuoteAsset:           "USDT",
		DetectionInterval:    30 * time.Second,
		MaxConcurrentTokens:  8,
		DedupWindow:          0,
		OpportunityLimit:     50,
	}
}

func setDefaults() {
	defaults := DefaultArbitrageConfig()
	viper.SetDefault("env", constant.DevelopmentEnvironment)
	viper.SetDefault("log.log_level", "info")
	viper.SetDefault("graceful_shutdown_timeout", 10*time.Second)
	viper.SetDefault("arbitrage.min_spread_percent", defaults.MinSpreadPercent.String())
	viper.SetDefault("arbitrage.confidence_base", defaults.ConfidenceBase.String())
	viper.SetDefault("arbitrage.confidence_multiplier", defaults.ConfidenceMultiplier.String())
	viper.SetDefault("arbitrage.confidence_cap", defaults.ConfidenceCap.String())
	viper.SetDefault("arbitrage.amount_multiplier", defaults.AmountMultiplier.String())
	viper.SetDefault("arbitrage.min_amount", defaults.MinAmount.String())
	viper.SetDefault("arbitrage.max_amount", defaults.MaxAmount.String())
	viper.SetDefault("arbitrage.quote_asset", defaults.QuoteAsset)
	viper.SetDefault("arbitrage.detection_interval", defaults.DetectionInterval)
	viper.SetDefault("arbitrage.max_concurrent_tokens", defaults.MaxConcurrentTokens)
	viper.SetDefault("arbitrage.dedup_window", defaults.DedupWindow)
	viper.SetDefault("arbitrage.opportunity_limit", defaults.OpportunityLimit)
}

func LoadConfig(configPath string) error {
	viper.Reset()
	setDefaults()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	} else {
		ext := strings.ToLower(filepath.Ext(configPath))
		if ext == ".yml" || ext == ".yaml" {
			viper.SetConfigFile(configPath)
		} else {
			viper.SetConfigName(filepath.Base(configPath))
			viper.SetConfigType("yml")
			configDir := filepath.Dir(configPath)
			if configDir == "." || configDir == "" {
				viper.AddConfigPath(".")
			} else {
				viper.AddConfigPath(configDir)
			}
		}
	}

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = viper.Unmarshal(&Env, viper.DecodeHook(decimalHook()))
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return nil
}
