package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

// Endpoint is one upstream call. Method, headers and body are overrides;
// every default is a plain GET except HyperLiquid's info POST.
type Endpoint struct {
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
	Body    string            `mapstructure:"body"`
}

type BinanceConfig struct {
	PremiumIndex Endpoint `mapstructure:"premium_index"`
	FundingInfo  Endpoint `mapstructure:"funding_info"`
}

type BybitConfig struct {
	Tickers         Endpoint `mapstructure:"tickers"`
	InstrumentsInfo Endpoint `mapstructure:"instruments_info"`
}

type BitgetConfig struct {
	Tickers   Endpoint `mapstructure:"tickers"`
	Contracts Endpoint `mapstructure:"contracts"`
}

type OKXConfig struct {
	Tickers        Endpoint `mapstructure:"tickers"`
	FundingRate    Endpoint `mapstructure:"funding_rate"`
	BatchSize      int      `mapstructure:"batch_size"`
	BatchDelayMs   int      `mapstructure:"batch_delay_ms"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

type GateConfig struct {
	Contracts Endpoint `mapstructure:"contracts"`
}

type HyperLiquidConfig struct {
	Info Endpoint `mapstructure:"info"`
}

type Exchanges struct {
	Binance     BinanceConfig     `mapstructure:"binance"`
	Bybit       BybitConfig       `mapstructure:"bybit"`
	Bitget      BitgetConfig      `mapstructure:"bitget"`
	OKX         OKXConfig         `mapstructure:"okx"`
	Gate        GateConfig        `mapstructure:"gate"`
	HyperLiquid HyperLiquidConfig `mapstructure:"hyperliquid"`
}

type Cache struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type Broadcast struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// Detector thresholds, in percent.
type Detector struct {
	MinExpectedProfit float64 `mapstructure:"min_expected_profit"`
	MinAnnualYield    float64 `mapstructure:"min_annual_yield"`
	NoiseFloor        float64 `mapstructure:"noise_floor"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	Exchanges  Exchanges  `mapstructure:"exchanges"`
	Cache      Cache      `mapstructure:"cache"`
	Broadcast  Broadcast  `mapstructure:"broadcast"`
	Detector   Detector   `mapstructure:"detector"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	// The engine carries no secrets; both .env and config.yaml are optional
	// since the defaults below cover every tunable.
	_ = godotenv.Load()

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	_ = viper.ReadInConfig()

	viper.SetDefault("http_server.port", "8080")
	viper.SetDefault("http_client.timeout_seconds", 15)
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("exchanges.binance.premium_index.url", "https://fapi.binance.com/fapi/v1/premiumIndex")
	viper.SetDefault("exchanges.binance.funding_info.url", "https://fapi.binance.com/fapi/v1/fundingInfo")
	viper.SetDefault("exchanges.bybit.tickers.url", "https://api.bybit.com/v5/market/tickers?category=linear")
	viper.SetDefault("exchanges.bybit.instruments_info.url", "https://api.bybit.com/v5/market/instruments-info?category=linear&limit=1000")
	viper.SetDefault("exchanges.bitget.tickers.url", "https://api.bitget.com/api/v2/mix/market/tickers?productType=usdt-futures")
	viper.SetDefault("exchanges.bitget.contracts.url", "https://api.bitget.com/api/v2/mix/market/contracts?productType=usdt-futures")
	viper.SetDefault("exchanges.okx.tickers.url", "https://www.okx.com/api/v5/market/tickers?instType=SWAP")
	viper.SetDefault("exchanges.okx.funding_rate.url", "https://www.okx.com/api/v5/public/funding-rate")
	viper.SetDefault("exchanges.okx.batch_size", 50)
	viper.SetDefault("exchanges.okx.batch_delay_ms", 200)
	viper.SetDefault("exchanges.okx.timeout_seconds", 10)
	viper.SetDefault("exchanges.gate.contracts.url", "https://api.gateio.ws/api/v4/futures/usdt/contracts")
	viper.SetDefault("exchanges.hyperliquid.info.url", "https://api.hyperliquid.xyz/info")
	viper.SetDefault("exchanges.hyperliquid.info.method", "POST")
	viper.SetDefault("exchanges.hyperliquid.info.body", `{"type":"metaAndAssetCtxs"}`)

	viper.SetDefault("cache.ttl_seconds", 60)
	viper.SetDefault("broadcast.interval_seconds", 30)
	viper.SetDefault("detector.min_expected_profit", 0.005)
	viper.SetDefault("detector.min_annual_yield", 1)
	viper.SetDefault("detector.noise_floor", 0.001)

	_ = viper.BindEnv("http_server.port", "HTTP_SERVER_PORT")
	_ = viper.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = viper.BindEnv("logging.level", "LOG_LEVEL")
	_ = viper.BindEnv("cache.ttl_seconds", "CACHE_TTL_SECONDS")
	_ = viper.BindEnv("broadcast.interval_seconds", "BROADCAST_INTERVAL_SECONDS")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
