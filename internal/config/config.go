package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/optimizer"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey   string
	Symbol         string
	HistoryDays    int
	LogLevel       string
	RequestTimeout int // seconds
	RequestsPerSec int
	MaxRetries     int

	// DTI oscillator
	DTIPeriods model.IndicatorPeriods

	// Strategy
	EntryThreshold    float64
	TakeProfitPercent float64
	StopLossPercent   float64
	MaxHoldingDays    int
	SevenDayFilter    bool

	// Grid search
	EnableOptimization bool
	OptPeriods         []model.IndicatorPeriods
	OptEntryThresholds []float64
	OptTakeProfits     []float64
	OptStopLosses      []float64
	OptMaxHoldingDays  []int
	OptSevenDayFilter  []bool
	OptWorkers         int
	OptMinTrades       int

	// Forecast
	ForecastHorizon      int
	MonteCarloPaths      int
	MonteCarloSeed       int64 // 0 means time-seeded
	RiskFreeRate         float64
	PatternLookbackYears int

	// Storage and delivery
	DB               DBConfig
	TelegramBotToken string
	TelegramChatID   int64

	// Runtime
	RunInterval time.Duration // 0 runs once and exits
	MetricsAddr string
}

// DBConfig holds PostgreSQL connection parameters. An empty Host disables persistence.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether a database was configured
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	var err error

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Symbol = getEnvWithDefault("SYMBOL", "EUR/USD")
	cfg.HistoryDays = getEnvIntWithDefault("HISTORY_DAYS", 1000)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 3)

	cfg.DTIPeriods = model.IndicatorPeriods{
		R: getEnvIntWithDefault("DTI_R", model.DefaultIndicatorPeriods.R),
		S: getEnvIntWithDefault("DTI_S", model.DefaultIndicatorPeriods.S),
		U: getEnvIntWithDefault("DTI_U", model.DefaultIndicatorPeriods.U),
	}

	cfg.EntryThreshold = getEnvFloatWithDefault("ENTRY_THRESHOLD", -40)
	cfg.TakeProfitPercent = getEnvFloatWithDefault("TAKE_PROFIT_PERCENT", 8)
	cfg.StopLossPercent = getEnvFloatWithDefault("STOP_LOSS_PERCENT", 5)
	cfg.MaxHoldingDays = getEnvIntWithDefault("MAX_HOLDING_DAYS", 30)
	cfg.SevenDayFilter = getEnvBoolWithDefault("SEVEN_DAY_FILTER", false)

	cfg.EnableOptimization = getEnvBoolWithDefault("ENABLE_OPTIMIZATION", false)
	if cfg.OptPeriods, err = getEnvPeriodsWithDefault("OPT_PERIODS", "14/10/5,10/5/3,20/10/5"); err != nil {
		return nil, err
	}
	if cfg.OptEntryThresholds, err = getEnvFloatsWithDefault("OPT_ENTRY_THRESHOLDS", "-50,-40,-30"); err != nil {
		return nil, err
	}
	if cfg.OptTakeProfits, err = getEnvFloatsWithDefault("OPT_TAKE_PROFITS", "5,8,12"); err != nil {
		return nil, err
	}
	if cfg.OptStopLosses, err = getEnvFloatsWithDefault("OPT_STOP_LOSSES", "3,5"); err != nil {
		return nil, err
	}
	if cfg.OptMaxHoldingDays, err = getEnvIntsWithDefault("OPT_MAX_HOLDING_DAYS", "20,30"); err != nil {
		return nil, err
	}
	if cfg.OptSevenDayFilter, err = getEnvBoolsWithDefault("OPT_SEVEN_DAY_FILTER", "false,true"); err != nil {
		return nil, err
	}
	cfg.OptWorkers = getEnvIntWithDefault("OPT_WORKERS", 0)
	cfg.OptMinTrades = getEnvIntWithDefault("OPT_MIN_TRADES", optimizer.DefaultMinTrades)

	cfg.ForecastHorizon = getEnvIntWithDefault("FORECAST_HORIZON", 30)
	cfg.MonteCarloPaths = getEnvIntWithDefault("MC_PATHS", 1000)
	cfg.MonteCarloSeed = int64(getEnvIntWithDefault("MC_SEED", 0))
	cfg.RiskFreeRate = getEnvFloatWithDefault("RISK_FREE_RATE", 0.02)
	cfg.PatternLookbackYears = getEnvIntWithDefault("PATTERN_LOOKBACK_YEARS", 2)

	cfg.DB = DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     getEnvWithDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getEnvWithDefault("DB_NAME", "dtiquant"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0))

	cfg.RunInterval = getEnvDurationWithDefault("RUN_INTERVAL", 0)
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	return &cfg, nil
}

// Validate checks the configuration before anything is fetched
func (c *Config) Validate() error {
	if c.TwelveAPIKey == "" {
		return fmt.Errorf("TWELVE_API_KEY is required")
	}
	if c.Symbol == "" {
		return fmt.Errorf("SYMBOL is required")
	}
	if c.HistoryDays < 90 {
		return fmt.Errorf("HISTORY_DAYS must be at least 90, got %d", c.HistoryDays)
	}
	if err := c.DTIPeriods.Validate(); err != nil {
		return fmt.Errorf("DTI periods: %w", err)
	}
	if err := c.TradingParameters().Validate(); err != nil {
		return fmt.Errorf("trading parameters: %w", err)
	}
	if c.EnableOptimization {
		if _, err := optimizer.Candidates(c.ParamRanges()); err != nil {
			return fmt.Errorf("optimization ranges: %w", err)
		}
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.RunInterval < 0 {
		return fmt.Errorf("RUN_INTERVAL must not be negative")
	}
	return nil
}

// TradingParameters builds the strategy parameters for a single backtest
func (c *Config) TradingParameters() model.TradingParameters {
	return model.TradingParameters{
		EntryThreshold:        c.EntryThreshold,
		TakeProfitPercent:     c.TakeProfitPercent,
		StopLossPercent:       c.StopLossPercent,
		MaxHoldingDays:        c.MaxHoldingDays,
		SevenDayFilterEnabled: c.SevenDayFilter,
	}
}

// ParamRanges builds the grid the optimizer searches
func (c *Config) ParamRanges() optimizer.ParamRanges {
	return optimizer.ParamRanges{
		Periods:            c.OptPeriods,
		EntryThresholds:    c.OptEntryThresholds,
		TakeProfitPercents: c.OptTakeProfits,
		StopLossPercents:   c.OptStopLosses,
		MaxHoldingDays:     c.OptMaxHoldingDays,
		SevenDayFilter:     c.OptSevenDayFilter,
	}
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks
func splitList(key, defaultValue string) []string {
	raw := getEnvWithDefault(key, defaultValue)
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getEnvFloatsWithDefault(key, defaultValue string) ([]float64, error) {
	items := splitList(key, defaultValue)
	out := make([]float64, 0, len(items))
	for _, item := range items {
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", key, item, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func getEnvIntsWithDefault(key, defaultValue string) ([]int, error) {
	items := splitList(key, defaultValue)
	out := make([]int, 0, len(items))
	for _, item := range items {
		v, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", key, item, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func getEnvBoolsWithDefault(key, defaultValue string) ([]bool, error) {
	items := splitList(key, defaultValue)
	out := make([]bool, 0, len(items))
	for _, item := range items {
		v, err := strconv.ParseBool(item)
		if err != nil {
			return nil, fmt.Errorf("parse %s value %q: %w", key, item, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// getEnvPeriodsWithDefault parses entries of the form R/S/U
func getEnvPeriodsWithDefault(key, defaultValue string) ([]model.IndicatorPeriods, error) {
	items := splitList(key, defaultValue)
	out := make([]model.IndicatorPeriods, 0, len(items))
	for _, item := range items {
		parts := strings.Split(item, "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("parse %s value %q: want R/S/U", key, item)
		}

		var nums [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("parse %s value %q: %w", key, item, err)
			}
			nums[i] = n
		}
		out = append(out, model.IndicatorPeriods{R: nums[0], S: nums[1], U: nums[2]})
	}
	return out, nil
}
