package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalDesk/internal/database"
	"github.com/Alias1177/SignalDesk/internal/dedup"
	"github.com/Alias1177/SignalDesk/models"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Symbol string

	BinanceBaseURL  string
	BinanceDataURL  string
	SentimentURL    string
	GlobalURL       string
	LiquidationURL  string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration

	LogLevel string
	DryRun   bool

	StoreBackend string
	Redis        dedup.RedisOptions
	Postgres     database.ConnectionParams

	TelegramBotToken string
	TelegramChatID   int64

	TuningFile string
	Tuning     Tuning
}

// Load initializes configuration from environment variables and the optional tuning file
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Symbol = getEnvWithDefault("SYMBOL", "BTCUSDT")
	cfg.BinanceBaseURL = getEnvWithDefault("BINANCE_BASE_URL", "https://fapi.binance.com")
	cfg.BinanceDataURL = getEnvWithDefault("BINANCE_DATA_URL", cfg.BinanceBaseURL)
	cfg.SentimentURL = getEnvWithDefault("SENTIMENT_URL", "https://api.alternative.me/fng/?limit=1")
	cfg.GlobalURL = getEnvWithDefault("GLOBAL_URL", "https://api.coingecko.com/api/v3/global")
	cfg.LiquidationURL = os.Getenv("LIQUIDATION_URL")
	cfg.RequestTimeout = getEnvDurationWithDefault("REQUEST_TIMEOUT", 10*time.Second)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetryTimeout = getEnvDurationWithDefault("MAX_RETRY_TIMEOUT", 20*time.Second)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.DryRun = getEnvBoolWithDefault("DRY_RUN", false)

	cfg.StoreBackend = getEnvWithDefault("STORE_BACKEND", StoreMemory)
	cfg.Redis = dedup.RedisOptions{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvIntWithDefault("REDIS_DB", 0),
		Prefix:   getEnvWithDefault("REDIS_PREFIX", "signaldesk:"),
	}
	cfg.Postgres = database.ConnectionParams{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &models.ConfigError{Field: "TELEGRAM_CHAT_ID", Reason: "not an integer"}
		}
		cfg.TelegramChatID = id
	}

	cfg.TuningFile = os.Getenv("TUNING_FILE")
	cfg.Tuning = DefaultTuning()
	if cfg.TuningFile != "" {
		tuning, err := LoadTuning(cfg.TuningFile)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = tuning
	}

	// Single knobs can still be set from the environment over the tuning file
	t := &cfg.Tuning
	t.Analyze.BucketWidth = getEnvFloatWithDefault("BUCKET_WIDTH", t.Analyze.BucketWidth)
	t.Lifecycle.LevelRoundStep = getEnvFloatWithDefault("LEVEL_ROUND_STEP", t.Lifecycle.LevelRoundStep)
	t.Lifecycle.MuteWindow = getEnvDurationWithDefault("MUTE_WINDOW", t.Lifecycle.MuteWindow)
	t.Lifecycle.KeyTTL = getEnvDurationWithDefault("KEY_TTL", t.Lifecycle.KeyTTL)
	t.Lifecycle.ATier = getEnvIntWithDefault("A_TIER", t.Lifecycle.ATier)

	return &cfg, nil
}

// Validate reports the first fatal configuration problem
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return &models.ConfigError{Field: "SYMBOL", Reason: "required"}
	}
	if !c.DryRun {
		if c.TelegramBotToken == "" {
			return &models.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Reason: "required unless DRY_RUN is set"}
		}
		if c.TelegramChatID == 0 {
			return &models.ConfigError{Field: "TELEGRAM_CHAT_ID", Reason: "required unless DRY_RUN is set"}
		}
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return &models.ConfigError{Field: "REDIS_ADDR", Reason: "required for the redis store"}
		}
	case StorePostgres:
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
			return &models.ConfigError{Field: "DB_HOST/DB_USER/DB_NAME", Reason: "required for the postgres store"}
		}
	default:
		return &models.ConfigError{Field: "STORE_BACKEND", Reason: "unsupported backend " + strconv.Quote(c.StoreBackend)}
	}

	if c.Tuning.Analyze.BucketWidth <= 0 {
		return &models.ConfigError{Field: "BUCKET_WIDTH", Reason: "must be positive"}
	}
	if c.Tuning.Lifecycle.LevelRoundStep <= 0 {
		return &models.ConfigError{Field: "LEVEL_ROUND_STEP", Reason: "must be positive"}
	}
	return nil
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
