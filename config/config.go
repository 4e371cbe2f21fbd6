package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/namitix/internal/models"
	"github.com/farellandr/namitix/internal/sui"
	"github.com/farellandr/namitix/internal/walrus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DefaultPort         = "8080"
	DefaultSuiRPCURL    = "https://fullnode.testnet.sui.io:443"
	DefaultSuiNetwork   = "testnet"
	DefaultSuiPackageID = "0x66e74e301666655b56fd4f9366a6e883669442f763557824969bf5a247d14eb6"
	DefaultGasBudget    = 10_000_000
	DefaultWalrusEpochs = 1
	DefaultCompleteHold = 1500 * time.Millisecond
	DefaultBlobCacheTTL = time.Hour
	DefaultSessionTTL   = 24 * time.Hour
)

type Config struct {
	Port           string
	LogLevel       logrus.Level
	LogFormat      string
	AllowedOrigins []string

	JWTSecret  string
	SessionTTL time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL     string
	BlobCacheTTL time.Duration

	SuiRPCURL    string
	SuiNetwork   string
	SuiPackageID string
	SuiSeeds     []string
	SuiGasBudget uint64

	WalrusPublisherURL  string
	WalrusAggregatorURL string
	WalrusEpochs        int

	CompleteHold time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", DefaultPort),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: os.Getenv("REDIS_URL"),

		SuiRPCURL:    getEnv("SUI_RPC_URL", DefaultSuiRPCURL),
		SuiNetwork:   getEnv("SUI_NETWORK", DefaultSuiNetwork),
		SuiPackageID: getEnv("SUI_PACKAGE_ID", DefaultSuiPackageID),

		WalrusPublisherURL:  getEnv("WALRUS_PUBLISHER_URL", walrus.DefaultPublisherURL),
		WalrusAggregatorURL: getEnv("WALRUS_AGGREGATOR_URL", walrus.DefaultAggregatorURL),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", DefaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.BlobCacheTTL, err = durationEnv("BLOB_CACHE_TTL", DefaultBlobCacheTTL); err != nil {
		return nil, err
	}

	holdMs, err := intEnv("COMPLETE_HOLD_MS", int(DefaultCompleteHold/time.Millisecond))
	if err != nil {
		return nil, err
	}
	if holdMs < 0 {
		return nil, fmt.Errorf("invalid COMPLETE_HOLD_MS: must not be negative")
	}
	cfg.CompleteHold = time.Duration(holdMs) * time.Millisecond

	if cfg.WalrusEpochs, err = intEnv("WALRUS_EPOCHS", DefaultWalrusEpochs); err != nil {
		return nil, err
	}
	if cfg.WalrusEpochs < 1 {
		return nil, fmt.Errorf("invalid WALRUS_EPOCHS: must be at least 1")
	}

	budget, err := intEnv("SUI_GAS_BUDGET", DefaultGasBudget)
	if err != nil {
		return nil, err
	}
	if budget <= 0 {
		return nil, fmt.Errorf("invalid SUI_GAS_BUDGET: must be positive")
	}
	cfg.SuiGasBudget = uint64(budget)

	cfg.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.SuiSeeds = splitList(os.Getenv("SUI_SIGNER_SEEDS"))
	if seed := strings.TrimSpace(os.Getenv("SUI_SIGNER_SEED")); seed != "" {
		cfg.SuiSeeds = append([]string{seed}, cfg.SuiSeeds...)
	}

	return cfg, nil
}

func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

func (c *Config) Keyring() (sui.Keyring, error) {
	signers := make([]*sui.Signer, 0, len(c.SuiSeeds))
	for i, seed := range c.SuiSeeds {
		s, err := sui.NewSignerFromHex(seed)
		if err != nil {
			return nil, fmt.Errorf("signer seed %d: %w", i, err)
		}
		signers = append(signers, s)
	}
	return sui.NewKeyring(signers...), nil
}

func NewLogger(cfg *Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return logger
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Issuance{}); err != nil {
		return nil, err
	}

	return db, nil
}

func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
