package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPAddr string
	// CORSOrigins is empty when every origin is allowed.
	CORSOrigins []string
	DB       DBConfig
	Provider ProviderConfig
	Rates    RatesConfig
	Currency CurrencyConfig
	Poll     PollConfig
	Workers  WorkerConfig
	NATS     NATSConfig
	Log      LogConfig
}

type DBConfig struct {
	Driver string
	Path   string
}

type ProviderConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type RatesConfig struct {
	ConversionEnabled bool
	URL               string
	AppID             string
	ManualRate        decimal.Decimal
}

type CurrencyConfig struct {
	Store       string
	Settlement  string
	FromCountry bool
}

type PollConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

type WorkerConfig struct {
	ExpirySweepInterval time.Duration
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	ExpiryBatchSize     int
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	var errs []error

	cfg := Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			Path:   getEnv("DB_PATH", "pixgate.db"),
		},
		Provider: ProviderConfig{
			BaseURL: strings.TrimRight(getEnv("PIX_API_URL", "https://api.sqala.tech"), "/"),
			Token:   getEnv("PIX_API_TOKEN", ""),
			Timeout: getDuration("HTTP_TIMEOUT", 15*time.Second, &errs),
		},
		Rates: RatesConfig{
			ConversionEnabled: getBool("CONVERSION_ENABLED", false, &errs),
			URL:               getEnv("RATES_API_URL", "https://openexchangerates.org/api/latest.json"),
			AppID:             getEnv("RATES_APP_ID", ""),
			ManualRate:        getDecimal("MANUAL_RATE", decimal.Zero, &errs),
		},
		Currency: CurrencyConfig{
			Store:       strings.ToUpper(getEnv("STORE_CURRENCY", "USD")),
			Settlement:  strings.ToUpper(getEnv("SETTLEMENT_CURRENCY", "BRL")),
			FromCountry: getBool("SETTLEMENT_FROM_COUNTRY", false, &errs),
		},
		Poll: PollConfig{
			MaxAttempts: getInt("POLL_MAX_ATTEMPTS", 2, &errs),
			Interval:    getDuration("POLL_INTERVAL", 5*time.Second, &errs),
		},
		Workers: WorkerConfig{
			ExpirySweepInterval: getDuration("EXPIRY_SWEEP_INTERVAL", time.Minute, &errs),
			OutboxPollInterval:  getDuration("OUTBOX_POLL_INTERVAL", time.Second, &errs),
			OutboxBatchSize:     getInt("OUTBOX_BATCH_SIZE", 50, &errs),
			ExpiryBatchSize:     getInt("EXPIRY_BATCH_SIZE", 100, &errs),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "pixgate"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	switch c.DB.Driver {
	case "sqlite3", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DB.Driver))
	}
	if c.Poll.MaxAttempts <= 0 {
		errs = append(errs, errors.New("POLL_MAX_ATTEMPTS must be positive"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Workers.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Workers.ExpiryBatchSize <= 0 {
		errs = append(errs, errors.New("EXPIRY_BATCH_SIZE must be positive"))
	}
	if c.Rates.ConversionEnabled && c.Rates.AppID == "" {
		errs = append(errs, errors.New("RATES_APP_ID is required when CONVERSION_ENABLED is set"))
	}

	return errs
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getDecimal(key string, defaultValue decimal.Decimal, errs *[]error) decimal.Decimal {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
