package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Booking  BookingConfig
	Payment  PaymentConfig
	Operator OperatorConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	StoreDriver     string
	DevSessionToken string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type BookingConfig struct {
	HoldDuration   time.Duration
	SweepInterval  time.Duration
	SweepBatchSize int
	ReadRetryMax   int
}

type PaymentConfig struct {
	Provider            string
	StripeSecretKey     string
	StripeWebhookSecret string
	MockWebhookSecret   string
}

type OperatorConfig struct {
	KeyHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	PaymentProviderMock   = "mock"
	PaymentProviderStripe = "stripe"
)

// LoadConfig reads .env from the working directory when present and lets
// environment variables override it.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(".env")
}

func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "tour-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 15)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("HOLD_DURATION_MINUTES", 10)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("READ_RETRY_MAX", 3)
	v.SetDefault("PAYMENT_PROVIDER", PaymentProviderMock)
	v.SetDefault("MOCK_WEBHOOK_SECRET", "whsec_mock")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			StoreDriver:     v.GetString("STORE_DRIVER"),
			DevSessionToken: v.GetString("DEV_SESSION_TOKEN"),
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Booking: BookingConfig{
			HoldDuration:   time.Duration(v.GetInt("HOLD_DURATION_MINUTES")) * time.Minute,
			SweepInterval:  time.Duration(v.GetInt("SWEEP_INTERVAL_SECONDS")) * time.Second,
			SweepBatchSize: v.GetInt("SWEEP_BATCH_SIZE"),
			ReadRetryMax:   v.GetInt("READ_RETRY_MAX"),
		},
		Payment: PaymentConfig{
			Provider:            v.GetString("PAYMENT_PROVIDER"),
			StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			MockWebhookSecret:   v.GetString("MOCK_WEBHOOK_SECRET"),
		},
		Operator: OperatorConfig{
			KeyHash: v.GetString("OPERATOR_KEY_HASH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.App.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}

	switch c.Payment.Provider {
	case PaymentProviderMock:
	case PaymentProviderStripe:
		if c.Payment.StripeSecretKey == "" || c.Payment.StripeWebhookSecret == "" {
			return errors.New("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required for the stripe provider")
		}
	default:
		return errors.New("PAYMENT_PROVIDER must be mock or stripe")
	}

	if c.Booking.HoldDuration <= 0 {
		return errors.New("HOLD_DURATION_MINUTES must be positive")
	}
	if c.Booking.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if c.Booking.SweepBatchSize <= 0 {
		return errors.New("SWEEP_BATCH_SIZE must be positive")
	}
	if c.Database.MaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
