// Package config loads the storefront configuration from an optional YAML file
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fjod/plantshop/internal/storage"
)

// Config holds all storefront configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Orders   OrdersConfig   `yaml:"orders"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory, sqlite, redis, mongo
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisPrefix   string `yaml:"redis_prefix"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	Cache         bool   `yaml:"cache"`
	Breaker       bool   `yaml:"breaker"`
}

type AuthConfig struct {
	PasswordHashing string `yaml:"password_hashing"` // plain, bcrypt
}

type CheckoutConfig struct {
	TaxRate         string `yaml:"tax_rate"`
	ProcessingDelay string `yaml:"processing_delay"`
	Currency        string `yaml:"currency"`
}

type OrdersConfig struct {
	Backend     string `yaml:"backend"` // storage, postgres
	PostgresDSN string `yaml:"postgres_dsn"`
}

type EventsConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	Topic        string   `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  "30s",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Backend:       storage.BackendSQLite,
			SQLitePath:    "plantshop.db",
			RedisAddr:     "localhost:6379",
			RedisPrefix:   "plantshop",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "plantshop",
		},
		Auth: AuthConfig{
			PasswordHashing: "plain",
		},
		Checkout: CheckoutConfig{
			TaxRate:         "0.13",
			ProcessingDelay: "2s",
			Currency:        "NRS",
		},
		Orders: OrdersConfig{
			Backend: "storage",
		},
		Events: EventsConfig{
			Topic: "orders-placed",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path over the defaults (an empty path skips the file), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.MongoURI = getEnv("MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDatabase = getEnv("MONGO_DB_NAME", c.Storage.MongoDatabase)
	c.Auth.PasswordHashing = getEnv("PASSWORD_HASHING", c.Auth.PasswordHashing)
	c.Checkout.TaxRate = getEnv("TAX_RATE", c.Checkout.TaxRate)
	c.Checkout.ProcessingDelay = getEnv("CHECKOUT_DELAY", c.Checkout.ProcessingDelay)
	c.Orders.Backend = getEnv("ORDERS_BACKEND", c.Orders.Backend)
	c.Orders.PostgresDSN = getEnv("POSTGRES_DSN", c.Orders.PostgresDSN)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Events.KafkaBrokers = strings.Split(brokers, ",")
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case storage.BackendMemory, storage.BackendSQLite, storage.BackendRedis, storage.BackendMongo:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if c.Storage.Backend == storage.BackendSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("storage.sqlite_path: required for sqlite backend"))
	}

	switch c.Auth.PasswordHashing {
	case "plain", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("auth.password_hashing: unknown scheme %q", c.Auth.PasswordHashing))
	}

	if rate, err := decimal.NewFromString(c.Checkout.TaxRate); err != nil {
		errs = append(errs, fmt.Errorf("checkout.tax_rate: %w", err))
	} else if rate.IsNegative() {
		errs = append(errs, errors.New("checkout.tax_rate: must not be negative"))
	}

	for name, value := range map[string]string{
		"http.request_timeout":      c.HTTP.RequestTimeout,
		"http.shutdown_timeout":     c.HTTP.ShutdownTimeout,
		"checkout.processing_delay": c.Checkout.ProcessingDelay,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	switch c.Orders.Backend {
	case "storage":
	case "postgres":
		if c.Orders.PostgresDSN == "" {
			errs = append(errs, errors.New("orders.postgres_dsn: required for postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("orders.backend: unknown backend %q", c.Orders.Backend))
	}

	return errors.Join(errs...)
}

// StorageOptions maps the storage section onto storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.Storage.Backend,
		SQLitePath:    c.Storage.SQLitePath,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisPrefix:   c.Storage.RedisPrefix,
		MongoURI:      c.Storage.MongoURI,
		MongoDatabase: c.Storage.MongoDatabase,
		Cache:         c.Storage.Cache,
		Breaker:       c.Storage.Breaker,
	}
}

// TaxRate returns the parsed checkout tax rate. Call after Validate.
func (c *Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.Checkout.TaxRate)
}

// Duration parses one of the duration fields. Call after Validate.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
