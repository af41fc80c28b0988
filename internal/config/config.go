package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/pkg/utils"
)

// Sold counter policies for inventory.quantity_sold.
const (
	SoldCounterLifetime = "lifetime"
	SoldCounterNet      = "net"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Sales    SalesConfig

	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SchemaPath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig is optional; an empty Addr disables caching and locking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type AuthConfig struct {
	JWTSecret     string
	JWTExpiration time.Duration
}

type SalesConfig struct {
	OperationTimeout    time.Duration
	SoldCounterPolicy   string
	GlobalDeviceIDCheck bool
	IdempotencyLockTTL  time.Duration
}

// Load reads the configuration from the environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := utils.LoadDotEnv(utils.Getenv("ENV_FILE", ".env")); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Port:     utils.Getenv("PORT", "8080"),
		AppEnv:   utils.Getenv("APP_ENV", "development"),
		LogLevel: utils.Getenv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "postgres"),
			Password:        utils.Getenv("DB_PASSWORD", "postgres"),
			Name:            utils.Getenv("DB_NAME", "retail_backoffice"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath:      utils.Getenv("DB_SCHEMA_PATH", ""),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     utils.Getenv("REDIS_ADDR", ""),
			Password: utils.Getenv("REDIS_PASSWORD", ""),
			DB:       utils.GetenvInt("REDIS_DB", 0),
			CacheTTL: utils.GetenvDuration("CACHE_TTL", 2*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     utils.Getenv("JWT_SECRET", ""),
			JWTExpiration: utils.GetenvDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Sales: SalesConfig{
			OperationTimeout:    utils.GetenvDuration("SALE_OPERATION_TIMEOUT", 10*time.Second),
			SoldCounterPolicy:   strings.ToLower(utils.Getenv("INVENTORY_SOLD_COUNTER_POLICY", SoldCounterLifetime)),
			GlobalDeviceIDCheck: utils.GetenvBool("SALES_GLOBAL_DEVICE_ID_CHECK", false),
			IdempotencyLockTTL:  utils.GetenvDuration("SALE_IDEMPOTENCY_LOCK_TTL", 15*time.Second),
		},
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else {
			c.Auth.JWTSecret = "dev-only-secret-change-me"
		}
	}
	switch c.Sales.SoldCounterPolicy {
	case SoldCounterLifetime, SoldCounterNet:
	default:
		errs = append(errs, fmt.Errorf("INVENTORY_SOLD_COUNTER_POLICY must be %q or %q, got %q",
			SoldCounterLifetime, SoldCounterNet, c.Sales.SoldCounterPolicy))
	}
	if c.Sales.OperationTimeout <= 0 {
		errs = append(errs, errors.New("SALE_OPERATION_TIMEOUT must be positive"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns && c.Database.MaxOpenConns > 0 {
		c.Database.MaxIdleConns = c.Database.MaxOpenConns
	}
	return errors.Join(errs...)
}
