// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/erazemk/inventaris/internal/db"
)

// Token revocation backends.
const (
	RevocationNone  = "none"
	RevocationSQL   = "sql"
	RevocationRedis = "redis"
)

// Config holds runtime configuration for the service.
type Config struct {
	Addr string `envconfig:"ADDR" default:":3001"`
	// Port is honoured when Addr is left at its default, for hosts that only set PORT.
	Port string `envconfig:"PORT"`

	DB DBConfig

	JWTSecret         string `envconfig:"JWT_SECRET"`
	AdminUsername     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	TokenRevocation   string `envconfig:"TOKEN_REVOCATION" default:"none"`
	RedisAddr         string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	LoginRate   int      `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	Seed        bool     `envconfig:"SEED" default:"true"`
}

// DBConfig selects and tunes the database.
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Path     string `envconfig:"DB_PATH" default:"inventaris.sqlite3"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"inventory_db"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"30s"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// Load reads the optional env file (".env" when envFile is empty) and then
// the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.Port != "" && cfg.Addr == ":3001" {
		cfg.Addr = ":" + strings.TrimPrefix(cfg.Port, ":")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and incomplete settings.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Addr == "" {
		return errors.New("ADDR must not be empty")
	}

	switch db.Dialect(c.DB.Driver) {
	case db.SQLite:
		if c.DB.Path == "" {
			return errors.New("DB_PATH must be provided for sqlite")
		}
	case db.Postgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return errors.New("DB_HOST and DB_NAME must be provided for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DB.Driver)
	}

	switch c.TokenRevocation {
	case RevocationNone, RevocationSQL:
	case RevocationRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be provided for redis token revocation")
		}
	default:
		return fmt.Errorf("unsupported TOKEN_REVOCATION %q (want none, sql or redis)", c.TokenRevocation)
	}

	if c.DB.AcquireTimeout <= 0 {
		return errors.New("DB_ACQUIRE_TIMEOUT must be positive")
	}
	return nil
}

// DBOptions converts the database settings into pool options.
func (c *Config) DBOptions() db.Options {
	opts := db.Options{
		Dialect:         db.Dialect(c.DB.Driver),
		MaxOpenConns:    c.DB.MaxOpenConns,
		MaxIdleConns:    c.DB.MaxIdleConns,
		ConnMaxIdleTime: c.DB.ConnMaxIdleTime,
		ConnMaxLifetime: c.DB.ConnMaxLifetime,
	}
	if opts.Dialect == db.Postgres {
		opts.DSN = c.PostgresDSN()
	} else {
		opts.DSN = c.DB.Path
	}
	return opts
}

// PostgresDSN builds a connection URL from the DB_* settings.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: url.Values{"sslmode": {c.DB.SSLMode}}.Encode(),
	}
	return u.String()
}
