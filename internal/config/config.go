package config

import (
	"fmt"           // Error formatting
	"reflect"       // Types for custom env parsers
	"strings"       // String manipulation
	"time"          // Durations and time zones
	_ "time/tzdata" // Zone database for hosts without one

	"github.com/caarlos0/env/v6"    // Environment variable parsing
	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // Decimal settings
)

// Config holds the application configuration
type Config struct {
	App
	DB
	Redis
	JWT
	Kafka
	Ledger
	Log
}

// App holds HTTP server settings
type App struct {
	AppPort        string   `env:"APP_PORT" envDefault:"8080"`                              // Application port
	IsProd         bool     `env:"IS_PROD" envDefault:"false"`                              // Is production environment
	Timezone       string   `env:"APP_TIMEZONE" envDefault:"Asia/Jakarta"`                  // Zone used for calendar dates in reports
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1"` // Proxies trusted by gin
}

// DB holds database settings
type DB struct {
	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`    // mysql or postgres
	DBUser     string `env:"DB_USER"`                         // Database user
	DBPassword string `env:"DB_PASSWORD"`                     // Database password
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`  // Database host
	DBPort     string `env:"DB_PORT"`                         // Database port, driver default when empty
	DBName     string `env:"DB_NAME"`                         // Database name
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"` // PostgreSQL sslmode
}

// Redis holds cache settings
type Redis struct {
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"` // Redis server address
	RedisPass string        `env:"REDIS_PASS"`                             // Redis password
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`                // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"`             // Lifetime of cached read models
}

// JWT holds token settings
type JWT struct {
	JWTSecret string        `env:"JWT_SECRET"`               // JWT secret key
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"` // Token lifetime
}

// Kafka holds event publishing settings. No brokers disables publishing.
type Kafka struct {
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envSeparator:","`                // Broker addresses
	KafkaTopic       string        `env:"KAFKA_TOPIC" envDefault:"wallet.ledger.events"` // Topic for ledger events
	KafkaMaxAttempts int           `env:"KAFKA_RETRY_MAX_ATTEMPTS" envDefault:"5"`       // Publish attempts per event
	KafkaBaseDelay   time.Duration `env:"KAFKA_RETRY_BASE_DELAY" envDefault:"100ms"`     // First retry delay
	KafkaMaxDelay    time.Duration `env:"KAFKA_RETRY_MAX_DELAY" envDefault:"10s"`        // Retry delay cap
}

// Ledger holds transaction engine settings
type Ledger struct {
	MinimumTopUp           decimal.Decimal `env:"LEDGER_MINIMUM_TOP_UP" envDefault:"10000"`  // Smallest accepted top-up
	LedgerRetryMaxAttempts int             `env:"LEDGER_RETRY_MAX_ATTEMPTS" envDefault:"3"`  // Attempts on deadlock
	LedgerRetryBaseDelay   time.Duration   `env:"LEDGER_RETRY_BASE_DELAY" envDefault:"20ms"` // First retry delay
	LedgerRetryMaxDelay    time.Duration   `env:"LEDGER_RETRY_MAX_DELAY" envDefault:"1s"`    // Retry delay cap
	LedgerPublishTimeout   time.Duration   `env:"LEDGER_PUBLISH_TIMEOUT" envDefault:"2s"`    // Wait for a committed event
}

// Log holds logger settings
type Log struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`  // logrus level name
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
		return decimal.NewFromString(v)
	},
}

// LoadConfig loads configuration from the environment, reading a .env file first if present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	var cfg Config
	if err := env.ParseWithFuncs(&cfg, parsers); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	c.DBDriver = strings.ToLower(c.DBDriver)
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if !c.MinimumTopUp.IsPositive() {
		return fmt.Errorf("LEDGER_MINIMUM_TOP_UP must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	return nil
}

// DSN builds the Data Source Name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, port, c.DBSSLMode)
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// Location returns the configured time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
