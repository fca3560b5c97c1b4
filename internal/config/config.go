package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	StockDB   StockDBConfig
	Inventory InventoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"facet-inventory-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds Redis and response cache settings.
type CacheConfig struct {
	ResponseTTL time.Duration `envconfig:"CACHE_RESPONSE_TTL" default:"5s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	FlushInterval time.Duration `envconfig:"BUFFER_FLUSH_INTERVAL" default:"30s"`
}

// DatabaseConfig holds MySQL connection settings (for client accounts).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"facet"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// StockDBConfig holds snapshot database settings.
type StockDBConfig struct {
	Type string `envconfig:"STOCK_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mongodb
	Path string `envconfig:"STOCK_DB_PATH" default:"./data/stock.db"`
	// PostgreSQL settings
	Host     string `envconfig:"STOCK_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STOCK_DB_PORT" default:"5432"`
	Name     string `envconfig:"STOCK_DB_NAME" default:"facet"`
	User     string `envconfig:"STOCK_DB_USER" default:"postgres"`
	Password string `envconfig:"STOCK_DB_PASS" default:""`
	SSLMode  string `envconfig:"STOCK_DB_SSLMODE" default:"disable"`
	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"facet"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"stock_snapshots"`
	MongoEventLog   string `envconfig:"MONGODB_EVENT_LOG" default:"inventory_events"`
}

// InventoryConfig holds the reactivity layer policy.
type InventoryConfig struct {
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`
	CartHoldTTL       time.Duration `envconfig:"CART_HOLD_TTL" default:"30m"`
	CheckoutHoldTTL   time.Duration `envconfig:"CHECKOUT_HOLD_TTL" default:"10m"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	StaleThreshold    time.Duration `envconfig:"STALE_SNAPSHOT_THRESHOLD" default:"720h"` // 30 days
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StockDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
