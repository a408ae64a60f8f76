package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Driver names for Config.Driver.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	// Driver selects the persistence backend: memory, mongo, or postgres.
	Driver   string `env:"USERSTORE_DRIVER, default=memory"`
	Env      string `env:"ENV,              default=development"`
	LogLevel string `env:"LOG_LEVEL,        default=info"`
	// CacheLookups enables the Redis read-through cache for user lookups.
	CacheLookups bool `env:"CACHE_LOOKUPS, default=false"`

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=userstore"`
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST,     default=localhost"`
	Port     int    `env:"POSTGRES_PORT,     default=5432"`
	User     string `env:"POSTGRES_USER,     default=userstore"`
	Password string `env:"POSTGRES_PASSWORD"`
	DBName   string `env:"POSTGRES_DB,       default=userstore"`
	SSLMode  string `env:"POSTGRES_SSLMODE,  default=disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
