package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,       default=24h"`
	// bcrypt cost; 0 falls back to the library default.
	BcryptCost int `env:"BCRYPT_COST,     default=0"`

	// Pre-auth throttle (per email and per IP), independent of the
	// durable per-account lockout.
	ThrottleAttempts int           `env:"THROTTLE_ATTEMPTS, default=20"`
	ThrottleWindow   time.Duration `env:"THROTTLE_WINDOW,   default=5m"`

	// Audit dispatch buffering.
	AuditBuffer  int `env:"AUDIT_BUFFER,  default=256"`
	AuditWorkers int `env:"AUDIT_WORKERS, default=2"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=hostpanel"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
