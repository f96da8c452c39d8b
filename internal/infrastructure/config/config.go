package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store kinds.
const (
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=3000"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	// UserStore selects where user records live: mongo or memory.
	UserStore string `env:"USER_STORE, default=mongo"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Google  GoogleConfig
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"`
	IdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT, default=24h"`
	Store        string        `env:"SESSION_STORE,        default=redis"`
	CookieSecure bool          `env:"COOKIE_SECURE,        default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=secrets"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type GoogleConfig struct {
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	CallbackURL  string        `env:"GOOGLE_CALLBACK_URL, default=http://localhost:3000/auth/google/secrets"`
	UserInfoURL  string        `env:"GOOGLE_USERINFO_URL, default=https://www.googleapis.com/oauth2/v3/userinfo"`
	Timeout      time.Duration `env:"GOOGLE_TIMEOUT,      default=10s"`
	StateTTL     time.Duration `env:"HANDSHAKE_STATE_TTL, default=10m"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	switch c.Session.Store {
	case StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, c.Session.Store))
	}
	switch c.UserStore {
	case StoreMongo, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("USER_STORE must be %q or %q, got %q", StoreMongo, StoreMemory, c.UserStore))
	}
	if c.UserStore == StoreMemory && c.IsProduction() {
		errs = append(errs, errors.New("USER_STORE=memory is not allowed in production"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads an optional .env file, then the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
