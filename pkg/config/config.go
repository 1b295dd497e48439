package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

type AppConfig struct {
	Environment  string `yaml:"app_env" env:"APP_ENV" env-default:"development"`
	Port         string `yaml:"port" env:"PORT" env-default:"3000"`
	APIPrefix    string `yaml:"api_prefix" env:"API_PREFIX" env-default:""`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	EnforceHTTPS bool   `yaml:"enforce_https" env:"ENFORCE_HTTPS" env-default:"false"`
	SeedEnabled  bool   `yaml:"seed_enabled" env:"SEED_ENABLED" env-default:"true"`

	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Path       string `yaml:"path" env:"DATABASE_PATH" env-default:"data/todos.db"`
	URL        string `yaml:"url" env:"DATABASE_URL"`
	LogQueries bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" env-default:"false"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"3h"`
}

type RateLimitConfig struct {
	Enabled bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Backend string `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"todoguard"`
	ServiceVersion string `yaml:"service_version" env:"OTEL_SERVICE_VERSION" env-default:"dev"`
	MetricsPort    string `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9090"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
}

// Load reads configPath when it exists and falls back to the environment
// otherwise. Environment variables always override file values.
func Load(configPath string) (*AppConfig, error) {
	var cfg AppConfig

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read config %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case RateLimitMemory:
		case RateLimitRedis:
			if c.Redis.Addr == "" {
				return errors.New("REDIS_ADDR is required for the redis rate limit backend")
			}
		default:
			return fmt.Errorf("unsupported RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
		}
	}

	if c.Auth.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
