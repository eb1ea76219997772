package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinSigningKeyLen is the shortest HMAC key accepted for token signing.
const MinSigningKeyLen = 32

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host         string
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		CORSOrigins  []string
	}

	GRPC struct {
		Host string
		Port string
	}

	Token struct {
		SigningKey string
		TTL        time.Duration
		Issuer     string
	}

	Discovery struct {
		DefaultPageSize int
		MaxPageSize     int
		MinAge          int
		MaxAge          int
		GenderPolicy    string
	}

	RateLimit struct {
		LoginAttempts int
		LoginWindow   time.Duration
	}
}

// Load reads an optional .env file and then builds the config from the environment.
// Variables already present in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()
	return New()
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "acquaintance_api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		switch cfg.DB.Driver {
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "acquaintance.db")
		default:
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "acquaintance")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntDefault("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "5000")
	cfg.HTTP.ReadTimeout = getDurationDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	cfg.HTTP.WriteTimeout = getDurationDefault("HTTP_WRITE_TIMEOUT", 15*time.Second)
	cfg.HTTP.CORSOrigins = splitList(getEnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:4200"))

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Token
	cfg.Token.SigningKey = os.Getenv("TOKEN_SIGNING_KEY")
	cfg.Token.TTL = getDurationDefault("TOKEN_TTL", 24*time.Hour)
	cfg.Token.Issuer = getEnvDefault("TOKEN_ISSUER", "acquaintance")

	// Discovery
	cfg.Discovery.DefaultPageSize = getIntDefault("DISCOVERY_DEFAULT_PAGE_SIZE", 10)
	cfg.Discovery.MaxPageSize = getIntDefault("DISCOVERY_MAX_PAGE_SIZE", 50)
	cfg.Discovery.MinAge = getIntDefault("DISCOVERY_MIN_AGE", 18)
	cfg.Discovery.MaxAge = getIntDefault("DISCOVERY_MAX_AGE", 99)
	cfg.Discovery.GenderPolicy = strings.ToLower(getEnvDefault("DISCOVERY_GENDER_POLICY", "opposite"))

	// Rate limit
	cfg.RateLimit.LoginAttempts = getIntDefault("LOGIN_RATE_LIMIT", 10)
	cfg.RateLimit.LoginWindow = getDurationDefault("LOGIN_RATE_WINDOW", time.Minute)

	return cfg
}

// Validate checks the values the process cannot start without.
func (c *Config) Validate() error {
	if len(c.Token.SigningKey) < MinSigningKeyLen {
		return fmt.Errorf("TOKEN_SIGNING_KEY must be at least %d characters", MinSigningKeyLen)
	}
	if c.Token.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Discovery.MaxPageSize < 1 {
		return errors.New("DISCOVERY_MAX_PAGE_SIZE must be at least 1")
	}
	if c.Discovery.DefaultPageSize < 1 || c.Discovery.DefaultPageSize > c.Discovery.MaxPageSize {
		return errors.New("DISCOVERY_DEFAULT_PAGE_SIZE must be between 1 and DISCOVERY_MAX_PAGE_SIZE")
	}
	switch c.Discovery.GenderPolicy {
	case "opposite", "any":
	default:
		return fmt.Errorf("unsupported DISCOVERY_GENDER_POLICY %q", c.Discovery.GenderPolicy)
	}
	return nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
