package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Provider ProviderConfig
	SMS      SMSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Service  string
}

// AuthConfig defines token and password parameters.
type AuthConfig struct {
	TokenSecret     string
	TokenTTLMinutes int
	BcryptCost      int
	SecureCookies   bool
}

// ProviderMode selects the identity provider implementation.
type ProviderMode string

const (
	ProviderModeOIDC ProviderMode = "oidc"
	ProviderModeMock ProviderMode = "mock"
)

// ProviderConfig configures the external identity provider.
type ProviderConfig struct {
	Mode             ProviderMode
	IssuerURL        string
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	AdminRedirectURL string
	Scopes           []string
	TimeoutSeconds   int
	StateTTLSeconds  int
}

// Timeout returns the outbound provider call timeout.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// StateTTL bounds how long a login handshake may sit between begin and callback.
func (p ProviderConfig) StateTTL() time.Duration {
	if p.StateTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(p.StateTTLSeconds) * time.Second
}

// SMSConfig points at the SMS gateway used for the admin balance check.
type SMSConfig struct {
	BalanceURL     string
	APIKey         string
	TimeoutSeconds int
}

// Timeout returns the outbound SMS gateway timeout.
func (s SMSConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	providerMode := ProviderMode(getEnv("AUTH_PROVIDER_MODE", string(ProviderModeOIDC)))
	if providerMode != ProviderModeOIDC && providerMode != ProviderModeMock {
		return nil, fmt.Errorf("invalid AUTH_PROVIDER_MODE: %q", providerMode)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "wellmart-backend"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Service:  getEnv("APP_NAME", "wellmart-backend"),
		},
		Auth: AuthConfig{
			TokenSecret:     getEnv("AUTH_TOKEN_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60*24*7),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SecureCookies:   getEnvAsBool("AUTH_SECURE_COOKIES", true),
		},
		Provider: ProviderConfig{
			Mode:             providerMode,
			IssuerURL:        getEnv("OAUTH_ISSUER_URL", ""),
			ClientID:         getEnv("OAUTH_CLIENT_ID", ""),
			ClientSecret:     getEnv("OAUTH_CLIENT_SECRET", ""),
			RedirectURL:      getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback"),
			AdminRedirectURL: getEnv("OAUTH_ADMIN_REDIRECT_URL", "http://localhost:8080/admin-login/callback"),
			Scopes:           strings.Fields(getEnv("OAUTH_SCOPES", "openid profile email phone")),
			TimeoutSeconds:   getEnvAsInt("OAUTH_TIMEOUT_SECONDS", 5),
			StateTTLSeconds:  getEnvAsInt("OAUTH_STATE_TTL_SECONDS", 600),
		},
		SMS: SMSConfig{
			BalanceURL:     getEnv("SMS_BALANCE_URL", ""),
			APIKey:         os.Getenv("SMS_API_KEY"),
			TimeoutSeconds: getEnvAsInt("SMS_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
