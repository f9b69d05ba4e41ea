package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTokenExpiry applies when AUTH_JWT_EXPIRES_IN is absent or unparseable.
const DefaultTokenExpiry = 7 * 24 * time.Hour

const minProductionSecretLen = 32

// ErrMissingSecret is returned by Load when no signing secret is configured.
var ErrMissingSecret = errors.New("AUTH_JWT_SECRET is required")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Edge     EdgeConfig
	Metrics  MetricsConfig
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

// StoreConfig selects the user store backend.
type StoreConfig struct {
	Driver string
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

// MongoConfig holds Mongo connection values.
type MongoConfig struct {
	URI             string
	Database        string
	UsersCollection string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters shared by every token codec.
type AuthConfig struct {
	// Secret is trimmed of surrounding whitespace; both codecs sign with these exact bytes.
	Secret            string
	ExpiresIn         string
	CookieDomain      string
	Production        bool
	BcryptCost        int
	RevocationEnabled bool
	LoginRatePerMin   int
	LoginBurst        int
}

// EdgeConfig configures the edge gatekeeper server.
type EdgeConfig struct {
	Host        string
	Port        string
	UpstreamURL string
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")
	auth, err := loadAuth(env == "production")
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", "mongo"))
	if driver != "mongo" && driver != "postgres" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "jobsync-auth"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{Driver: driver},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Mongo: MongoConfig{
			URI:             getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database:        getEnv("MONGO_DATABASE", "jobsync"),
			UsersCollection: getEnv("MONGO_USERS_COLLECTION", "users"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: auth,
		Edge: EdgeConfig{
			Host:        getEnv("EDGE_HOST", "0.0.0.0"),
			Port:        getEnv("EDGE_PORT", "3001"),
			UpstreamURL: getEnv("EDGE_UPSTREAM_URL", "http://127.0.0.1:3000"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	return cfg, nil
}

func loadAuth(production bool) (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	if secret == "" {
		return AuthConfig{}, ErrMissingSecret
	}

	auth := AuthConfig{
		Secret:            secret,
		ExpiresIn:         getEnv("AUTH_JWT_EXPIRES_IN", "7d"),
		Production:        production,
		BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
		RevocationEnabled: getEnvAsBool("AUTH_REVOCATION_ENABLED", false),
		LoginRatePerMin:   getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 20),
		LoginBurst:        getEnvAsInt("AUTH_LOGIN_BURST", 5),
	}
	if production {
		auth.CookieDomain = strings.TrimSpace(os.Getenv("AUTH_COOKIE_DOMAIN"))
	}
	return auth, nil
}

// Warnings lists non-fatal configuration problems worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Auth.Production && len(c.Auth.Secret) < minProductionSecretLen {
		warnings = append(warnings, fmt.Sprintf("AUTH_JWT_SECRET is shorter than %d characters", minProductionSecretLen))
	}
	if c.Auth.RevocationEnabled && c.Redis.Addr == "" {
		warnings = append(warnings, "AUTH_REVOCATION_ENABLED is set but REDIS_ADDR is empty")
	}
	return warnings
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns the edge bind address.
func (e EdgeConfig) Addr() string {
	return fmt.Sprintf("%s:%s", e.Host, e.Port)
}

// TokenTTL returns the parsed token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return ParseExpiry(a.ExpiresIn)
}

var expiryPattern = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseExpiry converts strings such as "7d", "24h", "30m" or "45s" into a
// duration. Anything else falls back to DefaultTokenExpiry.
func ParseExpiry(raw string) time.Duration {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return DefaultTokenExpiry
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultTokenExpiry
	}

	var unit time.Duration
	switch m[2] {
	case "d":
		unit = 24 * time.Hour
	case "h":
		unit = time.Hour
	case "m":
		unit = time.Minute
	default:
		unit = time.Second
	}
	return time.Duration(n) * unit
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
