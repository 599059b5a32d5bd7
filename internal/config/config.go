package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the console and the dev backend.
type Config struct {
	API      APIConfig
	Session  SessionConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Auth     AuthConfig
}

// APIConfig controls how the client reaches the REST backend.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
	UserAgent      string
}

// StoreKind selects the session storage backend.
type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StoreFile     StoreKind = "file"
	StoreRedis    StoreKind = "redis"
	StorePostgres StoreKind = "postgres"
)

// SessionConfig controls where session tokens are persisted.
type SessionConfig struct {
	Store          StoreKind
	KeyPrefix      string
	FilePath       string
	PollIntervalMS int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
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

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

// ServerConfig controls the dev backend's HTTP listener.
type ServerConfig struct {
	Name    string
	Host    string
	Port    string
	Version string
}

// AuthConfig defines token parameters for the dev backend.
type AuthConfig struct {
	JWTSecret              string
	AccessTokenTTLMinutes  int
	RefreshTokenTTLMinutes int
	BcryptCost             int
	SeedUsers              []SeedUser
}

// SeedUser is a login the dev backend creates at startup.
type SeedUser struct {
	Email    string
	Password string
	Role     string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	seeds, err := parseSeedUsers(getEnv("DEV_SEED_USERS", "admin@example.com:admin123:SUPER_ADMIN"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEV_SEED_USERS: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("SUPPORT_API_URL", "http://127.0.0.1:8080"), "/"),
			TimeoutSeconds: getEnvAsInt("SUPPORT_API_TIMEOUT_SECONDS", 30),
			UserAgent:      getEnv("SUPPORT_API_USER_AGENT", "supportctl"),
		},
		Session: SessionConfig{
			Store:          StoreKind(strings.ToLower(getEnv("SESSION_STORE", string(StoreFile)))),
			KeyPrefix:      getEnv("SESSION_KEY_PREFIX", "support.auth."),
			FilePath:       getEnv("SESSION_FILE", defaultSessionFile()),
			PollIntervalMS: getEnvAsInt("SESSION_POLL_INTERVAL_MS", 1000),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Output:   getEnv("LOG_OUTPUT", "stderr"),
		},
		Server: ServerConfig{
			Name:    getEnv("APP_NAME", "support-devserver"),
			Host:    getEnv("APP_HOST", "127.0.0.1"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLMinutes: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_MINUTES", 60*24*7),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SeedUsers:              seeds,
		},
	}

	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Timeout returns the configured HTTP client timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// PollInterval returns how often the file backend checks for changes.
func (s SessionConfig) PollInterval() time.Duration {
	if s.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

func (s SessionConfig) validate() error {
	switch s.Store {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q", s.Store)
	}
	if s.KeyPrefix == "" {
		return fmt.Errorf("SESSION_KEY_PREFIX must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLMinutes <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLMinutes) * time.Minute
}

// parseSeedUsers reads "email:password:ROLE" entries separated by commas.
func parseSeedUsers(raw string) ([]SeedUser, error) {
	var out []SeedUser
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("entry %q: want email:password[:ROLE]", entry)
		}
		seed := SeedUser{Email: parts[0], Password: parts[1], Role: "AGENT"}
		if len(parts) == 3 && parts[2] != "" {
			seed.Role = strings.ToUpper(parts[2])
		}
		out = append(out, seed)
	}
	return out, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".supportctl-session.json"
	}
	return dir + string(os.PathSeparator) + "supportctl" + string(os.PathSeparator) + "session.json"
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
