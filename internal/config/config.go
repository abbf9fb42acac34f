package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by the *_STORE and EMAIL_BACKEND keys
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSES      = "ses"
	BackendLog      = "log"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Auth     AuthConfig
	Hashing  HashingConfig
	Stores   StoreConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ServerConfig struct {
	Port         string
	Env          string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	TwoFACodeTTL        time.Duration
	CookieSecure        bool
	CookieSameSite      string
	CookieDomain        string
	CleanupInterval     time.Duration
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

type HashingConfig struct {
	Workers     int
	MemoryKB    int
	Time        int
	Parallelism int
}

// StoreConfig selects the backend behind each store contract
type StoreConfig struct {
	Users        string
	BannedTokens string
	TwoFACodes   string
}

type EmailConfig struct {
	Backend     string
	AWSRegion   string
	FromAddress string
}

// Load reads configuration from the environment and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "auth_service"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Env:          env,
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:           jwtSecret,
			TokenTTL:            getEnvAsDuration("TOKEN_TTL", 10*time.Minute),
			TwoFACodeTTL:        getEnvAsDuration("TWO_FA_CODE_TTL", 10*time.Minute),
			CookieSecure:        getEnvAsBool("COOKIE_SECURE", env == "production"),
			CookieSameSite:      strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
			CookieDomain:        getEnv("COOKIE_DOMAIN", ""),
			CleanupInterval:     getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Minute),
			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 0),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 0),
		},
		Hashing: HashingConfig{
			Workers:     getEnvAsInt("HASH_WORKERS", 0),
			MemoryKB:    getEnvAsInt("ARGON2_MEMORY_KB", 15000),
			Time:        getEnvAsInt("ARGON2_TIME", 2),
			Parallelism: getEnvAsInt("ARGON2_PARALLELISM", 1),
		},
		Stores: StoreConfig{
			Users:        strings.ToLower(getEnv("USER_STORE", BackendPostgres)),
			BannedTokens: strings.ToLower(getEnv("BANNED_TOKEN_STORE", BackendRedis)),
			TwoFACodes:   strings.ToLower(getEnv("TWO_FA_STORE", BackendRedis)),
		},
		Email: EmailConfig{
			Backend:     strings.ToLower(getEnv("EMAIL_BACKEND", BackendLog)),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := oneOf("USER_STORE", c.Stores.Users, BackendPostgres, BackendMemory); err != nil {
		return err
	}
	if err := oneOf("BANNED_TOKEN_STORE", c.Stores.BannedTokens, BackendRedis, BackendPostgres, BackendMemory); err != nil {
		return err
	}
	if err := oneOf("TWO_FA_STORE", c.Stores.TwoFACodes, BackendRedis, BackendMemory); err != nil {
		return err
	}
	if err := oneOf("EMAIL_BACKEND", c.Email.Backend, BackendSES, BackendLog); err != nil {
		return err
	}
	if err := oneOf("COOKIE_SAMESITE", c.Auth.CookieSameSite, "lax", "strict"); err != nil {
		return err
	}

	if c.NeedsPostgres() && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Email.Backend == BackendSES && c.Email.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM is required when EMAIL_BACKEND=ses")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Auth.TwoFACodeTTL <= 0 {
		return fmt.Errorf("TWO_FA_CODE_TTL must be positive")
	}
	if c.Hashing.MemoryKB <= 0 || c.Hashing.Time <= 0 || c.Hashing.Parallelism <= 0 || c.Hashing.Parallelism > 255 {
		return fmt.Errorf("ARGON2_MEMORY_KB, ARGON2_TIME and ARGON2_PARALLELISM must be positive (parallelism <= 255)")
	}

	return nil
}

// NeedsPostgres reports whether any store is backed by PostgreSQL
func (c *Config) NeedsPostgres() bool {
	return c.Stores.Users == BackendPostgres || c.Stores.BannedTokens == BackendPostgres
}

// NeedsRedis reports whether any store is backed by Redis
func (c *Config) NeedsRedis() bool {
	return c.Stores.BannedTokens == BackendRedis || c.Stores.TwoFACodes == BackendRedis
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s (got %q)", key, strings.Join(allowed, ", "), value)
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
