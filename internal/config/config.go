package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"remitgate/internal/pkg/password"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	RequestTimeout time.Duration
	Database       DatabaseConfig
	JWT            JWTConfig
	Cookie         CookieConfig
	Hashing        HashingConfig
	Lockout        LockoutConfig
	Audit          AuditConfig
	Log            LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds token issuer configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	Issuer           string
	Audience         string
	AccessTokenHours int
	RefreshTokenDays int
}

// CookieConfig holds refresh cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// HashingConfig holds argon2id cost and pool size
type HashingConfig struct {
	Params  password.Params
	Workers int
}

// LockoutConfig holds brute-force protection settings
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
	SweepSpec string
}

// AuditConfig holds audit dispatcher settings
type AuditConfig struct {
	Buffer      int
	Sinks       []string
	RabbitMQURL string
	Queue       string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "3000"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		Database:       loadDatabaseConfig(appMode),
		JWT:            loadJWTConfig(appMode),
		Cookie:         loadCookieConfig(appMode),
		Hashing:        loadHashingConfig(),
		Lockout: LockoutConfig{
			Threshold: getEnvInt("LOCKOUT_THRESHOLD", 5),
			Duration:  time.Duration(getEnvInt("LOCKOUT_MINUTES", 15)) * time.Minute,
			SweepSpec: getEnv("LOCKOUT_SWEEP_SPEC", "@every 1m"),
		},
		Audit: AuditConfig{
			Buffer:      getEnvInt("AUDIT_BUFFER", 1024),
			Sinks:       splitList(getEnv("AUDIT_SINKS", "log,db")),
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Queue:       getEnv("RABBITMQ_AUDIT_QUEUE", "remitgate.audit"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(appMode)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config
	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", c.Database.Driver)
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}
	if c.IsProd() && (c.JWT.Secret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		return fmt.Errorf("default JWT secrets are not allowed in prod")
	}
	if c.JWT.AccessTokenHours < 1 || c.JWT.RefreshTokenDays < 1 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Lockout.Threshold < 1 || c.Lockout.Duration <= 0 {
		return fmt.Errorf("lockout threshold and duration must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	for _, sink := range c.Audit.Sinks {
		switch sink {
		case "log", "db":
		case "rabbitmq":
			if c.Audit.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is required for the rabbitmq audit sink")
			}
		default:
			return fmt.Errorf("unknown audit sink '%s'", sink)
		}
	}
	return nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "remitgate"),
	}
}

const (
	defaultAccessSecret  = "default_secret"
	defaultRefreshSecret = "default_refresh_secret"
)

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultAccessSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultRefreshSecret),
		Issuer:           getEnv("JWT_ISSUER", "remitgate-auth"),
		Audience:         getEnv("JWT_AUDIENCE", "remitgate-staff"),
		AccessTokenHours: getEnvInt("ACCESS_TOKEN_HOURS", 24),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadHashingConfig() HashingConfig {
	return HashingConfig{
		Params: password.Params{
			MemoryKB:    uint32(getEnvInt("ARGON2_MEMORY_KB", int(password.DefaultParams.MemoryKB))),
			Iterations:  uint32(getEnvInt("ARGON2_TIME", int(password.DefaultParams.Iterations))),
			Parallelism: uint8(getEnvInt("ARGON2_THREADS", int(password.DefaultParams.Parallelism))),
		},
		Workers: getEnvInt("HASH_WORKERS", 4),
	}
}

func defaultLogFormat(mode string) string {
	if mode == "prod" {
		return "json"
	}
	return "text"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// AccessTTL returns the access token lifetime
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenHours) * time.Hour
}

// RefreshTTL returns the refresh token lifetime
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenDays) * 24 * time.Hour
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://ops.remitgate.internal"
	}
	return origins
}
