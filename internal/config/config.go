package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chepyr/go-task-tracker/internal/access"
)

const minSecretLength = 32

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AuthConfig struct {
	BcryptCost      int
	ElevationPolicy access.ElevationPolicy
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Second),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("POSTGRES_HOST", "localhost"),
			Port:       getEnvAsInt("POSTGRES_PORT", 5432),
			User:       getEnv("POSTGRES_USER", ""),
			Password:   getEnv("POSTGRES_PASSWORD", ""),
			DBName:     getEnv("POSTGRES_DB", ""),
			SSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "tracker.db"),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			TokenTTL: getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			BcryptCost:      getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
			ElevationPolicy: access.ElevationPolicy(getEnv("ROLE_ELEVATION_POLICY", string(access.ElevationSelfService))),
		},
		RateLimit: RateLimitConfig{
			Limit:  getEnvAsInt("AUTH_RATE_LIMIT", 5),
			Window: getEnvAsDuration("AUTH_RATE_WINDOW", 15*time.Minute),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_TTL must be positive"))
	}
	if !c.Auth.ElevationPolicy.Valid() {
		errs = append(errs, fmt.Errorf("ROLE_ELEVATION_POLICY %q is not one of self-service, disabled", c.Auth.ElevationPolicy))
	}
	if c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive"))
	}

	switch c.Database.Driver {
	case "postgres":
		for name, v := range map[string]string{
			"POSTGRES_USER":     c.Database.User,
			"POSTGRES_PASSWORD": c.Database.Password,
			"POSTGRES_DB":       c.Database.DBName,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("environment variable %s must be set", name))
			}
		}
	case "sqlite3":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must be set"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of postgres, sqlite3", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.SQLitePath + "?_foreign_keys=on"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
