// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultSessionSecret = "unnest-dev-secret-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`

	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBPath                   string `mapstructure:"DB_PATH"`
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SessionSecret   string `mapstructure:"SESSION_SECRET"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	RememberTTLDays int    `mapstructure:"REMEMBER_TTL_DAYS"`
	CSRFEnabled     bool   `mapstructure:"CSRF_ENABLED"`
	BcryptCost      int    `mapstructure:"BCRYPT_COST"`

	StaticDir         string `mapstructure:"STATIC_DIR"`
	MediaBackend      string `mapstructure:"MEDIA_BACKEND"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Prefix          string `mapstructure:"S3_PREFIX"`
	S3PublicURL       string `mapstructure:"S3_PUBLIC_URL"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	UploadMaxMB       int    `mapstructure:"UPLOAD_MAX_MB"`

	PostsPerPage int `mapstructure:"POSTS_PER_PAGE"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults cover everything.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("APP_ENV", "development")

	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_PATH", "unnest.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "unnest")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "unnest")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "")

	viper.SetDefault("SESSION_SECRET", defaultSessionSecret)
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("REMEMBER_TTL_DAYS", 365)
	viper.SetDefault("CSRF_ENABLED", true)
	viper.SetDefault("BCRYPT_COST", 10)

	viper.SetDefault("STATIC_DIR", "web/static")
	viper.SetDefault("MEDIA_BACKEND", "local")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_PREFIX", "")
	viper.SetDefault("S3_PUBLIC_URL", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("UPLOAD_MAX_MB", 16)

	viper.SetDefault("POSTS_PER_PAGE", 5)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.MediaBackend = strings.ToLower(strings.TrimSpace(c.MediaBackend))
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 5
	}
}

// IsProduction reports whether the app runs with the production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionTTL is the lifetime of a session that was not marked "remember me".
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// RememberTTL is the lifetime of a remembered session.
func (c *Config) RememberTTL() time.Duration {
	return time.Duration(c.RememberTTLDays) * 24 * time.Hour
}

// UploadLimitBytes is the request body limit applied to the HTTP server.
func (c *Config) UploadLimitBytes() int {
	return c.UploadMaxMB * 1024 * 1024
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.RememberTTLDays <= 0 {
		return errors.New("REMEMBER_TTL_DAYS must be positive")
	}
	if c.UploadMaxMB <= 0 {
		return errors.New("UPLOAD_MAX_MB must be positive")
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.MediaBackend {
	case "local":
		if c.StaticDir == "" {
			return errors.New("STATIC_DIR is required for the local media backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when MEDIA_BACKEND is s3")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	if c.IsProduction() {
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	} else if len(c.SessionSecret) < 32 {
		log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
