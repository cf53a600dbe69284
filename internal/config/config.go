package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Session    SessionConfig
	Token      TokenConfig
	Email      EmailConfig
	Cloudinary CloudinaryConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	BaseURL      string
	AllowOrigins string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret string
	MaxAge time.Duration
}

type TokenConfig struct {
	Secret             string
	VerificationExpiry time.Duration
}

type EmailConfig struct {
	Provider      string
	ResendAPIKey  string
	AWSRegion     string
	FromAddress   string
	FromName      string
	Timeout       time.Duration
	RatePerSecond float64
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type RateLimitConfig struct {
	Backend string
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	EmailProviderResend = "resend"
	EmailProviderSES    = "ses"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	minSessionSecretLength = 32
)

// Load reads configuration from the environment (and an optional .env file).
// Missing required values are reported together so startup fails once.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Environment:  v.GetString("APP_ENV"),
			BaseURL:      strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
			AllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			MaxAge: 30 * 24 * time.Hour,
		},
		Token: TokenConfig{
			Secret:             v.GetString("JWT_SECRET"),
			VerificationExpiry: 24 * time.Hour,
		},
		Email: EmailConfig{
			Provider:      strings.ToLower(v.GetString("EMAIL_PROVIDER")),
			ResendAPIKey:  v.GetString("RESEND_API_KEY"),
			AWSRegion:     v.GetString("AWS_REGION"),
			FromAddress:   v.GetString("EMAIL_FROM_ADDRESS"),
			FromName:      v.GetString("EMAIL_FROM_NAME"),
			Timeout:       v.GetDuration("EMAIL_TIMEOUT"),
			RatePerSecond: v.GetFloat64("EMAIL_RATE_PER_SECOND"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    v.GetString("CLOUDINARY_API_KEY"),
			APISecret: v.GetString("CLOUDINARY_API_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Backend: strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EMAIL_PROVIDER", EmailProviderResend)
	v.SetDefault("EMAIL_FROM_NAME", "Tweeter")
	v.SetDefault("EMAIL_TIMEOUT", 10*time.Second)
	v.SetDefault("EMAIL_RATE_PER_SECOND", 14.0)
	v.SetDefault("RATE_LIMIT_BACKEND", RateLimitBackendMemory)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate checks that every value the process cannot run without is present.
func (c *Config) Validate() error {
	var problems []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	require(c.Session.Secret, "SESSION_SECRET")
	if c.Session.Secret != "" && len(c.Session.Secret) < minSessionSecretLength {
		problems = append(problems, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSessionSecretLength))
	}
	require(c.Database.URL, "DATABASE_URL")
	require(c.Token.Secret, "JWT_SECRET")
	require(c.Email.FromAddress, "EMAIL_FROM_ADDRESS")
	require(c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	require(c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	require(c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")

	switch c.Email.Provider {
	case EmailProviderResend:
		require(c.Email.ResendAPIKey, "RESEND_API_KEY")
	case EmailProviderSES:
		require(c.Email.AWSRegion, "AWS_REGION")
	default:
		problems = append(problems, fmt.Sprintf("EMAIL_PROVIDER %q is not supported", c.Email.Provider))
	}

	if c.Email.RatePerSecond <= 0 {
		problems = append(problems, "EMAIL_RATE_PER_SECOND must be greater than zero")
	}

	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		require(c.Redis.Addr, "REDIS_ADDR")
	default:
		problems = append(problems, fmt.Sprintf("RATE_LIMIT_BACKEND %q is not supported", c.RateLimit.Backend))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether cookies must carry the Secure flag.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
