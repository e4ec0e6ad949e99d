package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys double as environment variable names.
const (
	KeyPort               = "PORT"
	KeyAPIBaseURL         = "API_BASE_URL"
	KeyAPITimeout         = "API_TIMEOUT"
	KeyAuthScheme         = "AUTH_SCHEME"
	KeyCookieSecure       = "COOKIE_SECURE"
	KeyCookieSameSite     = "COOKIE_SAMESITE"
	KeySessionTTL         = "SESSION_TTL"
	KeyRateLimitPerMinute = "RATE_LIMIT_PER_MINUTE"
	KeyCategoryCacheTTL   = "CATEGORY_CACHE_TTL"
	KeyAMQPURL            = "AMQP_URL"
	KeyAMQPExchange       = "AMQP_EXCHANGE"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
	KeyCredentialsFile    = "CREDENTIALS_FILE"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote API
	APIBaseURL string
	APITimeout time.Duration
	AuthScheme string

	// Credential cookie
	CookieSecure   bool
	CookieSameSite string
	SessionTTL     time.Duration

	RateLimitPerMinute int
	CategoryCacheTTL   time.Duration

	// AMQP activity events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string

	LogLevel  string
	LogFormat string

	// CLI credential store, empty means the user config dir
	CredentialsFile string
}

var defaults = map[string]any{
	KeyPort:               "8081",
	KeyAPIBaseURL:         "http://localhost:8000/api/v1",
	KeyAPITimeout:         10 * time.Second,
	KeyAuthScheme:         "Bearer",
	KeyCookieSecure:       false,
	KeyCookieSameSite:     "strict",
	KeySessionTTL:         7 * 24 * time.Hour,
	KeyRateLimitPerMinute: 20,
	KeyCategoryCacheTTL:   30 * time.Second,
	KeyAMQPURL:            "",
	KeyAMQPExchange:       "spendtrack",
	KeyLogLevel:           "info",
	KeyLogFormat:          "text",
	KeyCredentialsFile:    "",
}

// NewViper returns a viper instance with defaults registered and
// environment lookup enabled. Callers may bind flags or read a config
// file into it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML/TOML/JSON config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment.
func Load() *Config {
	return FromViper(NewViper())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port: v.GetString(KeyPort),

		APIBaseURL: strings.TrimSpace(v.GetString(KeyAPIBaseURL)),
		APITimeout: v.GetDuration(KeyAPITimeout),
		AuthScheme: v.GetString(KeyAuthScheme),

		CookieSecure:   v.GetBool(KeyCookieSecure),
		CookieSameSite: strings.ToLower(v.GetString(KeyCookieSameSite)),
		SessionTTL:     v.GetDuration(KeySessionTTL),

		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMinute),
		CategoryCacheTTL:   v.GetDuration(KeyCategoryCacheTTL),

		AMQPURL:      v.GetString(KeyAMQPURL),
		AMQPExchange: v.GetString(KeyAMQPExchange),

		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),

		CredentialsFile: v.GetString(KeyCredentialsFile),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || c.APIBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 2 minutes", c.APITimeout))
	}

	validSchemes := []string{"Bearer", "Token"}
	if !slices.Contains(validSchemes, c.AuthScheme) {
		errors = append(errors, fmt.Sprintf("invalid auth scheme '%s': must be one of %v", c.AuthScheme, validSchemes))
	}

	validSameSite := []string{"strict", "lax", "none"}
	if !slices.Contains(validSameSite, c.CookieSameSite) {
		errors = append(errors, fmt.Sprintf("invalid cookie same-site '%s': must be one of %v", c.CookieSameSite, validSameSite))
	} else if c.CookieSameSite == "none" && !c.CookieSecure {
		errors = append(errors, "cookie same-site 'none' requires COOKIE_SECURE=true")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.CategoryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
	} else if c.CategoryCacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must be at most 1 hour", c.CategoryCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
