package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Admin   AdminConfig       `yaml:"admin"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	return c.Admin.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig holds the content directory layout.
type ContentConfig struct {
	DataDir         string `yaml:"data_dir"`
	UploadsDir      string `yaml:"uploads_dir"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.UploadsDir, validation.Required),
		validation.Field(&c.CacheTTLSeconds, validation.Min(0)),
	)
}

// CacheTTL returns the post cache TTL.
func (c *ContentConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AdminConfig holds the admin surface configuration.
//
// Password intentionally carries no Required rule: deployments inject it
// via ${VITRIN_ADMIN_PASSWORD} and the value may be absent at runtime.
// An empty password makes every login fail (logged as a misconfigured
// secret) rather than failing startup, so the public surface stays up.
type AdminConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Password           string `yaml:"password"`
	SessionSecret      string `yaml:"session_secret"`
	SessionTTLMinutes  int    `yaml:"session_ttl_minutes"`
	CookieSecure       bool   `yaml:"cookie_secure"`
	LoginMaxAttempts   int    `yaml:"login_max_attempts"`
	LoginWindowSeconds int    `yaml:"login_window_seconds"`
}

// Validate validates the admin configuration. The session secret signs
// cookies, so when the admin surface is on it must be set and long
// enough to resist brute force.
func (c *AdminConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.SessionSecret, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.SessionTTLMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.LoginMaxAttempts, validation.Min(0)),
		validation.Field(&c.LoginWindowSeconds, validation.Min(0)),
	)
}

// SessionTTL returns the session lifetime.
func (c *AdminConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// LoginWindow returns the login rate-limit window.
func (c *AdminConfig) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowSeconds) * time.Second
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			DataDir:         "./data",
			UploadsDir:      "./uploads",
			CacheTTLSeconds: 300,
		},
		Admin: AdminConfig{
			Enabled:            false,
			SessionTTLMinutes:  720,
			CookieSecure:       true,
			LoginMaxAttempts:   5,
			LoginWindowSeconds: 60,
		},
	}
}
