package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // storefront web origins for CORS
}

// BackendConfig points at the remote Door Cars REST API
type BackendConfig struct {
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SessionConfig contains browser session settings
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	Secret     string `yaml:"secret"` // seals backend tokens at rest
	Secure     bool   `yaml:"secure_cookie"`
}

// CheckoutConfig contains booking workflow settings
type CheckoutConfig struct {
	MinRentalHours        float64 `yaml:"min_rental_hours"`
	QuoteDebounceMillis   int     `yaml:"quote_debounce_millis"`
	GatewayTimeoutMinutes int     `yaml:"gateway_timeout_minutes"`
	AttemptTTLMinutes     int     `yaml:"attempt_ttl_minutes"`
	VerifyingTTLMinutes   int     `yaml:"verifying_ttl_minutes"` // verification with no recorded outcome
	QuoteRetentionMinutes int     `yaml:"quote_retention_minutes"`
	MerchantName          string  `yaml:"merchant_name"`
	Timezone              string  `yaml:"timezone"`
}

// SendGridConfig contains support alert email settings
type SendGridConfig struct {
	APIKey       string `yaml:"api_key"` // empty disables alerts
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
	SupportEmail string `yaml:"support_email"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireCheckoutAttempts string `yaml:"expire_checkout_attempts"`
	PurgeExpiredSessions   string `yaml:"purge_expired_sessions"`
	PruneQuotes            string `yaml:"prune_quotes"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, applies environment overrides and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Backend
	if val := os.Getenv("BACKEND_BASE_URL"); val != "" {
		c.Backend.BaseURL = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Session
	if val := os.Getenv("SESSION_SECRET"); val != "" {
		c.Session.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SUPPORT_EMAIL"); val != "" {
		c.SendGrid.SupportEmail = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Backend validation
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend base url must be http(s): %s", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Backend.RequestsPerSecond == 0 {
		c.Backend.RequestsPerSecond = 20
	}
	if c.Backend.Burst == 0 {
		c.Backend.Burst = 10
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Session validation
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "doorcars_session"
	}
	if c.Session.TTLMinutes == 0 {
		c.Session.TTLMinutes = 7 * 24 * 60
	}

	// Checkout defaults
	if c.Checkout.MinRentalHours == 0 {
		c.Checkout.MinRentalHours = 8
	}
	if c.Checkout.MinRentalHours < 0 {
		return fmt.Errorf("invalid minimum rental hours: %g", c.Checkout.MinRentalHours)
	}
	if c.Checkout.QuoteDebounceMillis == 0 {
		c.Checkout.QuoteDebounceMillis = 300
	}
	if c.Checkout.GatewayTimeoutMinutes == 0 {
		c.Checkout.GatewayTimeoutMinutes = 15
	}
	if c.Checkout.AttemptTTLMinutes == 0 {
		c.Checkout.AttemptTTLMinutes = 30
	}
	if c.Checkout.AttemptTTLMinutes < c.Checkout.GatewayTimeoutMinutes {
		return fmt.Errorf("attempt ttl (%d min) must not be shorter than the gateway timeout (%d min)",
			c.Checkout.AttemptTTLMinutes, c.Checkout.GatewayTimeoutMinutes)
	}
	if c.Checkout.VerifyingTTLMinutes == 0 {
		c.Checkout.VerifyingTTLMinutes = 60
	}
	if c.Checkout.VerifyingTTLMinutes < c.Checkout.AttemptTTLMinutes {
		return fmt.Errorf("verifying ttl (%d min) must not be shorter than the attempt ttl (%d min)",
			c.Checkout.VerifyingTTLMinutes, c.Checkout.AttemptTTLMinutes)
	}
	if c.Checkout.QuoteRetentionMinutes == 0 {
		c.Checkout.QuoteRetentionMinutes = 60
	}
	if c.Checkout.MerchantName == "" {
		c.Checkout.MerchantName = "Door Cars"
	}
	if c.Checkout.Timezone == "" {
		c.Checkout.Timezone = "Asia/Kolkata"
	}
	if _, err := time.LoadLocation(c.Checkout.Timezone); err != nil {
		return fmt.Errorf("invalid checkout timezone %q: %w", c.Checkout.Timezone, err)
	}

	// SendGrid validation
	if c.SendGrid.APIKey != "" && c.SendGrid.SupportEmail == "" {
		return fmt.Errorf("support email is required when sendgrid is enabled")
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "Door Cars Storefront"
	}

	// Scheduler defaults
	if c.Scheduler.ExpireCheckoutAttempts == "" {
		c.Scheduler.ExpireCheckoutAttempts = "0 */5 * * * *" // Every 5 minutes
	}
	if c.Scheduler.PurgeExpiredSessions == "" {
		c.Scheduler.PurgeExpiredSessions = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.PruneQuotes == "" {
		c.Scheduler.PruneQuotes = "0 */15 * * * *" // Every 15 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BackendTimeout returns the per-request timeout for remote API calls
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// MinRentalDuration returns the minimum bookable window
func (c *Config) MinRentalDuration() time.Duration {
	return time.Duration(c.Checkout.MinRentalHours * float64(time.Hour))
}

// QuoteDebounce returns the delay that coalesces rapid date edits
func (c *Config) QuoteDebounce() time.Duration {
	return time.Duration(c.Checkout.QuoteDebounceMillis) * time.Millisecond
}

// GatewayTimeout returns how long a checkout waits for the payment widget
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Checkout.GatewayTimeoutMinutes) * time.Minute
}

// AttemptTTL returns the age after which an open checkout attempt is abandoned
func (c *Config) AttemptTTL() time.Duration {
	return time.Duration(c.Checkout.AttemptTTLMinutes) * time.Minute
}

// VerifyingTTL returns the age after which a verification that never recorded
// an outcome is failed as unverified
func (c *Config) VerifyingTTL() time.Duration {
	return time.Duration(c.Checkout.VerifyingTTLMinutes) * time.Minute
}

// QuoteRetention returns how long an applied quote is kept for a detail page
func (c *Config) QuoteRetention() time.Duration {
	return time.Duration(c.Checkout.QuoteRetentionMinutes) * time.Minute
}

// SessionTTL returns how long a browser session lives
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Location returns the timezone rental instants are entered in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Checkout.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
