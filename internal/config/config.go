package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Email     EmailConfig     `yaml:"email"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	HTTPPort int    `yaml:"http_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig configures the live notification channel. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// LifecycleConfig tunes the reservation engine
type LifecycleConfig struct {
	DepositBasisPoints int64  `yaml:"deposit_basis_points"`
	Currency           string `yaml:"currency"`
	StoreTimeoutMS     int    `yaml:"store_timeout_ms"`
	LicenseCacheTTLSec int    `yaml:"license_cache_ttl_seconds"`
	ReconcileLookback  int    `yaml:"reconcile_lookback_hours"`
}

func (l LifecycleConfig) StoreTimeout() time.Duration {
	return time.Duration(l.StoreTimeoutMS) * time.Millisecond
}

func (l LifecycleConfig) LicenseCacheTTL() time.Duration {
	return time.Duration(l.LicenseCacheTTLSec) * time.Second
}

func (l LifecycleConfig) ReconcileWindow() time.Duration {
	return time.Duration(l.ReconcileLookback) * time.Hour
}

// EmailConfig contains SendGrid settings. Empty APIKey disables email.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

func (e EmailConfig) Enabled() bool {
	return e.SendGridAPIKey != ""
}

// FirebaseConfig contains FCM settings. Empty CredentialsFile disables push.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

func (f FirebaseConfig) Enabled() bool {
	return f.CredentialsFile != ""
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileReservations string `yaml:"reconcile_reservations"`
	SendReturnReminders   string `yaml:"send_return_reminders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
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

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.FromAddress = val
	}

	// Firebase
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SERVER_HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		c.Log.File = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = c.Server.Port + 1
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 || c.Server.HTTPPort == c.Server.Port {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
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

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Email validation
	if c.Email.Enabled() && c.Email.FromAddress == "" {
		return fmt.Errorf("email from address is required when SendGrid is enabled")
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "MotoRent"
	}

	// Lifecycle defaults
	if c.Lifecycle.DepositBasisPoints == 0 {
		c.Lifecycle.DepositBasisPoints = 2000 // 20%
	}
	if c.Lifecycle.DepositBasisPoints < 0 || c.Lifecycle.DepositBasisPoints > 10000 {
		return fmt.Errorf("invalid deposit basis points: %d", c.Lifecycle.DepositBasisPoints)
	}
	if c.Lifecycle.Currency == "" {
		c.Lifecycle.Currency = "PHP"
	}
	if c.Lifecycle.StoreTimeoutMS == 0 {
		c.Lifecycle.StoreTimeoutMS = 5000
	}
	if c.Lifecycle.LicenseCacheTTLSec == 0 {
		c.Lifecycle.LicenseCacheTTLSec = 300
	}
	if c.Lifecycle.ReconcileLookback == 0 {
		c.Lifecycle.ReconcileLookback = 24
	}

	// Scheduler defaults
	if c.Scheduler.ReconcileReservations == "" {
		c.Scheduler.ReconcileReservations = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 8 * * *" // 8 AM UTC
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

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the HTTP side server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
