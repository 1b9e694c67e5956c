package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Google    GoogleConfig    `yaml:"google"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC health listener settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	HealthPort      int    `yaml:"health_port"` // gRPC health; 0 disables
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Type string `yaml:"type"` // "firestore" or "postgres"
}

// FirebaseConfig contains Firebase project settings (Auth + Firestore)
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// AuthConfig selects the identity provider
type AuthConfig struct {
	Provider   string      `yaml:"provider"` // "firebase" or "local"
	JWTSecret  string      `yaml:"jwt_secret"`
	TokenTTL   int         `yaml:"token_ttl_minutes"`
	LocalUsers []LocalUser `yaml:"local_users"`
}

// LocalUser seeds the local provider for development deployments
type LocalUser struct {
	UID          string `yaml:"uid"`
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

// GoogleConfig contains Google public API settings
type GoogleConfig struct {
	APIKey             string `yaml:"api_key"`
	CalendarID         string `yaml:"calendar_id"`
	CalendarName       string `yaml:"calendar_name"` // ICS export title
	FallbackCalendarID string `yaml:"fallback_calendar_id"`
	SheetID            string `yaml:"sheet_id"`
	EmailQueueRange    string `yaml:"email_queue_range"`
	ContactsRange      string `yaml:"contacts_range"`
}

// WebhookConfig contains the Apps Script webhook endpoint
type WebhookConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmailConfig selects how queued emails leave the service
type EmailConfig struct {
	Delivery       string `yaml:"delivery"` // "webhook", "sheets", "sendgrid" or "noop"
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

// RateLimitConfig throttles the public registration endpoint per client
type RateLimitConfig struct {
	RegistrationsPerMinute int `yaml:"registrations_per_minute"`
	Burst                  int `yaml:"burst"`

	// TrustProxy keys clients by X-Forwarded-For. Enable only behind a load
	// balancer that overwrites the header.
	TrustProxy bool `yaml:"trust_proxy"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SendPendingDigest         string `yaml:"send_pending_digest"`
	ReconcileApprovedRequests string `yaml:"reconcile_approved_requests"`
	PurgeRejectedRequests     string `yaml:"purge_rejected_requests"`
	RejectedRetentionDays     int    `yaml:"rejected_retention_days"`
}

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"

	AuthFirebase = "firebase"
	AuthLocal    = "local"

	DeliveryWebhook  = "webhook"
	DeliverySheets   = "sheets"
	DeliverySendGrid = "sendgrid"
	DeliveryNoop     = "noop"
)

// Load reads configuration from a YAML file, then .env, then the environment
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a validated Config from YAML bytes plus environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// firstEnv returns the first non-empty value among the given variable names.
// Legacy REACT_APP_* names are accepted so an existing SPA .env can be reused.
func firstEnv(names ...string) string {
	for _, n := range names {
		if val := os.Getenv(n); val != "" {
			return val
		}
	}
	return ""
}

func overrideString(dst *string, names ...string) {
	if val := firstEnv(names...); val != "" {
		*dst = val
	}
}

func overrideInt(dst *int, names ...string) {
	if val := firstEnv(names...); val != "" {
		fmt.Sscanf(val, "%d", dst)
	}
}

func overrideBool(dst *bool, names ...string) {
	if val := firstEnv(names...); val != "" {
		fmt.Sscanf(val, "%t", dst)
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	overrideString(&c.Server.Host, "SERVER_HOST")
	overrideInt(&c.Server.Port, "SERVER_PORT", "PORT")
	overrideInt(&c.Server.HealthPort, "HEALTH_PORT")
	overrideBool(&c.RateLimit.TrustProxy, "TRUST_PROXY")

	// Store
	overrideString(&c.Store.Type, "STORE_TYPE")

	// Firebase
	overrideString(&c.Firebase.ProjectID, "FIREBASE_PROJECT_ID", "REACT_APP_FIREBASE_PROJECT_ID")
	overrideString(&c.Firebase.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	// Database
	overrideString(&c.Database.Host, "DB_HOST")
	overrideInt(&c.Database.Port, "DB_PORT")
	overrideString(&c.Database.User, "DB_USER")
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.Database.Database, "DB_NAME")
	overrideString(&c.Database.SSLMode, "DB_SSL_MODE")

	// Auth
	overrideString(&c.Auth.Provider, "AUTH_PROVIDER")
	overrideString(&c.Auth.JWTSecret, "JWT_SECRET")

	// Google
	overrideString(&c.Google.APIKey, "GOOGLE_API_KEY", "REACT_APP_GOOGLE_API_KEY")
	overrideString(&c.Google.CalendarID, "GOOGLE_CALENDAR_ID", "REACT_APP_GOOGLE_CALENDAR_ID")
	overrideString(&c.Google.FallbackCalendarID, "GOOGLE_FALLBACK_CALENDAR_ID")
	overrideString(&c.Google.SheetID, "GOOGLE_SHEETS_SHEET_ID", "REACT_APP_GOOGLE_SHEETS_SHEET_ID")

	// Webhook
	overrideString(&c.Webhook.URL, "EMAIL_WEBHOOK_URL", "REACT_APP_EMAIL_WEBHOOK_URL")
	overrideString(&c.Webhook.Token, "WEBHOOK_TOKEN", "REACT_APP_WEBHOOK_TOKEN")

	// Email
	overrideString(&c.Email.Delivery, "EMAIL_DELIVERY")
	overrideString(&c.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	overrideString(&c.Email.From, "EMAIL_FROM")

	// Log
	overrideString(&c.Log.Level, "LOG_LEVEL")
	overrideString(&c.Log.Format, "LOG_FORMAT")

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
	if c.Server.HealthPort < 0 || c.Server.HealthPort > 65535 || (c.Server.HealthPort != 0 && c.Server.HealthPort == c.Server.Port) {
		return fmt.Errorf("invalid health port: %d", c.Server.HealthPort)
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 10
	}

	// Store validation
	if c.Store.Type == "" {
		c.Store.Type = StoreFirestore
	}
	switch c.Store.Type {
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for the firestore store")
		}
	case StorePostgres:
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
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	// Auth validation
	if c.Auth.Provider == "" {
		c.Auth.Provider = AuthFirebase
	}
	switch c.Auth.Provider {
	case AuthFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for firebase auth")
		}
	case AuthLocal:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT secret must be at least 32 characters")
		}
	default:
		return fmt.Errorf("unsupported auth provider: %s", c.Auth.Provider)
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 60
	}

	// Google defaults
	if c.Google.CalendarName == "" {
		c.Google.CalendarName = "Troop Calendar"
	}
	if c.Google.EmailQueueRange == "" {
		c.Google.EmailQueueRange = "EmailQueue!A:I"
	}
	if c.Google.ContactsRange == "" {
		c.Google.ContactsRange = "Contacts!A:E"
	}

	// Webhook defaults
	if c.Webhook.TimeoutSeconds == 0 {
		c.Webhook.TimeoutSeconds = 30
	}

	// Email delivery: webhook when configured, else the sheet append path
	c.Email.Delivery = strings.ToLower(c.Email.Delivery)
	if c.Email.Delivery == "" {
		if c.Webhook.URL != "" {
			c.Email.Delivery = DeliveryWebhook
		} else {
			c.Email.Delivery = DeliverySheets
		}
	}
	switch c.Email.Delivery {
	case DeliveryWebhook:
		if c.Webhook.URL == "" {
			return fmt.Errorf("webhook url is required for webhook email delivery")
		}
	case DeliverySheets:
		if c.Google.SheetID == "" || c.Google.APIKey == "" {
			return fmt.Errorf("google sheet id and api key are required for sheets email delivery")
		}
	case DeliverySendGrid:
		if c.Email.SendGridAPIKey == "" || c.Email.From == "" {
			return fmt.Errorf("sendgrid api key and from address are required for sendgrid delivery")
		}
	case DeliveryNoop:
	default:
		return fmt.Errorf("unsupported email delivery: %s", c.Email.Delivery)
	}

	// Rate limit defaults
	if c.RateLimit.RegistrationsPerMinute == 0 {
		c.RateLimit.RegistrationsPerMinute = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 3
	}

	// Scheduler defaults
	if c.Scheduler.SendPendingDigest == "" {
		c.Scheduler.SendPendingDigest = "0 0 14 * * *" // daily 2 PM UTC
	}
	if c.Scheduler.ReconcileApprovedRequests == "" {
		c.Scheduler.ReconcileApprovedRequests = "0 */30 * * * *"
	}
	if c.Scheduler.PurgeRejectedRequests == "" {
		c.Scheduler.PurgeRejectedRequests = "0 0 3 * * 0" // Sundays 3 AM UTC
	}
	if c.Scheduler.RejectedRetentionDays == 0 {
		c.Scheduler.RejectedRetentionDays = 90
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

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHealthAddress returns the gRPC health listen address
func (c *Config) GetHealthAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HealthPort)
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Minute
}
