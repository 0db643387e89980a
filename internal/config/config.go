package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds the application configuration
type Config struct {
	Port     int
	LogLevel string

	Database            DatabaseConfig
	NotificationService NotificationConfig
	Security            SecurityConfig
	Server              ServerConfig
	Auth                AuthConfig
	Audit               AuditConfig
	Telemetry           TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        Secret
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// NotificationConfig holds mail relay configuration. An empty URL disables
// outgoing notifications.
type NotificationConfig struct {
	URL                  string
	Timeout              time.Duration
	RetryAttempts        int
	RetryDelay           time.Duration
	MaxPayloadSize       int64
	FromAddress          string
	DefaultReminderDays  int
	AssignmentNotifyWait time.Duration
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRPS    int
	RateLimitBurst  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	EnableCORS      bool
	AllowedOrigins  []string
	TrustedProxies  []string
}

// ServerConfig holds server performance configuration
type ServerConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	EnableMetrics  bool
	MetricsPort    int
}

// AuthConfig configures bearer token identity. With no secret every request
// is anonymous.
type AuthConfig struct {
	JWTSecret Secret
}

// AuditConfig selects how history entries are written.
type AuditConfig struct {
	Async     bool
	QueueSize int
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool
}

// LoadConfig loads and validates the configuration from environment variables.
// A .env file in the working directory is read first when present; variables
// already set in the environment win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", ""),
			Password:        Secret(getEnv("DB_PASSWORD", "")),
			Name:            getEnv("DB_NAME", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},

		NotificationService: NotificationConfig{
			URL:                  getEnv("NOTIFIER_URL", ""),
			Timeout:              getEnvAsDuration("NOTIFIER_TIMEOUT", 10*time.Second),
			RetryAttempts:        getEnvAsInt("NOTIFIER_RETRY_ATTEMPTS", 3),
			RetryDelay:           getEnvAsDuration("NOTIFIER_RETRY_DELAY", time.Second),
			MaxPayloadSize:       getEnvAsInt64("NOTIFIER_MAX_PAYLOAD_SIZE", 1024*1024),
			FromAddress:          getEnv("NOTIFIER_FROM_ADDRESS", "inventory@localhost"),
			DefaultReminderDays:  getEnvAsInt("WARRANTY_REMINDER_DAYS", 30),
			AssignmentNotifyWait: getEnvAsDuration("ASSIGNMENT_NOTIFY_TIMEOUT", 15*time.Second),
		},

		Security: SecurityConfig{
			RateLimitRPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 200),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			EnableCORS:      getEnvAsBool("ENABLE_CORS", true),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},

		Server: ServerConfig{
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1MB
			EnableMetrics:  getEnvAsBool("ENABLE_METRICS", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},

		Auth: AuthConfig{
			JWTSecret: Secret(getEnv("JWT_SECRET", "")),
		},

		Audit: AuditConfig{
			Async:     getEnvAsBool("AUDIT_ASYNC", false),
			QueueSize: getEnvAsInt("AUDIT_QUEUE_SIZE", 1000),
		},

		Telemetry: TelemetryConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "asset-inventory-api"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// validateConfig performs basic validation on the configuration
func validateConfig(config *Config) error {
	var errors []string

	if config.Database.User == "" {
		errors = append(errors, "database user is required")
	}
	if config.Database.Password == "" {
		errors = append(errors, "database password is required")
	}
	if config.Database.Name == "" {
		errors = append(errors, "database name is required")
	}

	if config.NotificationService.URL != "" {
		if u, err := url.Parse(config.NotificationService.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, "notification service URL must be an absolute URL")
		}
	}
	if config.NotificationService.DefaultReminderDays < 1 {
		errors = append(errors, "warranty reminder days must be positive")
	}

	if config.Port < 1 || config.Port > 65535 {
		errors = append(errors, "port must be between 1 and 65535")
	}
	if config.Database.Port < 1 || config.Database.Port > 65535 {
		errors = append(errors, "database port must be between 1 and 65535")
	}
	if config.Server.EnableMetrics && (config.Server.MetricsPort < 1 || config.Server.MetricsPort > 65535) {
		errors = append(errors, "metrics port must be between 1 and 65535")
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, "log level must be one of debug, info, warn, error")
	}

	if config.Audit.Async && config.Audit.QueueSize < 1 {
		errors = append(errors, "audit queue size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password.Value(), c.Database.Name, c.Database.SSLMode)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
