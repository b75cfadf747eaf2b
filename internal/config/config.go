package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"payhub-backend/internal/utils"
)

// Config represents the application configuration
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Payment     PaymentConfig     `yaml:"payment"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Redis       RedisConfig       `yaml:"redis"`
	Events      EventsConfig      `yaml:"events"`
	Accounts    AccountsConfig    `yaml:"accounts"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
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

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PaymentConfig contains ledger status and payment settings
type PaymentConfig struct {
	StatusRule          string         `yaml:"status_rule"` // "literal" or "settled"
	Currency            string         `yaml:"currency"`
	ApportionEnabled    bool           `yaml:"apportion_enabled"`
	ApportionGoLiveDate string         `yaml:"apportion_go_live_date"` // yyyy-mm-dd
	Services            []ServiceEntry `yaml:"services"`
}

// IdempotencyConfig contains duplicate request protection settings
type IdempotencyConfig struct {
	ConflictPolicy string `yaml:"conflict_policy"` // "allow" or "reject"
	Lock           string `yaml:"lock"`            // "none", "memory" or "redis"
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
	LockWaitMillis int    `yaml:"lock_wait_ms"`
	RetentionHours int    `yaml:"retention_hours"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EventsConfig contains payment status callback settings
type EventsConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Broker       string   `yaml:"broker"` // "rabbitmq", "kafka" or "log"
	RabbitMQURL  string   `yaml:"rabbitmq_url"`
	Exchange     string   `yaml:"exchange"`
	RoutingKey   string   `yaml:"routing_key"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

// AccountsConfig contains credit account provider settings
type AccountsConfig struct {
	Type     string           `yaml:"type"` // "mock"
	Accounts []AccountFixture `yaml:"accounts"`
}

// AccountFixture is one account served by the mock provider
type AccountFixture struct {
	Number           string `yaml:"number"`
	Name             string `yaml:"name"`
	Status           string `yaml:"status"`
	AvailableBalance string `yaml:"available_balance"`
	CreditLimit      string `yaml:"credit_limit"`
	Unavailable      bool   `yaml:"unavailable"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PurgeIdempotencyRecords string `yaml:"purge_idempotency_records"`
	AuditLedgerStatuses     string `yaml:"audit_ledger_statuses"`
	AuditLookbackHours      int    `yaml:"audit_lookback_hours"`
	AuditBatchSize          int    `yaml:"audit_batch_size"`
	AuditConcurrency        int    `yaml:"audit_concurrency"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
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

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Payment
	if val := os.Getenv("PAYMENT_STATUS_RULE"); val != "" {
		c.Payment.StatusRule = val
	}
	if val := os.Getenv("PAYMENT_APPORTION_ENABLED"); val != "" {
		c.Payment.ApportionEnabled, _ = strconv.ParseBool(val)
	}

	// Idempotency
	if val := os.Getenv("IDEMPOTENCY_CONFLICT_POLICY"); val != "" {
		c.Idempotency.ConflictPolicy = val
	}
	if val := os.Getenv("IDEMPOTENCY_LOCK"); val != "" {
		c.Idempotency.Lock = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Events
	if val := os.Getenv("EVENTS_ENABLED"); val != "" {
		c.Events.Enabled, _ = strconv.ParseBool(val)
	}
	if val := os.Getenv("EVENTS_BROKER"); val != "" {
		c.Events.Broker = val
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.Events.RabbitMQURL = val
	}
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Events.KafkaBrokers = strings.Split(val, ",")
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
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Payment validation
	switch c.Payment.StatusRule {
	case "":
		c.Payment.StatusRule = "literal"
	case "literal", "settled":
	default:
		return fmt.Errorf("invalid payment status rule: %s", c.Payment.StatusRule)
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "GBP"
	}
	if c.Payment.ApportionGoLiveDate == "" {
		c.Payment.ApportionGoLiveDate = "2020-06-01"
	}
	if _, err := utils.ParseDate(c.Payment.ApportionGoLiveDate); err != nil {
		return fmt.Errorf("invalid apportion go-live date %q: %w", c.Payment.ApportionGoLiveDate, err)
	}
	if _, err := NewServiceCatalog(c.Payment.Services); err != nil {
		return err
	}

	// Idempotency validation
	switch c.Idempotency.ConflictPolicy {
	case "":
		c.Idempotency.ConflictPolicy = "allow"
	case "allow", "reject":
	default:
		return fmt.Errorf("invalid idempotency conflict policy: %s", c.Idempotency.ConflictPolicy)
	}
	switch c.Idempotency.Lock {
	case "":
		c.Idempotency.Lock = "none"
	case "none", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis idempotency lock")
		}
	default:
		return fmt.Errorf("invalid idempotency lock: %s", c.Idempotency.Lock)
	}
	if c.Idempotency.LockTTLSeconds <= 0 {
		c.Idempotency.LockTTLSeconds = 30
	}
	if c.Idempotency.LockWaitMillis <= 0 {
		c.Idempotency.LockWaitMillis = 2000
	}
	if c.Idempotency.RetentionHours <= 0 {
		c.Idempotency.RetentionHours = 48
	}

	// Events validation
	if c.Events.Broker == "" {
		c.Events.Broker = "log"
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "payments"
	}
	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = "payment.status"
	}
	if c.Events.KafkaTopic == "" {
		c.Events.KafkaTopic = "payment-status"
	}
	if c.Events.Enabled {
		switch c.Events.Broker {
		case "log":
		case "rabbitmq":
			if c.Events.RabbitMQURL == "" {
				return fmt.Errorf("rabbitmq url is required when events broker is rabbitmq")
			}
		case "kafka":
			if len(c.Events.KafkaBrokers) == 0 {
				return fmt.Errorf("kafka brokers are required when events broker is kafka")
			}
		default:
			return fmt.Errorf("invalid events broker: %s", c.Events.Broker)
		}
	}

	// Accounts defaults
	if c.Accounts.Type == "" {
		c.Accounts.Type = "mock"
	}
	for _, a := range c.Accounts.Accounts {
		if a.Number == "" {
			return fmt.Errorf("account number is required for every configured account")
		}
	}

	// Scheduler defaults
	if c.Scheduler.PurgeIdempotencyRecords == "" {
		c.Scheduler.PurgeIdempotencyRecords = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.AuditLedgerStatuses == "" {
		c.Scheduler.AuditLedgerStatuses = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.AuditLookbackHours <= 0 {
		c.Scheduler.AuditLookbackHours = 24
	}
	if c.Scheduler.AuditBatchSize <= 0 {
		c.Scheduler.AuditBatchSize = 500
	}
	if c.Scheduler.AuditConcurrency <= 0 {
		c.Scheduler.AuditConcurrency = 4
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

// ApportionGoLive returns the date from which payments are apportioned to fees
func (c *Config) ApportionGoLive() time.Time {
	t, _ := utils.ParseDate(c.Payment.ApportionGoLiveDate)
	return t
}

// ServiceCatalog builds the read-only catalog of services that own ledgers
func (c *Config) ServiceCatalog() (*ServiceCatalog, error) {
	return NewServiceCatalog(c.Payment.Services)
}

func (i IdempotencyConfig) LockTTL() time.Duration {
	return time.Duration(i.LockTTLSeconds) * time.Second
}

func (i IdempotencyConfig) LockWait() time.Duration {
	return time.Duration(i.LockWaitMillis) * time.Millisecond
}

func (i IdempotencyConfig) Retention() time.Duration {
	return time.Duration(i.RetentionHours) * time.Hour
}
