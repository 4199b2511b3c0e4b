package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Contact  ContactConfig  `mapstructure:"contact"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// RedisConfig holds the rate limiter counter store configuration. An empty
// Addr selects the in-process counter store instead.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ContactConfig holds the contact form pipeline configuration
type ContactConfig struct {
	Storage           string                  `mapstructure:"storage"`
	PublicBaseURL     string                  `mapstructure:"public_base_url"`
	Fields            []FieldConfig           `mapstructure:"fields"`
	Spam              SpamConfig              `mapstructure:"spam"`
	EmailVerification EmailVerificationConfig `mapstructure:"email_verification"`
	Retention         RetentionConfig         `mapstructure:"retention"`
}

// FieldConfig declares a single form field of the contact schema
type FieldConfig struct {
	Name      string `mapstructure:"name"`
	Type      string `mapstructure:"type"`
	Required  bool   `mapstructure:"required"`
	MaxLength int    `mapstructure:"max_length"`
}

// SpamConfig holds spam protection configuration. A MinSubmitTime of zero
// seconds disables the timing check.
type SpamConfig struct {
	HoneypotField string          `mapstructure:"honeypot_field"`
	TimingField   string          `mapstructure:"timing_field"`
	MinSubmitTime int             `mapstructure:"min_submit_time"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds the submission quota per client identity
type RateLimitConfig struct {
	Limit    int    `mapstructure:"limit"`
	Interval string `mapstructure:"interval"`
}

// EmailVerificationConfig holds the verification gate configuration
type EmailVerificationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TokenTTL string `mapstructure:"token_ttl"`
}

// RetentionConfig holds the expired pending message purge configuration
type RetentionConfig struct {
	PurgeIntervalMinutes int `mapstructure:"purge_interval_minutes"`
}

// MailerConfig holds outgoing email configuration
type MailerConfig struct {
	Transport        string      `mapstructure:"transport"`
	Recipients       []string    `mapstructure:"recipients"`
	FromEmail        string      `mapstructure:"from_email"`
	FromName         string      `mapstructure:"from_name"`
	SubjectPrefix    string      `mapstructure:"subject_prefix"`
	SendCopyToSender bool        `mapstructure:"send_copy_to_sender"`
	EnableAutoReply  bool        `mapstructure:"enable_auto_reply"`
	SMTP             SMTPConfig  `mapstructure:"smtp"`
	Gmail            GmailConfig `mapstructure:"gmail"`
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSL      bool   `mapstructure:"ssl"`
}

// GmailConfig holds Gmail API transport configuration
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("contact.storage", "email")
	viper.SetDefault("contact.public_base_url", "http://localhost:8080")
	viper.SetDefault("contact.spam.honeypot_field", "email_confirm")
	viper.SetDefault("contact.spam.timing_field", "_form_token_time")
	viper.SetDefault("contact.spam.min_submit_time", 3)
	viper.SetDefault("contact.spam.rate_limit.limit", 3)
	viper.SetDefault("contact.spam.rate_limit.interval", "15 minutes")
	viper.SetDefault("contact.email_verification.enabled", false)
	viper.SetDefault("contact.email_verification.token_ttl", "24 hours")
	viper.SetDefault("contact.retention.purge_interval_minutes", 60)

	viper.SetDefault("mailer.transport", "smtp")
	viper.SetDefault("mailer.from_name", "Contact Form")
	viper.SetDefault("mailer.subject_prefix", "[Contact Form]")
	viper.SetDefault("mailer.send_copy_to_sender", false)
	viper.SetDefault("mailer.enable_auto_reply", false)
	viper.SetDefault("mailer.smtp.port", 587)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("contact.storage", "CONTACT_STORAGE")
	viper.BindEnv("contact.public_base_url", "CONTACT_PUBLIC_BASE_URL")
	viper.BindEnv("contact.spam.min_submit_time", "CONTACT_MIN_SUBMIT_TIME")
	viper.BindEnv("contact.spam.rate_limit.limit", "CONTACT_RATE_LIMIT")
	viper.BindEnv("contact.spam.rate_limit.interval", "CONTACT_RATE_INTERVAL")
	viper.BindEnv("contact.email_verification.enabled", "CONTACT_VERIFICATION_ENABLED")
	viper.BindEnv("contact.email_verification.token_ttl", "CONTACT_VERIFICATION_TTL")

	viper.BindEnv("mailer.transport", "MAILER_TRANSPORT")
	viper.BindEnv("mailer.recipients", "MAILER_RECIPIENTS")
	viper.BindEnv("mailer.from_email", "MAILER_FROM_EMAIL")
	viper.BindEnv("mailer.from_name", "MAILER_FROM_NAME")
	viper.BindEnv("mailer.subject_prefix", "MAILER_SUBJECT_PREFIX")
	viper.BindEnv("mailer.smtp.host", "SMTP_HOST")
	viper.BindEnv("mailer.smtp.port", "SMTP_PORT")
	viper.BindEnv("mailer.smtp.user", "SMTP_USER")
	viper.BindEnv("mailer.smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("mailer.smtp.ssl", "SMTP_SSL")
	viper.BindEnv("mailer.gmail.client_id", "GMAIL_CLIENT_ID")
	viper.BindEnv("mailer.gmail.client_secret", "GMAIL_CLIENT_SECRET")
	viper.BindEnv("mailer.gmail.refresh_token", "GMAIL_REFRESH_TOKEN")
	viper.BindEnv("mailer.gmail.user_email", "GMAIL_USER_EMAIL")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Contact.Storage {
	case "email", "database", "both":
	default:
		return fmt.Errorf("contact storage must be one of email, database, both; got %q", c.Contact.Storage)
	}

	if c.Contact.Storage != "email" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required for storage mode %q", c.Contact.Storage)
		}
	}

	if c.Contact.Storage != "database" && len(c.Mailer.Recipients) == 0 {
		return fmt.Errorf("at least one mailer recipient is required for storage mode %q", c.Contact.Storage)
	}

	if c.Contact.EmailVerification.Enabled && c.Contact.Storage != "both" {
		return fmt.Errorf("email verification requires storage mode \"both\"")
	}

	switch c.Mailer.Transport {
	case "smtp":
		if c.Mailer.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required for the smtp transport")
		}
	case "gmail":
		g := c.Mailer.Gmail
		if g.ClientID == "" || g.ClientSecret == "" || g.RefreshToken == "" || g.UserEmail == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required for the gmail transport")
		}
	default:
		return fmt.Errorf("mailer transport must be smtp or gmail; got %q", c.Mailer.Transport)
	}

	if c.Contact.Spam.MinSubmitTime < 0 {
		return fmt.Errorf("min submit time must not be negative")
	}
	if c.Contact.Spam.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be greater than 0")
	}

	return nil
}

var intervalRe = regexp.MustCompile(`^(\d+)\s*(minute|minutes|hour|hours|day|days)$`)

// ParseInterval parses interval strings like "15 minutes", "24 hours" or
// "7 days" into a duration. Unparseable strings fall back to the given
// default.
func ParseInterval(s string, fallback time.Duration) time.Duration {
	m := intervalRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return fallback
	}

	value, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}

	switch m[2] {
	case "minute", "minutes":
		return time.Duration(value) * time.Minute
	case "hour", "hours":
		return time.Duration(value) * time.Hour
	case "day", "days":
		return time.Duration(value) * 24 * time.Hour
	}
	return fallback
}
