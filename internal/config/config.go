// Package config loads application configuration from a YAML file with
// environment variable overrides. Vendor credentials supplied here form the
// static tier of provider config resolution; tenant and global overrides
// live in the database and take precedence.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	AccessCodes AccessCodesConfig `yaml:"access_codes"`

	SendGrid SendGridConfig `yaml:"sendgrid"`
	Mailgun  MailgunConfig  `yaml:"mailgun"`
	SES      SESConfig      `yaml:"ses"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Resend   ResendConfig   `yaml:"resend"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Vonage   VonageConfig   `yaml:"vonage"`
	SNS      SNSConfig      `yaml:"sns"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, listening on all interfaces in containers.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection used for rate-limit counters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// DispatchConfig tunes the failover dispatcher and campaign fan-out.
type DispatchConfig struct {
	AttemptTimeoutSeconds int `yaml:"attempt_timeout_seconds"`
	ChunkSize             int `yaml:"chunk_size"`
}

// AttemptTimeout is the per-provider send deadline inside a failover pass.
func (c DispatchConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

// AccessCodesConfig tunes PIN/QR issuance and the expiry sweep.
type AccessCodesConfig struct {
	PINLength            int `yaml:"pin_length"`
	TTLMinutes           int `yaml:"ttl_minutes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	SweepChunkSize       int `yaml:"sweep_chunk_size"`
}

// TTL is the lifetime of a newly issued access code.
func (c AccessCodesConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SweepInterval is how often expired codes are purged.
func (c AccessCodesConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// SendGridConfig holds SendGrid API configuration.
type SendGridConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Priority       int    `yaml:"priority"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Timeout returns the configured timeout as a duration.
func (c SendGridConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MailgunConfig holds Mailgun API configuration.
type MailgunConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Domain         string `yaml:"domain"`
	FromEmail      string `yaml:"from_email"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Priority       int    `yaml:"priority"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Timeout returns the configured timeout as a duration.
func (c MailgunConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	FromEmail    string `yaml:"from_email"`
	Priority     int    `yaml:"priority"`
	MaxPerMinute int    `yaml:"max_per_minute"`
}

// SMTPConfig holds direct SMTP relay configuration.
type SMTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	FromEmail    string `yaml:"from_email"`
	Priority     int    `yaml:"priority"`
	MaxPerMinute int    `yaml:"max_per_minute"`
}

// ResendConfig holds Resend API configuration.
type ResendConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	FromEmail      string `yaml:"from_email"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Priority       int    `yaml:"priority"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Timeout returns the configured timeout as a duration.
func (c ResendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TwilioConfig holds Twilio SMS configuration.
type TwilioConfig struct {
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	FromNumber     string `yaml:"from_number"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Priority       int    `yaml:"priority"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Timeout returns the configured timeout as a duration.
func (c TwilioConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// VonageConfig holds Vonage SMS configuration.
type VonageConfig struct {
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	FromNumber     string `yaml:"from_number"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Priority       int    `yaml:"priority"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Timeout returns the configured timeout as a duration.
func (c VonageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SNSConfig holds AWS SNS SMS configuration.
type SNSConfig struct {
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SenderID     string `yaml:"sender_id"`
	Priority     int    `yaml:"priority"`
	MaxPerMinute int    `yaml:"max_per_minute"`
}

// Load reads and parses the YAML config file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Dispatch.AttemptTimeoutSeconds == 0 {
		cfg.Dispatch.AttemptTimeoutSeconds = 30
	}
	if cfg.Dispatch.ChunkSize == 0 {
		cfg.Dispatch.ChunkSize = 100
	}
	if cfg.AccessCodes.PINLength == 0 {
		cfg.AccessCodes.PINLength = 6
	}
	if cfg.AccessCodes.TTLMinutes == 0 {
		cfg.AccessCodes.TTLMinutes = 60
	}
	if cfg.AccessCodes.SweepIntervalMinutes == 0 {
		cfg.AccessCodes.SweepIntervalMinutes = 15
	}
	if cfg.AccessCodes.SweepChunkSize == 0 {
		cfg.AccessCodes.SweepChunkSize = 100
	}

	if cfg.SendGrid.BaseURL == "" {
		cfg.SendGrid.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.SendGrid.TimeoutSeconds == 0 {
		cfg.SendGrid.TimeoutSeconds = 30
	}
	if cfg.SendGrid.Priority == 0 {
		cfg.SendGrid.Priority = 1
	}
	if cfg.Mailgun.BaseURL == "" {
		cfg.Mailgun.BaseURL = "https://api.mailgun.net"
	}
	if cfg.Mailgun.TimeoutSeconds == 0 {
		cfg.Mailgun.TimeoutSeconds = 30
	}
	if cfg.Mailgun.Priority == 0 {
		cfg.Mailgun.Priority = 2
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.Priority == 0 {
		cfg.SES.Priority = 3
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.Priority == 0 {
		cfg.SMTP.Priority = 4
	}
	if cfg.Resend.BaseURL == "" {
		cfg.Resend.BaseURL = "https://api.resend.com"
	}
	if cfg.Resend.TimeoutSeconds == 0 {
		cfg.Resend.TimeoutSeconds = 30
	}
	if cfg.Resend.Priority == 0 {
		cfg.Resend.Priority = 5
	}
	if cfg.Twilio.BaseURL == "" {
		cfg.Twilio.BaseURL = "https://api.twilio.com"
	}
	if cfg.Twilio.TimeoutSeconds == 0 {
		cfg.Twilio.TimeoutSeconds = 30
	}
	if cfg.Twilio.Priority == 0 {
		cfg.Twilio.Priority = 1
	}
	if cfg.Vonage.BaseURL == "" {
		cfg.Vonage.BaseURL = "https://rest.nexmo.com"
	}
	if cfg.Vonage.TimeoutSeconds == 0 {
		cfg.Vonage.TimeoutSeconds = 30
	}
	if cfg.Vonage.Priority == 0 {
		cfg.Vonage.Priority = 2
	}
	if cfg.SNS.Region == "" {
		cfg.SNS.Region = "us-east-1"
	}
	if cfg.SNS.Priority == 0 {
		cfg.SNS.Priority = 3
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file first (if present), so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		cfg.SendGrid.APIKey = v
	}
	if v := os.Getenv("MAILGUN_API_KEY"); v != "" {
		cfg.Mailgun.APIKey = v
	}
	if v := os.Getenv("MAILGUN_DOMAIN"); v != "" {
		cfg.Mailgun.Domain = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM_EMAIL"); v != "" {
		cfg.SMTP.FromEmail = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Resend.APIKey = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_FROM_NUMBER"); v != "" {
		cfg.Twilio.FromNumber = v
	}
	if v := os.Getenv("VONAGE_API_KEY"); v != "" {
		cfg.Vonage.APIKey = v
	}
	if v := os.Getenv("VONAGE_API_SECRET"); v != "" {
		cfg.Vonage.APISecret = v
	}
	if v := os.Getenv("AWS_SNS_ACCESS_KEY"); v != "" {
		cfg.SNS.AccessKey = v
	}
	if v := os.Getenv("AWS_SNS_SECRET_KEY"); v != "" {
		cfg.SNS.SecretKey = v
	}
	if v := os.Getenv("AWS_SNS_REGION"); v != "" {
		cfg.SNS.Region = v
	}

	return cfg, nil
}
