package domain

import "time"

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ProviderType identifies the vendor behind a provider config.
type ProviderType string

const (
	// Email vendors
	ProviderSendGrid ProviderType = "sendgrid"
	ProviderMailgun  ProviderType = "mailgun"
	ProviderSES      ProviderType = "aws_ses"
	ProviderSMTP     ProviderType = "smtp"
	ProviderResend   ProviderType = "resend"

	// SMS vendors
	ProviderTwilio    ProviderType = "twilio"
	ProviderVonage    ProviderType = "vonage"
	ProviderSNS       ProviderType = "aws_sns"
	ProviderCustomAPI ProviderType = "custom_api"
)

// AvailabilityStatus tracks whether a provider is currently usable.
// Transitions are explicit only: a failed auth or failed connection test
// flips a provider to unavailable; a later successful test (or a registry
// reload) flips it back. There is no automatic recovery probe.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusUnavailable AvailabilityStatus = "unavailable"
)

// ConfigSource records which resolution tier produced a provider config.
type ConfigSource string

const (
	SourceTenant ConfigSource = "tenant"
	SourceGlobal ConfigSource = "global"
	SourceStatic ConfigSource = "static"
)

// RateLimit is the optional per-provider send gate. Zero means unlimited.
type RateLimit struct {
	MaxPerMinute int `json:"max_per_minute" yaml:"max_per_minute"`
}

// ProviderConfig is the stored configuration for one vendor provider.
// It is immutable once loaded into a provider instance; changing it in the
// backing store has no effect until the registry entry is reloaded.
type ProviderConfig struct {
	ID       string       `json:"id" db:"id"`
	Type     ProviderType `json:"type" db:"type"`
	Channel  Channel      `json:"channel" db:"channel"`
	Name     string       `json:"name" db:"name"`
	Priority int          `json:"priority" db:"priority"` // lower = tried first
	IsActive bool         `json:"is_active" db:"is_active"`
	TenantID string       `json:"tenant_id,omitempty" db:"tenant_id"`
	Source   ConfigSource `json:"source,omitempty"`

	// Vendor credentials and settings. Keys are vendor-specific
	// (api_key, from_email, region, account_sid, ...).
	Settings map[string]string `json:"settings" db:"settings"`

	RateLimit RateLimit `json:"rate_limit" yaml:"rate_limit"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Setting returns a vendor setting or the given fallback.
func (c *ProviderConfig) Setting(key, fallback string) string {
	if v, ok := c.Settings[key]; ok && v != "" {
		return v
	}
	return fallback
}

// ProviderStats are best-effort in-memory counters per provider instance.
// They are not persisted and reset on reload.
type ProviderStats struct {
	Sent      int64     `json:"sent"`
	Failed    int64     `json:"failed"`
	TotalCost float64   `json:"total_cost"`
	LastSend  time.Time `json:"last_send,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}
