// Package email implements the email vendor providers: SendGrid, Mailgun,
// AWS SES, direct SMTP, and Resend. Each vendor is a thin client over its
// API, sharing the gate/normalize/stats behavior of provider.Base.
package email

import (
	"time"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// Constructors returns the email channel's provider constructor table,
// keyed by provider type.
func Constructors() map[domain.ProviderType]provider.Constructor {
	return map[domain.ProviderType]provider.Constructor{
		domain.ProviderSendGrid: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewSendGrid(cfg, l), nil
		},
		domain.ProviderMailgun: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewMailgun(cfg, l), nil
		},
		domain.ProviderSES: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewSES(cfg, l)
		},
		domain.ProviderSMTP: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewSMTP(cfg, l), nil
		},
		domain.ProviderResend: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewResend(cfg, l), nil
		},
	}
}

// settingTimeout reads a "timeout" setting in seconds, defaulting to 30s.
func settingTimeout(cfg domain.ProviderConfig) time.Duration {
	if v := cfg.Setting("timeout", ""); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}
