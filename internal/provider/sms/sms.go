// Package sms implements the SMS vendor providers: Twilio, Vonage, AWS
// SNS, and a configurable custom HTTP API. Vendors share the gate,
// phone normalization, and stats behavior of provider.Base.
package sms

import (
	"time"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// Constructors returns the SMS channel's provider constructor table, keyed
// by provider type.
func Constructors() map[domain.ProviderType]provider.Constructor {
	return map[domain.ProviderType]provider.Constructor{
		domain.ProviderTwilio: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewTwilio(cfg, l), nil
		},
		domain.ProviderVonage: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewVonage(cfg, l), nil
		},
		domain.ProviderSNS: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewSNS(cfg, l)
		},
		domain.ProviderCustomAPI: func(cfg domain.ProviderConfig, l provider.RateLimiter) (provider.Provider, error) {
			return NewCustomAPI(cfg, l)
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
