package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// ConfigStore reads provider configs from the database tiers. Implemented
// by repository/postgres. A store returns ErrConfigNotFound when a tier has
// no active config of the requested type.
type ConfigStore interface {
	TenantConfig(ctx context.Context, tenantID string, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error)
	GlobalConfig(ctx context.Context, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error)
}

// Resolver resolves a provider config through three tiers, in order:
// tenant-specific, global, static defaults. A store error at a tier is
// logged and treated as not-found at that tier, so transient read failures
// degrade to the next tier instead of aborting the send path.
type Resolver struct {
	store  ConfigStore
	static map[domain.Channel]map[domain.ProviderType]domain.ProviderConfig
}

// NewResolver builds a resolver over the given store and static defaults.
// A nil store skips the tenant and global tiers.
func NewResolver(store ConfigStore, staticDefaults []domain.ProviderConfig) *Resolver {
	static := make(map[domain.Channel]map[domain.ProviderType]domain.ProviderConfig)
	for _, cfg := range staticDefaults {
		if static[cfg.Channel] == nil {
			static[cfg.Channel] = make(map[domain.ProviderType]domain.ProviderConfig)
		}
		cfg.Source = domain.SourceStatic
		static[cfg.Channel][cfg.Type] = cfg
	}
	return &Resolver{store: store, static: static}
}

// Resolve returns the first config found walking tenant → global → static.
// Exhaustion of all tiers returns ErrConfigNotFound.
func (r *Resolver) Resolve(ctx context.Context, ch domain.Channel, pt domain.ProviderType, tenantID string) (domain.ProviderConfig, error) {
	if r.store != nil && tenantID != "" {
		cfg, err := r.store.TenantConfig(ctx, tenantID, ch, pt)
		if err == nil && cfg != nil {
			cfg.Source = domain.SourceTenant
			return *cfg, nil
		}
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			logger.Warn("config resolver: tenant tier read failed, falling through",
				"tenant_id", tenantID, "provider", string(pt), "error", err.Error())
		}
	}

	if r.store != nil {
		cfg, err := r.store.GlobalConfig(ctx, ch, pt)
		if err == nil && cfg != nil {
			cfg.Source = domain.SourceGlobal
			return *cfg, nil
		}
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			logger.Warn("config resolver: global tier read failed, falling through",
				"provider", string(pt), "error", err.Error())
		}
	}

	if byType, ok := r.static[ch]; ok {
		if cfg, ok := byType[pt]; ok {
			return cfg, nil
		}
	}

	return domain.ProviderConfig{}, fmt.Errorf("%w: %s/%s", ErrConfigNotFound, ch, pt)
}
