package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// Registry constructs and caches provider instances. It is an explicit
// object owned by the application context rather than package-level state.
//
// Two cache tiers: a flat map for global (non-tenant) providers, and a
// map-of-maps for tenant-scoped ones. Entries are instances, not configs;
// a config change in the backing store is invisible until a reload evicts
// the entry.
type Registry struct {
	resolver     *Resolver
	limiter      RateLimiter
	constructors map[domain.Channel]map[domain.ProviderType]Constructor

	mu      sync.RWMutex
	global  map[string]Provider            // key: channel "/" type
	tenants map[string]map[string]Provider // tenantID -> key -> instance
}

// NewRegistry creates a registry over the given resolver, rate limiter, and
// per-channel constructor tables.
func NewRegistry(resolver *Resolver, limiter RateLimiter, constructors map[domain.Channel]map[domain.ProviderType]Constructor) *Registry {
	if limiter == nil {
		limiter = NoopRateLimiter{}
	}
	return &Registry{
		resolver:     resolver,
		limiter:      limiter,
		constructors: constructors,
		global:       make(map[string]Provider),
		tenants:      make(map[string]map[string]Provider),
	}
}

func cacheKey(ch domain.Channel, pt domain.ProviderType) string {
	return string(ch) + "/" + string(pt)
}

// Provider returns the cached global instance for the type, constructing it
// on first access. Returns ErrUnsupportedType for unknown types and
// ErrConfigNotFound when no tier yields a config.
func (r *Registry) Provider(ctx context.Context, ch domain.Channel, pt domain.ProviderType) (Provider, error) {
	return r.ProviderForTenant(ctx, ch, pt, "")
}

// ProviderForTenant is Provider with tenant-scoped config resolution and
// caching. An empty tenantID falls back to the global cache.
func (r *Registry) ProviderForTenant(ctx context.Context, ch domain.Channel, pt domain.ProviderType, tenantID string) (Provider, error) {
	key := cacheKey(ch, pt)

	r.mu.RLock()
	if p, ok := r.lookup(key, tenantID); ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	ctor, err := r.constructor(ch, pt)
	if err != nil {
		return nil, err
	}

	cfg, err := r.resolver.Resolve(ctx, ch, pt, tenantID)
	if err != nil {
		return nil, err
	}

	p, err := ctor(cfg, r.limiter)
	if err != nil {
		return nil, fmt.Errorf("constructing %s provider: %w", pt, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have raced us here; keep the first instance so
	// consecutive gets stay identity-equal.
	if cached, ok := r.lookup(key, tenantID); ok {
		return cached, nil
	}
	if tenantID == "" {
		r.global[key] = p
	} else {
		if r.tenants[tenantID] == nil {
			r.tenants[tenantID] = make(map[string]Provider)
		}
		r.tenants[tenantID][key] = p
	}
	return p, nil
}

// lookup must be called with at least a read lock held.
func (r *Registry) lookup(key, tenantID string) (Provider, bool) {
	if tenantID == "" {
		p, ok := r.global[key]
		return p, ok
	}
	if m, ok := r.tenants[tenantID]; ok {
		p, ok := m[key]
		return p, ok
	}
	return nil, false
}

func (r *Registry) constructor(ch domain.Channel, pt domain.ProviderType) (Constructor, error) {
	if byType, ok := r.constructors[ch]; ok {
		if ctor, ok := byType[pt]; ok {
			return ctor, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedType, ch, pt)
}

// KnownTypes returns the provider types registered for a channel, sorted by
// name for deterministic iteration.
func (r *Registry) KnownTypes(ch domain.Channel) []domain.ProviderType {
	byType := r.constructors[ch]
	types := make([]domain.ProviderType, 0, len(byType))
	for pt := range byType {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// AllProviders attempts construction for every known type on the channel,
// skipping types whose resolution or construction fails, and returns the
// active instances sorted ascending by priority. Priority ties break by
// type name so the failover order is deterministic.
func (r *Registry) AllProviders(ctx context.Context, ch domain.Channel, tenantID string) []Provider {
	var out []Provider
	for _, pt := range r.KnownTypes(ch) {
		p, err := r.ProviderForTenant(ctx, ch, pt, tenantID)
		if err != nil {
			logger.Debug("registry: skipping provider",
				"channel", string(ch), "provider", string(pt), "error", err.Error())
			continue
		}
		if !p.IsActive() {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].Type() < out[j].Type()
	})
	return out
}

// TestAll runs TestConnection on every provider for the channel and returns
// a map of type to result. It does not stop on the first failure.
func (r *Registry) TestAll(ctx context.Context, ch domain.Channel, tenantID string) map[domain.ProviderType]bool {
	results := make(map[domain.ProviderType]bool)
	for _, p := range r.AllProviders(ctx, ch, tenantID) {
		results[p.Type()] = p.TestConnection(ctx)
	}
	return results
}

// Reload evicts the global cache entry for a type so the next access
// re-resolves config and reconstructs the instance.
func (r *Registry) Reload(ch domain.Channel, pt domain.ProviderType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.global, cacheKey(ch, pt))
}

// ReloadTenant drops every cached instance for one tenant.
func (r *Registry) ReloadTenant(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, tenantID)
}

// ReloadAll clears both cache tiers.
func (r *Registry) ReloadAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = make(map[string]Provider)
	r.tenants = make(map[string]map[string]Provider)
}
