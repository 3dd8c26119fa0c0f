package provider

import (
	"context"
	"testing"

	"github.com/attendly/attendly/internal/domain"
)

func fakeConstructor(priority int, active bool) Constructor {
	return func(cfg domain.ProviderConfig, limiter RateLimiter) (Provider, error) {
		return &fakeProvider{
			id:       cfg.ID,
			typ:      cfg.Type,
			channel:  cfg.Channel,
			priority: cfg.Priority,
			active:   active,
			sendable: true,
			succeed:  true,
			source:   cfg.Source,
		}, nil
	}
}

func newTestRegistry(static []domain.ProviderConfig, ctors map[domain.ProviderType]Constructor) *Registry {
	return NewRegistry(
		NewResolver(&fakeStore{}, static),
		NoopRateLimiter{},
		map[domain.Channel]map[domain.ProviderType]Constructor{domain.ChannelEmail: ctors},
	)
}

func TestRegistryCachesInstances(t *testing.T) {
	static := []domain.ProviderConfig{testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1)}
	reg := newTestRegistry(static, map[domain.ProviderType]Constructor{
		domain.ProviderSendGrid: fakeConstructor(1, true),
	})

	first, err := reg.Provider(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid)
	if err != nil {
		t.Fatalf("Provider returned error: %v", err)
	}
	second, err := reg.Provider(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid)
	if err != nil {
		t.Fatalf("Provider returned error: %v", err)
	}
	if first != second {
		t.Error("consecutive gets returned different instances")
	}
}

func TestRegistryReloadEvictsInstance(t *testing.T) {
	static := []domain.ProviderConfig{testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1)}
	reg := newTestRegistry(static, map[domain.ProviderType]Constructor{
		domain.ProviderSendGrid: fakeConstructor(1, true),
	})

	first, _ := reg.Provider(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid)
	reg.Reload(domain.ChannelEmail, domain.ProviderSendGrid)
	second, err := reg.Provider(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid)
	if err != nil {
		t.Fatalf("Provider after reload returned error: %v", err)
	}
	if first == second {
		t.Error("reload did not evict the cached instance")
	}
}

func TestRegistryTenantCacheIsIsolated(t *testing.T) {
	tenantCfg := testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1)
	store := &fakeStore{
		tenant: map[string]*domain.ProviderConfig{"org-1/sendgrid": &tenantCfg},
	}
	static := []domain.ProviderConfig{testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 9)}
	reg := NewRegistry(
		NewResolver(store, static),
		NoopRateLimiter{},
		map[domain.Channel]map[domain.ProviderType]Constructor{
			domain.ChannelEmail: {domain.ProviderSendGrid: fakeConstructor(1, true)},
		},
	)

	tenant, err := reg.ProviderForTenant(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid, "org-1")
	if err != nil {
		t.Fatalf("tenant provider error: %v", err)
	}
	global, err := reg.Provider(context.Background(), domain.ChannelEmail, domain.ProviderSendGrid)
	if err != nil {
		t.Fatalf("global provider error: %v", err)
	}
	if tenant == global {
		t.Error("tenant and global caches shared an instance")
	}
	if tenant.Source() != domain.SourceTenant {
		t.Errorf("tenant provider source = %q, want tenant", tenant.Source())
	}
	if global.Source() != domain.SourceStatic {
		t.Errorf("global provider source = %q, want static", global.Source())
	}
}

func TestRegistryUnknownTypeRejected(t *testing.T) {
	reg := newTestRegistry(nil, map[domain.ProviderType]Constructor{})

	_, err := reg.Provider(context.Background(), domain.ChannelEmail, "carrier_pigeon")
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestAllProvidersSortedByPriority(t *testing.T) {
	static := []domain.ProviderConfig{
		testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 3),
		testConfig(domain.ProviderMailgun, domain.ChannelEmail, 1),
		testConfig(domain.ProviderSES, domain.ChannelEmail, 2),
	}
	reg := newTestRegistry(static, map[domain.ProviderType]Constructor{
		domain.ProviderSendGrid: fakeConstructor(3, true),
		domain.ProviderMailgun:  fakeConstructor(1, true),
		domain.ProviderSES:      fakeConstructor(2, true),
	})

	providers := reg.AllProviders(context.Background(), domain.ChannelEmail, "")
	if len(providers) != 3 {
		t.Fatalf("got %d providers, want 3", len(providers))
	}
	want := []domain.ProviderType{domain.ProviderMailgun, domain.ProviderSES, domain.ProviderSendGrid}
	for i, pt := range want {
		if providers[i].Type() != pt {
			t.Errorf("providers[%d] = %s, want %s", i, providers[i].Type(), pt)
		}
	}
}

func TestAllProvidersSkipsInactiveAndUnresolvable(t *testing.T) {
	static := []domain.ProviderConfig{
		testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1),
		testConfig(domain.ProviderMailgun, domain.ChannelEmail, 2),
		// Resend registered but has no config in any tier.
	}
	reg := newTestRegistry(static, map[domain.ProviderType]Constructor{
		domain.ProviderSendGrid: fakeConstructor(1, true),
		domain.ProviderMailgun:  fakeConstructor(2, false), // inactive
		domain.ProviderResend:   fakeConstructor(3, true),
	})

	providers := reg.AllProviders(context.Background(), domain.ChannelEmail, "")
	if len(providers) != 1 {
		t.Fatalf("got %d providers, want 1", len(providers))
	}
	if providers[0].Type() != domain.ProviderSendGrid {
		t.Errorf("surviving provider = %s, want sendgrid", providers[0].Type())
	}
}

func TestAllProvidersPriorityTieBreaksByTypeName(t *testing.T) {
	static := []domain.ProviderConfig{
		testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1),
		testConfig(domain.ProviderMailgun, domain.ChannelEmail, 1),
	}
	reg := newTestRegistry(static, map[domain.ProviderType]Constructor{
		domain.ProviderSendGrid: fakeConstructor(1, true),
		domain.ProviderMailgun:  fakeConstructor(1, true),
	})

	providers := reg.AllProviders(context.Background(), domain.ChannelEmail, "")
	if len(providers) != 2 {
		t.Fatalf("got %d providers, want 2", len(providers))
	}
	// "mailgun" < "sendgrid"
	if providers[0].Type() != domain.ProviderMailgun {
		t.Errorf("tie break order wrong: got %s first", providers[0].Type())
	}
}
