package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/attendly/internal/domain"
)

func channelParam(r *http.Request) (domain.Channel, bool) {
	ch := domain.Channel(chi.URLParam(r, "channel"))
	return ch, ch == domain.ChannelEmail || ch == domain.ChannelSMS
}

type providerView struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Type     domain.ProviderType  `json:"type"`
	Priority int                  `json:"priority"`
	Source   domain.ConfigSource  `json:"source"`
	Stats    domain.ProviderStats `json:"stats"`
}

// ListProviders returns the active providers for a channel in failover
// order, with their in-memory send stats. Tenant scope comes from the
// optional tenant_id query parameter.
func (h *Handlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	ch, ok := channelParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	tenantID := r.URL.Query().Get("tenant_id")

	providers := h.registry.AllProviders(r.Context(), ch, tenantID)
	views := make([]providerView, 0, len(providers))
	for _, p := range providers {
		views = append(views, providerView{
			ID:       p.ID(),
			Name:     p.Name(),
			Type:     p.Type(),
			Priority: p.Priority(),
			Source:   p.Source(),
			Stats:    p.Stats(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channel":   ch,
		"providers": views,
	})
}

// TestProviders runs the connection probe on every provider for a channel
// and returns per-type pass/fail. Probes that fail flip the provider to
// unavailable.
func (h *Handlers) TestProviders(w http.ResponseWriter, r *http.Request) {
	ch, ok := channelParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	tenantID := r.URL.Query().Get("tenant_id")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channel": ch,
		"results": h.registry.TestAll(r.Context(), ch, tenantID),
	})
}

// providerConfigView is a stored config without its settings map, which
// holds vendor credentials and never leaves the server.
type providerConfigView struct {
	ID           string              `json:"id"`
	TenantID     string              `json:"tenant_id,omitempty"`
	Channel      domain.Channel      `json:"channel"`
	Type         domain.ProviderType `json:"type"`
	Name         string              `json:"name"`
	Priority     int                 `json:"priority"`
	IsActive     bool                `json:"is_active"`
	Source       domain.ConfigSource `json:"source"`
	MaxPerMinute int                 `json:"max_per_minute"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ListProviderConfigs returns the stored configs visible to a tenant on a
// channel: its own overrides plus the globals it has not overridden.
func (h *Handlers) ListProviderConfigs(w http.ResponseWriter, r *http.Request) {
	ch, ok := channelParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	tenantID := r.URL.Query().Get("tenant_id")

	configs, err := h.configs.ListForTenant(r.Context(), tenantID, ch)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing provider configs failed")
		return
	}

	views := make([]providerConfigView, 0, len(configs))
	for _, cfg := range configs {
		source := domain.SourceGlobal
		if cfg.TenantID != "" {
			source = domain.SourceTenant
		}
		views = append(views, providerConfigView{
			ID:           cfg.ID,
			TenantID:     cfg.TenantID,
			Channel:      cfg.Channel,
			Type:         cfg.Type,
			Name:         cfg.Name,
			Priority:     cfg.Priority,
			IsActive:     cfg.IsActive,
			Source:       source,
			MaxPerMinute: cfg.RateLimit.MaxPerMinute,
			UpdatedAt:    cfg.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channel": ch,
		"configs": views,
	})
}

// UpsertProviderConfig stores a tenant or global provider config and evicts
// the affected cache scope so the next send picks it up.
func (h *Handlers) UpsertProviderConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if cfg.Channel != domain.ChannelEmail && cfg.Channel != domain.ChannelSMS {
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	known := false
	for _, pt := range h.registry.KnownTypes(cfg.Channel) {
		if pt == cfg.Type {
			known = true
			break
		}
	}
	if !known {
		respondError(w, http.StatusBadRequest, "unknown provider type")
		return
	}

	if err := h.configs.Upsert(r.Context(), &cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "storing provider config failed")
		return
	}

	if cfg.TenantID != "" {
		h.registry.ReloadTenant(cfg.TenantID)
	} else {
		h.registry.Reload(cfg.Channel, cfg.Type)
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": cfg.ID})
}

// ReloadProviders evicts cached provider instances so the next send
// re-resolves configuration. With tenant_id set, only that tenant's cache
// is dropped; otherwise everything is.
func (h *Handlers) ReloadProviders(w http.ResponseWriter, r *http.Request) {
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		h.registry.ReloadTenant(tenantID)
		respondJSON(w, http.StatusOK, map[string]string{"reloaded": "tenant " + tenantID})
		return
	}
	h.registry.ReloadAll()
	respondJSON(w, http.StatusOK, map[string]string{"reloaded": "all"})
}
