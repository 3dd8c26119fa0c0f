// Package api exposes the HTTP surface: campaign creation, access code
// issue/validate, organization metrics, and provider administration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
	"github.com/attendly/attendly/internal/service/accesscode"
	"github.com/attendly/attendly/internal/service/campaign"
	"github.com/attendly/attendly/internal/service/metrics"
)

// ProviderConfigStore is the admin surface over stored provider configs.
// Implemented by repository/postgres.
type ProviderConfigStore interface {
	ListForTenant(ctx context.Context, tenantID string, ch domain.Channel) ([]domain.ProviderConfig, error)
	Upsert(ctx context.Context, cfg *domain.ProviderConfig) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	registry   *provider.Registry
	dispatcher *provider.Dispatcher
	configs    ProviderConfigStore
	campaigns  *campaign.Service
	codes      *accesscode.Service
	metrics    *metrics.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	registry *provider.Registry,
	dispatcher *provider.Dispatcher,
	configs ProviderConfigStore,
	campaigns *campaign.Service,
	codes *accesscode.Service,
	metrics *metrics.Service,
) *Handlers {
	return &Handlers{
		registry:   registry,
		dispatcher: dispatcher,
		configs:    configs,
		campaigns:  campaigns,
		codes:      codes,
		metrics:    metrics,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// codeStatus maps an access code redemption failure to an HTTP status.
func codeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, accesscode.ErrNotFound):
		return http.StatusNotFound, "code not found"
	case errors.Is(err, accesscode.ErrAlreadyUsed):
		return http.StatusConflict, "code already used"
	case errors.Is(err, accesscode.ErrExpired):
		return http.StatusGone, "code expired"
	default:
		return http.StatusInternalServerError, "validation failed"
	}
}
