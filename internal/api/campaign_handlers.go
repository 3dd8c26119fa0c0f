package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/attendly/internal/domain"
)

type createCampaignRequest struct {
	OrganizationID string   `json:"organization_id"`
	Channel        string   `json:"channel"`
	Subject        string   `json:"subject,omitempty"`
	Body           string   `json:"body"`
	Recipients     []string `json:"recipients"`
}

// CreateCampaign creates a campaign for an event and dispatches it to
// every recipient before responding. Individual recipient failures do not
// fail the request; the response carries sent and failed counts.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &domain.Campaign{
		EventID:        eventID,
		OrganizationID: req.OrganizationID,
		Channel:        domain.Channel(req.Channel),
		Subject:        req.Subject,
		Body:           req.Body,
		Recipients:     req.Recipients,
	}

	sent, failed, err := h.campaigns.CreateAndDispatch(r.Context(), c)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"campaign_id": c.ID,
		"sent":        sent,
		"failed":      failed,
	})
}

// GetOrganizationMetrics returns the aggregate campaign and attendance
// counters for an organization.
func (h *Handlers) GetOrganizationMetrics(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	m, err := h.metrics.ForOrganization(r.Context(), orgID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}
	respondJSON(w, http.StatusOK, m)
}
