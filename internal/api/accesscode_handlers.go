package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/attendly/internal/domain"
)

type issueCodeRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id"`
}

type validateCodeRequest struct {
	Code   string `json:"code"`
	UsedBy string `json:"used_by,omitempty"`
}

// IssueQRCode issues a one-time QR token for an event attendee.
func (h *Handlers) IssueQRCode(w http.ResponseWriter, r *http.Request) {
	h.issueCode(w, r, domain.CodeQR)
}

// IssuePIN issues a one-time numeric PIN for an event attendee.
func (h *Handlers) IssuePIN(w http.ResponseWriter, r *http.Request) {
	h.issueCode(w, r, domain.CodePIN)
}

func (h *Handlers) issueCode(w http.ResponseWriter, r *http.Request, kind domain.CodeKind) {
	eventID := chi.URLParam(r, "eventID")

	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.codes.Issue(r.Context(), eventID, req.OrganizationID, req.UserID, kind)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue code")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         c.ID,
		"code":       c.Code,
		"kind":       c.Kind,
		"expires_at": c.ExpiresAt,
	})
}

// ValidateQRCode redeems a QR token. A token validates exactly once.
func (h *Handlers) ValidateQRCode(w http.ResponseWriter, r *http.Request) {
	h.validateCode(w, r, domain.CodeQR)
}

// ValidatePIN redeems a PIN. A PIN validates exactly once.
func (h *Handlers) ValidatePIN(w http.ResponseWriter, r *http.Request) {
	h.validateCode(w, r, domain.CodePIN)
}

func (h *Handlers) validateCode(w http.ResponseWriter, r *http.Request, kind domain.CodeKind) {
	eventID := chi.URLParam(r, "eventID")

	var req validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.codes.Validate(r.Context(), eventID, kind, req.Code, req.UsedBy)
	if err != nil {
		status, msg := codeStatus(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"id":      c.ID,
		"user_id": c.UserID,
		"used_at": c.UsedAt,
	})
}
