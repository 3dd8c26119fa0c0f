package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
	"github.com/attendly/attendly/internal/provider/email"
	"github.com/attendly/attendly/internal/service/accesscode"
	"github.com/attendly/attendly/internal/service/campaign"
	"github.com/attendly/attendly/internal/service/metrics"
)

type memConfigStore struct {
	mu      sync.Mutex
	configs []domain.ProviderConfig
}

func (s *memConfigStore) ListForTenant(ctx context.Context, tenantID string, ch domain.Channel) ([]domain.ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProviderConfig
	for _, c := range s.configs {
		if c.Channel == ch && (c.TenantID == "" || c.TenantID == tenantID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memConfigStore) Upsert(ctx context.Context, cfg *domain.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.ID == "" {
		cfg.ID = "cfg-1"
	}
	s.configs = append(s.configs, *cfg)
	return nil
}

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.AccessCode
}

func (r *memCodeRepo) Create(ctx context.Context, c *domain.AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.codes[c.EventID+"/"+string(c.Kind)+"/"+c.Code] = &cp
	return nil
}

func (r *memCodeRepo) Consume(ctx context.Context, eventID string, kind domain.CodeKind, code, usedBy string) (*domain.AccessCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[eventID+"/"+string(kind)+"/"+code]
	if !ok {
		return nil, accesscode.ErrNotFound
	}
	if c.IsUsed {
		return nil, accesscode.ErrAlreadyUsed
	}
	if time.Now().After(c.ExpiresAt) {
		return nil, accesscode.ErrExpired
	}
	c.IsUsed = true
	c.UsedAt = time.Now()
	c.UsedBy = usedBy
	cp := *c
	return &cp, nil
}

func (r *memCodeRepo) DeleteExpired(context.Context, time.Time, int) (int, error) { return 0, nil }
func (r *memCodeRepo) CountByOrganization(context.Context, string) (int, int, error) {
	return 0, 0, nil
}

type memCampaignRepo struct{}

func (memCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	c.ID = "cmp-1"
	return nil
}
func (memCampaignRepo) Get(context.Context, string) (*domain.Campaign, error) {
	return nil, campaign.ErrNotFound
}
func (memCampaignRepo) SetStatus(context.Context, string, domain.CampaignStatus) error { return nil }
func (memCampaignRepo) Finish(context.Context, string, domain.CampaignStatus, int, int) error {
	return nil
}
func (memCampaignRepo) AggregateByOrganization(context.Context, string) (campaign.Aggregate, error) {
	return campaign.Aggregate{Campaigns: 1, Sent: 2, Failed: 0, Completed: 1}, nil
}

type okSender struct{}

func (okSender) SendWithFailover(ctx context.Context, ch domain.Channel, tenantID string, msg *domain.Message) (*domain.DispatchResult, error) {
	return &domain.DispatchResult{Success: true, Provider: domain.ProviderSendGrid, Attempts: 1}, nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	registry := provider.NewRegistry(
		provider.NewResolver(nil, nil),
		provider.NoopRateLimiter{},
		map[domain.Channel]map[domain.ProviderType]provider.Constructor{
			domain.ChannelEmail: email.Constructors(),
		},
	)
	dispatcher := provider.NewDispatcher(registry, time.Second)

	campaignSvc := campaign.NewService(memCampaignRepo{}, okSender{}, 10)
	codeSvc := accesscode.NewService(&memCodeRepo{codes: make(map[string]*domain.AccessCode)}, 6, time.Hour, 100)
	metricsSvc := metrics.NewService(campaignSvc, codeSvc)

	configs := &memConfigStore{}
	return NewServer(NewHandlers(registry, dispatcher, configs, campaignSvc, codeSvc, metricsSvc)).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestPINIssueAndValidateLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPost, "/api/events/evt-1/pin",
		map[string]string{"user_id": "user-1", "organization_id": "org-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status = %d, body %v", rec.Code, body)
	}
	code, _ := body["code"].(string)
	if len(code) != 6 {
		t.Fatalf("issued pin = %q", code)
	}

	rec, body = doJSON(t, h, http.MethodPost, "/api/events/evt-1/pin/validate",
		map[string]string{"code": code, "used_by": "scanner-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, body %v", rec.Code, body)
	}
	if body["valid"] != true {
		t.Error("first validation should succeed")
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/events/evt-1/pin/validate",
		map[string]string{"code": code})
	if rec.Code != http.StatusConflict {
		t.Errorf("second validation status = %d, want 409", rec.Code)
	}
}

func TestValidateUnknownCodeIs404(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/events/evt-1/qrcode/validate",
		map[string]string{"code": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateCampaignRespondsWithCounts(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodPost, "/api/events/evt-1/campaigns", map[string]interface{}{
		"organization_id": "org-1",
		"channel":         "email",
		"subject":         "Reminder",
		"body":            "Doors at 7.",
		"recipients":      []string{"a@example.com", "b@example.com"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	if body["sent"] != float64(2) {
		t.Errorf("sent = %v, want 2", body["sent"])
	}
	if body["campaign_id"] == "" {
		t.Error("response should carry the campaign id")
	}
}

func TestCreateCampaignRejectsInvalidPayload(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/events/evt-1/campaigns", map[string]interface{}{
		"channel": "email", "body": "no recipients",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOrganizationMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/organizations/org-1/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["messages_sent"] != float64(2) {
		t.Errorf("messages_sent = %v, want 2", body["messages_sent"])
	}
}

func TestListProvidersRejectsUnknownChannel(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/providers/fax", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpsertAndListProviderConfigs(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doJSON(t, h, http.MethodPut, "/api/providers/configs", map[string]interface{}{
		"channel":   "email",
		"type":      "sendgrid",
		"name":      "Acme override",
		"tenant_id": "org-1",
		"priority":  1,
		"is_active": true,
		"settings":  map[string]string{"api_key": "sg-secret"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %v", rec.Code, body)
	}
	if body["id"] == "" {
		t.Error("upsert response should carry the config id")
	}

	rec, body = doJSON(t, h, http.MethodGet, "/api/providers/email/configs?tenant_id=org-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %v", rec.Code, body)
	}
	configs, _ := body["configs"].([]interface{})
	if len(configs) != 1 {
		t.Fatalf("configs = %v, want one entry", body["configs"])
	}
	entry, _ := configs[0].(map[string]interface{})
	if entry["type"] != "sendgrid" || entry["source"] != "tenant" {
		t.Errorf("entry = %v", entry)
	}
	if _, leaked := entry["settings"]; leaked {
		t.Error("config listing must not expose vendor credentials")
	}
}

func TestUpsertProviderConfigRejectsUnknownType(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPut, "/api/providers/configs", map[string]interface{}{
		"channel": "email", "type": "carrier-pigeon", "name": "nope",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReloadProvidersEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/providers/reload", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
