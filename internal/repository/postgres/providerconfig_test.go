package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

func configColumns() []string {
	return []string{
		"id", "tenant_id", "channel", "type", "name", "priority", "is_active",
		"settings", "max_per_minute", "created_at", "updated_at",
	}
}

func TestTenantConfigDecodesSettings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT").
		WithArgs("org-1", "email", "sendgrid").
		WillReturnRows(sqlmock.NewRows(configColumns()).AddRow(
			"cfg-1", "org-1", "email", "sendgrid", "Tenant SendGrid", 1, true,
			[]byte(`{"api_key":"SG.tenant","from_email":"events@org1.example"}`), 120, now, now,
		))

	repo := NewProviderConfigRepo(db)
	cfg, err := repo.TenantConfig(context.Background(), "org-1", domain.ChannelEmail, domain.ProviderSendGrid)
	if err != nil {
		t.Fatalf("TenantConfig returned error: %v", err)
	}
	if cfg.Settings["api_key"] != "SG.tenant" {
		t.Errorf("api_key = %q", cfg.Settings["api_key"])
	}
	if cfg.RateLimit.MaxPerMinute != 120 {
		t.Errorf("max_per_minute = %d, want 120", cfg.RateLimit.MaxPerMinute)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTenantConfigNoRowsIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs("org-1", "sms", "twilio").
		WillReturnRows(sqlmock.NewRows(configColumns()))

	repo := NewProviderConfigRepo(db)
	_, err = repo.TenantConfig(context.Background(), "org-1", domain.ChannelSMS, domain.ProviderTwilio)
	if !errors.Is(err, provider.ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestGlobalConfigTargetsGlobalRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("tenant_id IS NULL OR tenant_id = ''").
		WithArgs("email", "mailgun").
		WillReturnRows(sqlmock.NewRows(configColumns()).AddRow(
			"cfg-g", "", "email", "mailgun", "Global Mailgun", 2, true,
			[]byte(`{"api_key":"key-global"}`), 0, now, now,
		))

	repo := NewProviderConfigRepo(db)
	cfg, err := repo.GlobalConfig(context.Background(), domain.ChannelEmail, domain.ProviderMailgun)
	if err != nil {
		t.Fatalf("GlobalConfig returned error: %v", err)
	}
	if cfg.TenantID != "" {
		t.Errorf("global config has tenant id %q", cfg.TenantID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO provider_configs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewProviderConfigRepo(db)
	cfg := &domain.ProviderConfig{
		Type: domain.ProviderSendGrid, Channel: domain.ChannelEmail,
		Name: "n", Priority: 1, IsActive: true,
		Settings: map[string]string{"api_key": "k"},
	}
	if err := repo.Upsert(context.Background(), cfg); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if cfg.ID == "" {
		t.Error("Upsert should assign an id to new configs")
	}
}

func TestListForTenantMergesOverridesAndGlobals(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("DISTINCT ON").
		WithArgs("email", "org-1").
		WillReturnRows(sqlmock.NewRows(configColumns()).
			AddRow("cfg-t", "org-1", "email", "sendgrid", "Tenant SendGrid", 1, true,
				[]byte(`{"api_key":"SG.tenant"}`), 0, now, now).
			AddRow("cfg-g", "", "email", "mailgun", "Global Mailgun", 2, true,
				[]byte(`{"api_key":"key-global"}`), 0, now, now))

	repo := NewProviderConfigRepo(db)
	configs, err := repo.ListForTenant(context.Background(), "org-1", domain.ChannelEmail)
	if err != nil {
		t.Fatalf("ListForTenant returned error: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configs, want 2", len(configs))
	}
	if configs[0].TenantID != "org-1" || configs[1].TenantID != "" {
		t.Errorf("tenant scoping wrong: %q / %q", configs[0].TenantID, configs[1].TenantID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
