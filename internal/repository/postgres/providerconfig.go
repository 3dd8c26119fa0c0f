// Package postgres implements the repository interfaces against
// PostgreSQL. Tenant provider overrides, global provider configs, access
// codes, and campaigns all live here.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// ProviderConfigRepo implements provider.ConfigStore against PostgreSQL.
// Tenant overrides and global configs share one table; global rows have an
// empty tenant_id.
type ProviderConfigRepo struct{ db *sql.DB }

// NewProviderConfigRepo creates a Postgres-backed provider config store.
func NewProviderConfigRepo(db *sql.DB) *ProviderConfigRepo { return &ProviderConfigRepo{db: db} }

const providerConfigColumns = `
	id, COALESCE(tenant_id,''), channel, type, name, priority, is_active,
	settings, max_per_minute, created_at, updated_at`

// TenantConfig returns the tenant's active config of the given type.
// Multiple active rows of one type are resolved deterministically: newest
// updated_at wins.
func (r *ProviderConfigRepo) TenantConfig(ctx context.Context, tenantID string, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	return r.queryOne(ctx, `
		SELECT `+providerConfigColumns+`
		FROM provider_configs
		WHERE tenant_id = $1 AND channel = $2 AND type = $3 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`, tenantID, ch, pt)
}

// GlobalConfig returns the global active config of the given type.
func (r *ProviderConfigRepo) GlobalConfig(ctx context.Context, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	return r.queryOne(ctx, `
		SELECT `+providerConfigColumns+`
		FROM provider_configs
		WHERE (tenant_id IS NULL OR tenant_id = '') AND channel = $1 AND type = $2 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`, ch, pt)
}

func (r *ProviderConfigRepo) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.ProviderConfig, error) {
	var (
		cfg         domain.ProviderConfig
		settingsRaw []byte
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID, &cfg.TenantID, &cfg.Channel, &cfg.Type, &cfg.Name,
		&cfg.Priority, &cfg.IsActive, &settingsRaw, &cfg.RateLimit.MaxPerMinute,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, provider.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query provider config: %w", err)
	}

	if len(settingsRaw) > 0 {
		if err := json.Unmarshal(settingsRaw, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("decode provider settings: %w", err)
		}
	}
	return &cfg, nil
}

// Upsert inserts or replaces a provider config row.
func (r *ProviderConfigRepo) Upsert(ctx context.Context, cfg *domain.ProviderConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return fmt.Errorf("encode provider settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO provider_configs
			(id, tenant_id, channel, type, name, priority, is_active,
			 settings, max_per_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			priority = EXCLUDED.priority,
			is_active = EXCLUDED.is_active,
			settings = EXCLUDED.settings,
			max_per_minute = EXCLUDED.max_per_minute,
			updated_at = NOW()
	`, cfg.ID, cfg.TenantID, cfg.Channel, cfg.Type, cfg.Name,
		cfg.Priority, cfg.IsActive, settings, cfg.RateLimit.MaxPerMinute)
	if err != nil {
		return fmt.Errorf("upsert provider config: %w", err)
	}
	return nil
}

// ListForTenant returns every config visible to a tenant on a channel:
// its own overrides plus the globals it has not overridden.
func (r *ProviderConfigRepo) ListForTenant(ctx context.Context, tenantID string, ch domain.Channel) ([]domain.ProviderConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (type) `+providerConfigColumns+`
		FROM provider_configs
		WHERE channel = $1 AND is_active = true
		  AND (tenant_id = $2 OR tenant_id IS NULL OR tenant_id = '')
		ORDER BY type, (tenant_id = $2) DESC, updated_at DESC
	`, ch, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list provider configs: %w", err)
	}
	defer rows.Close()

	var out []domain.ProviderConfig
	for rows.Next() {
		var (
			cfg         domain.ProviderConfig
			settingsRaw []byte
		)
		if err := rows.Scan(
			&cfg.ID, &cfg.TenantID, &cfg.Channel, &cfg.Type, &cfg.Name,
			&cfg.Priority, &cfg.IsActive, &settingsRaw, &cfg.RateLimit.MaxPerMinute,
			&cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan provider config: %w", err)
		}
		if len(settingsRaw) > 0 {
			if err := json.Unmarshal(settingsRaw, &cfg.Settings); err != nil {
				return nil, fmt.Errorf("decode provider settings: %w", err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}
