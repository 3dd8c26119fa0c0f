package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/service/accesscode"
)

// AccessCodeRepo implements accesscode.Repository against PostgreSQL.
type AccessCodeRepo struct{ db *sql.DB }

// NewAccessCodeRepo creates a Postgres-backed access code repository.
func NewAccessCodeRepo(db *sql.DB) *AccessCodeRepo { return &AccessCodeRepo{db: db} }

func (r *AccessCodeRepo) Create(ctx context.Context, c *domain.AccessCode) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_codes
			(id, event_id, organization_id, user_id, kind, code,
			 expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW())
	`, c.ID, c.EventID, c.OrganizationID, c.UserID, c.Kind, c.Code, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create access code: %w", err)
	}
	return nil
}

// Consume atomically marks a code used. The single UPDATE carries the
// one-time-use invariant: a concurrent second redeemer matches zero rows.
func (r *AccessCodeRepo) Consume(ctx context.Context, eventID string, kind domain.CodeKind, code, usedBy string) (*domain.AccessCode, error) {
	c := &domain.AccessCode{}
	var usedAt, createdAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		UPDATE access_codes
		SET is_used = true, used_at = NOW(), used_by = $4
		WHERE event_id = $1 AND kind = $2 AND code = $3
		  AND is_used = false AND expires_at >= NOW()
		RETURNING id, event_id, COALESCE(organization_id,''), user_id, kind, code,
		          expires_at, is_used, used_at, COALESCE(used_by,''), created_at
	`, eventID, kind, code, usedBy).Scan(
		&c.ID, &c.EventID, &c.OrganizationID, &c.UserID, &c.Kind, &c.Code,
		&c.ExpiresAt, &c.IsUsed, &usedAt, &c.UsedBy, &createdAt,
	)
	if err == nil {
		if usedAt.Valid {
			c.UsedAt = usedAt.Time
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("consume access code: %w", err)
	}

	// Zero rows: classify why so the caller gets a precise rejection.
	var isUsed bool
	var expiresAt time.Time
	err = r.db.QueryRowContext(ctx, `
		SELECT is_used, expires_at FROM access_codes
		WHERE event_id = $1 AND kind = $2 AND code = $3
	`, eventID, kind, code).Scan(&isUsed, &expiresAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, accesscode.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("classify access code: %w", err)
	case isUsed:
		return nil, accesscode.ErrAlreadyUsed
	default:
		return nil, accesscode.ErrExpired
	}
}

// DeleteExpired removes up to limit expired, unused codes and reports how
// many were deleted. The sweep calls it repeatedly until it returns less
// than limit.
func (r *AccessCodeRepo) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM access_codes
		WHERE id IN (
			SELECT id FROM access_codes
			WHERE is_used = false AND expires_at < $1
			LIMIT $2
		)
	`, before, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return int(n), nil
}

// CountByOrganization returns issued and redeemed code counts for metrics.
func (r *AccessCodeRepo) CountByOrganization(ctx context.Context, orgID string) (issued, redeemed int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_used)
		FROM access_codes
		WHERE organization_id = $1
	`, orgID).Scan(&issued, &redeemed)
	if err != nil {
		return 0, 0, fmt.Errorf("count access codes: %w", err)
	}
	return issued, redeemed, nil
}
