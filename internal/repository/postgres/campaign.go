package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, event_id, organization_id, channel, subject, body,
			 status, sent_count, failed_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, NOW())
	`, c.ID, c.EventID, c.OrganizationID, c.Channel, c.Subject, c.Body, c.Status)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, organization_id, channel, COALESCE(subject,''),
		       body, status, sent_count, failed_count, created_at, completed_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.EventID, &c.OrganizationID, &c.Channel, &c.Subject,
		&c.Body, &c.Status, &c.SentCount, &c.FailedCount, &c.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if completedAt.Valid {
		c.CompletedAt = completedAt.Time
	}
	return c, nil
}

// Finish records the dispatch outcome for a campaign.
func (r *CampaignRepo) Finish(ctx context.Context, id string, status domain.CampaignStatus, sent, failed int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = $2, sent_count = $3, failed_count = $4, completed_at = NOW()
		WHERE id = $1
	`, id, status, sent, failed)
	if err != nil {
		return fmt.Errorf("finish campaign: %w", err)
	}
	return nil
}

// SetStatus updates only the campaign status.
func (r *CampaignRepo) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE campaigns SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	return nil
}

// AggregateByOrganization returns the campaign counters feeding the
// organization metrics endpoint.
func (r *CampaignRepo) AggregateByOrganization(ctx context.Context, orgID string) (campaign.Aggregate, error) {
	var agg campaign.Aggregate
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(sent_count), 0),
		       COALESCE(SUM(failed_count), 0),
		       COUNT(*) FILTER (WHERE status = 'sending'),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM campaigns
		WHERE organization_id = $1
	`, orgID).Scan(&agg.Campaigns, &agg.Sent, &agg.Failed, &agg.Active, &agg.Completed)
	if err != nil {
		return campaign.Aggregate{}, fmt.Errorf("aggregate campaigns: %w", err)
	}
	return agg, nil
}
