// Package campaign creates notification campaigns and dispatches them to
// recipients through the provider failover path, in bounded chunks.
package campaign

import (
	"context"
	"errors"

	"github.com/attendly/attendly/internal/domain"
)

// ErrNotFound is returned when a campaign does not exist.
var ErrNotFound = errors.New("campaign not found")

// Aggregate is the per-organization rollup used by the metrics service.
type Aggregate struct {
	Campaigns int
	Sent      int
	Failed    int
	Active    int
	Completed int
}

// Repository persists campaigns.
type Repository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	Finish(ctx context.Context, id string, status domain.CampaignStatus, sent, failed int) error
	AggregateByOrganization(ctx context.Context, orgID string) (Aggregate, error)
}

// Sender is the slice of the failover dispatcher the campaign service
// needs. Implemented by provider.Dispatcher.
type Sender interface {
	SendWithFailover(ctx context.Context, ch domain.Channel, tenantID string, msg *domain.Message) (*domain.DispatchResult, error)
}
