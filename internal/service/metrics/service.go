// Package metrics aggregates per-organization campaign and attendance
// counters into the rollup served by the metrics endpoint.
package metrics

import (
	"context"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
	"github.com/attendly/attendly/internal/service/campaign"
)

// CampaignAggregator supplies campaign rollups. Implemented by
// campaign.Service.
type CampaignAggregator interface {
	Aggregate(ctx context.Context, orgID string) (campaign.Aggregate, error)
}

// CodeCounter supplies access code counts. Implemented by
// accesscode.Service.
type CodeCounter interface {
	Counts(ctx context.Context, orgID string) (issued, redeemed int, err error)
}

// Service computes organization metrics from the campaign and access code
// stores. Read-only; no caching.
type Service struct {
	campaigns CampaignAggregator
	codes     CodeCounter
}

// NewService creates a metrics service.
func NewService(campaigns CampaignAggregator, codes CodeCounter) *Service {
	return &Service{campaigns: campaigns, codes: codes}
}

// ForOrganization builds the metrics rollup for one organization.
// Delivery rate is sent over attempted; check-in rate is redeemed over
// issued; both are 0 when the denominator is 0. Estimated spend prices
// every sent message at the per-recipient rate of the cheapest realistic
// vendor mix, one recipient per message.
func (s *Service) ForOrganization(ctx context.Context, orgID string) (*domain.OrganizationMetrics, error) {
	agg, err := s.campaigns.Aggregate(ctx, orgID)
	if err != nil {
		return nil, err
	}

	issued, redeemed, err := s.codes.Counts(ctx, orgID)
	if err != nil {
		return nil, err
	}

	m := &domain.OrganizationMetrics{
		OrganizationID:     orgID,
		CampaignCount:      agg.Campaigns,
		MessagesSent:       agg.Sent,
		MessagesFailed:     agg.Failed,
		CodesIssued:        issued,
		CodesRedeemed:      redeemed,
		ActiveCampaigns:    agg.Active,
		CompletedCampaigns: agg.Completed,
	}

	if attempted := agg.Sent + agg.Failed; attempted > 0 {
		m.DeliveryRate = float64(agg.Sent) / float64(attempted)
	}
	if issued > 0 {
		m.CheckInRate = float64(redeemed) / float64(issued)
	}

	perMessage := provider.EstimateCost(domain.ProviderSendGrid, &domain.Message{To: []string{"x"}})
	m.EstimatedSpend = float64(agg.Sent) * perMessage

	return m, nil
}
