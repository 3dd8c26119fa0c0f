package domain

import "time"

// CampaignStatus tracks a notification campaign through dispatch.
type CampaignStatus string

const (
	CampaignPending   CampaignStatus = "pending"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

// Campaign is a notification blast for one event: a message template plus
// a recipient list, dispatched through the provider failover path.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	EventID        string         `json:"event_id" db:"event_id"`
	OrganizationID string         `json:"organization_id" db:"organization_id"`
	Channel        Channel        `json:"channel" db:"channel"`
	Subject        string         `json:"subject,omitempty" db:"subject"`
	Body           string         `json:"body" db:"body"`
	Recipients     []string       `json:"recipients" db:"-"`
	Status         CampaignStatus `json:"status" db:"status"`
	SentCount      int            `json:"sent_count" db:"sent_count"`
	FailedCount    int            `json:"failed_count" db:"failed_count"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	CompletedAt    time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// OrganizationMetrics is the aggregate view served by the metrics endpoint.
type OrganizationMetrics struct {
	OrganizationID     string  `json:"organization_id"`
	CampaignCount      int     `json:"campaign_count"`
	MessagesSent       int     `json:"messages_sent"`
	MessagesFailed     int     `json:"messages_failed"`
	DeliveryRate       float64 `json:"delivery_rate"`
	CodesIssued        int     `json:"codes_issued"`
	CodesRedeemed      int     `json:"codes_redeemed"`
	CheckInRate        float64 `json:"check_in_rate"`
	EstimatedSpend     float64 `json:"estimated_spend"`
	ActiveCampaigns    int     `json:"active_campaigns"`
	CompletedCampaigns int     `json:"completed_campaigns"`
}
