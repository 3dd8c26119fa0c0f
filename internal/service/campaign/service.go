package campaign

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// Service creates campaigns and fans their messages out to recipients.
type Service struct {
	repo      Repository
	sender    Sender
	templates *renderer
	chunkSize int
}

// NewService creates a campaign service. chunkSize bounds how many
// recipient sends are in flight at once during dispatch.
func NewService(repo Repository, sender Sender, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Service{repo: repo, sender: sender, templates: newRenderer(), chunkSize: chunkSize}
}

// Create persists a pending campaign after validating its message fields.
func (s *Service) Create(ctx context.Context, c *domain.Campaign) error {
	if c.EventID == "" {
		return fmt.Errorf("campaign requires an event id")
	}
	if len(c.Recipients) == 0 {
		return fmt.Errorf("campaign requires at least one recipient")
	}
	if c.Channel != domain.ChannelEmail && c.Channel != domain.ChannelSMS {
		return fmt.Errorf("unknown campaign channel %q", c.Channel)
	}
	if c.Channel == domain.ChannelEmail && c.Subject == "" {
		return fmt.Errorf("email campaign requires a subject")
	}
	if c.Body == "" {
		return fmt.Errorf("campaign requires a body")
	}
	if _, err := s.templates.parse(c); err != nil {
		return err
	}

	c.Status = domain.CampaignPending
	return s.repo.Create(ctx, c)
}

// Dispatch sends the campaign to every recipient. The subject and body are
// parsed once and rendered per recipient. Recipients are processed in
// fixed-size chunks; within a chunk, sends run concurrently and each
// failure is counted, never propagated. The campaign row records the
// totals when the last chunk completes.
func (s *Service) Dispatch(ctx context.Context, c *domain.Campaign) (sent, failed int, err error) {
	tpl, err := s.templates.parse(c)
	if err != nil {
		return 0, 0, err
	}
	if err := s.repo.SetStatus(ctx, c.ID, domain.CampaignSending); err != nil {
		return 0, 0, err
	}

	var (
		mu   sync.Mutex
		done int
	)

	for start := 0; start < len(c.Recipients); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(c.Recipients) {
			end = len(c.Recipients)
		}

		var wg sync.WaitGroup
		for _, recipient := range c.Recipients[start:end] {
			wg.Add(1)
			go func(to string) {
				defer wg.Done()

				subject, body, renderErr := tpl.render(c, to)
				if renderErr != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					logger.Warn("campaign: recipient render failed",
						"campaign_id", c.ID, "recipient", to, "error", renderErr.Error())
					return
				}

				msg := &domain.Message{
					ID:      uuid.New().String(),
					To:      []string{to},
					Subject: subject,
					Body:    body,
				}

				res, sendErr := s.sender.SendWithFailover(ctx, c.Channel, c.OrganizationID, msg)
				mu.Lock()
				defer mu.Unlock()
				if sendErr == nil && res != nil && res.Success {
					sent++
				} else {
					failed++
					reason := "dispatch failed"
					if res != nil && res.Error != "" {
						reason = res.Error
					} else if sendErr != nil {
						reason = sendErr.Error()
					}
					logger.Warn("campaign: recipient dispatch failed",
						"campaign_id", c.ID, "recipient", to, "error", reason)
				}
			}(recipient)
		}
		wg.Wait()

		done = end
		logger.Debug("campaign: chunk complete",
			"campaign_id", c.ID, "done", done, "total", len(c.Recipients))
	}

	status := domain.CampaignCompleted
	if sent == 0 {
		status = domain.CampaignFailed
	}
	if err := s.repo.Finish(ctx, c.ID, status, sent, failed); err != nil {
		return sent, failed, err
	}
	return sent, failed, nil
}

// CreateAndDispatch is the controller entry point: persist, then dispatch
// synchronously.
func (s *Service) CreateAndDispatch(ctx context.Context, c *domain.Campaign) (sent, failed int, err error) {
	if err := s.Create(ctx, c); err != nil {
		return 0, 0, err
	}
	return s.Dispatch(ctx, c)
}

// Aggregate exposes the per-organization rollup for the metrics service.
func (s *Service) Aggregate(ctx context.Context, orgID string) (Aggregate, error) {
	return s.repo.AggregateByOrganization(ctx, orgID)
}
