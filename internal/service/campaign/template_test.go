package campaign

import (
	"context"
	"sync"
	"testing"

	"github.com/attendly/attendly/internal/domain"
)

// capturingSender records every message handed to the failover path.
type capturingSender struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (s *capturingSender) SendWithFailover(ctx context.Context, ch domain.Channel, tenantID string, msg *domain.Message) (*domain.DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return &domain.DispatchResult{Success: true, Provider: domain.ProviderSendGrid}, nil
}

func TestDispatchRendersPlaceholdersPerRecipient(t *testing.T) {
	repo := &memCampaignRepo{}
	sender := &capturingSender{}
	svc := NewService(repo, sender, 10)

	c := &domain.Campaign{
		ID: "cmp-9", EventID: "evt-9", OrganizationID: "org-9",
		Channel:    domain.ChannelEmail,
		Subject:    "Reminder for {{ event_id }}",
		Body:       "Hi {{ recipient }}, doors open at 7.",
		Recipients: []string{"a@example.com", "b@example.com"},
	}
	sent, failed, err := svc.Dispatch(context.Background(), c)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if sent != 2 || failed != 0 {
		t.Fatalf("sent=%d failed=%d, want 2/0", sent, failed)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, msg := range sender.msgs {
		if msg.Subject != "Reminder for evt-9" {
			t.Errorf("subject = %q, want event id expanded", msg.Subject)
		}
		want := "Hi " + msg.To[0] + ", doors open at 7."
		if msg.Body != want {
			t.Errorf("body = %q, want %q", msg.Body, want)
		}
	}
}

func TestDispatchPlainTextBodyPassesThrough(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(&memCampaignRepo{}, sender, 10)

	c := &domain.Campaign{
		ID: "cmp-10", EventID: "evt-10", OrganizationID: "org-10",
		Channel:    domain.ChannelSMS,
		Body:       "Doors open at 7pm sharp.",
		Recipients: []string{"+14155550100"},
	}
	if _, _, err := svc.Dispatch(context.Background(), c); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.msgs) != 1 || sender.msgs[0].Body != c.Body {
		t.Errorf("plain body should pass through unchanged, got %v", sender.msgs)
	}
}

func TestCreateRejectsMalformedTemplate(t *testing.T) {
	svc := NewService(&memCampaignRepo{}, &capturingSender{}, 10)

	c := &domain.Campaign{
		EventID: "evt-1", OrganizationID: "org-1",
		Channel:    domain.ChannelSMS,
		Body:       "Hi {% endif %}",
		Recipients: []string{"+14155550100"},
	}
	if err := svc.Create(context.Background(), c); err == nil {
		t.Fatal("malformed template should be rejected at creation")
	}
}
