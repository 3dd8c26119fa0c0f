package provider

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/attendly/internal/domain"
)

// dispatcherFixture wires pre-built fake providers into a registry so the
// dispatcher walks exactly the given list.
func dispatcherFixture(t *testing.T, timeout time.Duration, fakes ...*fakeProvider) *Dispatcher {
	t.Helper()

	static := make([]domain.ProviderConfig, 0, len(fakes))
	ctors := make(map[domain.ProviderType]Constructor, len(fakes))
	for _, f := range fakes {
		f := f
		static = append(static, testConfig(f.typ, domain.ChannelEmail, f.priority))
		ctors[f.typ] = func(domain.ProviderConfig, RateLimiter) (Provider, error) { return f, nil }
	}

	reg := NewRegistry(
		NewResolver(&fakeStore{}, static),
		NoopRateLimiter{},
		map[domain.Channel]map[domain.ProviderType]Constructor{domain.ChannelEmail: ctors},
	)
	return NewDispatcher(reg, timeout)
}

func emailMessage() *domain.Message {
	return &domain.Message{
		To:      []string{"attendee@example.com"},
		Subject: "Event reminder",
		Body:    "See you there.",
	}
}

func TestFailoverFirstSuccessShortCircuits(t *testing.T) {
	p1 := &fakeProvider{id: "p1", typ: domain.ProviderMailgun, channel: domain.ChannelEmail, priority: 1, active: true, sendable: true, succeed: false}
	p2 := &fakeProvider{id: "p2", typ: domain.ProviderSendGrid, channel: domain.ChannelEmail, priority: 2, active: true, sendable: true, succeed: true}
	p3 := &fakeProvider{id: "p3", typ: domain.ProviderSES, channel: domain.ChannelEmail, priority: 3, active: true, sendable: true, succeed: true}
	d := dispatcherFixture(t, 0, p1, p2, p3)

	res, err := d.SendWithFailover(context.Background(), domain.ChannelEmail, "", emailMessage())
	if err != nil {
		t.Fatalf("SendWithFailover returned error: %v", err)
	}
	if !res.Success {
		t.Fatal("dispatch should have succeeded via second provider")
	}
	if res.Provider != domain.ProviderSendGrid {
		t.Errorf("winning provider = %s, want sendgrid", res.Provider)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if p3.sendCount() != 0 {
		t.Error("lower-priority provider was attempted after a success")
	}
}

func TestFailoverExhaustionReportsLastError(t *testing.T) {
	p1 := &fakeProvider{id: "p1", typ: domain.ProviderMailgun, channel: domain.ChannelEmail, priority: 1, active: true, sendable: true, succeed: false}
	p2 := &fakeProvider{id: "p2", typ: domain.ProviderSendGrid, channel: domain.ChannelEmail, priority: 2, active: true, sendable: true, succeed: false}
	d := dispatcherFixture(t, 0, p1, p2)

	res, err := d.SendWithFailover(context.Background(), domain.ChannelEmail, "", emailMessage())
	if err != nil {
		t.Fatalf("exhaustion should not return a transport error, got: %v", err)
	}
	if res.Success {
		t.Fatal("dispatch should have failed")
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if res.Error == "" {
		t.Error("exhausted dispatch should carry the last error")
	}
}

func TestFailoverSkipsProvidersThatCannotSend(t *testing.T) {
	p1 := &fakeProvider{id: "p1", typ: domain.ProviderMailgun, channel: domain.ChannelEmail, priority: 1, active: true, sendable: false, succeed: true}
	p2 := &fakeProvider{id: "p2", typ: domain.ProviderSendGrid, channel: domain.ChannelEmail, priority: 2, active: true, sendable: true, succeed: true}
	d := dispatcherFixture(t, 0, p1, p2)

	res, err := d.SendWithFailover(context.Background(), domain.ChannelEmail, "", emailMessage())
	if err != nil {
		t.Fatalf("SendWithFailover returned error: %v", err)
	}
	if res.Provider != domain.ProviderSendGrid {
		t.Errorf("winning provider = %s, want sendgrid", res.Provider)
	}
	if p1.sendCount() != 0 {
		t.Error("gated provider was attempted")
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (skips are not attempts)", res.Attempts)
	}
}

// stubVendor is a minimal Base-backed provider whose raw send always
// succeeds, so the real gate and stats paths are exercised.
type stubVendor struct{ *Base }

func (v *stubVendor) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return v.Result("stub-id", 0), nil
}

func (v *stubVendor) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return v.Checked(ctx, msg, v.Send)
}

func (v *stubVendor) TestConnection(context.Context) bool { return true }

func TestFailoverConsumesOneRateLimitTokenPerDispatch(t *testing.T) {
	limiter, _ := newTestLimiter(t)

	cfg := testConfig(domain.ProviderSendGrid, domain.ChannelEmail, 1)
	cfg.RateLimit.MaxPerMinute = 3

	reg := NewRegistry(
		NewResolver(nil, []domain.ProviderConfig{cfg}),
		limiter,
		map[domain.Channel]map[domain.ProviderType]Constructor{
			domain.ChannelEmail: {
				domain.ProviderSendGrid: func(c domain.ProviderConfig, l RateLimiter) (Provider, error) {
					return &stubVendor{Base: NewBase(c, l)}, nil
				},
			},
		},
	)
	d := NewDispatcher(reg, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := d.SendWithFailover(ctx, domain.ChannelEmail, "", emailMessage())
		if err != nil {
			t.Fatalf("dispatch %d returned error: %v", i+1, err)
		}
		if !res.Success {
			t.Fatalf("dispatch %d failed under a limit of 3/min: %s", i+1, res.Error)
		}
	}

	res, err := d.SendWithFailover(ctx, domain.ChannelEmail, "", emailMessage())
	if err != nil {
		t.Fatalf("fourth dispatch returned error: %v", err)
	}
	if res.Success {
		t.Error("fourth dispatch in the same minute should be throttled")
	}
	if res.Attempts != 0 {
		t.Errorf("attempts = %d, a throttled provider is skipped, not attempted", res.Attempts)
	}
}

func TestFailoverNoProvidersIsAnError(t *testing.T) {
	d := dispatcherFixture(t, 0)

	res, err := d.SendWithFailover(context.Background(), domain.ChannelEmail, "", emailMessage())
	if err == nil {
		t.Fatal("empty provider list should return an error")
	}
	if res == nil || res.Success {
		t.Fatal("empty provider list should yield an unsuccessful result")
	}
}
