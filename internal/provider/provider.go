// Package provider implements the multi-vendor notification core: the
// provider contract, three-tier config resolution, the cached registry,
// the priority-ordered failover dispatcher, and per-provider rate limiting.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// Provider is the uniform contract every vendor implementation satisfies.
// Implementations must be safe for concurrent use.
type Provider interface {
	ID() string
	Name() string
	Type() domain.ProviderType
	Channel() domain.Channel
	Priority() int
	IsActive() bool
	Available() bool
	Source() domain.ConfigSource

	// CanSend reports whether the provider may attempt a send right now:
	// active, available, and within its rate limit. The rate-limit check
	// is a peek; the token is consumed when the send actually runs.
	CanSend(ctx context.Context) bool

	// Send performs the raw vendor call. Callers that want the canSend
	// gate, recipient normalization, and stats tracking use SendWithOptions.
	Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error)

	// SendWithOptions validates the message, fails fast when CanSend is
	// false, normalizes recipients, delegates to Send, and records stats
	// regardless of outcome.
	SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error)

	// TestConnection probes the vendor (account/balance endpoint) and
	// updates availability as a side effect.
	TestConnection(ctx context.Context) bool

	Stats() domain.ProviderStats
	ResetStats()
}

// Constructor builds a vendor provider from a resolved config.
type Constructor func(cfg domain.ProviderConfig, limiter RateLimiter) (Provider, error)

// Base carries the state and behavior shared by every vendor provider:
// config-derived identity, availability, the rate-limit gate, and stats.
// Vendor structs embed *Base and implement Send and TestConnection.
type Base struct {
	cfg     domain.ProviderConfig
	limiter RateLimiter

	mu           sync.Mutex
	availability domain.AvailabilityStatus
	stats        domain.ProviderStats
}

// NewBase creates the shared provider core for a resolved config.
func NewBase(cfg domain.ProviderConfig, limiter RateLimiter) *Base {
	if limiter == nil {
		limiter = NoopRateLimiter{}
	}
	return &Base{
		cfg:          cfg,
		limiter:      limiter,
		availability: domain.StatusAvailable,
	}
}

func (b *Base) ID() string                 { return b.cfg.ID }
func (b *Base) Name() string               { return b.cfg.Name }
func (b *Base) Type() domain.ProviderType  { return b.cfg.Type }
func (b *Base) Channel() domain.Channel    { return b.cfg.Channel }
func (b *Base) Priority() int              { return b.cfg.Priority }
func (b *Base) IsActive() bool             { return b.cfg.IsActive }
func (b *Base) Source() domain.ConfigSource   { return b.cfg.Source }
func (b *Base) Config() domain.ProviderConfig { return b.cfg }

// Available reports the current availability status.
func (b *Base) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.availability == domain.StatusAvailable
}

// MarkUnavailable flips the provider to unavailable. Called by vendor
// implementations on auth-class failures and failed connection tests.
func (b *Base) MarkUnavailable(reason string) {
	b.mu.Lock()
	b.availability = domain.StatusUnavailable
	b.mu.Unlock()
	logger.Warn("provider marked unavailable",
		"provider", string(b.cfg.Type), "reason", reason)
}

// MarkAvailable flips the provider back to available, typically after a
// successful connection test. There is no automatic recovery probe.
func (b *Base) MarkAvailable() {
	b.mu.Lock()
	b.availability = domain.StatusAvailable
	b.mu.Unlock()
}

// CanSend is the non-consuming probe: active flag, availability, and a
// rate-limit peek. A dispatch that passes CanSend and proceeds to send
// takes exactly one rate-limit token, inside Gate.
func (b *Base) CanSend(ctx context.Context) bool {
	if !b.cfg.IsActive || !b.Available() {
		return false
	}
	return b.limiter.Peek(ctx, b.cfg.Type, b.cfg.RateLimit.MaxPerMinute)
}

// Gate is the consuming check run on the send path: it records the
// attempt against the minute bucket and fails with ErrProviderUnavailable
// or ErrRateLimitExceeded.
func (b *Base) Gate(ctx context.Context) error {
	if !b.cfg.IsActive || !b.Available() {
		return ErrProviderUnavailable
	}
	if !b.limiter.Allow(ctx, b.cfg.Type, b.cfg.RateLimit.MaxPerMinute) {
		return ErrRateLimitExceeded
	}
	return nil
}

// Checked wraps a vendor send with validation, the canSend gate, recipient
// normalization, and stats recording. Vendor SendWithOptions methods
// delegate here with their own Send as the callback.
func (b *Base) Checked(ctx context.Context, msg *domain.Message, send func(context.Context, *domain.Message) (*domain.SendResult, error)) (*domain.SendResult, error) {
	if err := msg.Validate(b.cfg.Channel); err != nil {
		return b.failure(err), err
	}
	if err := b.Gate(ctx); err != nil {
		return b.failure(err), err
	}

	normalizeRecipients(msg, b.cfg.Channel)

	res, err := send(ctx, msg)
	if err != nil {
		b.recordFailure(err)
		if res == nil {
			res = b.failure(err)
		}
		return res, err
	}

	b.recordSuccess(res.Cost)
	return res, nil
}

// Result builds a successful SendResult for this provider.
func (b *Base) Result(messageID string, cost float64) *domain.SendResult {
	return &domain.SendResult{
		Success:   true,
		MessageID: messageID,
		Provider:  b.cfg.Type,
		Cost:      cost,
		QueuedAt:  time.Now().UTC(),
	}
}

func (b *Base) failure(err error) *domain.SendResult {
	return &domain.SendResult{
		Success:  false,
		Provider: b.cfg.Type,
		QueuedAt: time.Now().UTC(),
		Errors:   []string{err.Error()},
	}
}

func (b *Base) recordSuccess(cost float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Sent++
	b.stats.TotalCost += cost
	b.stats.LastSend = time.Now().UTC()
}

func (b *Base) recordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Failed++
	b.stats.LastError = err.Error()
}

// Stats returns a snapshot of the in-memory counters.
func (b *Base) Stats() domain.ProviderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// ResetStats zeroes the in-memory counters.
func (b *Base) ResetStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = domain.ProviderStats{}
}
