package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// Dispatcher sends a message through the first provider that accepts it,
// walking the priority-ordered provider list. The same failover contract
// applies to both channels.
type Dispatcher struct {
	registry       *Registry
	attemptTimeout time.Duration
}

// NewDispatcher creates a failover dispatcher. attemptTimeout bounds each
// individual provider attempt; zero disables the per-attempt deadline.
func NewDispatcher(registry *Registry, attemptTimeout time.Duration) *Dispatcher {
	return &Dispatcher{registry: registry, attemptTimeout: attemptTimeout}
}

// SendWithFailover snapshots the provider list once, then tries providers
// in ascending priority order. Providers failing CanSend are skipped;
// per-provider errors are logged and swallowed; the first success returns
// immediately tagged with the provider that handled it. Exhausting the
// list yields Success=false carrying the last error. The returned error is
// non-nil only when no provider could be attempted at all.
func (d *Dispatcher) SendWithFailover(ctx context.Context, ch domain.Channel, tenantID string, msg *domain.Message) (*domain.DispatchResult, error) {
	providers := d.registry.AllProviders(ctx, ch, tenantID)
	if len(providers) == 0 {
		return &domain.DispatchResult{
			Success: false,
			Error:   "no active providers configured",
		}, fmt.Errorf("%w: channel %s", ErrConfigNotFound, ch)
	}

	var lastErr error
	attempts := 0

	for _, p := range providers {
		if !p.CanSend(ctx) {
			logger.Debug("dispatch: provider cannot send, skipping",
				"provider", string(p.Type()), "channel", string(ch))
			continue
		}

		attempts++
		res, err := d.attempt(ctx, p, msg)
		if err == nil && res != nil && res.Success {
			return &domain.DispatchResult{
				Success:  true,
				Provider: p.Type(),
				Result:   res,
				Attempts: attempts,
			}, nil
		}

		if err == nil {
			err = fmt.Errorf("provider %s reported failure", p.Type())
		}
		lastErr = err
		logger.Warn("dispatch: provider attempt failed, trying next",
			"provider", string(p.Type()), "channel", string(ch), "error", err.Error())
	}

	if lastErr == nil {
		lastErr = ErrProviderUnavailable
	}
	return &domain.DispatchResult{
		Success:  false,
		Error:    lastErr.Error(),
		Attempts: attempts,
	}, nil
}

// attempt runs one provider send under the per-attempt deadline, mapping a
// deadline expiry to ErrTimedOut so hung vendors are distinguishable from
// rejecting ones.
func (d *Dispatcher) attempt(ctx context.Context, p Provider, msg *domain.Message) (*domain.SendResult, error) {
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}

	res, err := p.SendWithOptions(ctx, msg)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w: %s: %v", ErrTimedOut, p.Type(), err)
	}
	return res, err
}
