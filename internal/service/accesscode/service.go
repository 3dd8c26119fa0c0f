// Package accesscode issues and redeems one-time attendance check-in
// codes. PINs are short numeric codes an attendee types in; QR codes are
// opaque tokens embedded in a scannable image. Both are single-use and
// expire after a configured TTL.
package accesscode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// Redemption failure reasons. The API maps each to a distinct response so
// the check-in kiosk can tell the attendee what went wrong.
var (
	ErrNotFound    = errors.New("access code not found")
	ErrAlreadyUsed = errors.New("access code already used")
	ErrExpired     = errors.New("access code expired")
)

// Repository persists access codes. Consume must be atomic: of two
// concurrent redeemers, exactly one succeeds.
type Repository interface {
	Create(ctx context.Context, c *domain.AccessCode) error
	Consume(ctx context.Context, eventID string, kind domain.CodeKind, code, usedBy string) (*domain.AccessCode, error)
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
	CountByOrganization(ctx context.Context, orgID string) (issued, redeemed int, err error)
}

// Service issues, validates, and sweeps access codes.
type Service struct {
	repo       Repository
	pinLength  int
	ttl        time.Duration
	sweepChunk int
}

// NewService creates an access code service.
func NewService(repo Repository, pinLength int, ttl time.Duration, sweepChunk int) *Service {
	if pinLength <= 0 {
		pinLength = 6
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if sweepChunk <= 0 {
		sweepChunk = 100
	}
	return &Service{repo: repo, pinLength: pinLength, ttl: ttl, sweepChunk: sweepChunk}
}

// Issue creates a new code of the given kind for an event attendee.
// PINs are uniformly random digits; QR tokens are opaque UUIDs.
func (s *Service) Issue(ctx context.Context, eventID, orgID, userID string, kind domain.CodeKind) (*domain.AccessCode, error) {
	if eventID == "" {
		return nil, fmt.Errorf("access code requires an event id")
	}

	var code string
	switch kind {
	case domain.CodePIN:
		pin, err := randomPIN(s.pinLength)
		if err != nil {
			return nil, fmt.Errorf("generate pin: %w", err)
		}
		code = pin
	case domain.CodeQR:
		code = uuid.New().String()
	default:
		return nil, fmt.Errorf("unknown access code kind %q", kind)
	}

	c := &domain.AccessCode{
		ID:             uuid.New().String(),
		EventID:        eventID,
		OrganizationID: orgID,
		UserID:         userID,
		Kind:           kind,
		Code:           code,
		ExpiresAt:      time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate redeems a code. On success the code is consumed and cannot be
// redeemed again. Failures return ErrNotFound, ErrAlreadyUsed, or
// ErrExpired so the caller can report the exact reason.
func (s *Service) Validate(ctx context.Context, eventID string, kind domain.CodeKind, code, usedBy string) (*domain.AccessCode, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	return s.repo.Consume(ctx, eventID, kind, code, usedBy)
}

// Counts returns issued and redeemed totals for an organization.
func (s *Service) Counts(ctx context.Context, orgID string) (issued, redeemed int, err error) {
	return s.repo.CountByOrganization(ctx, orgID)
}

// SweepExpired deletes expired unused codes in chunks until none remain,
// returning the total removed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := s.repo.DeleteExpired(ctx, time.Now(), s.sweepChunk)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.sweepChunk {
			return total, nil
		}
	}
}

// RunSweep loops SweepExpired on the given interval until ctx is done.
// Intended to run in its own goroutine.
func (s *Service) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				logger.Warn("access code sweep failed", "error", err.Error())
				continue
			}
			if n > 0 {
				logger.Info("access code sweep", "removed", n)
			}
		}
	}
}

// randomPIN returns n uniformly random decimal digits. Each digit is drawn
// independently so leading zeros are as likely as any other digit.
func randomPIN(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
