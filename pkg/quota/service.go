package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/logger"
)

// Config holds quota settings loaded from the environment.
type Config struct {
	// FreeDailyLimit is the number of AI requests a free user gets per UTC day.
	FreeDailyLimit int `env:"MAX_FREE_USES_PER_DAY" envDefault:"3"`
}

// Service gates AI requests behind the per-day free-tier allowance.
type Service interface {
	// Remaining returns how many requests the user has left today.
	// Unlimited is true for users with active paid access; Left is
	// meaningless in that case.
	Remaining(ctx context.Context, userID string) (Allowance, error)

	// Consume takes one request slot. It returns ErrExhausted when the
	// user's daily allowance is spent, without consuming anything a paid
	// user would notice.
	Consume(ctx context.Context, userID string) error
}

// Allowance is the result of a quota check.
type Allowance struct {
	Unlimited bool `json:"unlimited"`
	Left      int  `json:"left"`
	Limit     int  `json:"limit"`
}

type service struct {
	store account.Store
	limit int
	log   *slog.Logger
	now   func() time.Time
}

// Option configures optional service settings.
type Option func(*service)

// WithLogger sets the service logger. Without it, logging is discarded.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a quota service. Panics on a nil store or a non-positive
// limit to fail fast during initialization.
func NewService(store account.Store, cfg Config, opts ...Option) Service {
	if store == nil {
		panic("quota: account store is required")
	}
	if cfg.FreeDailyLimit <= 0 {
		panic(fmt.Sprintf("quota: daily limit must be positive, got %d", cfg.FreeDailyLimit))
	}

	s := &service{
		store: store,
		limit: cfg.FreeDailyLimit,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Remaining(ctx context.Context, userID string) (Allowance, error) {
	if userID == "" {
		return Allowance{}, ErrMissingUserID
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return Allowance{}, err
	}

	now := s.now()
	if rec.HasActiveAccess(now) {
		return Allowance{Unlimited: true, Limit: s.limit}, nil
	}

	left := s.limit
	if rec.Usage.Date == account.DayKey(now) {
		left = s.limit - rec.Usage.Count
		if left < 0 {
			left = 0
		}
	}
	return Allowance{Left: left, Limit: s.limit}, nil
}

// Consume reserves one request slot via a conditional increment keyed by the
// current day. When the stored counter belongs to a previous day it is reset
// first and the increment retried; a concurrent day roll surfaces as a single
// extra round trip, never as a lost or double-counted request.
func (s *service) Consume(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	if rec.HasActiveAccess(now) {
		return nil
	}

	day := account.DayKey(now)
	if rec.Usage.Date != day {
		if err := s.store.ResetUsage(ctx, userID, day); err != nil {
			return fmt.Errorf("failed to reset usage counter: %w", err)
		}
	}

	_, err = s.store.IncrementUsage(ctx, userID, day, s.limit)
	if errors.Is(err, account.ErrUsageDayMismatch) {
		// Another request rolled the day between our read and the increment.
		if err := s.store.ResetUsage(ctx, userID, day); err != nil {
			return fmt.Errorf("failed to reset usage counter: %w", err)
		}
		_, err = s.store.IncrementUsage(ctx, userID, day, s.limit)
	}
	if errors.Is(err, account.ErrUsageExhausted) {
		s.log.InfoContext(ctx, "daily limit reached", logger.UserID(userID), slog.Int("limit", s.limit))
		return ErrExhausted
	}
	return err
}
