package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrQuotaExceeded is returned by Reserve when the user has no calls left this period.
var ErrQuotaExceeded = errors.New("usage limit exceeded")

// InsertFunc writes the reservation row inside the quota transaction.
type InsertFunc func(ctx context.Context, tx pgx.Tx) error

// Service decides whether a user may run a billable tool call.
type Service struct {
	store  Store
	limits Limits
	window *RateWindow
	now    func() time.Time
}

// NewService creates a new quota Service. window may be nil.
func NewService(store Store, limits Limits, window *RateWindow) *Service {
	return &Service{
		store:  store,
		limits: limits,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Tests use it to pin the period.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	if s.window != nil {
		s.window.now = now
	}
	return s
}

// ResolvePlan returns PRO when the user holds any active, unexpired subscription.
func (s *Service) ResolvePlan(ctx context.Context, userID uuid.UUID) (Plan, error) {
	return resolvePlan(ctx, s.store, userID, s.now())
}

// CountUsageThisPeriod counts generations since the start of the current calendar month.
func (s *Service) CountUsageThisPeriod(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountGenerationsSince(ctx, userID, MonthStart(s.now()))
}

// CanUseTool is a pure read of the user's current standing. It reserves nothing.
func (s *Service) CanUseTool(ctx context.Context, userID uuid.UUID) (Decision, error) {
	return s.check(ctx, s.store, userID)
}

// Reserve checks the quota and, if a call remains, runs insert under the same
// per-user lock so that concurrent callers cannot overshoot the limit.
// The returned Decision describes the state before the reservation.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, insert InsertFunc) (Decision, error) {
	var decision Decision
	err := s.store.InUserLock(ctx, userID, func(r Reader, tx pgx.Tx) error {
		d, err := s.check(ctx, r, userID)
		if err != nil {
			return err
		}
		decision = d
		if !d.Allowed {
			return ErrQuotaExceeded
		}
		return insert(ctx, tx)
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return decision, ErrQuotaExceeded
		}
		return Decision{}, fmt.Errorf("reserving quota: %w", err)
	}
	return decision, nil
}

// Usage returns the user's consumption for the usage endpoint.
func (s *Service) Usage(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	plan, err := s.ResolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.CountUsageThisPeriod(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Usage{Usage: used, Limit: s.limits.For(plan), Plan: plan}, nil
}

// RecordCall adds a completed call to the plan's rate window.
// Failures are logged; the window is informational.
func (s *Service) RecordCall(ctx context.Context, userID uuid.UUID, plan Plan) {
	if s.window == nil {
		return
	}
	if err := s.window.Record(ctx, userID, plan); err != nil {
		slog.Warn("quota: recording rate window failed", "error", err)
	}
}

// RateStatus reports the plan's short rate window for the user.
func (s *Service) RateStatus(ctx context.Context, userID uuid.UUID) (*RateStatus, error) {
	plan, err := s.ResolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.window == nil {
		win := windowFor(plan)
		return &RateStatus{Remaining: win.limit, Limit: win.limit, ResetAt: s.now().UTC(), Window: win.name}, nil
	}
	return s.window.Status(ctx, userID, plan)
}

func (s *Service) check(ctx context.Context, r Reader, userID uuid.UUID) (Decision, error) {
	now := s.now()
	plan, err := resolvePlan(ctx, r, userID, now)
	if err != nil {
		return Decision{}, err
	}
	used, err := r.CountGenerationsSince(ctx, userID, MonthStart(now))
	if err != nil {
		return Decision{}, err
	}
	return decide(plan, s.limits.For(plan), used), nil
}

func resolvePlan(ctx context.Context, r Reader, userID uuid.UUID, now time.Time) (Plan, error) {
	active, err := r.HasActiveSubscription(ctx, userID, now)
	if err != nil {
		return "", err
	}
	if active {
		return PlanPro, nil
	}
	return PlanFree, nil
}
