// Package rategate enforces the per-user submission cooldown.
package rategate

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CooldownStore keeps the last submission timestamp per user.
type CooldownStore interface {
	LastSubmission(ctx context.Context, telegramID int64) (time.Time, bool, error)
	SetLastSubmission(ctx context.Context, telegramID int64, at time.Time) error
}

// WindowSource supplies the current cooldown window. A zero or negative
// window disables the gate.
type WindowSource interface {
	RateLimitWindow() time.Duration
}

type Service struct {
	store  CooldownStore
	window WindowSource
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store CooldownStore, window WindowSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// MaySubmit reports whether the user is outside the cooldown window and,
// when blocked, how long the configured window is. A store failure blocks
// the submission: letting a flood through is worse than delaying one user.
func (s *Service) MaySubmit(ctx context.Context, telegramID int64) (bool, time.Duration, error) {
	window := s.window.RateLimitWindow()
	if window <= 0 {
		return true, 0, nil
	}

	last, found, err := s.store.LastSubmission(ctx, telegramID)
	if err != nil {
		s.logger.Error("read cooldown", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return false, window, err
	}
	if !found {
		return true, 0, nil
	}
	if s.now().Sub(last) >= window {
		return true, 0, nil
	}
	return false, window, nil
}

// RecordSubmission stamps the user's cooldown. Every accepted-for-checks
// submission is stamped, including ones later rejected by the profanity
// filter.
func (s *Service) RecordSubmission(ctx context.Context, telegramID int64) error {
	return s.store.SetLastSubmission(ctx, telegramID, s.now())
}
