package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"docportal/internal/logging"
	"docportal/internal/repository"
)

// DefaultSweepSchedule runs the session sweep hourly.
const DefaultSweepSchedule = "@every 1h"

// SessionSweeper periodically deletes expired login sessions.
type SessionSweeper struct {
	sessions repository.SessionRepository
	log      *logging.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewSessionSweeper parses schedule (standard cron or "@every" descriptors) and registers the sweep job.
func NewSessionSweeper(sessions repository.SessionRepository, log *logging.Logger, schedule string) (*SessionSweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	s := &SessionSweeper{
		sessions: sessions,
		log:      log.With(map[string]any{"component": "session_sweeper"}),
		cron:     cron.New(cron.WithLocation(log.Location())),
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *SessionSweeper) Start() {
	s.cron.Start()
	s.log.Info("session_sweeper_started", nil)
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to expire.
func (s *SessionSweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce deletes every session expired at the current time and returns how many were removed.
func (s *SessionSweeper) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("session_sweep_failed", err, nil)
		return 0, err
	}
	s.log.Info("session_sweep", map[string]any{
		"deleted":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return n, nil
}
