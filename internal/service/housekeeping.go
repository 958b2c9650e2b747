package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/store"
)

// smsUsageRetention is how many closed months of SMS counters are kept for
// the admin overview before housekeeping drops them.
const smsUsageRetention = 3

// HousekeepingService is the background worker enforcing data retention:
// allergy data must never outlive its auto_delete_at, and stale sms_usage
// counters from closed months are dropped.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. An interval of zero or less
// defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup so restarts never extend retention.
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one cleanup pass. Each deletion is independent; one failing
// does not stop the others.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := time.Now()

	purged, err := s.Store.AllergyData().DeleteExpiredAllergyData(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired allergy data", "error", err)
	} else if purged > 0 {
		s.Logger.Info("deleted expired allergy data", "rows", purged)
	}

	cutoff := domain.MonthKey(now.AddDate(0, -smsUsageRetention, 0))
	if err := s.Store.SmsUsage().DeleteSmsUsageBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to delete stale sms usage", "error", err)
	}
}
