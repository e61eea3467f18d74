package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/model"
)

// SweepStore is the slice of the reservation store the sweep needs:
// read everything, delete by id.
type SweepStore interface {
	FindAll(ctx context.Context) ([]model.Reservation, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Sweeper periodically scans the store and removes reservations whose
// window has passed. It never propagates failures: a run that cannot
// read the store logs and waits for the next tick, and a single
// record's failed delete does not stop the rest of that run.
type Sweeper struct {
	store    SweepStore
	clock    Clock
	loc      *time.Location
	interval time.Duration
	logger   *zap.Logger

	// OnPurged, when set, is invoked after each successful removal.
	// Used to publish expiry events; failures inside the callback are
	// the callback's problem.
	OnPurged func(ctx context.Context, r model.Reservation)
}

// NewSweeper builds a Sweeper. interval is the cadence between runs
// after alignment, normally 30 minutes.
func NewSweeper(store SweepStore, clock Clock, loc *time.Location, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{store: store, clock: clock, loc: loc, interval: interval, logger: logger}
}

// NextBoundary returns the first wall-clock half-hour mark (:00 or :30)
// strictly after now.
func NextBoundary(now time.Time) time.Time {
	b := now.Truncate(30 * time.Minute)
	if !b.After(now) {
		b = b.Add(30 * time.Minute)
	}
	return b
}

// Run executes the sweep loop until ctx is cancelled. It sweeps once
// immediately to catch up on anything that expired while the process
// was down, re-arms to the next wall-clock half-hour boundary so runs
// land at predictable :00/:30 times regardless of when the process
// started, then repeats on the configured interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.SweepOnce(ctx)

	now := s.clock.Now()
	boundary := NextBoundary(now)
	s.logger.Info("sweep armed",
		zap.Time("next_run", boundary),
		zap.Duration("interval", s.interval))

	timer := time.NewTimer(boundary.Sub(now))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	}
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("sweep stopped")
			return
		}
	}
}

// SweepOnce performs a single pass: fetch all reservations, delete the
// expired ones. Deletes are attempted independently so one bad record
// cannot shield the rest. Returns the number of reservations removed.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("sweep: fetch reservations failed", zap.Error(err))
		return 0
	}
	now := s.clock.Now()

	removed := 0
	for _, r := range all {
		if !IsExpired(r, now, s.loc) {
			continue
		}
		ok, err := s.store.DeleteByID(ctx, r.ID)
		if err != nil {
			s.logger.Warn("sweep: delete failed",
				zap.String("reservation_id", r.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			// Already gone, e.g. cancelled between fetch and delete.
			continue
		}
		removed++
		if s.OnPurged != nil {
			s.OnPurged(ctx, r)
		}
	}
	if removed > 0 {
		s.logger.Info("sweep removed expired reservations",
			zap.Int("removed", removed),
			zap.Int("scanned", len(all)))
	}
	return removed
}
