package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/model"
)

// fakeClock returns a fixed instant.
type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

// memStore is an in-memory SweepStore. Ids listed in failing return an
// error from DeleteByID.
type memStore struct {
	byID    map[string]model.Reservation
	failing map[string]bool
	listErr error
	deleted []string
}

func newMemStore(rs ...model.Reservation) *memStore {
	s := &memStore{byID: map[string]model.Reservation{}, failing: map[string]bool{}}
	for _, r := range rs {
		s.byID[r.ID] = r
	}
	return s
}

func (s *memStore) FindAll(ctx context.Context) ([]model.Reservation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.Reservation, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if s.failing[id] {
		return false, errors.New("store unavailable")
	}
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return true, nil
}

func sweepRes(id string, day time.Time, start, end string) model.Reservation {
	return model.Reservation{ID: id, SeatNumber: 1, ReservationDate: day, StartTime: start, EndTime: end}
}

func TestSweepOnceRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, manila)
	yesterday := time.Date(2025, 3, 19, 0, 0, 0, 0, manila)
	today := time.Date(2025, 3, 20, 0, 0, 0, 0, manila)

	store := newMemStore(
		sweepRes("old", yesterday, "09:00 A.M.", "05:00 P.M."),
		sweepRes("soon", today, "09:30 A.M.", "10:30 A.M."), // still running
		sweepRes("later", today, "02:00 P.M.", "03:00 P.M."),
	)
	sw := NewSweeper(store, fakeClock{now}, manila, 30*time.Minute, zap.NewNop())

	removed := sw.SweepOnce(context.Background())
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"old"}, store.deleted)
	assert.Len(t, store.byID, 2)
}

func TestSweepOnceSurvivesPerRecordFailures(t *testing.T) {
	now := time.Date(2025, 3, 21, 10, 0, 0, 0, manila)
	yesterday := time.Date(2025, 3, 20, 0, 0, 0, 0, manila)

	store := newMemStore(
		sweepRes("a", yesterday, "09:00 A.M.", "10:00 A.M."),
		sweepRes("b", yesterday, "10:00 A.M.", "11:00 A.M."),
		sweepRes("c", yesterday, "11:00 A.M.", "12:00 P.M."),
	)
	store.failing["b"] = true
	sw := NewSweeper(store, fakeClock{now}, manila, 30*time.Minute, zap.NewNop())

	removed := sw.SweepOnce(context.Background())
	assert.Equal(t, 2, removed)
	assert.ElementsMatch(t, []string{"a", "c"}, store.deleted)
	// The failed record is retried on the next run.
	assert.Contains(t, store.byID, "b")
}

func TestSweepOnceFetchFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("connection refused")
	sw := NewSweeper(store, fakeClock{time.Now()}, manila, 30*time.Minute, zap.NewNop())

	// Must not panic or propagate; the next scheduled run proceeds.
	assert.Zero(t, sw.SweepOnce(context.Background()))
}

func TestSweepOnceNotifiesOnPurged(t *testing.T) {
	now := time.Date(2025, 3, 21, 10, 0, 0, 0, manila)
	yesterday := time.Date(2025, 3, 20, 0, 0, 0, 0, manila)
	store := newMemStore(sweepRes("gone", yesterday, "09:00 A.M.", "10:00 A.M."))
	sw := NewSweeper(store, fakeClock{now}, manila, 30*time.Minute, zap.NewNop())

	var purged []string
	sw.OnPurged = func(ctx context.Context, r model.Reservation) {
		purged = append(purged, r.ID)
	}
	sw.SweepOnce(context.Background())
	assert.Equal(t, []string{"gone"}, purged)
}

func TestNextBoundary(t *testing.T) {
	cases := []struct {
		now, want time.Time
	}{
		{
			time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 3, 20, 10, 12, 0, 0, time.UTC),
			time.Date(2025, 3, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 3, 20, 10, 30, 0, 1, time.UTC),
			time.Date(2025, 3, 20, 11, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 3, 20, 23, 50, 0, 0, time.UTC),
			time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		got := NextBoundary(tc.now)
		assert.Equal(t, tc.want, got, tc.now)
		assert.True(t, got.After(tc.now))
		min := got.Minute()
		assert.True(t, min == 0 || min == 30)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newMemStore()
	sw := NewSweeper(store, RealClock{}, manila, 30*time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
	require.NotNil(t, sw)
}
