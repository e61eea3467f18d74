package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/queue"
	"github.com/labmate/labmate/internal/repository"
	"github.com/labmate/labmate/internal/schedule"
	"github.com/labmate/labmate/internal/timegrid"
)

var manila = time.FixedZone("UTC+8", 8*3600)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeStore is an in-memory ReservationStore that enforces the same
// compound unique slot key as the MySQL schema.
type fakeStore struct {
	byID      map[string]model.Reservation
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]model.Reservation{}}
}

func slotKey(r model.Reservation) string {
	return fmt.Sprintf("%s|%d|%s|%s",
		r.LaboratoryRoom, r.SeatNumber, r.ReservationDate.Format("2006-01-02"), r.StartTime)
}

func (s *fakeStore) Insert(ctx context.Context, res *model.Reservation) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, other := range s.byID {
		if slotKey(other) == slotKey(*res) {
			return repository.ErrDuplicateSlot
		}
	}
	s.byID[res.ID] = *res
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (s *fakeStore) FindByRoomAndDate(ctx context.Context, room string, date time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.byID {
		if r.LaboratoryRoom == room && sameDay(r.ReservationDate, date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.byID {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) FindAll(ctx context.Context) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.byID {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	return true, nil
}

func (s *fakeStore) UpdateDisplayFields(ctx context.Context, id string, studentName *string, isAnonymous *bool) error {
	r, ok := s.byID[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if studentName != nil {
		r.StudentName = *studentName
	}
	if isAnonymous != nil {
		r.IsAnonymous = *isAnonymous
	}
	s.byID[id] = r
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type fakeLabs struct{ byRoom map[string]model.Laboratory }

func (f fakeLabs) FindByRoom(ctx context.Context, room string) (*model.Laboratory, error) {
	lab, ok := f.byRoom[room]
	if !ok {
		return nil, repository.ErrLabNotFound
	}
	return &lab, nil
}

type fakeUsers struct{ byID map[uint64]model.User }

func (f fakeUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func newService(t *testing.T) (*ReservationService, *fakeStore, *[]queue.ReservationEvent) {
	t.Helper()
	store := newFakeStore()
	labs := fakeLabs{byRoom: map[string]model.Laboratory{
		"GK404B": {ID: 1, Hall: "Gokongwei", Room: "GK404B", Capacity: 30},
	}}
	users := fakeUsers{byID: map[uint64]model.User{
		42: {ID: 42, FirstName: "Ana", LastName: "Reyes", Role: "STUDENT"},
		7:  {ID: 7, FirstName: "Luis", LastName: "Tan", Role: "STUDENT"},
	}}
	events := &[]queue.ReservationEvent{}
	publish := func(ctx context.Context, ev queue.ReservationEvent) error {
		*events = append(*events, ev)
		return nil
	}
	now := time.Date(2025, 3, 18, 14, 0, 0, 0, manila)
	svc := NewReservationService(store, labs, users, fixedClock{now}, manila, zap.NewNop(), publish)
	return svc, store, events
}

func bookingParams() CreateParams {
	return CreateParams{
		Room:       "GK404B",
		Date:       time.Date(2025, 3, 20, 0, 0, 0, 0, manila),
		SeatNumber: 3,
		StartTime:  "9:00 A.M.",
		EndTime:    "10:00 A.M.",
		UserID:     42,
	}
}

func TestCreateBasicBooking(t *testing.T) {
	svc, store, events := newService(t)

	res, err := svc.Create(context.Background(), bookingParams())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Ana Reyes", res.StudentName)
	assert.Equal(t, "GK404B", res.LaboratoryRoom)
	// Labels are stored in canonical form.
	assert.Equal(t, "09:00 A.M.", res.StartTime)
	assert.Equal(t, "10:00 A.M.", res.EndTime)
	assert.Equal(t, time.Date(2025, 3, 18, 14, 0, 0, 0, manila), res.BookingDate)
	assert.Len(t, store.byID, 1)

	require.Len(t, *events, 1)
	assert.Equal(t, queue.KindCreated, (*events)[0].Kind)
	assert.Equal(t, "Ana Reyes", (*events)[0].StudentName)
}

func TestCreateDirectConflict(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingParams())
	require.NoError(t, err)

	p := bookingParams()
	p.UserID = 7
	_, err = svc.Create(ctx, p)
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "GK404B", conflict.Room)
	assert.Equal(t, 3, conflict.SeatNumber)
	assert.Equal(t, "09:00 A.M.", conflict.StartTime)
	assert.Equal(t, "10:00 A.M.", conflict.EndTime)
	assert.Contains(t, conflict.Error(), "2025-03-20")
}

func TestCreateAdjacentBookingAllowed(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingParams())
	require.NoError(t, err)

	p := bookingParams()
	p.UserID = 7
	p.StartTime = "10:00 A.M."
	p.EndTime = "10:30 A.M."
	_, err = svc.Create(ctx, p)
	require.NoError(t, err)
	assert.Len(t, store.byID, 2)
}

func TestCreateDuplicateKeyBackstop(t *testing.T) {
	// Two racing requests both pass the in-memory check; the store's
	// unique key rejects the second insert, which must surface as the
	// same precise conflict error.
	svc, store, _ := newService(t)
	store.insertErr = repository.ErrDuplicateSlot

	_, err := svc.Create(context.Background(), bookingParams())
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 3, conflict.SeatNumber)
}

func TestCreateValidationFailures(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	p := bookingParams()
	p.Room = "NOPE"
	_, err := svc.Create(ctx, p)
	assert.ErrorIs(t, err, ErrUnknownRoom)

	p = bookingParams()
	p.UserID = 999
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, ErrUnknownUser)

	p = bookingParams()
	p.SeatNumber = 31 // capacity is 30
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, ErrSeatOutOfRange)

	p = bookingParams()
	p.SeatNumber = 0
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, ErrSeatOutOfRange)

	p = bookingParams()
	p.StartTime = "late morning"
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, timegrid.ErrInvalidTimeLabel)

	p = bookingParams()
	p.StartTime, p.EndTime = p.EndTime, p.StartTime
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, schedule.ErrInvalidTimeRange)
}

func TestCreateAnonymousKeepsOwnership(t *testing.T) {
	svc, store, events := newService(t)
	p := bookingParams()
	p.IsAnonymous = true

	res, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	// Ownership is recorded regardless; only presentation hides the name.
	assert.Equal(t, uint64(42), store.byID[res.ID].UserID)
	assert.Equal(t, "Ana Reyes", store.byID[res.ID].StudentName)
	require.Len(t, *events, 1)
	assert.Empty(t, (*events)[0].StudentName)
}

func TestCancel(t *testing.T) {
	svc, store, events := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, bookingParams())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, res.ID))
	assert.Empty(t, store.byID)
	require.Len(t, *events, 2)
	assert.Equal(t, queue.KindCancelled, (*events)[1].Kind)

	assert.ErrorIs(t, svc.Cancel(ctx, res.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(ctx, "missing"), ErrNotFound)
}

func TestCheckAvailabilityIdempotent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingParams())
	require.NoError(t, err)

	date := time.Date(2025, 3, 20, 0, 0, 0, 0, manila)
	first, err := svc.CheckAvailability(ctx, "GK404B", date, 3, "09:30 A.M.", "10:30 A.M.")
	require.NoError(t, err)
	second, err := svc.CheckAvailability(ctx, "GK404B", date, 3, "09:30 A.M.", "10:30 A.M.")
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, first, second)

	free, err := svc.CheckAvailability(ctx, "GK404B", date, 4, "09:30 A.M.", "10:30 A.M.")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestValidEndTimesNarrowing(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	p := bookingParams()
	p.SeatNumber = 5
	p.StartTime = "1:00 P.M."
	p.EndTime = "2:00 P.M."
	_, err := svc.Create(ctx, p)
	require.NoError(t, err)

	date := time.Date(2025, 3, 20, 0, 0, 0, 0, manila)
	got, err := svc.ValidEndTimes(ctx, "GK404B", date, 5, "11:00 A.M.")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:30 A.M.", "12:00 P.M.", "12:30 P.M.", "01:00 P.M."}, got)
}

func TestListForUserSorted(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	mar21 := time.Date(2025, 3, 21, 0, 0, 0, 0, manila)
	windows := []struct {
		date       time.Time
		start, end string
		seat       int
	}{
		{mar21, "02:00 P.M.", "03:00 P.M.", 1},
		{bookingParams().Date, "10:00 A.M.", "11:00 A.M.", 2},
		{bookingParams().Date, "08:00 A.M.", "09:00 A.M.", 3},
		{mar21, "07:30 A.M.", "08:00 A.M.", 4},
	}
	for _, w := range windows {
		p := bookingParams()
		p.Date, p.StartTime, p.EndTime, p.SeatNumber = w.date, w.start, w.end, w.seat
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	got, err := svc.ListForUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "08:00 A.M.", got[0].StartTime)
	assert.Equal(t, "10:00 A.M.", got[1].StartTime)
	assert.Equal(t, "07:30 A.M.", got[2].StartTime)
	assert.Equal(t, "02:00 P.M.", got[3].StartTime)
}

func TestUpdateDisplayFields(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, bookingParams())
	require.NoError(t, err)

	anon := true
	require.NoError(t, svc.UpdateDisplayFields(ctx, res.ID, nil, &anon))
	assert.True(t, store.byID[res.ID].IsAnonymous)
	// The window is untouched by the escape hatch.
	assert.Equal(t, "09:00 A.M.", store.byID[res.ID].StartTime)

	assert.ErrorIs(t, svc.UpdateDisplayFields(ctx, "missing", nil, &anon), ErrNotFound)
}

func TestPurgeNotifierEmitsExpiredEvents(t *testing.T) {
	svc, _, events := newService(t)
	notify := svc.PurgeNotifier()
	notify(context.Background(), model.Reservation{
		ID:             "r1",
		UserID:         42,
		StudentName:    "Ana Reyes",
		LaboratoryRoom: "GK404B",
		SeatNumber:     3,
	})
	require.Len(t, *events, 1)
	assert.Equal(t, queue.KindExpired, (*events)[0].Kind)
}
