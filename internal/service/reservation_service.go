// Package service orchestrates reservation creation and cancellation on
// top of the scheduling engine and the persistent store.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/queue"
	"github.com/labmate/labmate/internal/repository"
	"github.com/labmate/labmate/internal/schedule"
	"github.com/labmate/labmate/internal/timegrid"
)

// ReservationStore is the persistence surface the service needs.
// Implementations must return repository sentinel errors for missing
// records and repository.ErrDuplicateSlot for unique-key violations.
type ReservationStore interface {
	Insert(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByRoomAndDate(ctx context.Context, room string, date time.Time) ([]model.Reservation, error)
	FindByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	FindAll(ctx context.Context) ([]model.Reservation, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	UpdateDisplayFields(ctx context.Context, id string, studentName *string, isAnonymous *bool) error
}

// LaboratoryStore resolves room keys to laboratory records.
type LaboratoryStore interface {
	FindByRoom(ctx context.Context, room string) (*model.Laboratory, error)
}

// UserDirectory resolves user ids to accounts for display-name snapshots.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// PublishFunc delivers a lifecycle event to the broker. Publishing is
// best-effort: failures are logged, never surfaced to the caller.
type PublishFunc func(ctx context.Context, event queue.ReservationEvent) error

// ReservationService orchestrates booking requests: it validates input,
// runs the conflict check as a fast path, persists through the store,
// and relies on the store's unique slot key as the concurrency
// backstop.
type ReservationService struct {
	reservations ReservationStore
	labs         LaboratoryStore
	users        UserDirectory
	clock        schedule.Clock
	loc          *time.Location
	logger       *zap.Logger
	publish      PublishFunc
}

// NewReservationService wires a ReservationService. publish may be nil
// to disable event publishing (tests, event-less deployments).
func NewReservationService(
	reservations ReservationStore,
	labs LaboratoryStore,
	users UserDirectory,
	clock schedule.Clock,
	loc *time.Location,
	logger *zap.Logger,
	publish PublishFunc,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		labs:         labs,
		users:        users,
		clock:        clock,
		loc:          loc,
		logger:       logger,
		publish:      publish,
	}
}

// CreateParams carries a booking request. UserID is always the concrete
// owner handed in by the caller; session resolution happens outside the
// service.
type CreateParams struct {
	Room        string
	Date        time.Time
	SeatNumber  int
	StartTime   string
	EndTime     string
	UserID      uint64
	IsAnonymous bool
}

// Create books a seat. It resolves the room and the owner, checks the
// candidate window against existing reservations for that room and day,
// and persists the new record with a display-name snapshot. A duplicate
// slot reported by the store is translated into the same SeatConflictError
// the fast path produces, so racing requests get a precise message too.
func (s *ReservationService) Create(ctx context.Context, p CreateParams) (*model.Reservation, error) {
	start, err := timegrid.Canonical(p.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := timegrid.Canonical(p.EndTime)
	if err != nil {
		return nil, err
	}

	lab, err := s.labs.FindByRoom(ctx, p.Room)
	if err != nil {
		if errors.Is(err, repository.ErrLabNotFound) {
			return nil, ErrUnknownRoom
		}
		return nil, err
	}
	if p.SeatNumber < 1 || p.SeatNumber > lab.Capacity {
		return nil, ErrSeatOutOfRange
	}

	owner, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	date := s.normalizeDate(p.Date)
	existing, err := s.reservations.FindByRoomAndDate(ctx, lab.Room, date)
	if err != nil {
		return nil, err
	}
	ok, err := schedule.IsAvailable(p.SeatNumber, start, end, existing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.conflict(lab.Room, p.SeatNumber, date, start, end)
	}

	res := &model.Reservation{
		ID:              uuid.NewString(),
		UserID:          owner.ID,
		StudentName:     owner.DisplayName(),
		LaboratoryRoom:  lab.Room,
		SeatNumber:      p.SeatNumber,
		IsAnonymous:     p.IsAnonymous,
		BookingDate:     s.clock.Now(),
		ReservationDate: date,
		StartTime:       start,
		EndTime:         end,
	}
	if err := s.reservations.Insert(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			// Lost the race between check and insert; the unique key held.
			return nil, s.conflict(lab.Room, p.SeatNumber, date, start, end)
		}
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("room", res.LaboratoryRoom),
		zap.Int("seat", res.SeatNumber),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("window", start+"-"+end))
	s.emit(ctx, queue.KindCreated, *res)
	return res, nil
}

// Cancel deletes a reservation unconditionally once found. Any
// authenticated actor may cancel any reservation; labtech walk-up
// cancellation is part of the workflow, so ownership is not enforced
// here.
func (s *ReservationService) Cancel(ctx context.Context, id string) error {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return ErrNotFound
		}
		return err
	}
	found, err := s.reservations.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	s.logger.Info("reservation cancelled", zap.String("reservation_id", id))
	s.emit(ctx, queue.KindCancelled, *res)
	return nil
}

// Get returns a reservation by id.
func (s *ReservationService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// ListForUser returns the user's reservations sorted ascending by
// (reservation date, start minutes, end minutes). Display grouping
// depends on chronological order within a day, so the sort runs in
// minute space, never on the label strings.
func (s *ReservationService) ListForUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	out, err := s.reservations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortChronologically(out)
	return out, nil
}

// ListAll returns every reservation, chronologically sorted. Labtech
// overview only.
func (s *ReservationService) ListAll(ctx context.Context) ([]model.Reservation, error) {
	out, err := s.reservations.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	SortChronologically(out)
	return out, nil
}

// ListForRoomAndDate returns the reservations occupying a room on a
// day, chronologically sorted. This feeds the seat-map view and the
// client-side end-time narrowing.
func (s *ReservationService) ListForRoomAndDate(ctx context.Context, room string, date time.Time) ([]model.Reservation, error) {
	out, err := s.reservations.FindByRoomAndDate(ctx, room, s.normalizeDate(date))
	if err != nil {
		return nil, err
	}
	SortChronologically(out)
	return out, nil
}

// CheckAvailability is the read-only predicate form of the conflict
// check, for pre-submit validation in the booking UI.
func (s *ReservationService) CheckAvailability(ctx context.Context, room string, date time.Time, seatNumber int, startTime, endTime string) (bool, error) {
	existing, err := s.reservations.FindByRoomAndDate(ctx, room, s.normalizeDate(date))
	if err != nil {
		return false, err
	}
	return schedule.IsAvailable(seatNumber, startTime, endTime, existing)
}

// ValidEndTimes returns the end-time labels still selectable after
// choosing startTime on the given seat. An empty slice means no valid
// end exists; the caller presents a "no available end times" state.
func (s *ReservationService) ValidEndTimes(ctx context.Context, room string, date time.Time, seatNumber int, startTime string) ([]string, error) {
	existing, err := s.reservations.FindByRoomAndDate(ctx, room, s.normalizeDate(date))
	if err != nil {
		return nil, err
	}
	return schedule.ValidEndTimes(seatNumber, startTime, existing)
}

// UpdateDisplayFields is the administrative escape hatch: it patches
// presentation fields only. The time window is immutable by design.
func (s *ReservationService) UpdateDisplayFields(ctx context.Context, id string, studentName *string, isAnonymous *bool) error {
	err := s.reservations.UpdateDisplayFields(ctx, id, studentName, isAnonymous)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ErrNotFound
	}
	return err
}

// SortChronologically orders reservations ascending by day, then start,
// then end, all in minute space. The sort is stable so records that
// share a window keep their fetch order.
func SortChronologically(rs []model.Reservation) {
	minutes := func(label string) int {
		m, err := timegrid.ToMinutes(label)
		if err != nil {
			return -1
		}
		return m
	}
	sort.SliceStable(rs, func(i, j int) bool {
		di, dj := dayKey(rs[i].ReservationDate), dayKey(rs[j].ReservationDate)
		if di != dj {
			return di < dj
		}
		si, sj := minutes(rs[i].StartTime), minutes(rs[j].StartTime)
		if si != sj {
			return si < sj
		}
		return minutes(rs[i].EndTime) < minutes(rs[j].EndTime)
	})
}

// dayKey collapses a date to a comparable integer using its own
// calendar day, avoiding zone conversion the same way expiry does.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// normalizeDate pins a date to midnight in the service's configured
// zone so day boundaries are consistent across call sites.
func (s *ReservationService) normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *ReservationService) conflict(room string, seat int, date time.Time, start, end string) error {
	return &SeatConflictError{
		Room:       room,
		SeatNumber: seat,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	}
}

// emit publishes a lifecycle event when a publisher is configured.
func (s *ReservationService) emit(ctx context.Context, kind string, res model.Reservation) {
	if s.publish == nil {
		return
	}
	name := res.StudentName
	if res.IsAnonymous {
		name = ""
	}
	ev := queue.ReservationEvent{
		Kind:           kind,
		ReservationID:  res.ID,
		UserID:         res.UserID,
		StudentName:    name,
		LaboratoryRoom: res.LaboratoryRoom,
		SeatNumber:     res.SeatNumber,
		Date:           res.ReservationDate.Format("2006-01-02"),
		StartTime:      res.StartTime,
		EndTime:        res.EndTime,
		OccurredAt:     s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		s.logger.Warn("publish reservation event failed",
			zap.String("kind", kind),
			zap.String("reservation_id", res.ID),
			zap.Error(err))
	}
}

// PurgeNotifier adapts the service's event publishing for the expiry
// sweep: plug it into Sweeper.OnPurged so purged reservations emit
// expiry events through the same pipeline.
func (s *ReservationService) PurgeNotifier() func(ctx context.Context, r model.Reservation) {
	return func(ctx context.Context, r model.Reservation) {
		s.emit(ctx, queue.KindExpired, r)
	}
}
