package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/schedule"
	"github.com/labmate/labmate/internal/service"
	"github.com/labmate/labmate/internal/timegrid"
)

// ReservationHandler exposes booking, cancellation and listing
// endpoints over the ReservationService. The clock and location are the
// same ones the service uses so the status shown in responses agrees
// with what the sweep will do.
type ReservationHandler struct {
	Svc   *service.ReservationService
	Clock schedule.Clock
	Loc   *time.Location
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService, clock schedule.Clock, loc *time.Location) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc, Clock: clock, Loc: loc}
}

// ----- DTOs -----

type createReservationReq struct {
	Lab         string `json:"lab"`
	Date        string `json:"date"` // YYYY-MM-DD
	SeatNumber  int    `json:"seat_number"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type walkInReservationReq struct {
	createReservationReq
	StudentID uint64 `json:"student_id"`
}

type availabilityReq struct {
	Lab        string `json:"lab"`
	Date       string `json:"date"`
	SeatNumber int    `json:"seat_number"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type endTimesReq struct {
	Lab        string `json:"lab"`
	Date       string `json:"date"`
	SeatNumber int    `json:"seat_number"`
	StartTime  string `json:"start_time"`
}

type patchReservationReq struct {
	StudentName *string `json:"student_name"`
	IsAnonymous *bool   `json:"is_anonymous"`
}

type reservationResp struct {
	ID              string    `json:"id"`
	StudentName     string    `json:"student_name"`
	LaboratoryRoom  string    `json:"laboratory_room"`
	SeatNumber      int       `json:"seat_number"`
	IsAnonymous     bool      `json:"is_anonymous"`
	BookingDate     time.Time `json:"booking_date"`
	ReservationDate string    `json:"reservation_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Status          string    `json:"status"`
}

func (h *ReservationHandler) toResp(r model.Reservation) reservationResp {
	name := r.StudentName
	if r.IsAnonymous {
		name = "Anonymous"
	}
	return reservationResp{
		ID:              r.ID,
		StudentName:     name,
		LaboratoryRoom:  r.LaboratoryRoom,
		SeatNumber:      r.SeatNumber,
		IsAnonymous:     r.IsAnonymous,
		BookingDate:     r.BookingDate,
		ReservationDate: r.ReservationDate.Format("2006-01-02"),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Status:          schedule.StateAt(r, h.Clock.Now(), h.Loc).String(),
	}
}

func (h *ReservationHandler) toResps(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, h.toResp(r))
	}
	return out
}

// writeServiceError maps typed service failures onto HTTP responses
// without losing the discriminating detail.
func writeServiceError(c echo.Context, err error) error {
	var conflict *service.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "seat already reserved",
			"message":     conflict.Error(),
			"room":        conflict.Room,
			"seat_number": conflict.SeatNumber,
			"date":        conflict.Date.Format("2006-01-02"),
			"start_time":  conflict.StartTime,
			"end_time":    conflict.EndTime,
		})
	case errors.Is(err, service.ErrUnknownRoom):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "laboratory not found"})
	case errors.Is(err, service.ErrUnknownUser):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, service.ErrSeatOutOfRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat number out of range"})
	case errors.Is(err, timegrid.ErrInvalidTimeLabel):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time label"})
	case errors.Is(err, schedule.ErrInvalidTimeRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end time must be after start time"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create handles POST /v1/reservations. The owner is always the
// authenticated caller; labtech bookings on behalf of a student go
// through CreateWalkIn.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	return h.create(c, req, userID)
}

// CreateWalkIn handles POST /v1/reservations/walk-in: a labtech books a
// seat for a student at the counter. Same conflict rules, different
// owner.
func (h *ReservationHandler) CreateWalkIn(c echo.Context) error {
	var req walkInReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StudentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id is required"})
	}
	return h.create(c, req.createReservationReq, req.StudentID)
}

func (h *ReservationHandler) create(c echo.Context, req createReservationReq, ownerID uint64) error {
	if req.Lab == "" || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lab, date, start_time and end_time are required"})
	}
	date, err := parseDate(req.Date, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	res, err := h.Svc.Create(c.Request().Context(), service.CreateParams{
		Room:        req.Lab,
		Date:        date,
		SeatNumber:  req.SeatNumber,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		UserID:      ownerID,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, h.toResp(*res))
}

// Cancel handles DELETE /v1/reservations/:id. Deletion is
// unconditional once the record is found: labtechs clear any booking,
// and ownership is deliberately not enforced here.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Svc.Cancel(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	res, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, h.toResp(*res))
}

// ListAll handles GET /v1/reservations (labtech overview).
func (h *ReservationHandler) ListAll(c echo.Context) error {
	rs, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": h.toResps(rs)})
}

// ListByUser handles GET /v1/users/:id/reservations, sorted
// chronologically for display grouping.
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	var userID uint64
	if err := echo.PathParamsBinder(c).Uint64("id", &userID).BindError(); err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	rs, err := h.Svc.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": h.toResps(rs)})
}

// ListByRoomAndDate handles GET /v1/laboratories/:room/reservations?date=.
// The booking page polls this to grey out taken slots and to narrow
// end-time choices.
func (h *ReservationHandler) ListByRoomAndDate(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"), h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	rs, err := h.Svc.ListForRoomAndDate(c.Request().Context(), c.Param("room"), date)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": h.toResps(rs)})
}

// Availability handles POST /v1/availability: the
// read-only predicate form of the conflict check, with a message the UI
// can show directly.
func (h *ReservationHandler) Availability(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, err := parseDate(req.Date, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	free, err := h.Svc.CheckAvailability(c.Request().Context(), req.Lab, date, req.SeatNumber, req.StartTime, req.EndTime)
	if err != nil {
		return writeServiceError(c, err)
	}
	msg := "seat is available"
	if !free {
		msg = "seat is already reserved for that time"
	}
	return c.JSON(http.StatusOK, echo.Map{"available": free, "message": msg})
}

// EndTimes handles POST /v1/availability/end-times: given a chosen
// start slot, return the end-time labels that do not collide with a
// later booking on the same seat. An empty list is a valid answer; the
// UI renders a "no available end times" state.
func (h *ReservationHandler) EndTimes(c echo.Context) error {
	var req endTimesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, err := parseDate(req.Date, h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	labels, err := h.Svc.ValidEndTimes(c.Request().Context(), req.Lab, date, req.SeatNumber, req.StartTime)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"end_times": labels})
}

// Patch handles PATCH /v1/reservations/:id, the labtech escape hatch
// for display fields. The time window is immutable; rebooking is
// delete-and-recreate.
func (h *ReservationHandler) Patch(c echo.Context) error {
	var req patchReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StudentName == nil && req.IsAnonymous == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if err := h.Svc.UpdateDisplayFields(c.Request().Context(), c.Param("id"), req.StudentName, req.IsAnonymous); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
