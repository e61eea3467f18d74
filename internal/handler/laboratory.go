package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labmate/labmate/internal/repository"
	"github.com/labmate/labmate/internal/service"
	"github.com/labmate/labmate/internal/timegrid"
)

// LaboratoryHandler serves the public browse endpoints: the room
// catalog and the per-day seat map used by the booking page.
type LaboratoryHandler struct {
	Labs *repository.LaboratoryRepo
	Svc  *service.ReservationService
	Loc  *time.Location
}

// NewLaboratoryHandler constructs a LaboratoryHandler.
func NewLaboratoryHandler(labs *repository.LaboratoryRepo, svc *service.ReservationService, loc *time.Location) *LaboratoryHandler {
	if labs == nil || svc == nil {
		panic("nil dependency passed to NewLaboratoryHandler")
	}
	return &LaboratoryHandler{Labs: labs, Svc: svc, Loc: loc}
}

type laboratoryResp struct {
	ID       uint64 `json:"id"`
	Hall     string `json:"hall"`
	Room     string `json:"room"`
	Capacity int    `json:"capacity"`
}

// List handles GET /v1/laboratories.
func (h *LaboratoryHandler) List(c echo.Context) error {
	labs, err := h.Labs.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]laboratoryResp, 0, len(labs))
	for _, lab := range labs {
		out = append(out, laboratoryResp{ID: lab.ID, Hall: lab.Hall, Room: lab.Room, Capacity: lab.Capacity})
	}
	return c.JSON(http.StatusOK, echo.Map{"laboratories": out})
}

type seatOccupancy struct {
	SeatNumber int          `json:"seat_number"`
	Windows    []seatWindow `json:"windows"`
}

type seatWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Seats handles GET /v1/laboratories/:room/seats?date=YYYY-MM-DD. It
// returns the grid labels plus, per seat, the occupied windows for that
// day, which is everything the booking page needs to paint the seat map.
func (h *LaboratoryHandler) Seats(c echo.Context) error {
	room := c.Param("room")
	lab, err := h.Labs.FindByRoom(c.Request().Context(), room)
	if err != nil {
		if errors.Is(err, repository.ErrLabNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "laboratory not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	date, err := parseDate(c.QueryParam("date"), h.Loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	rs, err := h.Svc.ListForRoomAndDate(c.Request().Context(), lab.Room, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	bySeat := make(map[int][]seatWindow)
	for _, r := range rs {
		bySeat[r.SeatNumber] = append(bySeat[r.SeatNumber], seatWindow{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	seats := make([]seatOccupancy, 0, lab.Capacity)
	for n := 1; n <= lab.Capacity; n++ {
		windows := bySeat[n]
		if windows == nil {
			windows = []seatWindow{}
		}
		seats = append(seats, seatOccupancy{SeatNumber: n, Windows: windows})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"room":  lab.Room,
		"hall":  lab.Hall,
		"date":  date.Format("2006-01-02"),
		"slots": timegrid.Slots(),
		"seats": seats,
	})
}
