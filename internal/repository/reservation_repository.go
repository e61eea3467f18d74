package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/labmate/labmate/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// ReservationRepo provides CRUD operations for reservations. The
// reservations table carries a compound unique key on
// (laboratory_room, seat_number, reservation_date, start_time) so two
// concurrent creates for the same slot cannot both commit; Insert maps
// that violation to ErrDuplicateSlot.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, student_name, laboratory_room, seat_number,
	is_anonymous, booking_date, reservation_date, start_time, end_time`

// Insert stores a new reservation. The caller assigns the ID before
// calling. Returns ErrDuplicateSlot when the slot is already taken.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(id, user_id, student_name, laboratory_room, seat_number, is_anonymous,
		 booking_date, reservation_date, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.UserID, res.StudentName, res.LaboratoryRoom, res.SeatNumber,
		res.IsAnonymous, res.BookingDate.UTC(),
		res.ReservationDate.Format("2006-01-02"), res.StartTime, res.EndTime)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateSlot
		}
		return err
	}
	return nil
}

// FindByID returns a single reservation or ErrReservationNotFound.
func (r *ReservationRepo) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FindByRoomAndDate returns every reservation occupying the given room
// on the given calendar day. This is the working set for conflict
// checking and for the seat-map view.
func (r *ReservationRepo) FindByRoomAndDate(ctx context.Context, room string, date time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
		FROM reservations WHERE laboratory_room = ? AND reservation_date = ?`
	rows, err := r.db.QueryContext(ctx, q, room, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// FindByUser returns all reservations owned by userID, unsorted; the
// service applies the chronological three-key sort.
func (r *ReservationRepo) FindByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// FindAll returns every reservation in the store. Used by the expiry
// sweep and the labtech overview.
func (r *ReservationRepo) FindAll(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// DeleteByID removes a reservation. The boolean reports whether a row
// was actually found and deleted.
func (r *ReservationRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateDisplayFields patches the administrative escape-hatch fields.
// The time window is immutable; edits to it are delete-and-recreate at
// the service boundary. Nil arguments leave the column untouched.
func (r *ReservationRepo) UpdateDisplayFields(ctx context.Context, id string, studentName *string, isAnonymous *bool) error {
	const q = `UPDATE reservations
		SET student_name = COALESCE(?, student_name),
		    is_anonymous = COALESCE(?, is_anonymous)
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, studentName, isAnonymous, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// COALESCE with unchanged values also reports zero rows; confirm
		// the record exists before reporting not found.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.StudentName, &res.LaboratoryRoom,
		&res.SeatNumber, &res.IsAnonymous, &res.BookingDate, &res.ReservationDate,
		&res.StartTime, &res.EndTime)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
