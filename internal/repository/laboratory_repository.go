package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labmate/labmate/internal/model"
)

// ErrLabNotFound is returned when a laboratory lookup fails.
var ErrLabNotFound = errors.New("laboratory not found")

// LaboratoryRepo provides read access to laboratories and inserts for
// seeding. Laboratories change rarely; the service only ever resolves a
// room key to its record at booking time.
type LaboratoryRepo struct {
	db *sql.DB
}

// NewLaboratoryRepo constructs a LaboratoryRepo with the given DB handle.
func NewLaboratoryRepo(db *sql.DB) *LaboratoryRepo { return &LaboratoryRepo{db: db} }

// FindByRoom resolves a room key to its laboratory record, or
// ErrLabNotFound when no such room exists.
func (r *LaboratoryRepo) FindByRoom(ctx context.Context, room string) (*model.Laboratory, error) {
	const q = `SELECT id, hall, room, capacity FROM laboratories WHERE room = ?`
	var lab model.Laboratory
	err := r.db.QueryRowContext(ctx, q, room).Scan(&lab.ID, &lab.Hall, &lab.Room, &lab.Capacity)
	if err == sql.ErrNoRows {
		return nil, ErrLabNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lab, nil
}

// ListAll returns every laboratory, ordered by hall then room.
func (r *LaboratoryRepo) ListAll(ctx context.Context) ([]model.Laboratory, error) {
	const q = `SELECT id, hall, room, capacity FROM laboratories ORDER BY hall, room`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Laboratory{}
	for rows.Next() {
		var lab model.Laboratory
		if err := rows.Scan(&lab.ID, &lab.Hall, &lab.Room, &lab.Capacity); err != nil {
			return nil, err
		}
		out = append(out, lab)
	}
	return out, rows.Err()
}

// Insert adds a laboratory and sets its generated ID. Used by the demo
// seeder; rooms are otherwise managed outside the application.
func (r *LaboratoryRepo) Insert(ctx context.Context, lab *model.Laboratory) error {
	const q = `INSERT INTO laboratories (hall, room, capacity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, lab.Hall, lab.Room, lab.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lab.ID = uint64(id)
	return nil
}
