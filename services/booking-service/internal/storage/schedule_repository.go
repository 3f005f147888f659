package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// ScheduleRepository stores weekly windows as day_of_week + start/end minutes.
type ScheduleRepository struct {
	db db.Querier
}

func NewScheduleRepository(q db.Querier) *ScheduleRepository {
	return &ScheduleRepository{db: q}
}

func (r *ScheduleRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// LockStaff serialises schedule writes for one staff member so overlap checks hold.
func (r *ScheduleRepository) LockStaff(ctx context.Context, tx db.DBTX, staffID string) error {
	var id string
	return tx.QueryRow(ctx, `SELECT id::text FROM staff WHERE id = $1 FOR UPDATE`, staffID).Scan(&id)
}

func (r *ScheduleRepository) Create(ctx context.Context, tx db.DBTX, w model.ScheduleWindow) (model.ScheduleWindow, error) {
	w.ID = uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO schedules (id, staff_id, day_of_week, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)
	`, w.ID, w.StaffID, w.DayOfWeek, int(w.Start), int(w.End))
	if err != nil {
		return model.ScheduleWindow{}, err
	}
	return w, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, tx db.DBTX, w model.ScheduleWindow) error {
	tag, err := tx.Exec(ctx, `
		UPDATE schedules
		SET staff_id = $2, day_of_week = $3, start_minute = $4, end_minute = $5, updated_at = now()
		WHERE id = $1
	`, w.ID, w.StaffID, w.DayOfWeek, int(w.Start), int(w.End))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a window and returns its owner so callers can invalidate caches.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (string, error) {
	var staffID string
	err := r.db.QueryRow(ctx, `
		DELETE FROM schedules WHERE id = $1 RETURNING staff_id::text
	`, id).Scan(&staffID)
	return staffID, err
}

func (r *ScheduleRepository) Get(ctx context.Context, id string) (model.ScheduleWindow, error) {
	var w model.ScheduleWindow
	var start, end int
	err := r.db.QueryRow(ctx, `
		SELECT id::text, staff_id::text, day_of_week, start_minute, end_minute
		FROM schedules
		WHERE id = $1
	`, id).Scan(&w.ID, &w.StaffID, &w.DayOfWeek, &start, &end)
	if err != nil {
		return model.ScheduleWindow{}, err
	}
	w.Start, w.End = model.WallClock(start), model.WallClock(end)
	return w, nil
}

// GetForUpdate reads a window and locks its row until tx ends.
func (r *ScheduleRepository) GetForUpdate(ctx context.Context, tx db.DBTX, id string) (model.ScheduleWindow, error) {
	var w model.ScheduleWindow
	var start, end int
	err := tx.QueryRow(ctx, `
		SELECT id::text, staff_id::text, day_of_week, start_minute, end_minute
		FROM schedules
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&w.ID, &w.StaffID, &w.DayOfWeek, &start, &end)
	if err != nil {
		return model.ScheduleWindow{}, err
	}
	w.Start, w.End = model.WallClock(start), model.WallClock(end)
	return w, nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]model.ScheduleWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, staff_id::text, day_of_week, start_minute, end_minute
		FROM schedules
		ORDER BY staff_id, day_of_week, start_minute, id
	`)
	if err != nil {
		return nil, err
	}
	return collectWindows(rows)
}

// ListByStaff returns the windows of staffID ordered by day then start. Pass the pool or a tx.
func (r *ScheduleRepository) ListByStaff(ctx context.Context, q db.DBTX, staffID string) ([]model.ScheduleWindow, error) {
	if q == nil {
		q = r.db
	}
	rows, err := q.Query(ctx, `
		SELECT id::text, staff_id::text, day_of_week, start_minute, end_minute
		FROM schedules
		WHERE staff_id = $1
		ORDER BY day_of_week, start_minute, id
	`, staffID)
	if err != nil {
		return nil, err
	}
	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]model.ScheduleWindow, error) {
	defer rows.Close()
	var out []model.ScheduleWindow
	for rows.Next() {
		var w model.ScheduleWindow
		var start, end int
		if err := rows.Scan(&w.ID, &w.StaffID, &w.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		w.Start, w.End = model.WallClock(start), model.WallClock(end)
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
