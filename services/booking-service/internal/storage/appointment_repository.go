package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type AppointmentRepository struct {
	db db.Querier
}

func NewAppointmentRepository(q db.Querier) *AppointmentRepository {
	return &AppointmentRepository{db: q}
}

// AppointmentFilter narrows List and ListDetails. Zero values mean no constraint.
type AppointmentFilter struct {
	StaffID       string
	ServiceID     string
	CustomerEmail string
	Status        model.Status
	// From keeps appointments starting at or after From; the result is then sorted ascending.
	From  time.Time
	Limit int
}

const appointmentColumns = `a.id::text, a.customer_name, a.customer_email, a.customer_phone,
	a.staff_id::text, a.service_id::text, a.appointment_at, a.duration_minutes, a.status,
	a.notes, a.created_at, a.updated_at`

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// Create inserts appt, assigning its ID and timestamps.
func (r *AppointmentRepository) Create(ctx context.Context, tx db.DBTX, appt *model.Appointment) error {
	appt.ID = uuid.NewString()
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, customer_name, customer_email, customer_phone, staff_id, service_id,
			 appointment_at, ends_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, appt.ID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone, appt.StaffID, appt.ServiceID,
		appt.AppointmentAt, appt.EndsAt(), appt.DurationMinutes, string(appt.Status), appt.Notes,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id))
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx db.DBTX, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
		FOR UPDATE
	`, id))
}

// UpdateStatus sets the status and returns the new updated_at.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tx db.DBTX, id string, status model.Status, reason string) (time.Time, error) {
	var updatedAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
			cancel_reason = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancel_reason END,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, string(status), reason).Scan(&updatedAt)
	return updatedAt, err
}

// HasConflict reports a non-cancelled appointment of staffID overlapping [start, end).
func (r *AppointmentRepository) HasConflict(ctx context.Context, tx db.DBTX, staffID string, start, end time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE staff_id = $1
				AND status <> 'cancelled'
				AND appointment_at < $3
				AND ends_at > $2
		)
	`, staffID, start, end).Scan(&exists)
	return exists, err
}

// BookedIntervals returns the non-cancelled intervals of staffID intersecting [from, to).
func (r *AppointmentRepository) BookedIntervals(ctx context.Context, staffID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT appointment_at, ends_at
		FROM appointments
		WHERE staff_id = $1
			AND status <> 'cancelled'
			AND appointment_at < $3
			AND ends_at > $2
		ORDER BY appointment_at ASC
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *AppointmentRepository) CountByService(ctx context.Context, serviceID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE service_id = $1`, serviceID).Scan(&n)
	return n, err
}

func (r *AppointmentRepository) CountByStaff(ctx context.Context, staffID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE staff_id = $1`, staffID).Scan(&n)
	return n, err
}

func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	where, args, order := f.sql()
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		`+where+`
		ORDER BY `+order+limitClause(f.Limit, &args), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListDetails joins service and staff so callers can price and label appointments.
func (r *AppointmentRepository) ListDetails(ctx context.Context, f AppointmentFilter) ([]model.AppointmentDetail, error) {
	where, args, order := f.sql()
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`, s.name, st.name, s.price_cents
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		JOIN staff st ON st.id = a.staff_id
		`+where+`
		ORDER BY `+order+limitClause(f.Limit, &args), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AppointmentDetail
	for rows.Next() {
		var d model.AppointmentDetail
		var status string
		a := &d.Appointment
		if err := rows.Scan(
			&a.ID, &a.CustomerName, &a.CustomerEmail, &a.CustomerPhone,
			&a.StaffID, &a.ServiceID, &a.AppointmentAt, &a.DurationMinutes, &status,
			&a.Notes, &a.CreatedAt, &a.UpdatedAt,
			&d.ServiceName, &d.StaffName, &d.PriceCents,
		); err != nil {
			return nil, err
		}
		a.Status = model.Status(status)
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (f AppointmentFilter) sql() (string, []any, string) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.StaffID != "" {
		add("a.staff_id = $%d", f.StaffID)
	}
	if f.ServiceID != "" {
		add("a.service_id = $%d", f.ServiceID)
	}
	if f.CustomerEmail != "" {
		add("lower(a.customer_email) = lower($%d)", f.CustomerEmail)
	}
	if f.Status != "" {
		add("a.status = $%d", string(f.Status))
	}
	order := "a.appointment_at DESC, a.id"
	if !f.From.IsZero() {
		add("a.appointment_at >= $%d", f.From)
		order = "a.appointment_at ASC, a.id"
	}
	if len(conds) == 0 {
		return "", args, order
	}
	return "WHERE " + strings.Join(conds, " AND "), args, order
}

func limitClause(limit int, args *[]any) string {
	if limit <= 0 {
		return ""
	}
	*args = append(*args, limit)
	return fmt.Sprintf(" LIMIT $%d", len(*args))
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	err := row.Scan(
		&a.ID, &a.CustomerName, &a.CustomerEmail, &a.CustomerPhone,
		&a.StaffID, &a.ServiceID, &a.AppointmentAt, &a.DurationMinutes, &status,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.Status(status)
	return a, nil
}
