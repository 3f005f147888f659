package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type CatalogRepository struct {
	db db.Querier
}

func NewCatalogRepository(q db.Querier) *CatalogRepository {
	return &CatalogRepository{db: q}
}

func (r *CatalogRepository) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	svc.ID = uuid.NewString()
	_, err := r.db.Exec(ctx, `
		INSERT INTO services (id, name, description, duration_minutes, price_cents)
		VALUES ($1, $2, $3, $4, $5)
	`, svc.ID, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents)
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

func (r *CatalogRepository) UpdateService(ctx context.Context, svc model.Service) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE services
		SET name = $2, description = $3, duration_minutes = $4, price_cents = $5, updated_at = now()
		WHERE id = $1
	`, svc.ID, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) DeleteService(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	return r.GetServiceTx(ctx, r.db, id)
}

// GetServiceTx reads a service through q so it can join a booking transaction.
func (r *CatalogRepository) GetServiceTx(ctx context.Context, q db.DBTX, id string) (model.Service, error) {
	var svc model.Service
	err := q.QueryRow(ctx, `
		SELECT id::text, name, description, duration_minutes, price_cents
		FROM services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.PriceCents)
	return svc, err
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, description, duration_minutes, price_cents
		FROM services
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func (r *CatalogRepository) ServicesForStaff(ctx context.Context, staffID string) ([]model.Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id::text, s.name, s.description, s.duration_minutes, s.price_cents
		FROM services s
		JOIN staff_services ss ON ss.service_id = s.id
		WHERE ss.staff_id = $1
		ORDER BY s.name ASC, s.id ASC
	`, staffID)
	if err != nil {
		return nil, err
	}
	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]model.Service, error) {
	defer rows.Close()
	var out []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CatalogRepository) CreateStaff(ctx context.Context, st model.Staff) (model.Staff, error) {
	st.ID = uuid.NewString()
	_, err := r.db.Exec(ctx, `
		INSERT INTO staff (id, name, email, phone, role)
		VALUES ($1, $2, $3, $4, $5)
	`, st.ID, st.Name, st.Email, st.Phone, st.Role)
	if err != nil {
		return model.Staff{}, err
	}
	return st, nil
}

func (r *CatalogRepository) UpdateStaff(ctx context.Context, st model.Staff) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE staff
		SET name = $2, email = $3, phone = $4, role = $5, updated_at = now()
		WHERE id = $1
	`, st.ID, st.Name, st.Email, st.Phone, st.Role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) DeleteStaff(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	return r.GetStaffTx(ctx, r.db, id)
}

func (r *CatalogRepository) GetStaffTx(ctx context.Context, q db.DBTX, id string) (model.Staff, error) {
	var st model.Staff
	err := q.QueryRow(ctx, `
		SELECT id::text, name, email, phone, role
		FROM staff
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Email, &st.Phone, &st.Role)
	return st, err
}

func (r *CatalogRepository) ListStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, email, phone, role
		FROM staff
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectStaff(rows)
}

func (r *CatalogRepository) StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error) {
	rows, err := r.db.Query(ctx, `
		SELECT st.id::text, st.name, st.email, st.phone, st.role
		FROM staff st
		JOIN staff_services ss ON ss.staff_id = st.id
		WHERE ss.service_id = $1
		ORDER BY st.name ASC, st.id ASC
	`, serviceID)
	if err != nil {
		return nil, err
	}
	return collectStaff(rows)
}

func collectStaff(rows pgx.Rows) ([]model.Staff, error) {
	defer rows.Close()
	var out []model.Staff
	for rows.Next() {
		var st model.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Phone, &st.Role); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CatalogRepository) AssignService(ctx context.Context, staffID, serviceID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO staff_services (staff_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT (staff_id, service_id) DO NOTHING
	`, staffID, serviceID)
	return err
}

func (r *CatalogRepository) UnassignService(ctx context.Context, staffID, serviceID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM staff_services WHERE staff_id = $1 AND service_id = $2
	`, staffID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) StaffOffersService(ctx context.Context, q db.DBTX, staffID, serviceID string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM staff_services WHERE staff_id = $1 AND service_id = $2)
	`, staffID, serviceID).Scan(&ok)
	return ok, err
}

// CountAssignments is the number of staff members offering serviceID.
func (r *CatalogRepository) CountAssignments(ctx context.Context, serviceID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM staff_services WHERE service_id = $1
	`, serviceID).Scan(&n)
	return n, err
}
