package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
)

// IdempotencyRecord is the stored outcome of a keyed booking request.
type IdempotencyRecord struct {
	Key             string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

// Done reports whether the key already carries a final response to replay.
func (r IdempotencyRecord) Done() bool {
	return r.StatusCode > 0
}

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

// Lock claims key inside tx, creating it when absent. Concurrent requests with the same key
// block on the row lock until the first transaction finishes.
func (r *IdempotencyRepository) Lock(ctx context.Context, tx db.DBTX, key string) (IdempotencyRecord, error) {
	rec, err := r.selectForUpdate(ctx, tx, key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (idempotency_key)
		VALUES ($1)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	return r.selectForUpdate(ctx, tx, key)
}

func (r *IdempotencyRepository) Finalize(ctx context.Context, tx db.DBTX, key, appointmentID string, statusCode int, response []byte) error {
	var apptID any
	if appointmentID != "" {
		apptID = appointmentID
	}
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $2,
			status_code = $3,
			response_payload = $4,
			updated_at = now()
		WHERE idempotency_key = $1
	`, key, apptID, statusCode, response)
	return err
}

func (r *IdempotencyRepository) selectForUpdate(ctx context.Context, tx db.DBTX, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE idempotency_key = $1
		FOR UPDATE
	`, key).Scan(&rec.Key, &rec.AppointmentID, &rec.StatusCode, &responseText)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
