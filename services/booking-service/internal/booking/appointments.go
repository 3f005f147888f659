package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/dashboard"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxIdempotencyKeyLen = 200
	maxListLimit         = 500
	dashboardUpcoming    = 5
)

var errPastAppointment = model.Invalid("appointment_date_time", "must be in the future")

type BookResult struct {
	Appointment model.Appointment
	// Replayed is set when the idempotency key already carried a finished booking.
	Replayed bool
}

// Book re-validates req against the catalog, the staff schedule and existing bookings,
// then creates a confirmed appointment and its outbox event in one transaction.
func (s *Service) Book(ctx context.Context, req model.BookingRequest, idempotencyKey string) (res BookResult, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book")
	defer func() {
		s.metrics.ObserveSubmission(submissionResult(res, err))
		endSpan(span, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return BookResult{}, err
	}
	if !validID(req.StaffID) {
		return BookResult{}, notFound("staff member")
	}
	if !validID(req.ServiceID) {
		return BookResult{}, notFound("service")
	}
	at := req.AppointmentAt.Truncate(time.Minute)
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		return BookResult{}, model.Invalid("idempotency_key", "is too long")
	}
	// A keyed request may retry a booking whose start has passed since; the replay lookup
	// decides first.
	if idempotencyKey == "" && at.Before(s.now()) {
		return BookResult{}, errPastAppointment
	}
	span.SetAttributes(
		attribute.String("booking.staff_id", req.StaffID),
		attribute.String("booking.service_id", req.ServiceID),
		attribute.Bool("booking.idempotent", idempotencyKey != ""),
	)

	err = db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if idempotencyKey != "" {
			rec, err := s.idempotency.Lock(ctx, tx, idempotencyKey)
			if err != nil {
				return fmt.Errorf("lock idempotency key: %w", err)
			}
			if rec.Done() {
				var appt model.Appointment
				if err := json.Unmarshal(rec.ResponsePayload, &appt); err != nil {
					return fmt.Errorf("decode stored booking: %w", err)
				}
				res = BookResult{Appointment: appt, Replayed: true}
				return nil
			}
			if at.Before(s.now()) {
				return errPastAppointment
			}
		}

		appt, err := s.book(ctx, tx, req, at)
		if err != nil {
			return err
		}
		if idempotencyKey != "" {
			body, err := json.Marshal(appt)
			if err != nil {
				return err
			}
			if err := s.idempotency.Finalize(ctx, tx, idempotencyKey, appt.ID, http.StatusCreated, body); err != nil {
				return fmt.Errorf("finalize idempotency key: %w", err)
			}
		}
		res = BookResult{Appointment: appt}
		return nil
	})
	if err != nil {
		return BookResult{}, err
	}
	if !res.Replayed {
		s.logger.Info("appointment booked",
			"appointment_id", res.Appointment.ID,
			"staff_id", res.Appointment.StaffID,
			"starts_at", res.Appointment.AppointmentAt,
		)
	}
	return res, nil
}

func (s *Service) book(ctx context.Context, tx pgx.Tx, req model.BookingRequest, at time.Time) (model.Appointment, error) {
	staff, err := s.catalog.GetStaffTx(ctx, tx, req.StaffID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, notFound("staff member")
		}
		return model.Appointment{}, fmt.Errorf("get staff: %w", err)
	}
	svc, err := s.catalog.GetServiceTx(ctx, tx, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, notFound("service")
		}
		return model.Appointment{}, fmt.Errorf("get service: %w", err)
	}
	offers, err := s.catalog.StaffOffersService(ctx, tx, staff.ID, svc.ID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("check staff service: %w", err)
	}
	if !offers {
		return model.Appointment{}, model.Invalid("service_id", "staff member does not offer this service")
	}

	windows, err := s.schedules.ListByStaff(ctx, tx, staff.ID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("list schedules: %w", err)
	}
	date, clock := s.zone.Local(at)
	if _, ok := availability.FitWindow(windows, date, clock, svc.DurationMinutes); !ok {
		return model.Appointment{}, &Error{Kind: ErrOutsideSchedule, Message: "appointment is outside the staff member's schedule"}
	}

	end := at.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	taken, err := s.appointments.HasConflict(ctx, tx, staff.ID, at, end)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("check conflicts: %w", err)
	}
	if taken {
		return model.Appointment{}, conflict("time slot is already booked")
	}

	appt := model.Appointment{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		StaffID:         staff.ID,
		ServiceID:       svc.ID,
		AppointmentAt:   at,
		DurationMinutes: svc.DurationMinutes,
		Status:          model.StatusConfirmed,
		Notes:           req.Notes,
	}
	if err := s.appointments.Create(ctx, tx, &appt); err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, conflict("time slot is already booked")
		}
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	if err := s.emit(ctx, tx, outbox.EventAppointmentBooked, appt, ""); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) Cancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	return s.transition(ctx, "booking.Cancel", id, model.StatusCancelled, strings.TrimSpace(reason))
}

func (s *Service) Complete(ctx context.Context, id string) (model.Appointment, error) {
	return s.transition(ctx, "booking.Complete", id, model.StatusCompleted, "")
}

func (s *Service) transition(ctx context.Context, spanName, id string, to model.Status, reason string) (appt model.Appointment, err error) {
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("booking.appointment_id", id)))
	defer func() { endSpan(span, err) }()

	if !validID(id) {
		return model.Appointment{}, notFound("appointment")
	}
	err = db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		cur, err := s.appointments.GetForUpdate(ctx, tx, id)
		if err != nil {
			if storage.IsNotFound(err) {
				return notFound("appointment")
			}
			return fmt.Errorf("get appointment: %w", err)
		}
		if err := checkTransition(cur.Status, to); err != nil {
			return err
		}
		updatedAt, err := s.appointments.UpdateStatus(ctx, tx, id, to, reason)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		cur.Status = to
		cur.UpdatedAt = updatedAt

		eventType := outbox.EventAppointmentCompleted
		if to == model.StatusCancelled {
			eventType = outbox.EventAppointmentCancelled
		}
		if err := s.emit(ctx, tx, eventType, cur, reason); err != nil {
			return err
		}
		appt = cur
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.metrics.ObserveTransition(string(to))
	s.logger.Info("appointment status changed", "appointment_id", id, "status", string(to))
	return appt, nil
}

// checkTransition allows only confirmed -> cancelled and confirmed -> completed.
func checkTransition(from, to model.Status) error {
	switch to {
	case model.StatusCancelled:
		switch from {
		case model.StatusCancelled:
			return invalidTransition("appointment is already cancelled")
		case model.StatusCompleted:
			return invalidTransition("completed appointments cannot be cancelled")
		}
	case model.StatusCompleted:
		switch from {
		case model.StatusCompleted:
			return invalidTransition("appointment is already completed")
		case model.StatusCancelled:
			return invalidTransition("cannot complete a cancelled appointment")
		}
	default:
		return invalidTransition("unsupported target status " + string(to))
	}
	return nil
}

func (s *Service) emit(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment, reason string) error {
	evt, err := outbox.AppointmentEvent(eventType, appt, reason, s.now())
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

type AppointmentQuery struct {
	StaffID       string
	CustomerEmail string
	// Upcoming keeps confirmed appointments that start now or later, soonest first.
	Upcoming bool
	Limit    int
}

func (s *Service) Appointments(ctx context.Context, q AppointmentQuery) ([]model.Appointment, error) {
	q.StaffID = strings.TrimSpace(q.StaffID)
	q.CustomerEmail = strings.TrimSpace(q.CustomerEmail)
	if q.StaffID != "" && !validID(q.StaffID) {
		return []model.Appointment{}, nil
	}
	if q.Limit < 0 {
		return nil, model.Invalid("limit", "must not be negative")
	}
	if q.Limit == 0 || q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	f := storage.AppointmentFilter{StaffID: q.StaffID, CustomerEmail: q.CustomerEmail, Limit: q.Limit}
	if q.Upcoming {
		f.From = s.now()
		f.Status = model.StatusConfirmed
	}
	out, err := s.appointments.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func (s *Service) Appointment(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, notFound("appointment")
	}
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, notFound("appointment")
		}
		return model.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

type Dashboard struct {
	dashboard.Summary
	Upcoming []model.AppointmentDetail `json:"upcoming"`
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	details, err := s.appointments.ListDetails(ctx, storage.AppointmentFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list appointment details: %w", err)
	}
	return Dashboard{
		Summary:  dashboard.Summarize(details),
		Upcoming: dashboard.Upcoming(details, s.now(), dashboardUpcoming),
	}, nil
}

func submissionResult(res BookResult, err error) string {
	switch {
	case err == nil && res.Replayed:
		return metrics.ResultReplayed
	case err == nil:
		return metrics.ResultOK
	case model.IsValidation(err):
		return metrics.ResultInvalid
	case errors.Is(err, ErrConflict):
		return metrics.ResultConflict
	case errors.Is(err, ErrOutsideSchedule):
		return metrics.ResultOutside
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrInvalidTransition):
		return metrics.ResultConflict
	}
	return metrics.ResultError
}

// endSpan records err on span. Caller mistakes do not mark the span as failed.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		var be *Error
		if !model.IsValidation(err) && !errors.As(err, &be) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
