package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type SlotQuery struct {
	StaffID   string
	ServiceID string
	Date      model.Date
}

// Slots lists the free start times of serviceID with staffID on date: the generated
// candidates minus booked and already started ones.
func (s *Service) Slots(ctx context.Context, q SlotQuery) (slots []model.CandidateSlot, err error) {
	defer func() {
		result := metrics.ResultOK
		switch {
		case err == nil:
		case model.IsValidation(err):
			result = metrics.ResultInvalid
		case errors.Is(err, ErrNotFound):
			result = metrics.ResultNotFound
		default:
			result = metrics.ResultError
		}
		s.metrics.ObserveSlotQuery(result, len(slots))
	}()

	if q.Date.IsZero() {
		return nil, model.Invalid("date", "is required")
	}
	svc, err := s.GetService(ctx, q.ServiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetStaff(ctx, q.StaffID); err != nil {
		return nil, err
	}
	offers, err := s.catalog.StaffOffersService(ctx, s.db, q.StaffID, q.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("check staff service: %w", err)
	}
	if !offers {
		return nil, model.Invalid("service_id", "staff member does not offer this service")
	}

	windows, err := s.SchedulesForStaff(ctx, q.StaffID)
	if err != nil {
		return nil, err
	}
	slots = availability.Candidates(windows, q.Date, svc.DurationMinutes)
	if len(slots) == 0 {
		return []model.CandidateSlot{}, nil
	}
	from, to := s.zone.DayBounds(q.Date)
	busy, err := s.appointments.BookedIntervals(ctx, q.StaffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("booked intervals: %w", err)
	}
	slots = availability.ExcludeBusy(slots, q.Date, busy, s.zone)
	slots = availability.ExcludePast(slots, q.Date, s.now(), s.zone)
	return slots, nil
}
