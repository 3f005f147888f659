package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

// CreateSchedule adds a weekly window. The staff row is locked so two concurrent writes
// for the same staff member cannot both pass the overlap check.
func (s *Service) CreateSchedule(ctx context.Context, w model.ScheduleWindow) (model.ScheduleWindow, error) {
	w.ID = ""
	if err := w.Validate(); err != nil {
		return model.ScheduleWindow{}, err
	}
	if !validID(w.StaffID) {
		return model.ScheduleWindow{}, notFound("staff member")
	}

	var created model.ScheduleWindow
	err := db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.checkScheduleSlot(ctx, tx, w); err != nil {
			return err
		}
		var err error
		created, err = s.schedules.Create(ctx, tx, w)
		return err
	})
	if err != nil {
		return model.ScheduleWindow{}, scheduleError("create", err)
	}
	s.cache.Invalidate(ctx, w.StaffID)
	return created, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, w model.ScheduleWindow) (model.ScheduleWindow, error) {
	if !validID(id) {
		return model.ScheduleWindow{}, notFound("schedule")
	}
	w.ID = id
	if err := w.Validate(); err != nil {
		return model.ScheduleWindow{}, err
	}
	if !validID(w.StaffID) {
		return model.ScheduleWindow{}, notFound("staff member")
	}

	var prev model.ScheduleWindow
	err := db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		prev, err = s.schedules.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if prev.StaffID != w.StaffID {
			// Moving between staff members touches both; lock them in id order.
			first, second := prev.StaffID, w.StaffID
			if second < first {
				first, second = second, first
			}
			for _, staffID := range []string{first, second} {
				if err := s.schedules.LockStaff(ctx, tx, staffID); err != nil && !storage.IsNotFound(err) {
					return err
				}
			}
		}
		if err := s.checkScheduleSlot(ctx, tx, w); err != nil {
			return err
		}
		return s.schedules.Update(ctx, tx, w)
	})
	if err != nil {
		return model.ScheduleWindow{}, scheduleError("update", err)
	}
	s.cache.Invalidate(ctx, w.StaffID)
	if prev.StaffID != w.StaffID {
		s.cache.Invalidate(ctx, prev.StaffID)
	}
	return w, nil
}

// checkScheduleSlot locks the owner and rejects w when it overlaps another window of the
// same staff member and weekday. w itself is skipped so updates can keep their slot.
func (s *Service) checkScheduleSlot(ctx context.Context, tx pgx.Tx, w model.ScheduleWindow) error {
	if err := s.schedules.LockStaff(ctx, tx, w.StaffID); err != nil {
		if storage.IsNotFound(err) {
			return notFound("staff member")
		}
		return err
	}
	existing, err := s.schedules.ListByStaff(ctx, tx, w.StaffID)
	if err != nil {
		return err
	}
	if other, ok := availability.FindOverlap(existing, w); ok {
		return conflict(fmt.Sprintf("schedule overlaps an existing window (%s-%s)", other.Start, other.End))
	}
	return nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("schedule")
	}
	staffID, err := s.schedules.Delete(ctx, id)
	if err != nil {
		return scheduleError("delete", err)
	}
	s.cache.Invalidate(ctx, staffID)
	return nil
}

func (s *Service) GetSchedule(ctx context.Context, id string) (model.ScheduleWindow, error) {
	if !validID(id) {
		return model.ScheduleWindow{}, notFound("schedule")
	}
	w, err := s.schedules.Get(ctx, id)
	if err != nil {
		return model.ScheduleWindow{}, scheduleError("get", err)
	}
	return w, nil
}

func (s *Service) ListSchedules(ctx context.Context) ([]model.ScheduleWindow, error) {
	return s.schedules.List(ctx)
}

// SchedulesForStaff reads through the schedule cache.
func (s *Service) SchedulesForStaff(ctx context.Context, staffID string) ([]model.ScheduleWindow, error) {
	if !validID(staffID) {
		return nil, notFound("staff member")
	}
	if windows, ok := s.cache.Get(ctx, staffID); ok {
		return windows, nil
	}
	windows, err := s.schedules.ListByStaff(ctx, nil, staffID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	s.cache.Set(ctx, staffID, windows)
	return windows, nil
}

func scheduleError(op string, err error) error {
	var be *Error
	switch {
	case errors.As(err, &be):
		return be
	case storage.IsNotFound(err):
		return notFound("schedule")
	case storage.IsForeignKeyViolation(err):
		return notFound("staff member")
	}
	return fmt.Errorf("%s schedule: %w", op, err)
}
