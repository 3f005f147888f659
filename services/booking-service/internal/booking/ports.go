package booking

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

// The store interfaces are satisfied by the storage package repositories.

type CatalogStore interface {
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
	UpdateService(ctx context.Context, svc model.Service) error
	DeleteService(ctx context.Context, id string) error
	GetService(ctx context.Context, id string) (model.Service, error)
	GetServiceTx(ctx context.Context, q db.DBTX, id string) (model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	ServicesForStaff(ctx context.Context, staffID string) ([]model.Service, error)

	CreateStaff(ctx context.Context, st model.Staff) (model.Staff, error)
	UpdateStaff(ctx context.Context, st model.Staff) error
	DeleteStaff(ctx context.Context, id string) error
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	GetStaffTx(ctx context.Context, q db.DBTX, id string) (model.Staff, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error)

	AssignService(ctx context.Context, staffID, serviceID string) error
	UnassignService(ctx context.Context, staffID, serviceID string) error
	StaffOffersService(ctx context.Context, q db.DBTX, staffID, serviceID string) (bool, error)
	CountAssignments(ctx context.Context, serviceID string) (int, error)
}

type ScheduleStore interface {
	LockStaff(ctx context.Context, tx db.DBTX, staffID string) error
	Create(ctx context.Context, tx db.DBTX, w model.ScheduleWindow) (model.ScheduleWindow, error)
	Update(ctx context.Context, tx db.DBTX, w model.ScheduleWindow) error
	Delete(ctx context.Context, id string) (string, error)
	Get(ctx context.Context, id string) (model.ScheduleWindow, error)
	GetForUpdate(ctx context.Context, tx db.DBTX, id string) (model.ScheduleWindow, error)
	List(ctx context.Context) ([]model.ScheduleWindow, error)
	ListByStaff(ctx context.Context, q db.DBTX, staffID string) ([]model.ScheduleWindow, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, tx db.DBTX, appt *model.Appointment) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	GetForUpdate(ctx context.Context, tx db.DBTX, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, tx db.DBTX, id string, status model.Status, reason string) (time.Time, error)
	HasConflict(ctx context.Context, tx db.DBTX, staffID string, start, end time.Time) (bool, error)
	BookedIntervals(ctx context.Context, staffID string, from, to time.Time) ([]availability.Interval, error)
	CountByService(ctx context.Context, serviceID string) (int, error)
	CountByStaff(ctx context.Context, staffID string) (int, error)
	List(ctx context.Context, f storage.AppointmentFilter) ([]model.Appointment, error)
	ListDetails(ctx context.Context, f storage.AppointmentFilter) ([]model.AppointmentDetail, error)
}

type IdempotencyStore interface {
	Lock(ctx context.Context, tx db.DBTX, key string) (storage.IdempotencyRecord, error)
	Finalize(ctx context.Context, tx db.DBTX, key, appointmentID string, statusCode int, response []byte) error
}

type EventStore interface {
	Insert(ctx context.Context, tx db.DBTX, evt outbox.Event) error
}

// ScheduleCache is satisfied by *cache.ScheduleCache, including a nil one.
type ScheduleCache interface {
	Get(ctx context.Context, staffID string) ([]model.ScheduleWindow, bool)
	Set(ctx context.Context, staffID string, windows []model.ScheduleWindow)
	Invalidate(ctx context.Context, staffID string)
}
