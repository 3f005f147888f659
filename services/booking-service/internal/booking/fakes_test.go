package booking

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

// In-memory stores. They ignore the transaction handle; pgxmock stands in for the pool.

type fakeCatalog struct {
	services    map[string]model.Service
	staff       map[string]model.Staff
	assignments map[[2]string]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		services:    map[string]model.Service{},
		staff:       map[string]model.Staff{},
		assignments: map[[2]string]bool{},
	}
}

func (f *fakeCatalog) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	svc.ID = uuid.NewString()
	f.services[svc.ID] = svc
	return svc, nil
}

func (f *fakeCatalog) UpdateService(_ context.Context, svc model.Service) error {
	if _, ok := f.services[svc.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.services[svc.ID] = svc
	return nil
}

func (f *fakeCatalog) DeleteService(_ context.Context, id string) error {
	if _, ok := f.services[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.services, id)
	return nil
}

func (f *fakeCatalog) GetService(ctx context.Context, id string) (model.Service, error) {
	return f.GetServiceTx(ctx, nil, id)
}

func (f *fakeCatalog) GetServiceTx(_ context.Context, _ db.DBTX, id string) (model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return model.Service{}, pgx.ErrNoRows
	}
	return svc, nil
}

func (f *fakeCatalog) ListServices(context.Context) ([]model.Service, error) {
	out := make([]model.Service, 0, len(f.services))
	for _, s := range f.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalog) ServicesForStaff(_ context.Context, staffID string) ([]model.Service, error) {
	var out []model.Service
	for k := range f.assignments {
		if k[0] == staffID {
			out = append(out, f.services[k[1]])
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreateStaff(_ context.Context, st model.Staff) (model.Staff, error) {
	for _, other := range f.staff {
		if other.Email == st.Email {
			return model.Staff{}, &pgconn.PgError{Code: "23505"}
		}
	}
	st.ID = uuid.NewString()
	f.staff[st.ID] = st
	return st, nil
}

func (f *fakeCatalog) UpdateStaff(_ context.Context, st model.Staff) error {
	if _, ok := f.staff[st.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.staff[st.ID] = st
	return nil
}

func (f *fakeCatalog) DeleteStaff(_ context.Context, id string) error {
	if _, ok := f.staff[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.staff, id)
	return nil
}

func (f *fakeCatalog) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	return f.GetStaffTx(ctx, nil, id)
}

func (f *fakeCatalog) GetStaffTx(_ context.Context, _ db.DBTX, id string) (model.Staff, error) {
	st, ok := f.staff[id]
	if !ok {
		return model.Staff{}, pgx.ErrNoRows
	}
	return st, nil
}

func (f *fakeCatalog) ListStaff(context.Context) ([]model.Staff, error) {
	out := make([]model.Staff, 0, len(f.staff))
	for _, s := range f.staff {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeCatalog) StaffForService(_ context.Context, serviceID string) ([]model.Staff, error) {
	var out []model.Staff
	for k := range f.assignments {
		if k[1] == serviceID {
			out = append(out, f.staff[k[0]])
		}
	}
	return out, nil
}

func (f *fakeCatalog) AssignService(_ context.Context, staffID, serviceID string) error {
	f.assignments[[2]string{staffID, serviceID}] = true
	return nil
}

func (f *fakeCatalog) UnassignService(_ context.Context, staffID, serviceID string) error {
	k := [2]string{staffID, serviceID}
	if !f.assignments[k] {
		return pgx.ErrNoRows
	}
	delete(f.assignments, k)
	return nil
}

func (f *fakeCatalog) StaffOffersService(_ context.Context, _ db.DBTX, staffID, serviceID string) (bool, error) {
	return f.assignments[[2]string{staffID, serviceID}], nil
}

func (f *fakeCatalog) CountAssignments(_ context.Context, serviceID string) (int, error) {
	n := 0
	for k := range f.assignments {
		if k[1] == serviceID {
			n++
		}
	}
	return n, nil
}

type fakeSchedules struct {
	windows map[string]model.ScheduleWindow
	staff   *fakeCatalog
	listed  int
	// lockedWindows and lockedStaff record row locks in the order they were taken.
	lockedWindows []string
	lockedStaff   []string
}

func (f *fakeSchedules) LockStaff(_ context.Context, _ db.DBTX, staffID string) error {
	f.lockedStaff = append(f.lockedStaff, staffID)
	if _, ok := f.staff.staff[staffID]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (f *fakeSchedules) Create(_ context.Context, _ db.DBTX, w model.ScheduleWindow) (model.ScheduleWindow, error) {
	w.ID = uuid.NewString()
	f.windows[w.ID] = w
	return w, nil
}

func (f *fakeSchedules) Update(_ context.Context, _ db.DBTX, w model.ScheduleWindow) error {
	if _, ok := f.windows[w.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.windows[w.ID] = w
	return nil
}

func (f *fakeSchedules) Delete(_ context.Context, id string) (string, error) {
	w, ok := f.windows[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	delete(f.windows, id)
	return w.StaffID, nil
}

func (f *fakeSchedules) Get(_ context.Context, id string) (model.ScheduleWindow, error) {
	w, ok := f.windows[id]
	if !ok {
		return model.ScheduleWindow{}, pgx.ErrNoRows
	}
	return w, nil
}

func (f *fakeSchedules) GetForUpdate(ctx context.Context, _ db.DBTX, id string) (model.ScheduleWindow, error) {
	f.lockedWindows = append(f.lockedWindows, id)
	return f.Get(ctx, id)
}

func (f *fakeSchedules) List(context.Context) ([]model.ScheduleWindow, error) {
	var out []model.ScheduleWindow
	for _, w := range f.windows {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeSchedules) ListByStaff(_ context.Context, _ db.DBTX, staffID string) ([]model.ScheduleWindow, error) {
	f.listed++
	var out []model.ScheduleWindow
	for _, w := range f.windows {
		if w.StaffID == staffID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

type fakeAppointments struct {
	items   map[string]model.Appointment
	catalog *fakeCatalog
	// createErr, when set, is returned by Create instead of inserting.
	createErr  error
	lastFilter storage.AppointmentFilter
}

func (f *fakeAppointments) Create(_ context.Context, _ db.DBTX, appt *model.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	appt.ID = uuid.NewString()
	appt.CreatedAt = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	appt.UpdatedAt = appt.CreatedAt
	f.items[appt.ID] = *appt
	return nil
}

func (f *fakeAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	a, ok := f.items[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAppointments) GetForUpdate(ctx context.Context, _ db.DBTX, id string) (model.Appointment, error) {
	return f.Get(ctx, id)
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, _ db.DBTX, id string, status model.Status, _ string) (time.Time, error) {
	a, ok := f.items[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	a.Status = status
	a.UpdatedAt = time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC)
	f.items[id] = a
	return a.UpdatedAt, nil
}

func (f *fakeAppointments) HasConflict(_ context.Context, _ db.DBTX, staffID string, start, end time.Time) (bool, error) {
	for _, a := range f.items {
		if a.StaffID == staffID && a.Status != model.StatusCancelled &&
			a.AppointmentAt.Before(end) && a.EndsAt().After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointments) BookedIntervals(_ context.Context, staffID string, from, to time.Time) ([]availability.Interval, error) {
	var out []availability.Interval
	for _, a := range f.items {
		if a.StaffID == staffID && a.Status != model.StatusCancelled &&
			a.AppointmentAt.Before(to) && a.EndsAt().After(from) {
			out = append(out, availability.Interval{Start: a.AppointmentAt, End: a.EndsAt()})
		}
	}
	return out, nil
}

func (f *fakeAppointments) CountByService(_ context.Context, serviceID string) (int, error) {
	n := 0
	for _, a := range f.items {
		if a.ServiceID == serviceID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointments) CountByStaff(_ context.Context, staffID string) (int, error) {
	n := 0
	for _, a := range f.items {
		if a.StaffID == staffID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointments) List(_ context.Context, filter storage.AppointmentFilter) ([]model.Appointment, error) {
	f.lastFilter = filter
	var out []model.Appointment
	for _, a := range f.items {
		if filter.StaffID != "" && a.StaffID != filter.StaffID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointments) ListDetails(context.Context, storage.AppointmentFilter) ([]model.AppointmentDetail, error) {
	var out []model.AppointmentDetail
	for _, a := range f.items {
		svc := f.catalog.services[a.ServiceID]
		out = append(out, model.AppointmentDetail{
			Appointment: a,
			ServiceName: svc.Name,
			StaffName:   f.catalog.staff[a.StaffID].Name,
			PriceCents:  svc.PriceCents,
		})
	}
	return out, nil
}

type fakeIdempotency struct {
	records map[string]storage.IdempotencyRecord
}

func (f *fakeIdempotency) Lock(_ context.Context, _ db.DBTX, key string) (storage.IdempotencyRecord, error) {
	rec, ok := f.records[key]
	if !ok {
		rec = storage.IdempotencyRecord{Key: key}
	}
	return rec, nil
}

func (f *fakeIdempotency) Finalize(_ context.Context, _ db.DBTX, key, appointmentID string, statusCode int, response []byte) error {
	f.records[key] = storage.IdempotencyRecord{Key: key, AppointmentID: appointmentID, StatusCode: statusCode, ResponsePayload: response}
	return nil
}

type fakeOutbox struct {
	events []outbox.Event
}

func (f *fakeOutbox) Insert(_ context.Context, _ db.DBTX, evt outbox.Event) error {
	f.events = append(f.events, evt)
	return nil
}

type fakeCache struct {
	entries     map[string][]model.ScheduleWindow
	invalidated []string
}

func (c *fakeCache) Get(_ context.Context, staffID string) ([]model.ScheduleWindow, bool) {
	w, ok := c.entries[staffID]
	return w, ok
}

func (c *fakeCache) Set(_ context.Context, staffID string, windows []model.ScheduleWindow) {
	c.entries[staffID] = windows
}

func (c *fakeCache) Invalidate(_ context.Context, staffID string) {
	c.invalidated = append(c.invalidated, staffID)
	delete(c.entries, staffID)
}
