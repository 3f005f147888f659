package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type fakeCatalog struct {
	services    []model.Service
	staff       []model.Staff
	schedules   map[string][]model.ScheduleWindow
	failListing bool
	failWindows bool
}

func (c *fakeCatalog) Services(context.Context) ([]model.Service, error) {
	if c.failListing {
		return nil, errors.New("catalog down")
	}
	return c.services, nil
}

func (c *fakeCatalog) StaffForService(context.Context, string) ([]model.Staff, error) {
	if c.failListing {
		return nil, errors.New("catalog down")
	}
	return c.staff, nil
}

func (c *fakeCatalog) SchedulesForStaff(_ context.Context, staffID string) ([]model.ScheduleWindow, error) {
	if c.failWindows {
		return nil, errors.New("schedule store down")
	}
	return c.schedules[staffID], nil
}

type fakeBooker struct {
	session *Session
	err     error
	seen    []model.BookingRequest
	keys    []string
	// stageDuringCall records the stage observed from inside the call.
	stageDuringCall Stage
}

func (b *fakeBooker) SubmitAppointment(_ context.Context, req model.BookingRequest, key string) (model.Appointment, error) {
	b.seen = append(b.seen, req)
	b.keys = append(b.keys, key)
	if b.session != nil {
		// Reading state here would deadlock if the session held its lock across I/O.
		b.stageDuringCall = b.session.State().Stage
	}
	if b.err != nil {
		return model.Appointment{}, b.err
	}
	return model.Appointment{
		ID:              "appt-1",
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		AppointmentAt:   req.AppointmentAt,
		DurationMinutes: 30,
		Status:          model.StatusConfirmed,
	}, nil
}

func newTestSession(cat *fakeCatalog, booker *fakeBooker) *Session {
	s := NewSession(testMachine(), cat, booker, nil)
	booker.session = s
	return s
}

func driveToConfirming(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SelectService(haircut))
	require.NoError(t, s.SelectStaff(ctx, "staff-1"))
	require.NoError(t, s.SelectDate(monday))
	require.NoError(t, s.SelectTime(model.NewWallClock(9, 0)))
	require.NoError(t, s.EnterContact(ada, ""))
	require.NoError(t, s.Proceed())
}

func TestSession_BooksAppointment(t *testing.T) {
	cat := &fakeCatalog{
		services:  []model.Service{haircut},
		staff:     []model.Staff{{ID: "staff-1", Name: "Grace"}},
		schedules: map[string][]model.ScheduleWindow{"staff-1": weekly},
	}
	booker := &fakeBooker{}
	s := newTestSession(cat, booker)

	assert.Len(t, s.Services(context.Background()), 1)
	assert.Empty(t, s.Staff(context.Background()), "no staff before a service is chosen")

	require.NoError(t, s.SelectService(haircut))
	assert.Len(t, s.Staff(context.Background()), 1)
	require.NoError(t, s.SelectStaff(context.Background(), "staff-1"))
	assert.Len(t, s.State().Schedules, 2)

	require.NoError(t, s.SelectDate(monday))
	assert.Len(t, s.TimeSlots(), 2)
	require.NoError(t, s.SelectTime(model.NewWallClock(9, 0)))
	require.NoError(t, s.EnterContact(ada, "first visit"))
	require.NoError(t, s.Proceed())

	appt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "appt-1", appt.ID)
	assert.Equal(t, Confirming, booker.stageDuringCall)
	require.Len(t, booker.seen, 1)
	assert.Equal(t, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), booker.seen[0].AppointmentAt)
	assert.Equal(t, "first visit", booker.seen[0].Notes)

	st := s.State()
	assert.Equal(t, Booked, st.Stage)
	assert.Equal(t, BookedMessage, st.Success)
}

func TestSession_TransportFailureKeepsDraft(t *testing.T) {
	cat := &fakeCatalog{schedules: map[string][]model.ScheduleWindow{"staff-1": weekly}}
	booker := &fakeBooker{err: errors.New("dial tcp: connection refused")}
	s := newTestSession(cat, booker)
	driveToConfirming(t, s)

	_, err := s.Submit(context.Background())
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, Confirming, st.Stage)
	assert.Equal(t, "dial tcp: connection refused", st.Error)
	assert.Equal(t, ada, st.Draft.Contact)
	require.NotNil(t, st.Draft.Schedule)

	booker.err = nil
	_, err = s.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, booker.keys, 2)
	assert.Equal(t, booker.keys[0], booker.keys[1], "retry of the same draft reuses the idempotency key")
}

func TestSession_ListingFailuresDegradeToEmpty(t *testing.T) {
	cat := &fakeCatalog{failListing: true, failWindows: true}
	s := newTestSession(cat, &fakeBooker{})

	assert.Empty(t, s.Services(context.Background()))
	require.NoError(t, s.SelectService(haircut))
	assert.Empty(t, s.Staff(context.Background()))

	require.NoError(t, s.SelectStaff(context.Background(), "staff-1"))
	st := s.State()
	assert.Equal(t, ChoosingSchedule, st.Stage)
	assert.Empty(t, st.Schedules)
	assert.Equal(t, SchedulesFailedMessage, st.Notice)

	require.NoError(t, s.SelectDate(monday))
	require.NoError(t, s.SelectTime(model.NewWallClock(9, 0)))
	assert.Equal(t, NoScheduleMessage, s.State().Notice)
}

func TestSession_SubmitOutsideConfirming(t *testing.T) {
	s := newTestSession(&fakeCatalog{}, &fakeBooker{})
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s.Reset()
	assert.Equal(t, ChoosingService, s.State().Stage)
}
