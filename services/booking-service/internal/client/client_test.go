package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/wizard"
)

var (
	_ wizard.Catalog = (*Client)(nil)
	_ wizard.Booker  = (*Client)(nil)
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", HTTPClient: srv.Client(), UserAgent: "booking-sim/test"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "localhost:8083"})
	require.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:8083"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.http.Timeout)
}

func TestCatalogCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "booking-sim/test", r.UserAgent())
		switch r.URL.Path {
		case "/api/v1/services":
			_, _ = w.Write([]byte(`[{"id":"svc-1","name":"Haircut","duration_minutes":30,"price_cents":2500}]`))
		case "/api/v1/services/svc-1/staff":
			_, _ = w.Write([]byte(`[{"id":"st-1","name":"Grace"}]`))
		case "/api/v1/staff/st-1/schedules":
			_, _ = w.Write([]byte(`[{"id":"w-1","staff_id":"st-1","day_of_week":1,"start_time":"09:00","end_time":"12:00"}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	services, err := c.Services(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 30, services[0].DurationMinutes)

	staff, err := c.StaffForService(ctx, "svc-1")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "Grace", staff[0].Name)

	windows, err := c.SchedulesForStaff(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, model.NewWallClock(12, 0), windows[0].End)
}

func TestSubmitAppointmentSendsIdempotencyKey(t *testing.T) {
	at := time.Date(2026, 2, 2, 17, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/appointments", r.URL.Path)
		assert.Equal(t, "draft-7", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2026-02-02T17:00:00Z", req["appointment_date_time"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a-1","status":"confirmed","appointment_date_time":"2026-02-02T17:00:00Z"}`))
	})

	appt, err := c.SubmitAppointment(context.Background(), model.BookingRequest{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		StaffID:       "st-1",
		ServiceID:     "svc-1",
		AppointmentAt: at,
	}, "draft-7")
	require.NoError(t, err)
	assert.Equal(t, "a-1", appt.ID)
	assert.Equal(t, model.StatusConfirmed, appt.Status)
	assert.True(t, appt.AppointmentAt.Equal(at))
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusBadRequest, func(t *testing.T, err error) {
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "boom", ve.Message)
		}},
		{http.StatusUnprocessableEntity, func(t *testing.T, err error) {
			assert.True(t, model.IsValidation(err))
		}},
		{http.StatusConflict, func(t *testing.T, err error) {
			assert.True(t, IsConflict(err))
			assert.False(t, model.IsValidation(err))
		}},
		{http.StatusNotFound, func(t *testing.T, err error) {
			assert.True(t, IsNotFound(err))
		}},
		{http.StatusServiceUnavailable, func(t *testing.T, err error) {
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
			assert.Equal(t, "boom", te.Message)
		}},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		})
		_, err := c.SubmitAppointment(context.Background(), model.BookingRequest{}, "")
		require.Error(t, err, "status %d", tc.status)
		tc.check(t, err)
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Services(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSlotsAndAppointmentsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/v1/slots":
			assert.Equal(t, "2026-02-02", q.Get("date"))
			assert.Equal(t, "st-1", q.Get("staff_id"))
			_, _ = w.Write([]byte(`{"date":"2026-02-02","staff_id":"st-1","service_id":"svc-1","time_zone":"UTC",
				"slots":[{"start_time":"09:00","end_time":"09:30","schedule_id":"w-1","starts_at":"2026-02-02T09:00:00Z"}]}`))
		case "/api/v1/appointments":
			assert.Equal(t, "true", q.Get("upcoming"))
			assert.Equal(t, "ada@example.com", q.Get("customer_email"))
			assert.Equal(t, "3", q.Get("limit"))
			assert.Empty(t, q.Get("staff_id"))
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	slots, err := c.Slots(ctx, "st-1", "svc-1", model.Date{Year: 2026, Month: time.February, Day: 2})
	require.NoError(t, err)
	require.Len(t, slots.Slots, 1)
	assert.Equal(t, model.NewWallClock(9, 0), slots.Slots[0].StartTime)

	list, err := c.Appointments(ctx, AppointmentFilter{CustomerEmail: "ada@example.com", Upcoming: true, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCancelSendsReasonOnlyWhenSet(t *testing.T) {
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			bodies = append(bodies, string(raw))
		} else {
			bodies = append(bodies, "")
		}
		_, _ = w.Write([]byte(`{"id":"a-1","status":"cancelled"}`))
	})

	_, err := c.CancelAppointment(context.Background(), "a-1", "")
	require.NoError(t, err)
	appt, err := c.CancelAppointment(context.Background(), "a-1", "sick")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, appt.Status)
	assert.Equal(t, []string{"", `{"reason":"sick"}`}, bodies)
}
