package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/dashboard"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// stubBackend implements only what a test sets; anything else panics through the nil
// embedded interface.
type stubBackend struct {
	Backend
	zone availability.Zone

	book      func(req model.BookingRequest, key string) (booking.BookResult, error)
	slots     func(q booking.SlotQuery) ([]model.CandidateSlot, error)
	cancel    func(id, reason string) (model.Appointment, error)
	services  func() ([]model.Service, error)
	schedule  func(w model.ScheduleWindow) (model.ScheduleWindow, error)
	dashboard func() (booking.Dashboard, error)
	list      func(q booking.AppointmentQuery) ([]model.Appointment, error)
}

func (s *stubBackend) Zone() availability.Zone { return s.zone }

func (s *stubBackend) Book(_ context.Context, req model.BookingRequest, key string) (booking.BookResult, error) {
	return s.book(req, key)
}

func (s *stubBackend) Slots(_ context.Context, q booking.SlotQuery) ([]model.CandidateSlot, error) {
	return s.slots(q)
}

func (s *stubBackend) Cancel(_ context.Context, id, reason string) (model.Appointment, error) {
	return s.cancel(id, reason)
}

func (s *stubBackend) ListServices(context.Context) ([]model.Service, error) {
	return s.services()
}

func (s *stubBackend) CreateSchedule(_ context.Context, w model.ScheduleWindow) (model.ScheduleWindow, error) {
	return s.schedule(w)
}

func (s *stubBackend) Dashboard(context.Context) (booking.Dashboard, error) {
	return s.dashboard()
}

func (s *stubBackend) Appointments(_ context.Context, q booking.AppointmentQuery) ([]model.Appointment, error) {
	return s.list(q)
}

func newTestServer(t *testing.T, backend *stubBackend, public ...httpx.Middleware) *httptest.Server {
	t.Helper()
	if backend.zone == (availability.Zone{}) {
		loc, err := time.LoadLocation("America/Los_Angeles")
		if err != nil {
			t.Fatalf("load zone: %v", err)
		}
		backend.zone = availability.ZoneFor(loc)
	}
	mux := http.NewServeMux()
	New(backend, nil).Register(mux, public...)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestCreateAppointment(t *testing.T) {
	var gotKey string
	var gotReq model.BookingRequest
	backend := &stubBackend{
		book: func(req model.BookingRequest, key string) (booking.BookResult, error) {
			gotReq, gotKey = req, key
			return booking.BookResult{Appointment: model.Appointment{ID: "a-1", Status: model.StatusConfirmed}}, nil
		},
	}
	srv := newTestServer(t, backend)

	body := `{"customer_name":"Ada","customer_email":"ada@example.com","customer_phone":"555",
		"staff_id":"st-1","service_id":"svc-1","appointment_date_time":"2026-02-02T17:00:00Z"}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(IdempotencyKeyHeader, "draft-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if gotKey != "draft-1" || gotReq.StaffID != "st-1" {
		t.Fatalf("unexpected call %q %+v", gotKey, gotReq)
	}
	if !gotReq.AppointmentAt.Equal(time.Date(2026, 2, 2, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected appointment time %v", gotReq.AppointmentAt)
	}
	var appt model.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil || appt.ID != "a-1" {
		t.Fatalf("unexpected body %+v (%v)", appt, err)
	}
}

func TestCreateAppointmentLocalTimeAndReplay(t *testing.T) {
	var gotReq model.BookingRequest
	backend := &stubBackend{
		book: func(req model.BookingRequest, _ string) (booking.BookResult, error) {
			gotReq = req
			return booking.BookResult{Appointment: model.Appointment{ID: "a-1"}, Replayed: true}, nil
		},
	}
	srv := newTestServer(t, backend)

	body := `{"customer_name":"Ada","customer_email":"ada@example.com","staff_id":"st-1","service_id":"svc-1","appointment_date_time":"2026-02-02T09:00"}`
	resp, err := http.Post(srv.URL+"/api/v1/appointments", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get(ReplayedHeader) != "true" {
		t.Fatalf("expected replayed 200, got %d %q", resp.StatusCode, resp.Header.Get(ReplayedHeader))
	}
	// 09:00 Pacific standard time.
	if !gotReq.AppointmentAt.Equal(time.Date(2026, 2, 2, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected local time read in business zone, got %v", gotReq.AppointmentAt)
	}
}

func TestCreateAppointmentRejectsBadInput(t *testing.T) {
	backend := &stubBackend{
		book: func(model.BookingRequest, string) (booking.BookResult, error) {
			t.Fatal("backend must not be called")
			return booking.BookResult{}, nil
		},
	}
	srv := newTestServer(t, backend)

	cases := []string{
		`{"customer_name":"Ada"`,
		`{"customer_name":"Ada","unknown":1}`,
		`{"customer_name":"Ada","appointment_date_time":"next tuesday"}`,
		`{"customer_name":"Ada"}`,
	}
	for _, body := range cases {
		resp, err := http.Post(srv.URL+"/api/v1/appointments", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{model.Invalid("customer_email", "must be a valid email address"), http.StatusBadRequest, "customer_email: must be a valid email address"},
		{&booking.Error{Kind: booking.ErrNotFound, Message: "staff member not found"}, http.StatusNotFound, "staff member not found"},
		{&booking.Error{Kind: booking.ErrConflict, Message: "time slot is already booked"}, http.StatusConflict, "time slot is already booked"},
		{&booking.Error{Kind: booking.ErrInvalidTransition, Message: "appointment is already cancelled"}, http.StatusConflict, "appointment is already cancelled"},
		{&booking.Error{Kind: booking.ErrOutsideSchedule, Message: "outside"}, http.StatusUnprocessableEntity, "outside"},
		{fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		backend := &stubBackend{
			cancel: func(string, string) (model.Appointment, error) { return model.Appointment{}, tc.err },
		}
		srv := newTestServer(t, backend)
		resp, err := http.Post(srv.URL+"/api/v1/appointments/a-1/cancel", "application/json", nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.StatusCode)
		}
		if msg := decodeError(t, resp); msg != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, msg)
		}
		resp.Body.Close()
	}
}

func TestCancelWithReasonAndEmptyBody(t *testing.T) {
	var reasons []string
	backend := &stubBackend{
		cancel: func(id, reason string) (model.Appointment, error) {
			reasons = append(reasons, reason)
			return model.Appointment{ID: id, Status: model.StatusCancelled}, nil
		},
	}
	srv := newTestServer(t, backend)

	for _, body := range []string{"", `{"reason":"sick"}`} {
		resp, err := http.Post(srv.URL+"/api/v1/appointments/a-1/cancel", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	}
	if len(reasons) != 2 || reasons[0] != "" || reasons[1] != "sick" {
		t.Fatalf("unexpected reasons %q", reasons)
	}
}

func TestSlots(t *testing.T) {
	backend := &stubBackend{
		slots: func(q booking.SlotQuery) ([]model.CandidateSlot, error) {
			if q.Date.String() != "2026-02-02" {
				t.Fatalf("unexpected date %v", q.Date)
			}
			return []model.CandidateSlot{
				{Start: model.NewWallClock(9, 0), End: model.NewWallClock(9, 30), ScheduleID: "w-1"},
				{Start: model.NewWallClock(9, 30), End: model.NewWallClock(10, 0), ScheduleID: "w-1"},
			}, nil
		},
	}
	srv := newTestServer(t, backend)

	resp, err := http.Get(srv.URL + "/api/v1/slots?staff_id=st-1&service_id=svc-1&date=2026-02-02")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TimeZone != "America/Los_Angeles" || len(body.Slots) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Slots[0].StartTime.String() != "09:00" || !body.Slots[0].StartsAt.Equal(time.Date(2026, 2, 2, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first slot %+v", body.Slots[0])
	}

	for _, path := range []string{"/api/v1/slots?staff_id=st-1&service_id=svc-1", "/api/v1/slots?staff_id=st-1&service_id=svc-1&date=02/02/2026"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestCreateScheduleParsesClockTimes(t *testing.T) {
	var got model.ScheduleWindow
	backend := &stubBackend{
		schedule: func(w model.ScheduleWindow) (model.ScheduleWindow, error) {
			got = w
			w.ID = "w-1"
			return w, nil
		},
	}
	srv := newTestServer(t, backend)

	resp, err := http.Post(srv.URL+"/api/v1/schedules", "application/json",
		strings.NewReader(`{"staff_id":"st-1","day_of_week":0,"start_time":"09:00:00","end_time":"24:00"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if got.DayOfWeek != 0 || got.Start.String() != "09:00" || got.End != model.MinutesPerDay {
		t.Fatalf("unexpected window %+v", got)
	}

	for _, body := range []string{
		`{"staff_id":"st-1","start_time":"09:00","end_time":"10:00"}`,
		`{"staff_id":"st-1","day_of_week":1,"start_time":"9am","end_time":"10:00"}`,
	} {
		resp, err := http.Post(srv.URL+"/api/v1/schedules", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestListEndpointsEncodeEmptyArrays(t *testing.T) {
	backend := &stubBackend{
		services: func() ([]model.Service, error) { return nil, nil },
		dashboard: func() (booking.Dashboard, error) {
			return booking.Dashboard{Summary: dashboard.Summary{ByStatus: map[model.Status]int{}}}, nil
		},
	}
	srv := newTestServer(t, backend)

	resp, err := http.Get(srv.URL + "/api/v1/services")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || raw == nil {
		t.Fatalf("expected [] body, got %v (%v)", raw, err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/dashboard")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["upcoming"]) != "[]" || string(body["by_staff"]) != "[]" || string(body["total_revenue_cents"]) != "0" {
		t.Fatalf("unexpected dashboard %v", body)
	}
}

func TestListAppointmentsQuery(t *testing.T) {
	var got booking.AppointmentQuery
	backend := &stubBackend{
		list: func(q booking.AppointmentQuery) ([]model.Appointment, error) {
			got = q
			return nil, nil
		},
	}
	srv := newTestServer(t, backend)

	resp, err := http.Get(srv.URL + "/api/v1/appointments?customer_email=ada@example.com&upcoming=true&limit=5")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !got.Upcoming || got.Limit != 5 || got.CustomerEmail != "ada@example.com" {
		t.Fatalf("unexpected query %+v (status %d)", got, resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/appointments?upcoming=maybe")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPublicMiddlewareWrapsOnlyBookingRoutes(t *testing.T) {
	marker := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Public", "1")
			next.ServeHTTP(w, r)
		})
	}
	backend := &stubBackend{
		services: func() ([]model.Service, error) { return nil, nil },
		slots:    func(booking.SlotQuery) ([]model.CandidateSlot, error) { return nil, nil },
	}
	srv := newTestServer(t, backend, marker)

	resp, err := http.Get(srv.URL + "/api/v1/slots?staff_id=a&service_id=b&date=2026-02-02")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Public") != "1" {
		t.Fatal("expected public middleware on slots")
	}

	resp, err = http.Get(srv.URL + "/api/v1/services")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Public") != "" {
		t.Fatal("catalog routes must not be wrapped")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubBackend{})
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/services", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
