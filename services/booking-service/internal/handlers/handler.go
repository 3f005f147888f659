package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Backend is the booking application surface the HTTP layer drives. *booking.Service
// implements it.
type Backend interface {
	Zone() availability.Zone

	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
	UpdateService(ctx context.Context, id string, svc model.Service) (model.Service, error)
	DeleteService(ctx context.Context, id string) error
	GetService(ctx context.Context, id string) (model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error)

	CreateStaff(ctx context.Context, st model.Staff) (model.Staff, error)
	UpdateStaff(ctx context.Context, id string, st model.Staff) (model.Staff, error)
	DeleteStaff(ctx context.Context, id string) error
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	ServicesForStaff(ctx context.Context, staffID string) ([]model.Service, error)
	AssignService(ctx context.Context, staffID, serviceID string) error
	UnassignService(ctx context.Context, staffID, serviceID string) error

	CreateSchedule(ctx context.Context, w model.ScheduleWindow) (model.ScheduleWindow, error)
	UpdateSchedule(ctx context.Context, id string, w model.ScheduleWindow) (model.ScheduleWindow, error)
	DeleteSchedule(ctx context.Context, id string) error
	GetSchedule(ctx context.Context, id string) (model.ScheduleWindow, error)
	ListSchedules(ctx context.Context) ([]model.ScheduleWindow, error)
	SchedulesForStaff(ctx context.Context, staffID string) ([]model.ScheduleWindow, error)

	Slots(ctx context.Context, q booking.SlotQuery) ([]model.CandidateSlot, error)
	Book(ctx context.Context, req model.BookingRequest, idempotencyKey string) (booking.BookResult, error)
	Cancel(ctx context.Context, id, reason string) (model.Appointment, error)
	Complete(ctx context.Context, id string) (model.Appointment, error)
	Appointments(ctx context.Context, q booking.AppointmentQuery) ([]model.Appointment, error)
	Appointment(ctx context.Context, id string) (model.Appointment, error)
	Dashboard(ctx context.Context) (booking.Dashboard, error)
}

var _ Backend = (*booking.Service)(nil)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

type Handler struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{backend: backend, logger: logger}
}

// Register mounts every route on mux. public wraps the customer-facing booking routes
// (slot search and appointment creation), typically with a rate limiter.
func (h *Handler) Register(mux *http.ServeMux, public ...httpx.Middleware) {
	wrap := func(f http.HandlerFunc) http.Handler {
		return httpx.Chain(f, public...)
	}

	mux.HandleFunc("GET /api/v1/services", h.listServices)
	mux.HandleFunc("POST /api/v1/services", h.createService)
	mux.HandleFunc("GET /api/v1/services/{id}", h.getService)
	mux.HandleFunc("PUT /api/v1/services/{id}", h.updateService)
	mux.HandleFunc("DELETE /api/v1/services/{id}", h.deleteService)
	mux.HandleFunc("GET /api/v1/services/{id}/staff", h.staffForService)

	mux.HandleFunc("GET /api/v1/staff", h.listStaff)
	mux.HandleFunc("POST /api/v1/staff", h.createStaff)
	mux.HandleFunc("GET /api/v1/staff/{id}", h.getStaff)
	mux.HandleFunc("PUT /api/v1/staff/{id}", h.updateStaff)
	mux.HandleFunc("DELETE /api/v1/staff/{id}", h.deleteStaff)
	mux.HandleFunc("GET /api/v1/staff/{id}/services", h.servicesForStaff)
	mux.HandleFunc("POST /api/v1/staff/{id}/services/{serviceID}", h.assignService)
	mux.HandleFunc("DELETE /api/v1/staff/{id}/services/{serviceID}", h.unassignService)
	mux.HandleFunc("GET /api/v1/staff/{id}/schedules", h.schedulesForStaff)

	mux.HandleFunc("GET /api/v1/schedules", h.listSchedules)
	mux.HandleFunc("POST /api/v1/schedules", h.createSchedule)
	mux.HandleFunc("GET /api/v1/schedules/{id}", h.getSchedule)
	mux.HandleFunc("PUT /api/v1/schedules/{id}", h.updateSchedule)
	mux.HandleFunc("DELETE /api/v1/schedules/{id}", h.deleteSchedule)

	mux.Handle("GET /api/v1/slots", wrap(h.slots))
	mux.HandleFunc("GET /api/v1/appointments", h.listAppointments)
	mux.Handle("POST /api/v1/appointments", wrap(h.createAppointment))
	mux.HandleFunc("GET /api/v1/appointments/{id}", h.getAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/cancel", h.cancelAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/complete", h.completeAppointment)

	mux.HandleFunc("GET /api/v1/dashboard", h.dashboard)
}

// writeError maps application errors onto status codes. Only unexpected failures are
// logged at error level.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, booking.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrConflict), errors.Is(err, booking.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrOutsideSchedule):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case unavailable(err):
		h.logger.Warn("dependency unavailable", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.logger.Error("request failed", "err", err, "method", r.Method, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func unavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &connectErr) || pgconn.Timeout(err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
