package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type slotItem struct {
	StartTime  model.WallClock `json:"start_time"`
	EndTime    model.WallClock `json:"end_time"`
	ScheduleID string          `json:"schedule_id"`
	StartsAt   time.Time       `json:"starts_at"`
}

type slotsResponse struct {
	Date      model.Date `json:"date"`
	StaffID   string     `json:"staff_id"`
	ServiceID string     `json:"service_id"`
	TimeZone  string     `json:"time_zone"`
	Slots     []slotItem `json:"slots"`
}

func (h *Handler) slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	staffID := strings.TrimSpace(q.Get("staff_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	if staffID == "" || serviceID == "" || q.Get("date") == "" {
		httpx.WriteError(w, http.StatusBadRequest, "staff_id, service_id and date are required")
		return
	}
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "date must use YYYY-MM-DD format")
		return
	}

	slots, err := h.backend.Slots(r.Context(), booking.SlotQuery{StaffID: staffID, ServiceID: serviceID, Date: date})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	zone := h.backend.Zone()
	resp := slotsResponse{
		Date:      date,
		StaffID:   staffID,
		ServiceID: serviceID,
		TimeZone:  zone.String(),
		Slots:     make([]slotItem, 0, len(slots)),
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, slotItem{
			StartTime:  s.Start,
			EndTime:    s.End,
			ScheduleID: s.ScheduleID,
			StartsAt:   zone.Instant(date, s.Start).UTC(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type createAppointmentRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	StaffID       string `json:"staff_id"`
	ServiceID     string `json:"service_id"`
	AppointmentAt string `json:"appointment_date_time"`
	Notes         string `json:"notes"`
}

// localLayouts are accepted for appointment_date_time without an offset; they are read
// in the business time zone.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

func (h *Handler) parseAppointmentTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, model.Invalid("appointment_date_time", "is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, h.backend.Zone().Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.Invalid("appointment_date_time", "must be an RFC 3339 timestamp")
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	at, err := h.parseAppointmentTime(req.AppointmentAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.backend.Book(r.Context(), model.BookingRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		StaffID:       req.StaffID,
		ServiceID:     req.ServiceID,
		AppointmentAt: at,
		Notes:         req.Notes,
	}, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		w.Header().Set(ReplayedHeader, "true")
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, res.Appointment)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := booking.AppointmentQuery{
		StaffID:       q.Get("staff_id"),
		CustomerEmail: q.Get("customer_email"),
	}
	if raw := q.Get("upcoming"); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "upcoming must be true or false")
			return
		}
		query.Upcoming = upcoming
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		query.Limit = limit
	}

	out, err := h.backend.Appointments(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.Appointment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	out, err := h.backend.Cancel(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) completeAppointment(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out.Upcoming = nonNil(out.Upcoming)
	out.ByStaff = nonNil(out.ByStaff)
	httpx.WriteJSON(w, http.StatusOK, out)
}
