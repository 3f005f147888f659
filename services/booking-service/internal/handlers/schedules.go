package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type scheduleRequest struct {
	StaffID   string `json:"staff_id"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s scheduleRequest) model() (model.ScheduleWindow, error) {
	if s.DayOfWeek == nil {
		return model.ScheduleWindow{}, model.Invalid("day_of_week", "is required")
	}
	start, err := model.ParseWallClock(s.StartTime)
	if err != nil {
		return model.ScheduleWindow{}, model.Invalid("start_time", "must use HH:MM format")
	}
	end, err := model.ParseWallClock(s.EndTime)
	if err != nil {
		return model.ScheduleWindow{}, model.Invalid("end_time", "must use HH:MM format")
	}
	return model.ScheduleWindow{StaffID: s.StaffID, DayOfWeek: *s.DayOfWeek, Start: start, End: end}, nil
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.ListSchedules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) schedulesForStaff(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.SchedulesForStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	win, err := req.model()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.backend.CreateSchedule(r.Context(), win)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.GetSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	win, err := req.model()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.backend.UpdateSchedule(r.Context(), r.PathValue("id"), win)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteSchedule(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
