package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func (s serviceRequest) model() model.Service {
	return model.Service{
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
	}
}

type staffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (s staffRequest) model() model.Staff {
	return model.Staff{Name: s.Name, Email: s.Email, Phone: s.Phone, Role: s.Role}
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.ListServices(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.backend.CreateService(r.Context(), req.model())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.backend.UpdateService(r.Context(), r.PathValue("id"), req.model())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) staffForService(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.StaffForService(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.ListStaff(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.backend.CreateStaff(r.Context(), req.model())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) getStaff(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.GetStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) updateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.backend.UpdateStaff(r.Context(), r.PathValue("id"), req.model())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteStaff(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) servicesForStaff(w http.ResponseWriter, r *http.Request) {
	out, err := h.backend.ServicesForStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) assignService(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.AssignService(r.Context(), r.PathValue("id"), r.PathValue("serviceID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unassignService(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.UnassignService(r.Context(), r.PathValue("id"), r.PathValue("serviceID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
