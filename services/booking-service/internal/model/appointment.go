package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is the durable booking record. It is only ever mutated through status
// transitions and never deleted.
type Appointment struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	StaffID         string    `json:"staff_id"`
	ServiceID       string    `json:"service_id"`
	AppointmentAt   time.Time `json:"appointment_date_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a Appointment) EndsAt() time.Time {
	return a.AppointmentAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentDetail joins an appointment with the service fields the dashboard needs.
type AppointmentDetail struct {
	Appointment
	ServiceName string `json:"service_name"`
	StaffName   string `json:"staff_name"`
	PriceCents  int64  `json:"price_cents"`
}

// BookingRequest carries the draft fields submitted to create an appointment.
type BookingRequest struct {
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	StaffID       string    `json:"staff_id"`
	ServiceID     string    `json:"service_id"`
	AppointmentAt time.Time `json:"appointment_date_time"`
	Notes         string    `json:"notes,omitempty"`
}

func (r *BookingRequest) Normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.StaffID = strings.TrimSpace(r.StaffID)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.Notes = strings.TrimSpace(r.Notes)
}

// Validate checks the fields the server requires. Phone is optional server-side.
func (r BookingRequest) Validate() error {
	if r.CustomerName == "" {
		return Invalid("customer_name", "is required")
	}
	if r.CustomerEmail == "" {
		return Invalid("customer_email", "is required")
	}
	if !strings.Contains(r.CustomerEmail, "@") {
		return Invalid("customer_email", "must be a valid email address")
	}
	if r.StaffID == "" {
		return Invalid("staff_id", "is required")
	}
	if r.ServiceID == "" {
		return Invalid("service_id", "is required")
	}
	if r.AppointmentAt.IsZero() {
		return Invalid("appointment_date_time", "is required")
	}
	return nil
}
