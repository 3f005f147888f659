package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Topics. The Kafka topic name equals EventType.
const (
	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
	EventAppointmentCompleted = "booking.appointment.completed.v1"

	AggregateAppointment = "appointment"
)

// Event is the envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentPayload struct {
	AppointmentID string       `json:"appointment_id"`
	StaffID       string       `json:"staff_id"`
	ServiceID     string       `json:"service_id"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email"`
	Status        model.Status `json:"status"`
	StartsAt      time.Time    `json:"starts_at"`
	EndsAt        time.Time    `json:"ends_at"`
	Reason        string       `json:"reason,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// AppointmentEvent builds the lifecycle event for a, keyed by the appointment id.
func AppointmentEvent(eventType string, a model.Appointment, reason string, at time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: a.ID,
		StaffID:       a.StaffID,
		ServiceID:     a.ServiceID,
		CustomerName:  a.CustomerName,
		CustomerEmail: a.CustomerEmail,
		Status:        a.Status,
		StartsAt:      a.AppointmentAt.UTC(),
		EndsAt:        a.EndsAt().UTC(),
		Reason:        reason,
		OccurredAt:    at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
