package wizard

import (
	"errors"
	"strings"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Stage is the step of the booking flow the customer is on.
type Stage int

const (
	ChoosingService Stage = iota
	ChoosingStaff
	ChoosingSchedule
	Confirming
	// Booked is entered after a successful submission; the draft has been discarded.
	Booked
)

func (s Stage) String() string {
	switch s {
	case ChoosingService:
		return "choosing_service"
	case ChoosingStaff:
		return "choosing_staff"
	case ChoosingSchedule:
		return "choosing_schedule"
	case Confirming:
		return "confirming"
	case Booked:
		return "booked"
	default:
		return "unknown"
	}
}

const (
	NoScheduleMessage      = "No schedule available for this time. Please select a different time."
	SchedulesFailedMessage = "Schedules could not be loaded. No times are available right now."
	BookedMessage          = "Appointment booked successfully."
)

var ErrInvalidTransition = errors.New("invalid wizard transition")

type Contact struct {
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

func (c Contact) trimmed() Contact {
	return Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// Validate requires every contact field to be non-empty after trimming.
func (c Contact) Validate() error {
	t := c.trimmed()
	switch {
	case t.Name == "":
		return model.Invalid("customer_name", "is required")
	case t.Email == "":
		return model.Invalid("customer_email", "is required")
	case t.Phone == "":
		return model.Invalid("customer_phone", "is required")
	}
	return nil
}

// Draft is the in-progress selection of one session.
type Draft struct {
	Service  *model.Service
	StaffID  string
	Date     model.Date
	Time     *model.WallClock
	Schedule *model.ScheduleWindow
	Contact  Contact
	Notes    string
	// IdempotencyKey identifies one submitted draft. Any selection change clears it so a
	// retry of an unchanged draft reuses the key and an edited draft gets a new one.
	IdempotencyKey string
}

// Request builds the appointment request, computing the instant from the currently
// selected date and time.
func (d Draft) Request(zone availability.Zone) (model.BookingRequest, error) {
	if d.Service == nil {
		return model.BookingRequest{}, model.Invalid("service_id", "select a service")
	}
	if d.StaffID == "" {
		return model.BookingRequest{}, model.Invalid("staff_id", "select a staff member")
	}
	if d.Date.IsZero() || d.Time == nil {
		return model.BookingRequest{}, model.Invalid("appointment_date_time", "select a date and time")
	}
	if d.Schedule == nil {
		return model.BookingRequest{}, model.Invalid("schedule", NoScheduleMessage)
	}
	c := d.Contact.trimmed()
	return model.BookingRequest{
		CustomerName:  c.Name,
		CustomerEmail: c.Email,
		CustomerPhone: c.Phone,
		StaffID:       d.StaffID,
		ServiceID:     d.Service.ID,
		AppointmentAt: zone.Instant(d.Date, *d.Time),
		Notes:         strings.TrimSpace(d.Notes),
	}, nil
}

// PendingSchedules is an outstanding schedule listing for StaffID.
type PendingSchedules struct {
	Token   uint64
	StaffID string
}

// PendingSubmission is an outstanding appointment creation.
type PendingSubmission struct {
	Token          uint64
	Request        model.BookingRequest
	IdempotencyKey string
}

// State is a value; Apply never mutates its input.
type State struct {
	Stage     Stage
	Draft     Draft
	Schedules []model.ScheduleWindow
	// Notice is a user-facing message for validation problems and resolution misses.
	Notice string
	// Error is the last submission failure, shown with a retry affordance.
	Error   string
	Success string
	Booked  *model.Appointment

	LoadingSchedules *PendingSchedules
	Submitting       *PendingSubmission

	lastToken uint64
}

func (s State) nextToken() (State, uint64) {
	s.lastToken++
	return s, s.lastToken
}

// DayWindows are the loaded windows applying to the selected date.
func (s State) DayWindows() []model.ScheduleWindow {
	if s.Draft.Date.IsZero() {
		return nil
	}
	return availability.WindowsForDate(s.Schedules, s.Draft.Date)
}

// TimeSlots are the candidate slots for the selected date and service.
func (s State) TimeSlots() []model.CandidateSlot {
	if s.Draft.Service == nil || s.Draft.Date.IsZero() {
		return nil
	}
	return availability.Candidates(s.Schedules, s.Draft.Date, s.Draft.Service.DurationMinutes)
}
