package wizard

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Machine is the pure transition function of the booking flow.
type Machine struct {
	Zone   availability.Zone
	NewKey func() string
}

func NewMachine(zone availability.Zone) Machine {
	return Machine{Zone: zone, NewKey: uuid.NewString}
}

// Apply returns the state after ev. Illegal moves return ErrInvalidTransition and the
// input state. Failed guards return a *model.ValidationError and the input state with
// Notice set to the message.
func (m Machine) Apply(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case Reset:
		return State{lastToken: s.lastToken}, nil
	case SchedulesLoaded:
		return m.schedulesLoaded(s, e), nil
	case SubmitSucceeded:
		return m.submitSucceeded(s, e), nil
	case SubmitFailed:
		return m.submitFailed(s, e), nil
	}

	if s.Submitting != nil {
		return s, invalid(ev, s)
	}

	switch e := ev.(type) {
	case SelectService:
		return m.selectService(s, e)
	case SelectStaff:
		return m.selectStaff(s, e)
	case SelectDate:
		return m.selectDate(s, e)
	case SelectTime:
		return m.selectTime(s, e)
	case EnterContact:
		return m.enterContact(s, e)
	case Proceed:
		return m.proceed(s)
	case Submit:
		return m.submit(s)
	case GoTo:
		return m.goTo(s, e)
	}
	return s, invalid(ev, s)
}

func invalid(ev Event, s State) error {
	return fmt.Errorf("%w: %T in stage %s", ErrInvalidTransition, ev, s.Stage)
}

func rejected(s State, err *model.ValidationError) (State, error) {
	s.Notice = err.Message
	return s, err
}

func inStage(s State, stages ...Stage) bool {
	for _, st := range stages {
		if s.Stage == st {
			return true
		}
	}
	return false
}

func (m Machine) selectService(s State, e SelectService) (State, error) {
	if strings.TrimSpace(e.Service.ID) == "" {
		return rejected(s, model.Invalid("service_id", "select a service"))
	}
	svc := e.Service
	next := State{
		Stage: ChoosingStaff,
		Draft: Draft{
			Service: &svc,
			Contact: s.Draft.Contact,
			Notes:   s.Draft.Notes,
		},
		lastToken: s.lastToken,
	}
	return next, nil
}

func (m Machine) selectStaff(s State, e SelectStaff) (State, error) {
	if !inStage(s, ChoosingStaff, ChoosingSchedule, Confirming) || s.Draft.Service == nil {
		return s, invalid(e, s)
	}
	staffID := strings.TrimSpace(e.StaffID)
	if staffID == "" {
		return rejected(s, model.Invalid("staff_id", "select a staff member"))
	}

	next, token := s.nextToken()
	next.Stage = ChoosingSchedule
	next.Draft = Draft{
		Service: s.Draft.Service,
		StaffID: staffID,
		Contact: s.Draft.Contact,
		Notes:   s.Draft.Notes,
	}
	next.Schedules = nil
	next.LoadingSchedules = &PendingSchedules{Token: token, StaffID: staffID}
	next.Notice = ""
	next.Error = ""
	return next, nil
}

func (m Machine) schedulesLoaded(s State, e SchedulesLoaded) State {
	p := s.LoadingSchedules
	if p == nil || p.Token != e.Token || p.StaffID != e.StaffID {
		// Late answer to a request the user has moved past.
		return s
	}
	s.LoadingSchedules = nil
	if e.Err != nil {
		s.Schedules = nil
		s.Notice = SchedulesFailedMessage
	} else {
		s.Schedules = append([]model.ScheduleWindow(nil), e.Windows...)
		s.Notice = ""
	}
	if s.Draft.Time != nil {
		s = m.resolve(s)
	}
	return s
}

func (m Machine) selectDate(s State, e SelectDate) (State, error) {
	if !inStage(s, ChoosingSchedule, Confirming) {
		return s, invalid(e, s)
	}
	if e.Date.IsZero() {
		return rejected(s, model.Invalid("appointment_date", "select a date"))
	}
	s.Stage = ChoosingSchedule
	s.Draft.Date = e.Date
	s.Draft.Time = nil
	s.Draft.Schedule = nil
	s.Draft.IdempotencyKey = ""
	s.Notice = ""
	return s, nil
}

func (m Machine) selectTime(s State, e SelectTime) (State, error) {
	if !inStage(s, ChoosingSchedule, Confirming) {
		return s, invalid(e, s)
	}
	if s.Draft.Date.IsZero() {
		return rejected(s, model.Invalid("appointment_date", "select a date first"))
	}
	if !e.Time.Valid() || e.Time >= model.MinutesPerDay {
		return rejected(s, model.Invalid("appointment_time", "must be between 00:00 and 23:59"))
	}
	t := e.Time
	s.Draft.Time = &t
	s.Draft.IdempotencyKey = ""
	return m.resolve(s), nil
}

// resolve re-associates the selected time with a window of the selected date. A miss is
// reported through Notice and drops the flow back to ChoosingSchedule.
func (m Machine) resolve(s State) State {
	w, ok := availability.Resolve(s.DayWindows(), *s.Draft.Time)
	if !ok {
		s.Draft.Schedule = nil
		s.Notice = NoScheduleMessage
		if s.Stage == Confirming {
			s.Stage = ChoosingSchedule
		}
		return s
	}
	s.Draft.Schedule = &w
	s.Notice = ""
	return s
}

func (m Machine) enterContact(s State, e EnterContact) (State, error) {
	if !inStage(s, ChoosingSchedule, Confirming) {
		return s, invalid(e, s)
	}
	s.Draft.Contact = e.Contact
	s.Draft.Notes = e.Notes
	s.Draft.IdempotencyKey = ""
	return s, nil
}

// confirmable re-runs resolution instead of trusting the stored window, then checks contact.
func (m Machine) confirmable(s State) *model.ValidationError {
	if s.Draft.Time == nil || s.Draft.Schedule == nil {
		return model.Invalid("schedule", NoScheduleMessage)
	}
	w, ok := availability.Resolve(s.DayWindows(), *s.Draft.Time)
	if !ok || w.ID != s.Draft.Schedule.ID {
		return model.Invalid("schedule", NoScheduleMessage)
	}
	if err := s.Draft.Contact.Validate(); err != nil {
		return err.(*model.ValidationError)
	}
	return nil
}

func (m Machine) proceed(s State) (State, error) {
	if s.Stage != ChoosingSchedule {
		return s, invalid(Proceed{}, s)
	}
	if verr := m.confirmable(s); verr != nil {
		return rejected(s, verr)
	}
	s.Stage = Confirming
	s.Notice = ""
	return s, nil
}

func (m Machine) submit(s State) (State, error) {
	if s.Stage != Confirming {
		return s, invalid(Submit{}, s)
	}
	if verr := m.confirmable(s); verr != nil {
		return rejected(s, verr)
	}
	req, err := s.Draft.Request(m.Zone)
	if err != nil {
		return rejected(s, err.(*model.ValidationError))
	}
	if s.Draft.IdempotencyKey == "" {
		s.Draft.IdempotencyKey = m.newKey()
	}

	next, token := s.nextToken()
	next.Submitting = &PendingSubmission{Token: token, Request: req, IdempotencyKey: s.Draft.IdempotencyKey}
	next.Error = ""
	next.Notice = ""
	return next, nil
}

func (m Machine) newKey() string {
	if m.NewKey == nil {
		return uuid.NewString()
	}
	return m.NewKey()
}

func (m Machine) submitSucceeded(s State, e SubmitSucceeded) State {
	if s.Submitting == nil || s.Submitting.Token != e.Token {
		return s
	}
	appt := e.Appointment
	return State{
		Stage:     Booked,
		Success:   BookedMessage,
		Booked:    &appt,
		lastToken: s.lastToken,
	}
}

func (m Machine) submitFailed(s State, e SubmitFailed) State {
	if s.Submitting == nil || s.Submitting.Token != e.Token {
		return s
	}
	s.Submitting = nil
	s.Stage = Confirming
	if e.Err != nil {
		s.Error = e.Err.Error()
	} else {
		s.Error = "booking failed"
	}
	return s
}

func (m Machine) goTo(s State, e GoTo) (State, error) {
	if s.Stage == Booked || e.Stage < ChoosingService || e.Stage >= s.Stage {
		return s, invalid(e, s)
	}
	s.Stage = e.Stage
	s.Notice = ""
	return s, nil
}
