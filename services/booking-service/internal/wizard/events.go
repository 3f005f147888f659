package wizard

import "github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"

// Event is an input to Machine.Apply.
type Event interface {
	event()
}

type SelectService struct{ Service model.Service }

type SelectStaff struct{ StaffID string }

// SchedulesLoaded answers a PendingSchedules. A non-nil Err means no schedule data.
type SchedulesLoaded struct {
	Token   uint64
	StaffID string
	Windows []model.ScheduleWindow
	Err     error
}

type SelectDate struct{ Date model.Date }

type SelectTime struct{ Time model.WallClock }

type EnterContact struct {
	Contact Contact
	Notes   string
}

// Proceed moves from ChoosingSchedule to Confirming.
type Proceed struct{}

// Submit starts an appointment creation from Confirming.
type Submit struct{}

type SubmitSucceeded struct {
	Token       uint64
	Appointment model.Appointment
}

type SubmitFailed struct {
	Token uint64
	Err   error
}

// GoTo navigates back to an earlier stage, keeping selections.
type GoTo struct{ Stage Stage }

type Reset struct{}

func (SelectService) event()   {}
func (SelectStaff) event()     {}
func (SchedulesLoaded) event() {}
func (SelectDate) event()      {}
func (SelectTime) event()      {}
func (EnterContact) event()    {}
func (Proceed) event()         {}
func (Submit) event()          {}
func (SubmitSucceeded) event() {}
func (SubmitFailed) event()    {}
func (GoTo) event()            {}
func (Reset) event()           {}
