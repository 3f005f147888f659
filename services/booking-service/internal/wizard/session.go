package wizard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Catalog lists what a customer can choose from.
type Catalog interface {
	Services(ctx context.Context) ([]model.Service, error)
	StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error)
	SchedulesForStaff(ctx context.Context, staffID string) ([]model.ScheduleWindow, error)
}

// Booker creates appointments. Sending the same idempotency key again for an unchanged
// draft lets a server that honours it return the first result instead of a duplicate.
type Booker interface {
	SubmitAppointment(ctx context.Context, req model.BookingRequest, idempotencyKey string) (model.Appointment, error)
}

// Session drives one customer's flow. The lock guards transitions only and is never held
// while a Catalog or Booker call is outstanding.
type Session struct {
	machine Machine
	catalog Catalog
	booker  Booker
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

func NewSession(machine Machine, catalog Catalog, booker Booker, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{machine: machine, catalog: catalog, booker: booker, logger: logger}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) apply(ev Event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.machine.Apply(s.state, ev)
	s.state = next
	return next, err
}

// Services lists bookable services. A listing failure degrades to an empty list.
func (s *Session) Services(ctx context.Context) []model.Service {
	out, err := s.catalog.Services(ctx)
	if err != nil {
		s.logger.Warn("list services failed", "err", err)
		return nil
	}
	return out
}

// Staff lists staff offering the selected service. Empty when nothing is selected or the
// listing fails.
func (s *Session) Staff(ctx context.Context) []model.Staff {
	st := s.State()
	if st.Draft.Service == nil {
		return nil
	}
	out, err := s.catalog.StaffForService(ctx, st.Draft.Service.ID)
	if err != nil {
		s.logger.Warn("list staff failed", "err", err, "service_id", st.Draft.Service.ID)
		return nil
	}
	return out
}

func (s *Session) SelectService(svc model.Service) error {
	_, err := s.apply(SelectService{Service: svc})
	return err
}

// SelectStaff selects a staff member and loads their schedule. A response that arrives
// after the user has moved on is dropped by the machine.
func (s *Session) SelectStaff(ctx context.Context, staffID string) error {
	st, err := s.apply(SelectStaff{StaffID: staffID})
	if err != nil {
		return err
	}
	pending := st.LoadingSchedules
	if pending == nil {
		return nil
	}

	windows, ferr := s.catalog.SchedulesForStaff(ctx, pending.StaffID)
	if ferr != nil {
		s.logger.Warn("load schedules failed", "err", ferr, "staff_id", pending.StaffID)
	}
	_, err = s.apply(SchedulesLoaded{Token: pending.Token, StaffID: pending.StaffID, Windows: windows, Err: ferr})
	return err
}

func (s *Session) SelectDate(d model.Date) error {
	_, err := s.apply(SelectDate{Date: d})
	return err
}

func (s *Session) SelectTime(t model.WallClock) error {
	_, err := s.apply(SelectTime{Time: t})
	return err
}

func (s *Session) EnterContact(c Contact, notes string) error {
	_, err := s.apply(EnterContact{Contact: c, Notes: notes})
	return err
}

func (s *Session) Proceed() error {
	_, err := s.apply(Proceed{})
	return err
}

func (s *Session) GoTo(stage Stage) error {
	_, err := s.apply(GoTo{Stage: stage})
	return err
}

func (s *Session) Reset() {
	_, _ = s.apply(Reset{})
}

// Submit sends the confirmed draft. On failure the draft stays in Confirming and the
// error is returned as well as recorded in State().Error.
func (s *Session) Submit(ctx context.Context) (model.Appointment, error) {
	st, err := s.apply(Submit{})
	if err != nil {
		return model.Appointment{}, err
	}
	p := st.Submitting

	appt, berr := s.booker.SubmitAppointment(ctx, p.Request, p.IdempotencyKey)
	if berr != nil {
		if !model.IsValidation(berr) {
			s.logger.Warn("submit appointment failed", "err", berr, "staff_id", p.Request.StaffID)
		}
		_, _ = s.apply(SubmitFailed{Token: p.Token, Err: berr})
		return model.Appointment{}, berr
	}
	_, _ = s.apply(SubmitSucceeded{Token: p.Token, Appointment: appt})
	return appt, nil
}

// TimeSlots are the candidate slots for the selected date.
func (s *Session) TimeSlots() []model.CandidateSlot {
	return s.State().TimeSlots()
}
