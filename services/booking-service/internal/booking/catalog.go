package booking

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

func (s *Service) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	svc.Normalize()
	if err := svc.Validate(); err != nil {
		return model.Service{}, err
	}
	out, err := s.catalog.CreateService(ctx, svc)
	if err != nil {
		return model.Service{}, fmt.Errorf("create service: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, svc model.Service) (model.Service, error) {
	if !validID(id) {
		return model.Service{}, notFound("service")
	}
	svc.ID = id
	svc.Normalize()
	if err := svc.Validate(); err != nil {
		return model.Service{}, err
	}
	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		if storage.IsNotFound(err) {
			return model.Service{}, notFound("service")
		}
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}
	return svc, nil
}

// DeleteService refuses to remove a service that staff offer or that was ever booked.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("service")
	}
	if _, err := s.catalog.GetService(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			return notFound("service")
		}
		return fmt.Errorf("get service: %w", err)
	}
	assigned, err := s.catalog.CountAssignments(ctx, id)
	if err != nil {
		return fmt.Errorf("count assignments: %w", err)
	}
	if assigned > 0 {
		return conflict("service is assigned to staff members")
	}
	booked, err := s.appointments.CountByService(ctx, id)
	if err != nil {
		return fmt.Errorf("count appointments: %w", err)
	}
	if booked > 0 {
		return conflict("service has appointments")
	}
	if err := s.catalog.DeleteService(ctx, id); err != nil {
		switch {
		case storage.IsNotFound(err):
			return notFound("service")
		case storage.IsForeignKeyViolation(err):
			return conflict("service is still referenced")
		}
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func (s *Service) GetService(ctx context.Context, id string) (model.Service, error) {
	if !validID(id) {
		return model.Service{}, notFound("service")
	}
	svc, err := s.catalog.GetService(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Service{}, notFound("service")
		}
		return model.Service{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

func (s *Service) ListServices(ctx context.Context) ([]model.Service, error) {
	return s.catalog.ListServices(ctx)
}

func (s *Service) StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error) {
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}
	return s.catalog.StaffForService(ctx, serviceID)
}

func (s *Service) CreateStaff(ctx context.Context, st model.Staff) (model.Staff, error) {
	st.Normalize()
	if err := st.Validate(); err != nil {
		return model.Staff{}, err
	}
	out, err := s.catalog.CreateStaff(ctx, st)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return model.Staff{}, conflict("a staff member with this email already exists")
		}
		return model.Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateStaff(ctx context.Context, id string, st model.Staff) (model.Staff, error) {
	if !validID(id) {
		return model.Staff{}, notFound("staff member")
	}
	st.ID = id
	st.Normalize()
	if err := st.Validate(); err != nil {
		return model.Staff{}, err
	}
	if err := s.catalog.UpdateStaff(ctx, st); err != nil {
		switch {
		case storage.IsNotFound(err):
			return model.Staff{}, notFound("staff member")
		case storage.IsUniqueViolation(err):
			return model.Staff{}, conflict("a staff member with this email already exists")
		}
		return model.Staff{}, fmt.Errorf("update staff: %w", err)
	}
	return st, nil
}

// DeleteStaff refuses to remove staff with appointments. Their schedules and service
// assignments go with them.
func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("staff member")
	}
	booked, err := s.appointments.CountByStaff(ctx, id)
	if err != nil {
		return fmt.Errorf("count appointments: %w", err)
	}
	if booked > 0 {
		return conflict("staff member has appointments")
	}
	if err := s.catalog.DeleteStaff(ctx, id); err != nil {
		switch {
		case storage.IsNotFound(err):
			return notFound("staff member")
		case storage.IsForeignKeyViolation(err):
			return conflict("staff member is still referenced")
		}
		return fmt.Errorf("delete staff: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

func (s *Service) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	if !validID(id) {
		return model.Staff{}, notFound("staff member")
	}
	st, err := s.catalog.GetStaff(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Staff{}, notFound("staff member")
		}
		return model.Staff{}, fmt.Errorf("get staff: %w", err)
	}
	return st, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]model.Staff, error) {
	return s.catalog.ListStaff(ctx)
}

func (s *Service) ServicesForStaff(ctx context.Context, staffID string) ([]model.Service, error) {
	if _, err := s.GetStaff(ctx, staffID); err != nil {
		return nil, err
	}
	return s.catalog.ServicesForStaff(ctx, staffID)
}

// AssignService lets staffID offer serviceID. Assigning twice is a no-op.
func (s *Service) AssignService(ctx context.Context, staffID, serviceID string) error {
	if _, err := s.GetStaff(ctx, staffID); err != nil {
		return err
	}
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return err
	}
	if err := s.catalog.AssignService(ctx, staffID, serviceID); err != nil {
		return fmt.Errorf("assign service: %w", err)
	}
	return nil
}

func (s *Service) UnassignService(ctx context.Context, staffID, serviceID string) error {
	if !validID(staffID) || !validID(serviceID) {
		return notFound("assignment")
	}
	if err := s.catalog.UnassignService(ctx, staffID, serviceID); err != nil {
		if storage.IsNotFound(err) {
			return notFound("assignment")
		}
		return fmt.Errorf("unassign service: %w", err)
	}
	return nil
}
