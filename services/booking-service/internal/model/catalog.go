package model

import "strings"

type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func (s *Service) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
}

func (s Service) Validate() error {
	if s.Name == "" {
		return Invalid("name", "is required")
	}
	if s.DurationMinutes <= 0 {
		return Invalid("duration_minutes", "must be greater than 0")
	}
	if s.DurationMinutes > MinutesPerDay {
		return Invalid("duration_minutes", "must not exceed one day")
	}
	if s.PriceCents < 0 {
		return Invalid("price_cents", "must not be negative")
	}
	return nil
}

type Staff struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (s *Staff) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Role = strings.TrimSpace(s.Role)
}

func (s Staff) Validate() error {
	if s.Name == "" {
		return Invalid("name", "is required")
	}
	if s.Email == "" {
		return Invalid("email", "is required")
	}
	if !strings.Contains(s.Email, "@") {
		return Invalid("email", "must be a valid email address")
	}
	if s.Role == "" {
		return Invalid("role", "is required")
	}
	return nil
}
