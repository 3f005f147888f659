package model

// ScheduleWindow is one weekly recurring availability block of a staff member.
type ScheduleWindow struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	DayOfWeek int       `json:"day_of_week"`
	Start     WallClock `json:"start_time"`
	End       WallClock `json:"end_time"`
}

func (w ScheduleWindow) Validate() error {
	if w.StaffID == "" {
		return Invalid("staff_id", "is required")
	}
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return Invalid("day_of_week", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	if !w.Start.Valid() || w.Start >= MinutesPerDay {
		return Invalid("start_time", "must be between 00:00 and 23:59")
	}
	if !w.End.Valid() {
		return Invalid("end_time", "must be between 00:01 and 24:00")
	}
	if w.Start >= w.End {
		return Invalid("end_time", "must be after start_time")
	}
	return nil
}

// Length is the window duration in minutes.
func (w ScheduleWindow) Length() int {
	return int(w.End - w.Start)
}

// Contains reports start <= t < end.
func (w ScheduleWindow) Contains(t WallClock) bool {
	return w.Start <= t && t < w.End
}

// CandidateSlot is a bookable start derived from a window and a service duration.
// It is recomputed on every query and never stored.
type CandidateSlot struct {
	Start      WallClock `json:"start_time"`
	End        WallClock `json:"end_time"`
	ScheduleID string    `json:"schedule_id,omitempty"`
}
