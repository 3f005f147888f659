package availability

import "github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"

// Generate returns the slot starts of w for a service of durationMinutes. Slots start at
// w.Start, are back to back, and a trailing partial slot is dropped.
func Generate(w model.ScheduleWindow, durationMinutes int) []model.WallClock {
	if durationMinutes <= 0 || w.End <= w.Start {
		return nil
	}
	if w.Length() < durationMinutes {
		return nil
	}

	slots := make([]model.WallClock, 0, w.Length()/durationMinutes)
	for t := w.Start; t.Add(durationMinutes) <= w.End; t = t.Add(durationMinutes) {
		slots = append(slots, t)
	}
	return slots
}

// WindowsForDate keeps the windows whose DayOfWeek matches date (Sunday = 0), in input order.
// An empty result means the staff member is unavailable that day.
func WindowsForDate(windows []model.ScheduleWindow, date model.Date) []model.ScheduleWindow {
	dow := date.Weekday()
	var out []model.ScheduleWindow
	for _, w := range windows {
		if w.DayOfWeek == dow {
			out = append(out, w)
		}
	}
	return out
}

// Resolve returns the first window with Start <= t < End. It works on windows, not on
// generated slots: a time inside a window resolves even when it is not a slot start.
func Resolve(candidates []model.ScheduleWindow, t model.WallClock) (model.ScheduleWindow, bool) {
	for _, w := range candidates {
		if w.Contains(t) {
			return w, true
		}
	}
	return model.ScheduleWindow{}, false
}

// Candidates runs the day filter and the generator over every matching window.
func Candidates(windows []model.ScheduleWindow, date model.Date, durationMinutes int) []model.CandidateSlot {
	var out []model.CandidateSlot
	for _, w := range WindowsForDate(windows, date) {
		for _, start := range Generate(w, durationMinutes) {
			out = append(out, model.CandidateSlot{
				Start:      start,
				End:        start.Add(durationMinutes),
				ScheduleID: w.ID,
			})
		}
	}
	return out
}

// FitWindow returns the window of date's weekday that fully contains
// [start, start+durationMinutes].
func FitWindow(windows []model.ScheduleWindow, date model.Date, start model.WallClock, durationMinutes int) (model.ScheduleWindow, bool) {
	if durationMinutes <= 0 {
		return model.ScheduleWindow{}, false
	}
	end := start.Add(durationMinutes)
	for _, w := range WindowsForDate(windows, date) {
		if start >= w.Start && end <= w.End {
			return w, true
		}
	}
	return model.ScheduleWindow{}, false
}

// Overlaps reports whether two windows share a weekday and intersect as half-open intervals.
// Touching windows (09:00-12:00, 12:00-17:00) do not overlap.
func Overlaps(a, b model.ScheduleWindow) bool {
	return a.DayOfWeek == b.DayOfWeek && a.Start < b.End && b.Start < a.End
}

// FindOverlap returns the first window in existing that overlaps candidate, skipping the
// candidate's own ID so an update does not collide with itself.
func FindOverlap(existing []model.ScheduleWindow, candidate model.ScheduleWindow) (model.ScheduleWindow, bool) {
	for _, w := range existing {
		if candidate.ID != "" && w.ID == candidate.ID {
			continue
		}
		if w.StaffID != candidate.StaffID {
			continue
		}
		if Overlaps(w, candidate) {
			return w, true
		}
	}
	return model.ScheduleWindow{}, false
}
