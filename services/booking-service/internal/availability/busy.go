package availability

import (
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Interval is a half-open absolute time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// ExcludeBusy drops candidates on date whose interval overlaps any of busy.
func ExcludeBusy(slots []model.CandidateSlot, date model.Date, busy []Interval, zone Zone) []model.CandidateSlot {
	if len(busy) == 0 {
		return slots
	}
	out := make([]model.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		start := zone.Instant(date, s.Start)
		end := zone.Instant(date, s.End)
		if !overlapsAny(start, end, busy) {
			out = append(out, s)
		}
	}
	return out
}

// ExcludePast drops candidates on date that start before now.
func ExcludePast(slots []model.CandidateSlot, date model.Date, now time.Time, zone Zone) []model.CandidateSlot {
	out := make([]model.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		if zone.Instant(date, s.Start).Before(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
