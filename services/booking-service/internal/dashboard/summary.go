package dashboard

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

type StaffCount struct {
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name,omitempty"`
	Count     int    `json:"count"`
}

type Summary struct {
	Total             int                  `json:"total"`
	TotalRevenueCents int64                `json:"total_revenue_cents"`
	ByStatus          map[model.Status]int `json:"by_status"`
	ByStaff           []StaffCount         `json:"by_staff"`
}

// Summarize derives revenue (completed appointments only) and per-staff counts (every
// status). ByStaff is ordered by count descending, then staff id.
func Summarize(details []model.AppointmentDetail) Summary {
	s := Summary{
		Total:    len(details),
		ByStatus: map[model.Status]int{},
	}
	counts := map[string]*StaffCount{}
	for _, d := range details {
		s.ByStatus[d.Status]++
		if d.Status == model.StatusCompleted {
			s.TotalRevenueCents += d.PriceCents
		}
		c := counts[d.StaffID]
		if c == nil {
			c = &StaffCount{StaffID: d.StaffID, StaffName: d.StaffName}
			counts[d.StaffID] = c
		}
		c.Count++
	}

	s.ByStaff = make([]StaffCount, 0, len(counts))
	for _, c := range counts {
		s.ByStaff = append(s.ByStaff, *c)
	}
	sort.Slice(s.ByStaff, func(i, j int) bool {
		if s.ByStaff[i].Count != s.ByStaff[j].Count {
			return s.ByStaff[i].Count > s.ByStaff[j].Count
		}
		return s.ByStaff[i].StaffID < s.ByStaff[j].StaffID
	})
	return s
}

// Upcoming returns confirmed appointments starting at or after now, soonest first.
// limit <= 0 means no limit.
func Upcoming(details []model.AppointmentDetail, now time.Time, limit int) []model.AppointmentDetail {
	var out []model.AppointmentDetail
	for _, d := range details {
		if d.Status == model.StatusConfirmed && !d.AppointmentAt.Before(now) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentAt.Before(out[j].AppointmentAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
