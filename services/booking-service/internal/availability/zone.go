package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// Zone converts between business-local date + wall clock and absolute instants using one
// IANA location.
type Zone struct {
	loc *time.Location
}

func LoadZone(name string) (Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return Zone{loc: loc}, nil
}

func ZoneFor(loc *time.Location) Zone {
	return Zone{loc: loc}
}

func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

func (z Zone) String() string {
	return z.Location().String()
}

// Instant returns the absolute time of wall clock t on date. 24:00 is midnight of the next
// day. A wall clock inside a DST gap resolves to the instant time.Date picks, which is the
// pre-transition offset applied to the nominal time.
func (z Zone) Instant(date model.Date, t model.WallClock) time.Time {
	return time.Date(date.Year, date.Month, date.Day, t.Hour(), t.Minute(), 0, 0, z.Location())
}

// Local returns the business-local date and wall clock of instant. Seconds are dropped.
func (z Zone) Local(instant time.Time) (model.Date, model.WallClock) {
	lt := instant.In(z.Location())
	return model.DateOf(lt), model.NewWallClock(lt.Hour(), lt.Minute())
}

// Today is the business-local date of now.
func (z Zone) Today(now time.Time) model.Date {
	return model.DateOf(now.In(z.Location()))
}

// DayBounds returns [midnight, next midnight) of date.
func (z Zone) DayBounds(date model.Date) (time.Time, time.Time) {
	start := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, z.Location())
	next := date.AddDays(1)
	end := time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, z.Location())
	return start, end
}
