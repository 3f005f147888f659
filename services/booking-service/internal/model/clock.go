package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

// WallClock is a business-local time of day in minutes after midnight.
// 24:00 (MinutesPerDay) is representable so a window can end at midnight.
type WallClock int

func NewWallClock(hour, minute int) WallClock {
	return WallClock(hour*60 + minute)
}

// ParseWallClock accepts "HH:MM" and "HH:MM:SS" (seconds must be zero).
func ParseWallClock(raw string) (WallClock, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: bad hour", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: bad minute", raw)
	}
	if len(parts) == 3 {
		if s, err := strconv.Atoi(parts[2]); err != nil || len(parts[2]) != 2 || s != 0 {
			return 0, fmt.Errorf("invalid time %q: seconds are not supported", raw)
		}
	}
	if m < 0 || m > 59 || h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q: out of range", raw)
	}
	return NewWallClock(h, m), nil
}

func (c WallClock) Hour() int   { return int(c) / 60 }
func (c WallClock) Minute() int { return int(c) % 60 }

// Add returns c shifted by minutes. The result may exceed 24:00; callers compare it
// against window ends and never print it.
func (c WallClock) Add(minutes int) WallClock {
	return c + WallClock(minutes)
}

func (c WallClock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

func (c WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c WallClock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("wall clock %d out of range", int(c))
	}
	return []byte(c.String()), nil
}

func (c *WallClock) UnmarshalText(b []byte) error {
	v, err := ParseWallClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Date is a civil calendar date with no time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday returns 0..6 with Sunday = 0, the convention used by stored schedule windows.
func (d Date) Weekday() int {
	return int(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday())
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
