package domain

import (
	"time"
)

// DateLayout is the key format of every per-day record.
const DateLayout = "2006-01-02"

// CivilZone is India Standard Time. IST has no daylight saving, so a fixed
// offset is exact and does not depend on the host's tzdata.
var CivilZone = time.FixedZone("IST", 5*60*60+30*60)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// Calendar answers "what day is it" in the civil zone and does all date
// arithmetic on YYYY-MM-DD keys.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

func NewCalendar(clock Clock) *Calendar {
	if clock == nil {
		clock = SystemClock
	}
	return &Calendar{clock: clock, loc: CivilZone}
}

func (c *Calendar) Now() time.Time {
	return c.clock.Now()
}

func (c *Calendar) Today() string {
	return c.DateOf(c.clock.Now())
}

// DateOf returns the civil date of t, or "" for the zero instant.
func (c *Calendar) DateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(c.loc).Format(DateLayout)
}

// ParseInstant accepts an RFC3339 timestamp and returns its civil date.
// Unparseable input yields "" and callers must skip it.
func (c *Calendar) ParseInstant(instant string) string {
	t, err := time.Parse(time.RFC3339Nano, instant)
	if err != nil {
		return ""
	}
	return c.DateOf(t)
}

// ParseDate validates a YYYY-MM-DD key and returns it as midnight UTC, which
// keeps AddDate free of any DST shifts.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func IsValidDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// AddDays returns the date n civil days after date, or "" if date is malformed.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func FirstOfMonth(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// DateRange lists every date in [from, to]. An inverted or malformed range is empty.
func DateRange(from, to string) []string {
	n, err := DaysBetween(from, to)
	if err != nil || n < 0 {
		return nil
	}
	days := make([]string, 0, n+1)
	for d := from; d <= to; d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}
