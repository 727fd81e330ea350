package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestCalendar_Today(t *testing.T) {
	tests := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{"UTC evening is already tomorrow in IST", time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC), "2024-03-02"},
		{"UTC morning is the same day", time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC), "2024-03-01"},
		{"Boundary just before IST midnight", time.Date(2024, 3, 1, 18, 29, 59, 0, time.UTC), "2024-03-01"},
		{"Boundary at IST midnight", time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC), "2024-03-02"},
		{"Host zone does not matter", time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("PST", -8*3600)), "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := domain.NewCalendar(domain.ClockFunc(func() time.Time { return tt.instant }))
			assert.Equal(t, tt.want, cal.Today())
		})
	}
}

func TestCalendar_DateOf(t *testing.T) {
	cal := domain.NewCalendar(nil)

	t.Run("Edge: Zero instant yields an empty date", func(t *testing.T) {
		assert.Equal(t, "", cal.DateOf(time.Time{}))
	})

	t.Run("Success: Parses RFC3339 instants", func(t *testing.T) {
		assert.Equal(t, "2024-12-31", cal.ParseInstant("2024-12-31T10:00:00Z"))
		assert.Equal(t, "2025-01-01", cal.ParseInstant("2024-12-31T20:00:00.123Z"))
	})

	t.Run("Edge: Unparseable instants are skipped", func(t *testing.T) {
		assert.Equal(t, "", cal.ParseInstant("yesterday"))
		assert.Equal(t, "", cal.ParseInstant(""))
	})
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2025-01-01", -1, "2024-12-31"},
		{"2024-03-01", 74, "2024-05-14"},
		{"2024-03-10", 0, "2024-03-10"},
		{"not-a-date", 1, ""},
		{"2024-02-30", 1, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.AddDays(tt.date, tt.n), "%s%+d", tt.date, tt.n)
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, domain.DaysInMonth(2024, time.February))
	assert.Equal(t, 28, domain.DaysInMonth(2023, time.February))
	assert.Equal(t, 28, domain.DaysInMonth(1900, time.February))
	assert.Equal(t, 29, domain.DaysInMonth(2000, time.February))
	assert.Equal(t, 30, domain.DaysInMonth(2024, time.April))
	assert.Equal(t, 31, domain.DaysInMonth(2024, time.December))
}

func TestDaysBetweenAndRange(t *testing.T) {
	t.Run("Success: Counts civil days across a year boundary", func(t *testing.T) {
		n, err := domain.DaysBetween("2024-12-30", "2025-01-02")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("Fail: Malformed input", func(t *testing.T) {
		_, err := domain.DaysBetween("2024-12-30", "soon")
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})

	t.Run("Success: Range is inclusive", func(t *testing.T) {
		assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, domain.DateRange("2024-02-28", "2024-03-01"))
		assert.Equal(t, []string{"2024-02-28"}, domain.DateRange("2024-02-28", "2024-02-28"))
	})

	t.Run("Edge: Inverted or invalid range is empty", func(t *testing.T) {
		assert.Empty(t, domain.DateRange("2024-03-02", "2024-03-01"))
		assert.Empty(t, domain.DateRange("", "2024-03-01"))
	})

	t.Run("Success: Validates keys strictly", func(t *testing.T) {
		assert.True(t, domain.IsValidDate("2024-02-29"))
		assert.False(t, domain.IsValidDate("2023-02-29"))
		assert.False(t, domain.IsValidDate("2024-2-9"))
		assert.Equal(t, "2024-03-01", domain.FirstOfMonth(2024, time.March))
	})
}
