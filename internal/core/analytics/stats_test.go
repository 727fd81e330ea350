package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestWeeklyStats(t *testing.T) {
	t.Run("Success: Always seven days whatever the anchor", func(t *testing.T) {
		for _, anchor := range []string{"2024-02-26", "2024-12-29", "2023-02-25", "2024-03-06"} {
			stats, err := analytics.WeeklyStats(nil, anchor)
			require.NoError(t, err)
			assert.Equal(t, 7, stats.TotalDays, anchor)
			assert.Equal(t, domain.AddDays(anchor, 6), stats.EndDate)
		}
	})

	t.Run("Success: Counts completion and the per-field breakdown", func(t *testing.T) {
		entries := entriesFrom("2024-03-04", true, true, false)
		partial := domain.NewDefaultEntry("2024-03-08")
		partial.Workouts.Outdoor = true
		partial.Water = 3999
		entries["2024-03-08"] = partial
		entries["2024-03-20"] = complete("2024-03-20")

		stats, err := analytics.WeeklyStats(entries, "2024-03-04")

		require.NoError(t, err)
		assert.Equal(t, "2024-03-04", stats.StartDate)
		assert.Equal(t, "2024-03-10", stats.EndDate)
		assert.Equal(t, 2, stats.CompletedDays)
		assert.InDelta(t, 28.571, stats.CompletionRate, 0.001)
		assert.Equal(t, domain.ChallengeBreakdown{
			IndoorWorkout:  3,
			OutdoorWorkout: 4,
			Diet:           3,
			Reading:        3,
			Photos:         3,
			Water:          3,
			Meditation:     2,
		}, stats.Breakdown)
	})

	t.Run("Fail: Malformed anchor", func(t *testing.T) {
		_, err := analytics.WeeklyStats(nil, "2024-13-01")
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})
}

func TestMonthlyStats(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2100, time.February, 28},
		{2024, time.April, 30},
		{2024, time.January, 31},
	}

	for _, tt := range tests {
		stats, err := analytics.MonthlyStats(nil, tt.year, tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.days, stats.TotalDays, "%d-%d", tt.year, tt.month)
		assert.Equal(t, int(tt.month), stats.Month)
		assert.Equal(t, tt.year, stats.Year)
		assert.Zero(t, stats.CompletionRate)
	}

	t.Run("Success: Only days of the month count", func(t *testing.T) {
		entries := entriesFrom("2024-02-28", true, true, true)

		stats, err := analytics.MonthlyStats(entries, 2024, time.February)

		require.NoError(t, err)
		assert.Equal(t, "2024-02-01", stats.StartDate)
		assert.Equal(t, "2024-02-29", stats.EndDate)
		assert.Equal(t, 2, stats.CompletedDays)
	})

	t.Run("Fail: Month out of range", func(t *testing.T) {
		_, err := analytics.MonthlyStats(nil, 2024, 13)
		assert.ErrorIs(t, err, domain.ErrInvalidMonth)
		_, err = analytics.MonthlyStats(nil, 2024, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	})

	t.Run("Fail: Year outside the civil calendar", func(t *testing.T) {
		for _, year := range []int{0, -1, 10000} {
			_, err := analytics.MonthlyStats(nil, year, time.March)
			assert.ErrorIs(t, err, domain.ErrInvalidYear, "year %d", year)

			_, err = analytics.HabitCategoryMonthlyStats(nil, domain.DefaultHabitCategories(), year, time.March)
			assert.ErrorIs(t, err, domain.ErrInvalidYear, "year %d", year)
		}

		stats, err := analytics.MonthlyStats(nil, 9999, time.December)
		require.NoError(t, err)
		assert.Equal(t, 31, stats.TotalDays)
	})
}

func habitDays(id string, dates ...string) map[string]domain.DailyHabitEntry {
	out := map[string]domain.DailyHabitEntry{}
	for _, d := range dates {
		out[d] = domain.NewDailyHabitEntry(d).Toggle(id)
	}
	return out
}

func TestHabitCategoryWeeklyStats(t *testing.T) {
	categories := domain.DefaultHabitCategories()

	t.Run("Success: Three of seven days", func(t *testing.T) {
		entries := habitDays("guitar", "2024-03-04", "2024-03-06", "2024-03-10", "2024-03-11")

		stats, err := analytics.HabitCategoryWeeklyStats(entries, categories, "2024-03-04")

		require.NoError(t, err)
		assert.Equal(t, 7, stats.TotalDays)
		require.Len(t, stats.HabitStats, len(categories))

		var guitar domain.HabitCategoryStat
		for _, s := range stats.HabitStats {
			if s.HabitID == "guitar" {
				guitar = s
			}
		}
		assert.Equal(t, 3, guitar.CompletedDays)
		assert.InDelta(t, 42.857, guitar.CompletionRate, 0.001)
		assert.Equal(t, "Guitar", guitar.Name)
		assert.Zero(t, stats.HabitStats[0].CompletedDays)
	})

	t.Run("Edge: Marks of removed categories are ignored", func(t *testing.T) {
		entries := habitDays("custom_gone", "2024-03-04")

		stats, err := analytics.HabitCategoryWeeklyStats(entries, categories, "2024-03-04")

		require.NoError(t, err)
		for _, s := range stats.HabitStats {
			assert.Zero(t, s.CompletedDays, s.HabitID)
		}
	})

	t.Run("Edge: False marks are not completions", func(t *testing.T) {
		entries := habitDays("guitar", "2024-03-04")
		entries["2024-03-04"] = entries["2024-03-04"].Toggle("guitar")

		stats, err := analytics.HabitCategoryWeeklyStats(entries, categories, "2024-03-04")

		require.NoError(t, err)
		assert.Zero(t, stats.HabitStats[4].CompletedDays)
	})
}

func TestHabitCategoryMonthlyStats(t *testing.T) {
	entries := habitDays("workOnGoals", "2024-02-01", "2024-02-29", "2024-03-01")

	stats, err := analytics.HabitCategoryMonthlyStats(entries, domain.DefaultHabitCategories(), 2024, time.February)

	require.NoError(t, err)
	assert.Equal(t, 29, stats.TotalDays)
	assert.Equal(t, 2, stats.HabitStats[0].CompletedDays)
	assert.InDelta(t, 6.896, stats.HabitStats[0].CompletionRate, 0.001)
	assert.Equal(t, 2, stats.Month)
}
