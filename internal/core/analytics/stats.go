package analytics

import (
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const daysPerWeek = 7

func rate(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

func weekRange(weekStart string) (string, string, error) {
	if !domain.IsValidDate(weekStart) {
		return "", "", domain.ErrInvalidDate
	}
	return weekStart, domain.AddDays(weekStart, daysPerWeek-1), nil
}

func monthRange(year int, month time.Month) (string, string, error) {
	if year < 1 || year > 9999 {
		return "", "", domain.ErrInvalidYear
	}
	if month < time.January || month > time.December {
		return "", "", domain.ErrInvalidMonth
	}
	first := domain.FirstOfMonth(year, month)
	return first, domain.AddDays(first, domain.DaysInMonth(year, month)-1), nil
}

func challengeStats(entries map[string]domain.ChallengeEntry, from, to string) domain.ChallengeStats {
	stats := domain.ChallengeStats{StartDate: from, EndDate: to}

	for _, d := range domain.DateRange(from, to) {
		stats.TotalDays++

		e, ok := entries[d]
		if !ok {
			continue
		}
		if domain.IsComplete(&e) {
			stats.CompletedDays++
		}

		b := &stats.Breakdown
		if e.Workouts.Indoor {
			b.IndoorWorkout++
		}
		if e.Workouts.Outdoor {
			b.OutdoorWorkout++
		}
		if e.Diet {
			b.Diet++
		}
		if e.Reading {
			b.Reading++
		}
		if e.HasPhoto() {
			b.Photos++
		}
		if e.WaterMet() {
			b.Water++
		}
		if e.Meditation {
			b.Meditation++
		}
	}

	stats.CompletionRate = rate(stats.CompletedDays, stats.TotalDays)
	return stats
}

// WeeklyStats aggregates the seven days starting at weekStart. The anchor is
// used as given, no Monday/Sunday normalization.
func WeeklyStats(entries map[string]domain.ChallengeEntry, weekStart string) (domain.ChallengeStats, error) {
	from, to, err := weekRange(weekStart)
	if err != nil {
		return domain.ChallengeStats{}, err
	}
	return challengeStats(entries, from, to), nil
}

func MonthlyStats(entries map[string]domain.ChallengeEntry, year int, month time.Month) (domain.ChallengeStats, error) {
	from, to, err := monthRange(year, month)
	if err != nil {
		return domain.ChallengeStats{}, err
	}
	stats := challengeStats(entries, from, to)
	stats.Month = int(month)
	stats.Year = year
	return stats, nil
}

func habitCategoryStats(habitEntries map[string]domain.DailyHabitEntry, categories []domain.HabitCategory, from, to string) domain.HabitCategoryStats {
	days := domain.DateRange(from, to)
	counts := make(map[string]int, len(categories))

	for _, d := range days {
		e, ok := habitEntries[d]
		if !ok {
			continue
		}
		for _, c := range categories {
			if e.Done(c.ID) {
				counts[c.ID]++
			}
		}
	}

	stats := domain.HabitCategoryStats{
		StartDate:  from,
		EndDate:    to,
		TotalDays:  len(days),
		HabitStats: make([]domain.HabitCategoryStat, 0, len(categories)),
	}
	for _, c := range categories {
		stats.HabitStats = append(stats.HabitStats, domain.HabitCategoryStat{
			HabitID:        c.ID,
			Name:           c.Name,
			Icon:           c.Icon,
			ColorClass:     c.ColorClass,
			CompletedDays:  counts[c.ID],
			CompletionRate: rate(counts[c.ID], len(days)),
		})
	}
	return stats
}

// HabitCategoryWeeklyStats rates each category independently over the week.
func HabitCategoryWeeklyStats(habitEntries map[string]domain.DailyHabitEntry, categories []domain.HabitCategory, weekStart string) (domain.HabitCategoryStats, error) {
	from, to, err := weekRange(weekStart)
	if err != nil {
		return domain.HabitCategoryStats{}, err
	}
	return habitCategoryStats(habitEntries, categories, from, to), nil
}

func HabitCategoryMonthlyStats(habitEntries map[string]domain.DailyHabitEntry, categories []domain.HabitCategory, year int, month time.Month) (domain.HabitCategoryStats, error) {
	from, to, err := monthRange(year, month)
	if err != nil {
		return domain.HabitCategoryStats{}, err
	}
	stats := habitCategoryStats(habitEntries, categories, from, to)
	stats.Month = int(month)
	stats.Year = year
	return stats, nil
}
