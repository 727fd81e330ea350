package analytics

import (
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// ChallengeHeatmap lays out the 75 challenge days from startDate. Days after
// today are marked future and never complete.
func ChallengeHeatmap(entries map[string]domain.ChallengeEntry, startDate, today string) []domain.HeatmapDay {
	if !domain.IsValidDate(startDate) {
		return []domain.HeatmapDay{}
	}

	days := make([]domain.HeatmapDay, 0, domain.ChallengeLengthDays)
	for i := 0; i < domain.ChallengeLengthDays; i++ {
		date := domain.AddDays(startDate, i)
		future := date > today
		days = append(days, domain.HeatmapDay{
			Date:       date,
			DayNumber:  i + 1,
			IsFuture:   future,
			IsComplete: !future && isCompleteOn(entries, date),
		})
	}
	return days
}

// HabitHeatmap shows, for every day of a month, how many of the current
// categories were done.
func HabitHeatmap(habitEntries map[string]domain.DailyHabitEntry, categories []domain.HabitCategory, year int, month time.Month, today string) ([]domain.HabitHeatmapDay, error) {
	from, to, err := monthRange(year, month)
	if err != nil {
		return nil, err
	}

	var out []domain.HabitHeatmapDay
	for _, d := range domain.DateRange(from, to) {
		cell := domain.HabitHeatmapDay{
			Date:     d,
			Total:    len(categories),
			IsFuture: d > today,
		}
		if e, ok := habitEntries[d]; ok {
			for _, c := range categories {
				if e.Done(c.ID) {
					cell.Done++
				}
			}
		}
		cell.AllDone = cell.Total > 0 && cell.Done == cell.Total
		out = append(out, cell)
	}
	return out, nil
}
