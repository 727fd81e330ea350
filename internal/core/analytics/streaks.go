// Package analytics derives streaks, aggregates and heatmaps from the
// challenge and daily-habit entries. Every function is pure: "today" is an
// argument and dates are civil YYYY-MM-DD keys produced by the domain calendar.
package analytics

import (
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func isCompleteOn(entries map[string]domain.ChallengeEntry, date string) bool {
	e, ok := entries[date]
	if !ok {
		return false
	}
	return domain.IsComplete(&e)
}

// ComputeStreaks walks [startDate, today] twice: forward for the longest run
// of complete days, backward from today for the current run. A start date
// after today, or a malformed date, yields zero streaks.
func ComputeStreaks(entries map[string]domain.ChallengeEntry, startDate, today string) domain.Streaks {
	days := domain.DateRange(startDate, today)
	if len(days) == 0 {
		return domain.Streaks{}
	}

	var streaks domain.Streaks
	run := 0
	for _, d := range days {
		if isCompleteOn(entries, d) {
			run++
			streaks.Longest = max(streaks.Longest, run)
		} else {
			run = 0
		}
	}

	for i := len(days) - 1; i >= 0; i-- {
		if !isCompleteOn(entries, days[i]) {
			break
		}
		streaks.Current++
	}

	return streaks
}

// ChallengeDay is today's 1-based position in the challenge, clamped to
// [1, ChallengeLengthDays]. Zero means the start date is unknown.
func ChallengeDay(startDate, today string) int {
	n, err := domain.DaysBetween(startDate, today)
	if err != nil {
		return 0
	}
	return min(max(n+1, 1), domain.ChallengeLengthDays)
}
