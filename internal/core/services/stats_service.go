package services

import (
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// Overview is the dashboard header of the challenge.
type Overview struct {
	Today         string         `json:"today"`
	StartDate     string         `json:"start_date"`
	DayNumber     int            `json:"day_number"`
	TotalDays     int            `json:"total_days"`
	CompletedDays int            `json:"completed_days"`
	Streaks       domain.Streaks `json:"streaks"`
}

// StatsService evaluates the analytics against the live state of a session.
type StatsService struct {
	challenge *ChallengeService
	calendar  *domain.Calendar
}

func NewStatsService(challenge *ChallengeService, calendar *domain.Calendar) *StatsService {
	return &StatsService{challenge: challenge, calendar: calendar}
}

func (s *StatsService) Streaks() domain.Streaks {
	today := s.calendar.Today()
	var out domain.Streaks
	s.challenge.view(func(st domain.AppState) {
		out = analytics.ComputeStreaks(st.Challenge.Entries, st.Challenge.StartDate, today)
	})
	return out
}

func (s *StatsService) Overview() Overview {
	today := s.calendar.Today()
	var out Overview
	s.challenge.view(func(st domain.AppState) {
		start := st.Challenge.StartDate
		out = Overview{
			Today:     today,
			StartDate: start,
			DayNumber: analytics.ChallengeDay(start, today),
			TotalDays: domain.ChallengeLengthDays,
			Streaks:   analytics.ComputeStreaks(st.Challenge.Entries, start, today),
		}
		for _, cell := range analytics.ChallengeHeatmap(st.Challenge.Entries, start, today) {
			if cell.IsComplete {
				out.CompletedDays++
			}
		}
	})
	return out
}

func (s *StatsService) Weekly(weekStart string) (domain.ChallengeStats, error) {
	var (
		out domain.ChallengeStats
		err error
	)
	s.challenge.view(func(st domain.AppState) {
		out, err = analytics.WeeklyStats(st.Challenge.Entries, weekStart)
	})
	return out, err
}

func (s *StatsService) Monthly(year int, month time.Month) (domain.ChallengeStats, error) {
	var (
		out domain.ChallengeStats
		err error
	)
	s.challenge.view(func(st domain.AppState) {
		out, err = analytics.MonthlyStats(st.Challenge.Entries, year, month)
	})
	return out, err
}

func (s *StatsService) Heatmap() []domain.HeatmapDay {
	today := s.calendar.Today()
	var out []domain.HeatmapDay
	s.challenge.view(func(st domain.AppState) {
		out = analytics.ChallengeHeatmap(st.Challenge.Entries, st.Challenge.StartDate, today)
	})
	return out
}

func (s *StatsService) HabitWeekly(weekStart string) (domain.HabitCategoryStats, error) {
	var (
		out domain.HabitCategoryStats
		err error
	)
	s.challenge.view(func(st domain.AppState) {
		out, err = analytics.HabitCategoryWeeklyStats(st.Challenge.HabitEntries, st.Challenge.HabitCategories, weekStart)
	})
	return out, err
}

func (s *StatsService) HabitMonthly(year int, month time.Month) (domain.HabitCategoryStats, error) {
	var (
		out domain.HabitCategoryStats
		err error
	)
	s.challenge.view(func(st domain.AppState) {
		out, err = analytics.HabitCategoryMonthlyStats(st.Challenge.HabitEntries, st.Challenge.HabitCategories, year, month)
	})
	return out, err
}

func (s *StatsService) HabitHeatmap(year int, month time.Month) ([]domain.HabitHeatmapDay, error) {
	today := s.calendar.Today()
	var (
		out []domain.HabitHeatmapDay
		err error
	)
	s.challenge.view(func(st domain.AppState) {
		out, err = analytics.HabitHeatmap(st.Challenge.HabitEntries, st.Challenge.HabitCategories, year, month, today)
	})
	return out, err
}
