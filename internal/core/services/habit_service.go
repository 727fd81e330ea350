package services

import (
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func (s *ChallengeService) HabitCategories() []domain.HabitCategory {
	var out []domain.HabitCategory
	s.view(func(st domain.AppState) {
		out = append([]domain.HabitCategory{}, st.Challenge.HabitCategories...)
	})
	return out
}

// AddHabitCategory appends a new custom category and returns it.
func (s *ChallengeService) AddHabitCategory(spec domain.HabitCategorySpec) (domain.HabitCategory, error) {
	category, err := domain.NewHabitCategory(spec)
	if err != nil {
		return domain.HabitCategory{}, err
	}

	err = s.mutate(func(st *domain.AppState) (bool, error) {
		st.Challenge.HabitCategories = append(st.Challenge.HabitCategories, category)
		return true, nil
	})
	if err != nil {
		return domain.HabitCategory{}, err
	}
	return category, nil
}

// RemoveHabitCategory drops a custom category. Marks recorded for it in past
// daily entries are kept. Unknown ids are ignored.
func (s *ChallengeService) RemoveHabitCategory(id string) error {
	if domain.IsDefaultCategoryID(id) {
		return domain.ErrProtectedCategory
	}

	return s.mutate(func(st *domain.AppState) (bool, error) {
		kept := make([]domain.HabitCategory, 0, len(st.Challenge.HabitCategories))
		for _, c := range st.Challenge.HabitCategories {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(st.Challenge.HabitCategories) {
			return false, nil
		}
		st.Challenge.HabitCategories = kept
		return true, nil
	})
}

func (s *ChallengeService) ReorderHabitCategories(ids []string) ([]domain.HabitCategory, error) {
	var out []domain.HabitCategory
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		reordered, err := domain.ReorderCategories(st.Challenge.HabitCategories, ids)
		if err != nil {
			return false, err
		}
		st.Challenge.HabitCategories = reordered
		out = append([]domain.HabitCategory{}, reordered...)
		return true, nil
	})
	return out, err
}

func (s *ChallengeService) GetDailyHabitEntry(date string) (domain.DailyHabitEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.DailyHabitEntry{}, domain.ErrInvalidDate
	}
	var out domain.DailyHabitEntry
	s.view(func(st domain.AppState) {
		out = st.Challenge.HabitEntry(date)
	})
	return out, nil
}

// ToggleDailyHabit flips the mark of one category on date. A missing mark
// becomes true. The id is not checked against the current categories.
func (s *ChallengeService) ToggleDailyHabit(date, id string) (domain.DailyHabitEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.DailyHabitEntry{}, domain.ErrInvalidDate
	}

	var out domain.DailyHabitEntry
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		current := st.Challenge.HabitEntry(date)
		next := current.Toggle(id)
		if next.Marks.Len() == current.Marks.Len() && next.Done(id) == current.Done(id) {
			out = current
			return false, nil
		}
		st.Challenge.HabitEntries[date] = next
		out = next.Clone()
		return true, nil
	})
	return out, err
}
