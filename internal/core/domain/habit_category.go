package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	CustomCategoryPrefix = "custom_"
	MaxNameLen           = 100
	MaxSubtitleLen       = 200
	DefaultCategoryIcon  = "Star"
)

// HabitCategory is one user-visible daily habit. Icon and ColorClass are
// opaque to the engine.
type HabitCategory struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Subtitle   string `json:"subtitle"`
	Icon       string `json:"icon"`
	ColorClass string `json:"colorClass"`
}

type HabitCategorySpec struct {
	Name       string
	Subtitle   string
	Icon       string
	ColorClass string
}

var defaultCategories = []HabitCategory{
	{ID: "workOnGoals", Name: "Work on Goals", Subtitle: "1 hour focused work", Icon: "Target", ColorClass: "text-blue"},
	{ID: "skinCareMorning", Name: "Skin Care", Subtitle: "Morning routine", Icon: "Sun", ColorClass: "text-yellow"},
	{ID: "skinCareNight", Name: "Skin Care", Subtitle: "Night routine", Icon: "Moon", ColorClass: "text-purple"},
	{ID: "brushTeethNight", Name: "Brush Teeth", Subtitle: "Before bed", Icon: "Sparkles", ColorClass: "text-green"},
	{ID: "guitar", Name: "Guitar", Subtitle: "Practice 20 minutes", Icon: "Music", ColorClass: "text-orange"},
}

// DefaultHabitCategories returns a fresh copy of the seeded categories.
func DefaultHabitCategories() []HabitCategory {
	out := make([]HabitCategory, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

func IsDefaultCategoryID(id string) bool {
	for _, c := range defaultCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (c HabitCategory) IsCustom() bool {
	return strings.HasPrefix(c.ID, CustomCategoryPrefix)
}

func (s HabitCategorySpec) normalize() (HabitCategorySpec, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Subtitle = strings.TrimSpace(s.Subtitle)

	if s.Name == "" {
		return s, ErrHabitNameEmpty
	}
	if utf8.RuneCountInString(s.Name) > MaxNameLen {
		return s, ErrHabitNameTooLong
	}
	if utf8.RuneCountInString(s.Subtitle) > MaxSubtitleLen {
		return s, ErrHabitSubtitleTooLong
	}
	if s.Icon == "" {
		s.Icon = DefaultCategoryIcon
	}
	return s, nil
}

// NewHabitCategory validates spec and assigns a fresh custom id.
func NewHabitCategory(spec HabitCategorySpec) (HabitCategory, error) {
	clean, err := spec.normalize()
	if err != nil {
		return HabitCategory{}, err
	}
	return HabitCategory{
		ID:         CustomCategoryPrefix + uuid.NewString(),
		Name:       clean.Name,
		Subtitle:   clean.Subtitle,
		Icon:       clean.Icon,
		ColorClass: clean.ColorClass,
	}, nil
}

// ReorderCategories arranges current in the order of ids. ids must be a
// permutation of the current ids.
func ReorderCategories(current []HabitCategory, ids []string) ([]HabitCategory, error) {
	if len(ids) != len(current) {
		return nil, ErrInvalidReorder
	}

	byID := make(map[string]HabitCategory, len(current))
	for _, c := range current {
		byID[c.ID] = c
	}

	seen := make(map[string]bool, len(ids))
	out := make([]HabitCategory, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			return nil, ErrInvalidReorder
		}
		seen[id] = true
		out = append(out, c)
	}
	return out, nil
}
