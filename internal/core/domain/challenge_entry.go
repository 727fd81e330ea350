package domain

const (
	ChallengeLengthDays = 75
	WaterTargetML       = 4000
	WaterIncrementML    = 500
)

// Shorthand keys accepted by ToggleHabit.
const (
	HabitKeyIndoorWorkout  = "workout1"
	HabitKeyOutdoorWorkout = "workout2"
	HabitKeyDiet           = "diet"
	HabitKeyReading        = "reading"
	HabitKeyMeditation     = "meditation"
)

type Workouts struct {
	Indoor  bool `json:"indoor"`
	Outdoor bool `json:"outdoor"`
}

// ChallengeEntry is one day of the 75-day challenge.
type ChallengeEntry struct {
	Date       string   `json:"date"`
	Workouts   Workouts `json:"workouts"`
	Diet       bool     `json:"diet"`
	Reading    bool     `json:"reading"`
	Water      int      `json:"water"`
	Photos     []string `json:"photos"`
	Meditation bool     `json:"meditation"`
}

func NewDefaultEntry(date string) ChallengeEntry {
	return ChallengeEntry{
		Date:   date,
		Photos: []string{},
	}
}

func (e ChallengeEntry) Clone() ChallengeEntry {
	photos := make([]string, len(e.Photos))
	copy(photos, e.Photos)
	e.Photos = photos
	return e
}

func (e ChallengeEntry) HasPhoto() bool {
	return len(e.Photos) > 0
}

func (e ChallengeEntry) WaterMet() bool {
	return e.Water >= WaterTargetML
}

// IsComplete is the only definition of a successful challenge day.
// A nil entry is an untouched day and never complete.
func IsComplete(e *ChallengeEntry) bool {
	if e == nil {
		return false
	}
	return e.Workouts.Indoor &&
		e.Workouts.Outdoor &&
		e.Diet &&
		e.Reading &&
		e.HasPhoto() &&
		e.WaterMet() &&
		e.Meditation
}

// EntryPatch is a partial update; nil fields are left as they are.
type EntryPatch struct {
	Indoor     *bool    `json:"indoor,omitempty"`
	Outdoor    *bool    `json:"outdoor,omitempty"`
	Diet       *bool    `json:"diet,omitempty"`
	Reading    *bool    `json:"reading,omitempty"`
	Water      *int     `json:"water,omitempty"`
	Photos     []string `json:"photos,omitempty"`
	Meditation *bool    `json:"meditation,omitempty"`
}

func (p EntryPatch) IsEmpty() bool {
	return p.Indoor == nil && p.Outdoor == nil && p.Diet == nil && p.Reading == nil &&
		p.Water == nil && p.Photos == nil && p.Meditation == nil
}

func (p EntryPatch) Validate() error {
	if p.Water != nil && *p.Water < 0 {
		return ErrInvalidWater
	}
	return nil
}

// Apply returns a copy of e with the patch merged in.
func (p EntryPatch) Apply(e ChallengeEntry) ChallengeEntry {
	next := e.Clone()
	if p.Indoor != nil {
		next.Workouts.Indoor = *p.Indoor
	}
	if p.Outdoor != nil {
		next.Workouts.Outdoor = *p.Outdoor
	}
	if p.Diet != nil {
		next.Diet = *p.Diet
	}
	if p.Reading != nil {
		next.Reading = *p.Reading
	}
	if p.Water != nil {
		next.Water = *p.Water
	}
	if p.Photos != nil {
		next.Photos = append([]string{}, p.Photos...)
	}
	if p.Meditation != nil {
		next.Meditation = *p.Meditation
	}
	return next
}

// TogglePatch maps a shorthand habit key to the patch flipping it.
// Unknown keys report false.
func TogglePatch(e ChallengeEntry, key string) (EntryPatch, bool) {
	flip := func(v bool) *bool {
		f := !v
		return &f
	}

	switch key {
	case HabitKeyIndoorWorkout:
		return EntryPatch{Indoor: flip(e.Workouts.Indoor)}, true
	case HabitKeyOutdoorWorkout:
		return EntryPatch{Outdoor: flip(e.Workouts.Outdoor)}, true
	case HabitKeyDiet:
		return EntryPatch{Diet: flip(e.Diet)}, true
	case HabitKeyReading:
		return EntryPatch{Reading: flip(e.Reading)}, true
	case HabitKeyMeditation:
		return EntryPatch{Meditation: flip(e.Meditation)}, true
	default:
		return EntryPatch{}, false
	}
}

// NextWater is the amount after one UI tap, capped at the target.
func NextWater(current int) int {
	return min(current+WaterIncrementML, WaterTargetML)
}
