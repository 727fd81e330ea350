package domain

import (
	"encoding/json"
	"fmt"
)

// ChallengeDocument is everything that is mirrored to the remote store.
type ChallengeDocument struct {
	SchemaVersion   int                        `json:"schemaVersion"`
	Entries         map[string]ChallengeEntry  `json:"entries"`
	HabitEntries    map[string]DailyHabitEntry `json:"habitEntries"`
	HabitCategories []HabitCategory            `json:"habitCategories"`
	StartDate       string                     `json:"startDate"`
	StartDateLocked bool                       `json:"startDateLocked"`
	UserName        string                     `json:"userName"`
}

// DeviceFlags live only in on-device storage and never leave the device.
type DeviceFlags struct {
	HasSeenOnboarding      bool `json:"hasSeenOnboarding"`
	HasSeenHabitOnboarding bool `json:"hasSeenHabitOnboarding"`
}

const (
	FlagHasSeenOnboarding      = "hasSeenOnboarding"
	FlagHasSeenHabitOnboarding = "hasSeenHabitOnboarding"
)

// AppState is the full in-memory aggregate of one signed-in user.
type AppState struct {
	Challenge ChallengeDocument
	Device    DeviceFlags
}

func NewChallengeDocument() ChallengeDocument {
	return ChallengeDocument{
		SchemaVersion:   CurrentSchemaVersion,
		Entries:         map[string]ChallengeEntry{},
		HabitEntries:    map[string]DailyHabitEntry{},
		HabitCategories: DefaultHabitCategories(),
	}
}

func NewAppState() AppState {
	return AppState{Challenge: NewChallengeDocument()}
}

// Hydrate builds the state for a freshly received remote document: every
// remote field wins, the device flags are carried over from local truth.
func Hydrate(doc ChallengeDocument, flags DeviceFlags) AppState {
	return AppState{Challenge: doc.Clone(), Device: flags}
}

// Document is the projection sent to the remote store.
func (s AppState) Document() ChallengeDocument {
	return s.Challenge.Clone()
}

func (s AppState) Clone() AppState {
	return AppState{Challenge: s.Challenge.Clone(), Device: s.Device}
}

// Reset clears the challenge while keeping habits, name and device flags.
func (s AppState) Reset(today string) AppState {
	doc := NewChallengeDocument()
	doc.StartDate = today
	doc.StartDateLocked = false
	doc.HabitCategories = append([]HabitCategory(nil), s.Challenge.HabitCategories...)
	doc.HabitEntries = cloneHabitEntries(s.Challenge.HabitEntries)
	doc.UserName = s.Challenge.UserName
	return AppState{Challenge: doc, Device: s.Device}
}

func (d ChallengeDocument) Clone() ChallengeDocument {
	out := d
	out.Entries = make(map[string]ChallengeEntry, len(d.Entries))
	for k, e := range d.Entries {
		out.Entries[k] = e.Clone()
	}
	out.HabitEntries = cloneHabitEntries(d.HabitEntries)
	out.HabitCategories = append([]HabitCategory(nil), d.HabitCategories...)
	return out
}

func cloneHabitEntries(in map[string]DailyHabitEntry) map[string]DailyHabitEntry {
	out := make(map[string]DailyHabitEntry, len(in))
	for k, e := range in {
		out[k] = e.Clone()
	}
	return out
}

// Entry returns the stored entry for date or a synthesized default.
func (d ChallengeDocument) Entry(date string) ChallengeEntry {
	if e, ok := d.Entries[date]; ok {
		e = e.Clone()
		if e.Photos == nil {
			e.Photos = []string{}
		}
		if e.Date == "" {
			e.Date = date
		}
		return e
	}
	return NewDefaultEntry(date)
}

func (d ChallengeDocument) HabitEntry(date string) DailyHabitEntry {
	if e, ok := d.HabitEntries[date]; ok {
		e = e.Clone()
		if e.Date == "" {
			e.Date = date
		}
		return e
	}
	return NewDailyHabitEntry(date)
}

// DocumentPatch is a top-level merge write: included fields replace their
// remote counterpart, absent fields are left untouched.
type DocumentPatch map[string]json.RawMessage

// Patch encodes every field of the document.
func (d ChallengeDocument) Patch() (DocumentPatch, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("domain: encode document: %w", err)
	}
	var p DocumentPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("domain: split document: %w", err)
	}
	return p, nil
}

func NewPatch(field string, value any) (DocumentPatch, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("domain: encode %s: %w", field, err)
	}
	return DocumentPatch{field: data}, nil
}

// MergeInto applies p onto a raw document. A nil/empty document is created.
func (p DocumentPatch) MergeInto(doc []byte) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("domain: decode stored document: %w", err)
		}
	}
	for k, v := range p {
		fields[k] = v
	}
	return json.Marshal(fields)
}
