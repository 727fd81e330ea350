package domain

import (
	"encoding/json"
	"fmt"
)

// Schema generations of the remote document:
//
//	1: single `photo` flag plus inline `photoData`, fixed habit set
//	2: `photos` list of blob URLs, fixed habit set
//	3: user-configurable habitCategories (current)
const CurrentSchemaVersion = 3

// LegacyPhotoRef stands in for a v1 photo that was flagged but never stored.
const LegacyPhotoRef = "legacy:photo"

type storedEntry struct {
	ChallengeEntry
	Photo     *bool   `json:"photo,omitempty"`
	PhotoData *string `json:"photoData,omitempty"`
}

type storedDocument struct {
	SchemaVersion   int                        `json:"schemaVersion"`
	Entries         map[string]storedEntry     `json:"entries"`
	HabitEntries    map[string]DailyHabitEntry `json:"habitEntries"`
	HabitCategories []HabitCategory            `json:"habitCategories"`
	StartDate       string                     `json:"startDate"`
	StartDateLocked bool                       `json:"startDateLocked"`
	UserName        string                     `json:"userName"`
}

var migrations = map[int]func(storedDocument) storedDocument{
	1: migrateV1,
	2: migrateV2,
}

// DecodeDocument parses a stored document of any known generation and
// upgrades it to the current shape.
func DecodeDocument(data []byte) (ChallengeDocument, error) {
	var stored storedDocument
	if err := json.Unmarshal(data, &stored); err != nil {
		return ChallengeDocument{}, fmt.Errorf("domain: decode document: %w", err)
	}

	version := detectVersion(stored)
	for v := version; v < CurrentSchemaVersion; v++ {
		if m, ok := migrations[v]; ok {
			stored = m(stored)
		}
	}
	if stored.SchemaVersion < CurrentSchemaVersion {
		stored.SchemaVersion = CurrentSchemaVersion
	}

	return stored.normalize(), nil
}

func detectVersion(doc storedDocument) int {
	if doc.SchemaVersion > 0 {
		return doc.SchemaVersion
	}
	if doc.HabitCategories != nil {
		return 3
	}
	for _, e := range doc.Entries {
		if e.Photos == nil && (e.Photo != nil || e.PhotoData != nil) {
			return 1
		}
	}
	return 2
}

// migrateV1 turns the single photo flag into the photos list. Inline data is
// kept as its data: URI so the day keeps counting as photographed.
func migrateV1(doc storedDocument) storedDocument {
	entries := make(map[string]storedEntry, len(doc.Entries))
	for date, e := range doc.Entries {
		if e.Photos == nil {
			switch {
			case e.PhotoData != nil && *e.PhotoData != "":
				e.Photos = []string{*e.PhotoData}
			case e.Photo != nil && *e.Photo:
				e.Photos = []string{LegacyPhotoRef}
			default:
				e.Photos = []string{}
			}
		}
		e.Photo = nil
		e.PhotoData = nil
		entries[date] = e
	}
	doc.Entries = entries
	doc.SchemaVersion = 2
	return doc
}

// migrateV2 seeds the category list that the fixed habit set implied.
func migrateV2(doc storedDocument) storedDocument {
	if doc.HabitCategories == nil {
		doc.HabitCategories = DefaultHabitCategories()
	}
	doc.SchemaVersion = 3
	return doc
}

func (s storedDocument) normalize() ChallengeDocument {
	doc := ChallengeDocument{
		SchemaVersion:   s.SchemaVersion,
		Entries:         make(map[string]ChallengeEntry, len(s.Entries)),
		HabitEntries:    make(map[string]DailyHabitEntry, len(s.HabitEntries)),
		HabitCategories: s.HabitCategories,
		StartDate:       s.StartDate,
		StartDateLocked: s.StartDateLocked,
		UserName:        s.UserName,
	}
	if doc.HabitCategories == nil {
		doc.HabitCategories = []HabitCategory{}
	}

	for date, e := range s.Entries {
		entry := e.ChallengeEntry
		if entry.Date == "" {
			entry.Date = date
		}
		if entry.Photos == nil {
			entry.Photos = []string{}
		}
		doc.Entries[date] = entry
	}
	for date, e := range s.HabitEntries {
		if e.Date == "" {
			e.Date = date
		}
		doc.HabitEntries[date] = e
	}
	return doc
}
