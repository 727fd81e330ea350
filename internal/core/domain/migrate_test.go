package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestDecodeDocument(t *testing.T) {
	t.Run("Success: Version 1 photo flags become photo references", func(t *testing.T) {
		raw := `{
			"startDate": "2024-01-01",
			"entries": {
				"2024-01-01": {"date": "2024-01-01", "photo": true, "photoData": "data:image/jpeg;base64,AAAA"},
				"2024-01-02": {"date": "2024-01-02", "photo": true},
				"2024-01-03": {"photo": false, "diet": true}
			}
		}`

		doc, err := domain.DecodeDocument([]byte(raw))

		require.NoError(t, err)
		assert.Equal(t, domain.CurrentSchemaVersion, doc.SchemaVersion)
		assert.Equal(t, []string{"data:image/jpeg;base64,AAAA"}, doc.Entries["2024-01-01"].Photos)
		assert.Equal(t, []string{domain.LegacyPhotoRef}, doc.Entries["2024-01-02"].Photos)
		assert.Equal(t, []string{}, doc.Entries["2024-01-03"].Photos)
		assert.Equal(t, "2024-01-03", doc.Entries["2024-01-03"].Date)
		assert.True(t, doc.Entries["2024-01-03"].Diet)
		assert.Equal(t, domain.DefaultHabitCategories(), doc.HabitCategories)
	})

	t.Run("Success: Version 2 gets the default categories", func(t *testing.T) {
		raw := `{"userName":"Ada","entries":{"2024-01-01":{"date":"2024-01-01","photos":["u"]}}}`

		doc, err := domain.DecodeDocument([]byte(raw))

		require.NoError(t, err)
		assert.Equal(t, "Ada", doc.UserName)
		assert.Equal(t, []string{"u"}, doc.Entries["2024-01-01"].Photos)
		assert.Len(t, doc.HabitCategories, 5)
		assert.NotNil(t, doc.HabitEntries)
	})

	t.Run("Success: Current documents are kept as they are", func(t *testing.T) {
		src := domain.NewChallengeDocument()
		src.HabitCategories = src.HabitCategories[:1]
		src.StartDate = "2024-01-01"
		src.StartDateLocked = true
		src.HabitEntries["2024-01-01"] = domain.NewDailyHabitEntry("2024-01-01").Toggle("workOnGoals")
		data, err := json.Marshal(src)
		require.NoError(t, err)

		doc, err := domain.DecodeDocument(data)

		require.NoError(t, err)
		assert.Len(t, doc.HabitCategories, 1)
		assert.True(t, doc.StartDateLocked)
		assert.True(t, doc.HabitEntries["2024-01-01"].Done("workOnGoals"))
	})

	t.Run("Edge: Empty category list is not reseeded", func(t *testing.T) {
		doc, err := domain.DecodeDocument([]byte(`{"habitCategories":[]}`))

		require.NoError(t, err)
		assert.Empty(t, doc.HabitCategories)
		assert.NotNil(t, doc.HabitCategories)
		assert.NotNil(t, doc.Entries)
		assert.Equal(t, domain.CurrentSchemaVersion, doc.SchemaVersion)
	})

	t.Run("Fail: Not a JSON object", func(t *testing.T) {
		_, err := domain.DecodeDocument([]byte(`"nope"`))
		assert.Error(t, err)
	})
}
