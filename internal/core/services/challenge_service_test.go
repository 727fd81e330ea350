package services_test

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

func newChallengeService() (*services.ChallengeService, *recordingPersister) {
	p := &recordingPersister{}
	return services.NewChallengeService(fixedCalendar(testToday), p), p
}

func TestChallengeService_GetEntry(t *testing.T) {
	t.Run("Success: Should return the default entry without storing it", func(t *testing.T) {
		svc, p := newChallengeService()

		entry := svc.GetEntry("2025-03-01")
		assert.Equal(t, domain.NewDefaultEntry("2025-03-01"), entry)
		assert.NotNil(t, entry.Photos)
		assert.Equal(t, 0, svc.EntryCount())
		assert.Equal(t, 0, p.Count())
	})

	t.Run("Edge: A malformed key yields a default entry", func(t *testing.T) {
		svc, p := newChallengeService()

		entry := svc.GetEntry("2025-3-1")

		assert.Equal(t, domain.NewDefaultEntry("2025-3-1"), entry)
		assert.False(t, domain.IsComplete(&entry))
		assert.Equal(t, 0, p.Count())
	})
}

func TestChallengeService_PatchEntry(t *testing.T) {
	t.Run("Success: Should merge the patch, lock the start date and persist", func(t *testing.T) {
		svc, p := newChallengeService()

		entry, err := svc.PatchEntry("2025-03-10", domain.EntryPatch{Diet: boolPtr(true), Water: intPtr(1500)})

		require.NoError(t, err)
		assert.True(t, entry.Diet)
		assert.Equal(t, 1500, entry.Water)
		assert.False(t, entry.Reading)
		assert.Equal(t, 1, svc.EntryCount())

		require.Equal(t, 1, p.Count())
		last := p.Last()
		assert.True(t, last.Challenge.StartDateLocked)
		assert.Equal(t, entry, last.Challenge.Entries["2025-03-10"])
	})

	t.Run("Success: Should keep fields not present in the patch", func(t *testing.T) {
		svc, _ := newChallengeService()

		_, err := svc.PatchEntry("2025-03-10", domain.EntryPatch{Reading: boolPtr(true)})
		require.NoError(t, err)
		entry, err := svc.PatchEntry("2025-03-10", domain.EntryPatch{Meditation: boolPtr(true)})
		require.NoError(t, err)

		assert.True(t, entry.Reading)
		assert.True(t, entry.Meditation)
	})

	t.Run("Fail: Should reject negative water without touching the state", func(t *testing.T) {
		svc, p := newChallengeService()

		_, err := svc.SetWater("2025-03-10", -1)

		assert.ErrorIs(t, err, domain.ErrInvalidWater)
		assert.Equal(t, 0, svc.EntryCount())
		assert.Equal(t, 0, p.Count())
	})

	t.Run("Success: Should set water without clamping", func(t *testing.T) {
		svc, _ := newChallengeService()

		entry, err := svc.SetWater("2025-03-10", 6000)

		require.NoError(t, err)
		assert.Equal(t, 6000, entry.Water)
	})

	t.Run("Edge: Returned entry is not an alias of the stored one", func(t *testing.T) {
		svc, _ := newChallengeService()

		entry, err := svc.AddPhoto("2025-03-10", "https://blobs/a.jpg")
		require.NoError(t, err)
		entry.Photos[0] = "mutated"

		stored := svc.GetEntry("2025-03-10")
		assert.Equal(t, []string{"https://blobs/a.jpg"}, stored.Photos)
	})
}

func TestChallengeService_ToggleHabit(t *testing.T) {
	keys := map[string]func(e domain.ChallengeEntry) bool{
		domain.HabitKeyIndoorWorkout:  func(e domain.ChallengeEntry) bool { return e.Workouts.Indoor },
		domain.HabitKeyOutdoorWorkout: func(e domain.ChallengeEntry) bool { return e.Workouts.Outdoor },
		domain.HabitKeyDiet:           func(e domain.ChallengeEntry) bool { return e.Diet },
		domain.HabitKeyReading:        func(e domain.ChallengeEntry) bool { return e.Reading },
		domain.HabitKeyMeditation:     func(e domain.ChallengeEntry) bool { return e.Meditation },
	}

	for key, get := range keys {
		t.Run("Success: Should flip "+key+" twice", func(t *testing.T) {
			svc, _ := newChallengeService()

			entry, known, err := svc.ToggleHabit("2025-03-10", key)
			require.NoError(t, err)
			assert.True(t, known)
			assert.True(t, get(entry))

			entry, _, err = svc.ToggleHabit("2025-03-10", key)
			require.NoError(t, err)
			assert.False(t, get(entry))
		})
	}

	t.Run("Edge: Unknown key is a no-op", func(t *testing.T) {
		svc, p := newChallengeService()

		_, known, err := svc.ToggleHabit("2025-03-10", "photos")

		require.NoError(t, err)
		assert.False(t, known)
		assert.Equal(t, 0, svc.EntryCount())
		assert.Equal(t, 0, p.Count())
		assert.False(t, svc.Snapshot().Challenge.StartDateLocked)
	})
}

func TestChallengeService_Water(t *testing.T) {
	t.Run("Success: Should add increments up to the target", func(t *testing.T) {
		svc, _ := newChallengeService()

		var entry domain.ChallengeEntry
		var err error
		for i := 0; i < 10; i++ {
			entry, err = svc.AddWater("2025-03-10")
			require.NoError(t, err)
		}

		assert.Equal(t, domain.WaterTargetML, entry.Water)
	})

	t.Run("Success: Should cap a partial increment", func(t *testing.T) {
		svc, _ := newChallengeService()
		_, err := svc.SetWater("2025-03-10", 3800)
		require.NoError(t, err)

		entry, err := svc.AddWater("2025-03-10")

		require.NoError(t, err)
		assert.Equal(t, 4000, entry.Water)
	})
}

func TestChallengeService_Photos(t *testing.T) {
	t.Run("Success: Should remove a photo and keep the order of the rest", func(t *testing.T) {
		svc, _ := newChallengeService()
		for _, ref := range []string{"a", "b", "c"} {
			_, err := svc.AddPhoto("2025-03-10", ref)
			require.NoError(t, err)
		}

		entry, err := svc.RemovePhoto("2025-03-10", "b")

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, entry.Photos)
	})

	t.Run("Fail: Should reject an empty reference", func(t *testing.T) {
		svc, _ := newChallengeService()

		_, err := svc.AddPhoto("2025-03-10", " ")

		assert.ErrorIs(t, err, domain.ErrInvalidBlobRef)
	})
}

func TestChallengeService_SetStartDate(t *testing.T) {
	t.Run("Success: Should set and lock a future start date", func(t *testing.T) {
		svc, p := newChallengeService()

		err := svc.SetStartDate("2025-03-12")

		require.NoError(t, err)
		snap := svc.Snapshot()
		assert.Equal(t, "2025-03-12", snap.Challenge.StartDate)
		assert.True(t, snap.Challenge.StartDateLocked)
		assert.Equal(t, 1, p.Count())
	})

	t.Run("Success: Today is accepted", func(t *testing.T) {
		svc, _ := newChallengeService()

		require.NoError(t, svc.SetStartDate(testToday))
		assert.Equal(t, testToday, svc.StartDate())
	})

	t.Run("Edge: Should be a no-op after any mutation", func(t *testing.T) {
		svc, p := newChallengeService()
		require.NoError(t, svc.SetStartDate("2025-03-11"))
		require.NoError(t, svc.ResetChallenge())
		_, err := svc.PatchEntry("2025-03-10", domain.EntryPatch{Diet: boolPtr(true)})
		require.NoError(t, err)
		before := p.Count()

		err = svc.SetStartDate("2025-04-01")

		require.NoError(t, err)
		assert.Equal(t, testToday, svc.StartDate())
		assert.Equal(t, before, p.Count())
	})

	t.Run("Fail: Should reject a date before today", func(t *testing.T) {
		svc, p := newChallengeService()

		err := svc.SetStartDate("2025-03-09")

		assert.ErrorIs(t, err, domain.ErrStartDateInPast)
		assert.Equal(t, "", svc.StartDate())
		assert.False(t, svc.Snapshot().Challenge.StartDateLocked)
		assert.Equal(t, 0, p.Count())
	})

	t.Run("Fail: Should reject a malformed date", func(t *testing.T) {
		svc, _ := newChallengeService()

		assert.ErrorIs(t, svc.SetStartDate("tomorrow"), domain.ErrInvalidDate)
	})
}

func TestChallengeService_ResetChallenge(t *testing.T) {
	t.Run("Success: Should clear entries and keep habits and name", func(t *testing.T) {
		svc, p := newChallengeService()

		require.NoError(t, svc.SetUserName("Ada"))
		_, err := svc.AddHabitCategory(domain.HabitCategorySpec{Name: "Stretch"})
		require.NoError(t, err)
		_, err = svc.ToggleDailyHabit("2025-03-09", "guitar")
		require.NoError(t, err)
		_, err = svc.PatchEntry("2025-03-09", domain.EntryPatch{Diet: boolPtr(true)})
		require.NoError(t, err)
		before := svc.Snapshot()

		require.NoError(t, svc.ResetChallenge())

		after := svc.Snapshot()
		assert.Empty(t, after.Challenge.Entries)
		assert.Equal(t, testToday, after.Challenge.StartDate)
		assert.False(t, after.Challenge.StartDateLocked)
		assert.Equal(t, "Ada", after.Challenge.UserName)
		assert.Empty(t, cmp.Diff(before.Challenge.HabitCategories, after.Challenge.HabitCategories))
		assert.Empty(t, cmp.Diff(before.Challenge.HabitEntries, after.Challenge.HabitEntries, cmp.AllowUnexported(domain.HabitMarks{})))
		assert.Equal(t, after, p.Last())
	})
}

func TestChallengeService_Snapshot(t *testing.T) {
	t.Run("Success: Should hand out a deep copy", func(t *testing.T) {
		svc, _ := newChallengeService()
		_, err := svc.AddPhoto("2025-03-10", "a")
		require.NoError(t, err)

		snap := svc.Snapshot()
		snap.Challenge.Entries["2025-03-10"].Photos[0] = "mutated"
		snap.Challenge.HabitCategories[0].Name = "mutated"
		delete(snap.Challenge.Entries, "2025-03-10")

		entry := svc.GetEntry("2025-03-10")
		assert.Equal(t, []string{"a"}, entry.Photos)
		assert.Equal(t, "Work on Goals", svc.HabitCategories()[0].Name)
	})

	t.Run("Edge: Persisted states are not rewritten by later mutations", func(t *testing.T) {
		svc, p := newChallengeService()

		_, err := svc.PatchEntry("2025-03-10", domain.EntryPatch{Diet: boolPtr(true)})
		require.NoError(t, err)
		first := p.Last()

		_, err = svc.PatchEntry("2025-03-10", domain.EntryPatch{Diet: boolPtr(false)})
		require.NoError(t, err)

		assert.True(t, first.Challenge.Entries["2025-03-10"].Diet)
		assert.False(t, p.Last().Challenge.Entries["2025-03-10"].Diet)
	})
}

func TestChallengeService_ConcurrentMutations(t *testing.T) {
	svc, p := newChallengeService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddPhoto("2025-03-10", "p")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entry := svc.GetEntry("2025-03-10")
	assert.Len(t, entry.Photos, 50)
	assert.Equal(t, 50, p.Count())
	assert.Len(t, p.Last().Challenge.Entries["2025-03-10"].Photos, 50)
}
