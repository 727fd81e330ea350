package services

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// Persister receives every new state, in the order the states were produced.
type Persister interface {
	Persist(state domain.AppState)
}

type PersisterFunc func(state domain.AppState)

func (f PersisterFunc) Persist(state domain.AppState) { f(state) }

// ChallengeService owns the in-memory state of one signed-in user. Every
// mutation is read, computed and replaced under one lock, and the resulting
// state is handed to the persister before the lock is released.
type ChallengeService struct {
	mu        sync.Mutex
	state     domain.AppState
	closed    bool
	held      *domain.ChallengeDocument
	calendar  *domain.Calendar
	persister Persister
}

func NewChallengeService(calendar *domain.Calendar, persister Persister) *ChallengeService {
	if persister == nil {
		persister = PersisterFunc(func(domain.AppState) {})
	}
	return &ChallengeService{
		state:     domain.NewAppState(),
		calendar:  calendar,
		persister: persister,
	}
}

// mutate runs fn on a private copy of the state. When fn reports a change the
// copy becomes the current state and is persisted. The stored state is never
// written in place, so a snapshot handed to the persister stays immutable.
func (s *ChallengeService) mutate(fn func(st *domain.AppState) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}

	next := s.state.Clone()
	changed, err := fn(&next)
	if err != nil || !changed {
		return err
	}

	s.state = next
	s.persister.Persist(next)
	return nil
}

func (s *ChallengeService) view(fn func(st domain.AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *ChallengeService) Snapshot() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// GetEntry returns the stored entry of date or a default one. Any key is
// accepted; an unknown or malformed one simply has no stored entry.
func (s *ChallengeService) GetEntry(date string) domain.ChallengeEntry {
	var out domain.ChallengeEntry
	s.view(func(st domain.AppState) {
		out = st.Challenge.Entry(date)
	})
	return out
}

// PatchEntry merges patch into the entry of date and locks the start date.
func (s *ChallengeService) PatchEntry(date string, patch domain.EntryPatch) (domain.ChallengeEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.ChallengeEntry{}, domain.ErrInvalidDate
	}
	if err := patch.Validate(); err != nil {
		return domain.ChallengeEntry{}, err
	}

	var out domain.ChallengeEntry
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		out = applyEntryPatch(st, date, patch)
		return true, nil
	})
	return out, err
}

func applyEntryPatch(st *domain.AppState, date string, patch domain.EntryPatch) domain.ChallengeEntry {
	next := patch.Apply(st.Challenge.Entry(date))
	st.Challenge.Entries[date] = next
	st.Challenge.StartDateLocked = true
	return next.Clone()
}

// ToggleHabit flips one of the boolean challenge habits. An unknown key leaves
// the state untouched and reports false.
func (s *ChallengeService) ToggleHabit(date, key string) (domain.ChallengeEntry, bool, error) {
	if !domain.IsValidDate(date) {
		return domain.ChallengeEntry{}, false, domain.ErrInvalidDate
	}

	var (
		out   domain.ChallengeEntry
		known bool
	)
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		current := st.Challenge.Entry(date)
		patch, ok := domain.TogglePatch(current, key)
		if !ok {
			out = current
			return false, nil
		}
		known = true
		out = applyEntryPatch(st, date, patch)
		return true, nil
	})
	return out, known, err
}

func (s *ChallengeService) SetWater(date string, ml int) (domain.ChallengeEntry, error) {
	return s.PatchEntry(date, domain.EntryPatch{Water: &ml})
}

// AddWater adds one increment, capped at the daily target.
func (s *ChallengeService) AddWater(date string) (domain.ChallengeEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.ChallengeEntry{}, domain.ErrInvalidDate
	}

	var out domain.ChallengeEntry
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		water := domain.NextWater(st.Challenge.Entry(date).Water)
		out = applyEntryPatch(st, date, domain.EntryPatch{Water: &water})
		return true, nil
	})
	return out, err
}

func (s *ChallengeService) AddPhoto(date, ref string) (domain.ChallengeEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.ChallengeEntry{}, domain.ErrInvalidDate
	}
	if strings.TrimSpace(ref) == "" {
		return domain.ChallengeEntry{}, domain.ErrInvalidBlobRef
	}

	var out domain.ChallengeEntry
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		photos := append(st.Challenge.Entry(date).Photos, ref)
		out = applyEntryPatch(st, date, domain.EntryPatch{Photos: photos})
		return true, nil
	})
	return out, err
}

// RemovePhoto drops every occurrence of ref, keeping the order of the rest.
func (s *ChallengeService) RemovePhoto(date, ref string) (domain.ChallengeEntry, error) {
	if !domain.IsValidDate(date) {
		return domain.ChallengeEntry{}, domain.ErrInvalidDate
	}

	var out domain.ChallengeEntry
	err := s.mutate(func(st *domain.AppState) (bool, error) {
		current := st.Challenge.Entry(date)
		photos := make([]string, 0, len(current.Photos))
		for _, p := range current.Photos {
			if p != ref {
				photos = append(photos, p)
			}
		}
		out = applyEntryPatch(st, date, domain.EntryPatch{Photos: photos})
		return true, nil
	})
	return out, err
}

// photoDates lists the dates whose entries reference ref.
func (s *ChallengeService) photoDates(ref string) []string {
	var out []string
	s.view(func(st domain.AppState) {
		for date, e := range st.Challenge.Entries {
			if slices.Contains(e.Photos, ref) {
				out = append(out, date)
			}
		}
	})
	return out
}

// SetStartDate is a silent no-op once the start date is locked.
func (s *ChallengeService) SetStartDate(date string) error {
	if !domain.IsValidDate(date) {
		return domain.ErrInvalidDate
	}
	today := s.calendar.Today()

	return s.mutate(func(st *domain.AppState) (bool, error) {
		if st.Challenge.StartDateLocked {
			return false, nil
		}
		if date < today {
			return false, domain.ErrStartDateInPast
		}
		st.Challenge.StartDate = date
		st.Challenge.StartDateLocked = true
		return true, nil
	})
}

// ResetChallenge restarts the challenge today. Habits, categories, name and
// device flags survive.
func (s *ChallengeService) ResetChallenge() error {
	today := s.calendar.Today()
	return s.mutate(func(st *domain.AppState) (bool, error) {
		*st = st.Reset(today)
		return true, nil
	})
}

func (s *ChallengeService) SetUserName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > domain.MaxNameLen {
		return domain.ErrDisplayNameTooLong
	}
	return s.mutate(func(st *domain.AppState) (bool, error) {
		st.Challenge.UserName = name
		return true, nil
	})
}

func (s *ChallengeService) StartDate() string {
	var out string
	s.view(func(st domain.AppState) {
		out = st.Challenge.StartDate
	})
	return out
}

func (s *ChallengeService) EntryCount() int {
	var n int
	s.view(func(st domain.AppState) {
		n = len(st.Challenge.Entries)
	})
	return n
}

// applyRemote replaces the remote scope with doc. Device flags stay. While
// pending reports unsent local writes the snapshot is held back instead,
// replacing any older held one; pending is checked under the state lock so no
// mutation slips in between.
func (s *ChallengeService) applyRemote(doc domain.ChallengeDocument, pending func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if pending != nil && pending() {
		s.held = &doc
		return false
	}
	s.held = nil
	s.state = domain.Hydrate(doc, s.state.Device)
	return true
}

// applyHeld applies the held-back snapshot once no write is pending anymore.
func (s *ChallengeService) applyHeld(pending func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.held == nil || (pending != nil && pending()) {
		return false
	}
	s.state = domain.Hydrate(*s.held, s.state.Device)
	s.held = nil
	return true
}

// dropHeld forgets the held-back snapshot; a landed write supersedes it.
func (s *ChallengeService) dropHeld() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = nil
}

// applyInitial records the values written with a freshly created document and
// returns the resulting state.
func (s *ChallengeService) applyInitial(userName, startDate string) (domain.AppState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.AppState{}, false
	}
	next := s.state.Clone()
	next.Challenge.UserName = userName
	next.Challenge.StartDate = startDate
	s.state = next
	return next, true
}

// adoptUserName fills in an empty user name without persisting the full state.
func (s *ChallengeService) adoptUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Challenge.UserName != "" {
		return
	}
	next := s.state.Clone()
	next.Challenge.UserName = name
	s.state = next
}

// setDeviceFlags changes local-only state; nothing is sent remotely.
func (s *ChallengeService) setDeviceFlags(fn func(f *domain.DeviceFlags)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	next := s.state.Clone()
	fn(&next.Device)
	s.state = next
	return nil
}

// close resets the state to defaults and refuses every later change.
func (s *ChallengeService) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.held = nil
	s.state = domain.NewAppState()
}
