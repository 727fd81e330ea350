package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const testToday = "2025-03-10"

func fixedCalendar(date string) *domain.Calendar {
	t, err := time.ParseInLocation(domain.DateLayout, date, domain.CivilZone)
	if err != nil {
		panic(err)
	}
	noon := t.Add(12 * time.Hour)
	return domain.NewCalendar(domain.ClockFunc(func() time.Time { return noon }))
}

type recordingPersister struct {
	mu     sync.Mutex
	states []domain.AppState
}

func (p *recordingPersister) Persist(state domain.AppState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *recordingPersister) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

func (p *recordingPersister) Last() domain.AppState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[len(p.states)-1]
}

// fakeDocumentStore records every merge and delivers whatever the test
// pushes on events to the live subscription.
type fakeDocumentStore struct {
	mu           sync.Mutex
	merges       []domain.DocumentPatch
	mergeErr     error
	subscribeErr error
	// gate, when set, holds every Merge until it is closed.
	gate chan struct{}

	events chan domain.DocumentEvent
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{events: make(chan domain.DocumentEvent, 8)}
}

func (f *fakeDocumentStore) Get(ctx context.Context, uid string) ([]byte, error) {
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocumentStore) Merge(ctx context.Context, uid string, patch domain.DocumentPatch) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, patch)
	return f.mergeErr
}

func (f *fakeDocumentStore) Subscribe(ctx context.Context, uid string) (<-chan domain.DocumentEvent, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	out := make(chan domain.DocumentEvent)
	go func() {
		defer close(out)
		for {
			select {
			case ev := <-f.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *fakeDocumentStore) setMergeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeErr = err
}

func (f *fakeDocumentStore) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeDocumentStore) Merges() []domain.DocumentPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DocumentPatch(nil), f.merges...)
}

type fakeLocalStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeLocalStore() *fakeLocalStore {
	return &fakeLocalStore{values: map[string]string{}}
}

func (f *fakeLocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeLocalStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (*domain.Blob, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blob), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, owner, url string) error {
	return m.Called(ctx, owner, url).Error(0)
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }
