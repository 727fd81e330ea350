package repository

import (
	"bytes"
	"context"
	"sync"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.DocumentStore = (*MemoryDocumentStore)(nil)

type MemoryDocumentStore struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	denied   map[string]bool
	notifier ChangeNotifier
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:     make(map[string][]byte),
		denied:   make(map[string]bool),
		notifier: NewLocalNotifier(),
	}
}

// Deny makes every access to uid's document fail with ErrPermissionDenied
// until it is called again with false.
func (s *MemoryDocumentStore) Deny(uid string, denied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[uid] = denied
}

func (s *MemoryDocumentStore) Get(_ context.Context, uid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.denied[uid] {
		return nil, domain.ErrPermissionDenied
	}
	doc, ok := s.docs[uid]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return bytes.Clone(doc), nil
}

func (s *MemoryDocumentStore) Merge(ctx context.Context, uid string, patch domain.DocumentPatch) error {
	s.mu.Lock()
	if s.denied[uid] {
		s.mu.Unlock()
		return domain.ErrPermissionDenied
	}
	merged, err := patch.MergeInto(s.docs[uid])
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.docs[uid] = merged
	s.mu.Unlock()

	return s.notifier.Publish(ctx, uid)
}

func (s *MemoryDocumentStore) Subscribe(ctx context.Context, uid string) (<-chan domain.DocumentEvent, error) {
	read := func(ctx context.Context) ([]byte, error) { return s.Get(ctx, uid) }
	return subscribe(ctx, uid, s.notifier, read, read)
}
