package repository

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.BlobStore = (*MemoryBlobStore)(nil)

type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]domain.Blob
	urls  BlobURLs
}

func NewMemoryBlobStore(urls BlobURLs) *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string]domain.Blob),
		urls:  urls,
	}
}

func (s *MemoryBlobStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if !ValidBlobKey(key) {
		return "", domain.ErrInvalidBlobRef
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = domain.Blob{
		Key:         key,
		ContentType: contentType,
		Data:        bytes.Clone(data),
		CreatedAt:   time.Now().UTC(),
	}
	return s.urls.URL(key), nil
}

func (s *MemoryBlobStore) Open(_ context.Context, key string) (*domain.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	b.Data = bytes.Clone(b.Data)
	return &b, nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, owner, url string) error {
	key, err := s.urls.OwnedKey(owner, url)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
