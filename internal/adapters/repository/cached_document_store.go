package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const documentCacheTTL = 30 * time.Minute

var _ domain.DocumentStore = (*CachedDocumentStore)(nil)

// CachedDocumentStore is a cache-aside decorator keeping the raw document of
// each user in Redis.
type CachedDocumentStore struct {
	next     domain.DocumentStore
	cache    *redis.Client
	notifier ChangeNotifier
	logger   *zap.Logger
	group    singleflight.Group
}

func NewCachedDocumentStore(next domain.DocumentStore, cache *redis.Client, notifier ChangeNotifier, logger *zap.Logger) *CachedDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDocumentStore{
		next:     next,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "document_cache")),
	}
}

func (r *CachedDocumentStore) cacheKey(uid string) string {
	return fmt.Sprintf("challenge:%s", uid)
}

func (r *CachedDocumentStore) invalidate(ctx context.Context, uid string) {
	if err := r.cache.Del(ctx, r.cacheKey(uid)).Err(); err != nil {
		r.logger.Warn("failed to invalidate", zap.String("uid", uid), zap.Error(err))
	}
}

func (r *CachedDocumentStore) store(ctx context.Context, uid string, doc []byte) {
	if err := r.cache.Set(ctx, r.cacheKey(uid), doc, documentCacheTTL).Err(); err != nil {
		r.logger.Warn("redis set error", zap.String("uid", uid), zap.Error(err))
	}
}

func (r *CachedDocumentStore) Get(ctx context.Context, uid string) ([]byte, error) {
	doc, err := r.cache.Get(ctx, r.cacheKey(uid)).Bytes()
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Warn("redis read error", zap.String("uid", uid), zap.Error(err))
	}

	v, err, _ := r.group.Do(uid, func() (any, error) {
		return r.load(ctx, uid)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// load reads through to the backing store and refreshes the cache.
func (r *CachedDocumentStore) load(ctx context.Context, uid string) ([]byte, error) {
	doc, err := r.next.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	r.store(ctx, uid, doc)
	return doc, nil
}

func (r *CachedDocumentStore) Merge(ctx context.Context, uid string, patch domain.DocumentPatch) error {
	if err := r.next.Merge(ctx, uid, patch); err != nil {
		return err
	}
	r.invalidate(ctx, uid)
	return nil
}

// Subscribe serves the first delivery from the cache. Change signals always
// read through, so a stale cached copy is replaced by the next change.
func (r *CachedDocumentStore) Subscribe(ctx context.Context, uid string) (<-chan domain.DocumentEvent, error) {
	initial := func(ctx context.Context) ([]byte, error) { return r.Get(ctx, uid) }
	refresh := func(ctx context.Context) ([]byte, error) { return r.load(ctx, uid) }
	return subscribe(ctx, uid, r.notifier, initial, refresh)
}
