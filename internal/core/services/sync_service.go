package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/workers"
)

const (
	MsgSubscribePermissionDenied = "Database permission denied. Your progress is NOT saving. Please update the database access rules."
	MsgWritePermissionDenied     = "Database permission denied. Changes won't save."

	defaultReadyTimeout = 5 * time.Second
	maxPhotoNameLen     = 64
)

type SyncDeps struct {
	Store        domain.DocumentStore
	Blobs        domain.BlobStore
	Local        domain.LocalStore
	Calendar     *domain.Calendar
	Logger       *zap.Logger
	ReadyTimeout time.Duration
}

// SyncService mirrors one user's ChallengeService to the remote document
// store and owns the photo blobs of that user.
type SyncService struct {
	principal domain.Principal
	deps      SyncDeps
	logger    *zap.Logger

	challenge *ChallengeService
	worker    *workers.PersistWorker

	generation atomic.Uint64
	closed     atomic.Bool
	started    atomic.Bool

	// writeFailed reports whether the last worker write was rejected.
	writeFailed atomic.Bool

	errMu     sync.RWMutex
	syncError string

	ready     chan struct{}
	readyOnce sync.Once
	wg        sync.WaitGroup
}

func NewSyncService(principal domain.Principal, deps SyncDeps) *SyncService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ReadyTimeout <= 0 {
		deps.ReadyTimeout = defaultReadyTimeout
	}

	s := &SyncService{
		principal: principal,
		deps:      deps,
		logger:    deps.Logger.With(zap.String("component", "sync"), zap.String("uid", principal.UID)),
		ready:     make(chan struct{}),
	}
	s.worker = workers.NewPersistWorker(s.write, s.logger)
	s.worker.OnIdle(s.writerIdle)
	s.challenge = NewChallengeService(deps.Calendar, s)
	return s
}

func (s *SyncService) Challenge() *ChallengeService {
	return s.challenge
}

// Persist enqueues state for the remote store, tagged with the current
// session generation.
func (s *SyncService) Persist(state domain.AppState) {
	if s.closed.Load() {
		return
	}
	s.worker.Enqueue(workers.PersistJob{Generation: s.generation.Load(), State: state})
}

// Start loads the device flags, starts the writer and subscribes to the
// remote document. It returns once the first delivery was handled or the
// ready timeout passed; the session keeps working offline in the latter case.
func (s *SyncService) Start(ctx context.Context) error {
	if s.principal.UID == "" {
		return domain.ErrUnauthenticated
	}

	if err := s.loadDeviceFlags(ctx); err != nil {
		s.logger.Warn("failed to load device flags", zap.Error(err))
	}

	s.started.Store(true)
	s.worker.Start(ctx)

	events, err := s.deps.Store.Subscribe(ctx, s.principal.UID)
	if err != nil {
		s.reportSubscribeError(err)
		return fmt.Errorf("sync: subscribe: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range events {
			s.handleEvent(ctx, ev)
		}
	}()

	timer := time.NewTimer(s.deps.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-s.ready:
	case <-timer.C:
		s.logger.Warn("remote document not received in time, continuing with local state")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *SyncService) writesPending() bool {
	return s.started.Load() && !s.worker.Idle()
}

// writerIdle runs once the worker has nothing left to write.
func (s *SyncService) writerIdle() {
	if !s.writeFailed.Load() {
		s.challenge.dropHeld()
		return
	}
	if s.challenge.applyHeld(s.writesPending) {
		s.logger.Info("applied remote snapshot held back during a failed write")
	}
}

func (s *SyncService) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *SyncService) loadDeviceFlags(ctx context.Context) error {
	read := func(flag string) (bool, error) {
		v, ok, err := s.deps.Local.Get(ctx, domain.LocalFlagKey(s.principal.UID, flag))
		if err != nil || !ok {
			return false, err
		}
		return v == "true", nil
	}

	onboarding, err := read(domain.FlagHasSeenOnboarding)
	if err != nil {
		return err
	}
	habitOnboarding, err := read(domain.FlagHasSeenHabitOnboarding)
	if err != nil {
		return err
	}

	return s.challenge.setDeviceFlags(func(f *domain.DeviceFlags) {
		f.HasSeenOnboarding = onboarding
		f.HasSeenHabitOnboarding = habitOnboarding
	})
}

func (s *SyncService) handleEvent(ctx context.Context, ev domain.DocumentEvent) {
	defer s.markReady()

	if s.closed.Load() {
		return
	}
	if ev.Err != nil {
		s.reportSubscribeError(ev.Err)
		return
	}
	s.clearError()

	if !ev.Exists {
		s.createInitialDocument()
		return
	}

	doc, err := domain.DecodeDocument(ev.Data)
	if err != nil {
		s.logger.Error("failed to decode remote document", zap.Error(err))
		s.setError(err.Error())
		return
	}

	adopt := doc.UserName == "" && s.principal.DisplayName != ""
	// The echo of an older write must not roll back newer local changes. A
	// landed write publishes again; a failed one lets the held snapshot in.
	if !s.challenge.applyRemote(doc, s.writesPending) {
		s.logger.Debug("holding back remote snapshot while local writes are pending")
		return
	}

	if adopt {
		s.challenge.adoptUserName(s.principal.DisplayName)
		s.mergeUserName(ctx, s.principal.DisplayName)
	}
}

// createInitialDocument seeds a new user: defaults, the identity display name
// and today as start date.
func (s *SyncService) createInitialDocument() {
	state, ok := s.challenge.applyInitial(s.principal.DisplayName, s.deps.Calendar.Today())
	if !ok {
		return
	}
	s.logger.Info("creating initial challenge document")
	s.Persist(state)
}

func (s *SyncService) mergeUserName(ctx context.Context, name string) {
	patch, err := domain.NewPatch("userName", name)
	if err != nil {
		s.logger.Error("failed to encode user name", zap.Error(err))
		return
	}

	gen := s.generation.Load()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.deps.Store.Merge(context.WithoutCancel(ctx), s.principal.UID, patch)
		s.writeCompleted(gen, err)
	}()
}

// write is the PersistWorker callback. Device flags never reach the store
// since only the document projection is encoded.
func (s *SyncService) write(ctx context.Context, job workers.PersistJob) {
	patch, err := job.State.Document().Patch()
	if err == nil {
		err = s.deps.Store.Merge(ctx, s.principal.UID, patch)
	}
	s.writeFailed.Store(err != nil)
	s.writeCompleted(job.Generation, err)
}

func (s *SyncService) writeCompleted(gen uint64, err error) {
	if gen != s.generation.Load() || s.closed.Load() {
		s.logger.Debug("discarding write result of a closed session")
		return
	}
	if err == nil {
		s.clearError()
		return
	}

	s.logger.Error("failed to persist challenge document", zap.Error(err))
	if errors.Is(err, domain.ErrPermissionDenied) {
		s.setError(MsgWritePermissionDenied)
	}
}

func (s *SyncService) reportSubscribeError(err error) {
	s.logger.Error("document subscription failed", zap.Error(err))
	if errors.Is(err, domain.ErrPermissionDenied) {
		s.setError(MsgSubscribePermissionDenied)
		return
	}
	s.setError(err.Error())
}

// SyncError is the user-facing banner text, empty when everything is fine.
func (s *SyncService) SyncError() string {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.syncError
}

func (s *SyncService) setError(msg string) {
	s.errMu.Lock()
	s.syncError = msg
	s.errMu.Unlock()
}

func (s *SyncService) clearError() {
	s.setError("")
}

func (s *SyncService) CompleteOnboarding(ctx context.Context) error {
	return s.setFlag(ctx, domain.FlagHasSeenOnboarding, func(f *domain.DeviceFlags) {
		f.HasSeenOnboarding = true
	})
}

func (s *SyncService) CompleteHabitOnboarding(ctx context.Context) error {
	return s.setFlag(ctx, domain.FlagHasSeenHabitOnboarding, func(f *domain.DeviceFlags) {
		f.HasSeenHabitOnboarding = true
	})
}

func (s *SyncService) setFlag(ctx context.Context, flag string, fn func(f *domain.DeviceFlags)) error {
	if err := s.challenge.setDeviceFlags(fn); err != nil {
		return err
	}
	if err := s.deps.Local.Set(ctx, domain.LocalFlagKey(s.principal.UID, flag), "true"); err != nil {
		return fmt.Errorf("sync: store %s: %w", flag, err)
	}
	return nil
}

// UploadPhoto stores the image and references it from the entry of date.
func (s *SyncService) UploadPhoto(ctx context.Context, date, filename, contentType string, data []byte) (string, error) {
	if s.principal.UID == "" {
		return "", domain.ErrUnauthenticated
	}
	if !domain.IsValidDate(date) {
		return "", domain.ErrInvalidDate
	}

	gen := s.generation.Load()
	key := domain.PhotoKey(s.principal.UID, date, photoName(s.deps.Calendar.Now(), filename))

	url, err := s.deps.Blobs.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("sync: upload photo: %w", err)
	}

	if gen != s.generation.Load() || s.closed.Load() {
		s.discardBlob(ctx, url)
		return "", domain.ErrSessionClosed
	}
	if _, err := s.challenge.AddPhoto(date, url); err != nil {
		s.discardBlob(ctx, url)
		return "", err
	}
	return url, nil
}

// discardBlob removes a blob that never got referenced.
func (s *SyncService) discardBlob(ctx context.Context, url string) {
	if err := s.deps.Blobs.Delete(context.WithoutCancel(ctx), s.principal.UID, url); err != nil {
		s.logger.Warn("failed to discard unreferenced photo", zap.String("url", url), zap.Error(err))
	}
}

// DeletePhoto removes the blob first; the entry keeps its reference when the
// remote delete fails. Only photos referenced by the entry of date can be
// deleted, and the blob stays while another date still references it.
func (s *SyncService) DeletePhoto(ctx context.Context, date, url string) error {
	if s.principal.UID == "" {
		return domain.ErrUnauthenticated
	}
	if !domain.IsValidDate(date) {
		return domain.ErrInvalidDate
	}

	dates := s.challenge.photoDates(url)
	if !slices.Contains(dates, date) {
		return domain.ErrBlobNotFound
	}

	gen := s.generation.Load()
	if len(dates) == 1 {
		// Inline, legacy or foreign references have no blob of ours behind them.
		err := s.deps.Blobs.Delete(ctx, s.principal.UID, url)
		if err != nil && !errors.Is(err, domain.ErrInvalidBlobRef) && !errors.Is(err, domain.ErrBlobNotFound) {
			return fmt.Errorf("sync: delete photo: %w", err)
		}
	}

	if gen != s.generation.Load() || s.closed.Load() {
		return domain.ErrSessionClosed
	}
	_, err := s.challenge.RemovePhoto(date, url)
	return err
}

func photoName(now time.Time, filename string) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), short, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "photo"
	}
	if len(out) > maxPhotoNameLen {
		out = out[len(out)-maxPhotoNameLen:]
	}
	return out
}

// Close resets the in-memory state right away and invalidates every
// outstanding completion. The caller cancels the session context.
func (s *SyncService) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.generation.Add(1)
	s.challenge.close()
	s.clearError()
	s.markReady()
}

// Wait blocks until the subscription loop, the writer and detached merges
// have exited. The session context must already be cancelled.
func (s *SyncService) Wait() {
	if s.started.Load() {
		<-s.worker.Done()
	}
	s.wg.Wait()
}
