package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordedWrites struct {
	mu          sync.Mutex
	generations []uint64
	inFlight    int
	maxInFlight int
}

func (r *recordedWrites) write(delay time.Duration) PersistFunc {
	return func(ctx context.Context, job PersistJob) {
		r.mu.Lock()
		r.inFlight++
		r.maxInFlight = max(r.maxInFlight, r.inFlight)
		r.mu.Unlock()

		time.Sleep(delay)

		r.mu.Lock()
		r.inFlight--
		r.generations = append(r.generations, job.Generation)
		r.mu.Unlock()
	}
}

func (r *recordedWrites) snapshot() ([]uint64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.generations...), r.maxInFlight
}

func TestPersistWorker(t *testing.T) {
	t.Run("Success: Should write an enqueued snapshot", func(t *testing.T) {
		rec := &recordedWrites{}
		w := NewPersistWorker(rec.write(0), nil)
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)

		w.Enqueue(PersistJob{Generation: 1, State: domain.NewAppState()})

		require.Eventually(t, w.Idle, time.Second, time.Millisecond)
		cancel()
		<-w.Done()

		gens, _ := rec.snapshot()
		assert.Equal(t, []uint64{1}, gens)
	})

	t.Run("Success: Writes never overlap and the newest snapshot is written last", func(t *testing.T) {
		rec := &recordedWrites{}
		w := NewPersistWorker(rec.write(5*time.Millisecond), nil)
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)

		for i := uint64(1); i <= 20; i++ {
			w.Enqueue(PersistJob{Generation: i, State: domain.NewAppState()})
			time.Sleep(time.Millisecond)
		}

		require.Eventually(t, w.Idle, 2*time.Second, time.Millisecond)
		cancel()
		<-w.Done()

		gens, maxInFlight := rec.snapshot()
		require.NotEmpty(t, gens)
		assert.Equal(t, 1, maxInFlight)
		assert.Equal(t, uint64(20), gens[len(gens)-1])
		assert.LessOrEqual(t, len(gens), 20)
		assert.IsIncreasing(t, gens)
	})

	t.Run("Edge: A pending snapshot is flushed when the context ends", func(t *testing.T) {
		started := make(chan struct{})
		block := make(chan struct{})
		var (
			mu      sync.Mutex
			written []uint64
			ctxErrs []error
		)
		w := NewPersistWorker(func(ctx context.Context, job PersistJob) {
			if job.Generation == 1 {
				close(started)
				<-block
			}
			mu.Lock()
			written = append(written, job.Generation)
			ctxErrs = append(ctxErrs, ctx.Err())
			mu.Unlock()
		}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)

		w.Enqueue(PersistJob{Generation: 1})
		<-started
		w.Enqueue(PersistJob{Generation: 2})
		cancel()
		close(block)
		<-w.Done()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []uint64{1, 2}, written)
		assert.NoError(t, ctxErrs[1])
		assert.True(t, w.Idle())
	})

	t.Run("Success: The idle hook runs once a burst is written", func(t *testing.T) {
		rec := &recordedWrites{}
		w := NewPersistWorker(rec.write(2*time.Millisecond), nil)
		var (
			mu        sync.Mutex
			idleCalls int
			idleSeen  []bool
		)
		w.OnIdle(func() {
			mu.Lock()
			defer mu.Unlock()
			idleCalls++
			idleSeen = append(idleSeen, w.Idle())
		})
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)

		w.Enqueue(PersistJob{Generation: 1})
		w.Enqueue(PersistJob{Generation: 2})

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return idleCalls > 0
		}, time.Second, time.Millisecond)
		cancel()
		<-w.Done()

		mu.Lock()
		defer mu.Unlock()
		assert.LessOrEqual(t, idleCalls, 2)
		assert.NotContains(t, idleSeen, false, "the hook only runs once nothing is pending or in flight")
	})

	t.Run("Edge: Flush context outlives the cancelled parent", func(t *testing.T) {
		var flushErr error
		w := NewPersistWorker(func(ctx context.Context, job PersistJob) {
			flushErr = ctx.Err()
		}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w.Enqueue(PersistJob{Generation: 1})
		w.Start(ctx)
		<-w.Done()

		assert.NoError(t, flushErr)
	})
}
