package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// ChangeNotifier fans out "document changed" signals per user. Signals carry
// no payload; listeners re-read the document.
type ChangeNotifier interface {
	Publish(ctx context.Context, uid string) error

	// Listen returns a channel that receives at least one value after every
	// Publish for uid. The channel is closed once ctx is done.
	Listen(ctx context.Context, uid string) (<-chan struct{}, error)
}

var _ ChangeNotifier = (*LocalNotifier)(nil)

// LocalNotifier is an in-process ChangeNotifier for single-instance
// deployments and tests.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[chan struct{}]struct{})}
}

func (n *LocalNotifier) Publish(_ context.Context, uid string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners[uid] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, uid string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.listeners[uid] == nil {
		n.listeners[uid] = make(map[chan struct{}]struct{})
	}
	n.listeners[uid][ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.listeners[uid], ch)
		if len(n.listeners[uid]) == 0 {
			delete(n.listeners, uid)
		}
		close(ch)
		n.mu.Unlock()
	}()

	return ch, nil
}

type readFunc func(ctx context.Context) ([]byte, error)

// subscribe implements DocumentStore.Subscribe on top of a notifier. The first
// read happens before returning so that access failures surface to the caller;
// later reads are delivered as events.
func subscribe(ctx context.Context, uid string, notifier ChangeNotifier, initial, refresh readFunc) (<-chan domain.DocumentEvent, error) {
	listenCtx, cancel := context.WithCancel(ctx)
	changes, err := notifier.Listen(listenCtx, uid)
	if err != nil {
		cancel()
		return nil, err
	}

	first, err := readEvent(ctx, initial)
	if first.Err != nil {
		cancel()
		return nil, err
	}

	out := make(chan domain.DocumentEvent, 1)
	out <- first

	go func() {
		defer cancel()
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				ev, _ := readEvent(ctx, refresh)
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func readEvent(ctx context.Context, read readFunc) (domain.DocumentEvent, error) {
	data, err := read(ctx)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return domain.DocumentEvent{Exists: false}, nil
	case err != nil:
		return domain.DocumentEvent{Err: err}, err
	default:
		return domain.DocumentEvent{Exists: true, Data: data}, nil
	}
}
