package reconcile

import (
	"context"
	"sync"

	"tableflip.dev/apphub/pkg/apps"
)

// EventType identifies what changed in the canonical collection.
type EventType int

const (
	// EventReconciled means the whole collection was replaced.
	EventReconciled EventType = iota
	// EventRecordChanged means a user action changed some records.
	EventRecordChanged
	// EventIconsResolved means a batch of icons was attached.
	EventIconsResolved
)

func (t EventType) String() string {
	switch t {
	case EventReconciled:
		return "reconciled"
	case EventRecordChanged:
		return "changed"
	case EventIconsResolved:
		return "icons"
	default:
		return "unknown"
	}
}

// Event is published to subscribers. Records holds only the records that
// changed; it is empty for EventReconciled.
type Event struct {
	Type       EventType
	Generation uint64
	Records    []apps.Record
	Op         string
	Err        error
}

const subscriberBuffer = 64

type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Event]struct{})}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
