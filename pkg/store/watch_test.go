package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskvWatchEmitsKeyChanges(t *testing.T) {
	m, err := OpenDiskv(filepath.Join(t.TempDir(), "hub"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := m.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	if err := m.Write("app-settings", []byte(`{}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if evt.Type == EventKeyChanged {
				if evt.Key != "app-settings" {
					continue
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for key change event")
		}
	}
}

func TestEventThrottleCollapsesInvalidations(t *testing.T) {
	th := newEventThrottle(10 * time.Millisecond)
	defer th.Stop()

	got := make(chan Event, 8)
	send := func(ev Event) { got <- ev }

	th.Enqueue(Event{Type: EventKeyChanged, Key: "a"}, send)
	th.Enqueue(Event{Type: EventKeyChanged, Key: "a"}, send)
	th.Enqueue(Event{Type: EventInvalidated}, send)

	select {
	case ev := <-got:
		if ev.Type != EventInvalidated {
			t.Fatalf("expected a single invalidation, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("throttle never flushed")
	}
	select {
	case ev := <-got:
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
