package ttlcache

import (
	"errors"
	"testing"
	"time"

	"tableflip.dev/apphub/pkg/store"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func TestGetRespectsTTLBoundary(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := &clock{t: start}
	c := New[string](store.NewMemory(), WithTTL(time.Hour), WithClock(clk.Now))

	c.Put(AccentKey, "#112233")

	clk.t = start.Add(time.Hour - time.Millisecond)
	if got, ok := c.Get(AccentKey); !ok || got != "#112233" {
		t.Fatalf("expected hit just before expiry, got %q %v", got, ok)
	}

	clk.t = start.Add(time.Hour + time.Millisecond)
	if _, ok := c.Get(AccentKey); ok {
		t.Fatalf("expected miss just after expiry")
	}

	// Expired entries are not purged.
	if e, ok := c.Peek(AccentKey); !ok || e.Value != "#112233" {
		t.Fatalf("expected expired entry to remain, got %+v %v", e, ok)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := New[[]byte](store.NewMemory(), WithClock(clk.Now), WithPrefix("icons"))
	c.Put(IconKey("/usr/bin/app"), []byte{1, 2, 3})

	clk.t = clk.t.Add(10 * 365 * 24 * time.Hour)
	got, ok := c.Get(IconKey("/usr/bin/app"))
	if !ok || len(got) != 3 {
		t.Fatalf("expected unbounded entry to survive, got %v %v", got, ok)
	}
}

func TestPutOverwrites(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	c := New[string](store.NewMemory(), WithTTL(time.Minute), WithClock(clk.Now))
	c.Put("k", "old")
	clk.t = clk.t.Add(2 * time.Minute)
	c.Put("k", "new")
	if got, ok := c.Get("k"); !ok || got != "new" {
		t.Fatalf("expected refreshed entry, got %q %v", got, ok)
	}
}

func TestFailuresDegradeToMiss(t *testing.T) {
	m := store.NewMemory()
	c := New[string](m, WithPrefix("icons"))

	m.FailWrite = func(string) error { return errors.New("read-only filesystem") }
	c.Put("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("failed write must not be readable")
	}

	m.FailWrite = nil
	if err := m.Write("icons/k", []byte("not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("corrupt entry must read as a miss")
	}

	m.FailRead = func(string) error { return errors.New("io error") }
	c.Put("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("read failure must read as a miss")
	}
}

func TestIconKeyIsStableAndDistinct(t *testing.T) {
	a := IconKey(`C:\Win\notepad.exe`)
	if a != IconKey(`C:\Win\notepad.exe`) {
		t.Fatalf("icon key must be deterministic")
	}
	if a == IconKey(`C:\Win\Notepad.exe`) {
		t.Fatalf("distinct paths must map to distinct keys")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	var c *Cache[string]
	c.Put("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("nil cache must miss")
	}
}
