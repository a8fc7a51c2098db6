package timeutil

import (
	"testing"
	"time"
)

func TestParseTTLForever(t *testing.T) {
	for _, in := range []string{"", "0", "never", " Forever "} {
		d, err := ParseTTL(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if d != Forever {
			t.Fatalf("%q: expected forever, got %v", in, d)
		}
	}
}

func TestParseTTLComposite(t *testing.T) {
	d, err := ParseTTL("1w2d6h30m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (7*24+2*24+6)*time.Hour + 30*time.Minute
	if d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
	if got := FormatTTL(d); got != "1w2d6h30m" {
		t.Fatalf("unexpected label: %s", got)
	}
}

func TestParseTTLInvalid(t *testing.T) {
	for _, in := range []string{"noop", "3 fortnights", "h1"} {
		if _, err := ParseTTL(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestAgo(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		then time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tc := range cases {
		if got := Ago(tc.then, now); got != tc.want {
			t.Fatalf("Ago(%v) = %q, want %q", tc.then, got, tc.want)
		}
	}
}
