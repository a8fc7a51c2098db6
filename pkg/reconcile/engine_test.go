package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/overrides"
	"tableflip.dev/apphub/pkg/store"
)

func staticEnumerator(descs ...apps.Descriptor) apps.Enumerator {
	return apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) {
		return append([]apps.Descriptor(nil), descs...), nil
	})
}

var (
	notepad = apps.Descriptor{Name: "Notepad", Path: `C:\Win\notepad.exe`, Category: apps.CategoryUtilities}
	paint   = apps.Descriptor{Name: "Paint", Path: `C:\Win\mspaint.exe`, Category: apps.CategoryMedia}
)

func seed(t *testing.T, m store.Medium, fn func(ov *overrides.Maps)) {
	t.Helper()
	ov := overrides.New()
	fn(ov)
	if err := ov.Save(m); err != nil {
		t.Fatalf("seed overrides: %v", err)
	}
}

func TestReconcileWithoutOverrides(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(paint, notepad))

	got, gen, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if gen != 1 {
		t.Fatalf("expected generation 1, got %d", gen)
	}
	if len(got) != 2 || got[0].Name != "Notepad" || got[1].Name != "Paint" {
		t.Fatalf("unexpected collection %+v", got)
	}
	rec := got[0]
	if rec.Path != notepad.Path || rec.OriginalPath != notepad.Path {
		t.Fatalf("unexpected paths %+v", rec)
	}
	if rec.Category != apps.CategoryUtilities || rec.Pinned || rec.LastAccessed != nil || rec.HasIcon() {
		t.Fatalf("unexpected record %+v", rec)
	}
	if status, _ := e.Status(); status != StatusReady {
		t.Fatalf("expected ready, got %s", status)
	}
}

func TestReconcileAppliesOverrides(t *testing.T) {
	m := store.NewMemory()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	moved := `D:\Tools\notepad.exe`
	seed(t, m, func(ov *overrides.Maps) {
		ov.MovedTo[notepad.Path] = moved
		ov.Categories[notepad.Path] = "Writing"
		ov.LastAccessed[notepad.Path] = at
		ov.Pinned = []string{moved}
		ov.CustomIcons[moved] = apps.Icon("Y")
	})

	e := New(m, staticEnumerator(notepad))
	got, _, err := e.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	rec := got[0]
	if rec.Path != moved || rec.OriginalPath != notepad.Path {
		t.Fatalf("expected relocated path, got %+v", rec)
	}
	if rec.Category != "Writing" {
		t.Fatalf("expected category override, got %q", rec.Category)
	}
	if !rec.Pinned {
		t.Fatalf("expected pinned")
	}
	if rec.LastAccessed == nil || !rec.LastAccessed.Equal(at) {
		t.Fatalf("unexpected last accessed %v", rec.LastAccessed)
	}
	if string(rec.Icon) != "Y" || rec.IconSource != apps.IconCustom {
		t.Fatalf("expected custom icon at reconcile time, got %q/%s", rec.Icon, rec.IconSource)
	}
}

func TestRelocateRewritesEntriesKeyedByOldPath(t *testing.T) {
	m := store.NewMemory()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := New(m, staticEnumerator(notepad), WithClock(func() time.Time { return at }))
	ctx := context.Background()
	if _, _, err := e.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if err := e.SetPinned(notepad.Path, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := e.SetCustomIcon(notepad.Path, apps.Icon("Y")); err != nil {
		t.Fatalf("icon: %v", err)
	}
	if err := e.RecordAccess(notepad.Path, at); err != nil {
		t.Fatalf("access: %v", err)
	}

	first := `D:\Tools\notepad.exe`
	second := `E:\Apps\notepad.exe`
	if err := e.Relocate(notepad.Path, first); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if err := e.Relocate(first, second); err != nil {
		t.Fatalf("relocate again: %v", err)
	}

	// A fresh engine over the same medium must see everything under the
	// final path.
	fresh := New(m, staticEnumerator(notepad))
	got, _, err := fresh.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	rec := got[0]
	if rec.Path != second {
		t.Fatalf("expected path %q, got %q", second, rec.Path)
	}
	if !rec.Pinned {
		t.Fatalf("pin was lost in relocation")
	}
	if string(rec.Icon) != "Y" {
		t.Fatalf("custom icon was lost in relocation")
	}
	if rec.LastAccessed == nil || !rec.LastAccessed.Equal(at) {
		t.Fatalf("last accessed was lost in relocation: %v", rec.LastAccessed)
	}

	ov := fresh.Overrides()
	if ov.IsPinned(notepad.Path) || ov.IsPinned(first) {
		t.Fatalf("stale pins remain: %v", ov.Pinned)
	}
	if _, ok := ov.CustomIcons[first]; ok {
		t.Fatalf("stale custom icon remains")
	}
	if len(ov.Recent) != 1 || ov.Recent[0] != second {
		t.Fatalf("unexpected recent list %v", ov.Recent)
	}
}

func TestRelocateBackToOriginalDropsMove(t *testing.T) {
	m := store.NewMemory()
	e := New(m, staticEnumerator(notepad))
	ctx := context.Background()
	e.Reconcile(ctx)

	if err := e.Relocate(notepad.Path, `D:\notepad.exe`); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if err := e.Relocate(`D:\notepad.exe`, notepad.Path); err != nil {
		t.Fatalf("relocate back: %v", err)
	}
	if _, ok := e.Overrides().MovedTo[notepad.Path]; ok {
		t.Fatalf("expected move entry to be removed")
	}
	if _, ok := e.Get(notepad.Path); !ok {
		t.Fatalf("expected record at original path")
	}
}

func TestRelocateRejectsOccupiedPath(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(notepad, paint))
	e.Reconcile(context.Background())
	if err := e.Relocate(notepad.Path, paint.Path); err == nil {
		t.Fatalf("expected error relocating onto another application")
	}
}

func TestPinTogglesAndPersists(t *testing.T) {
	m := store.NewMemory()
	e := New(m, staticEnumerator(notepad))
	e.Reconcile(context.Background())

	pinned, err := e.Pin(notepad.Path)
	if err != nil || !pinned {
		t.Fatalf("expected pinned, got %v %v", pinned, err)
	}
	if rec, _ := e.Get(notepad.Path); !rec.Pinned {
		t.Fatalf("record not updated")
	}
	ov, err := overrides.Load(m)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ov.IsPinned(notepad.Path) {
		t.Fatalf("pin not persisted")
	}

	pinned, _ = e.Pin(notepad.Path)
	if pinned {
		t.Fatalf("expected toggle to unpin")
	}
}

func TestSetCategoryOverridesAndClears(t *testing.T) {
	m := store.NewMemory()
	e := New(m, staticEnumerator(notepad))
	ctx := context.Background()
	e.Reconcile(ctx)

	if err := e.SetCategory(notepad.Path, apps.CategoryDevelopment); err != nil {
		t.Fatalf("set category: %v", err)
	}
	if rec, _ := e.Get(notepad.Path); rec.Category != apps.CategoryDevelopment {
		t.Fatalf("unexpected category %q", rec.Category)
	}
	if err := e.SetCategory(notepad.Path, ""); err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if rec, _ := e.Get(notepad.Path); rec.Category != apps.CategoryUtilities {
		t.Fatalf("expected the system category right after clear, got %q", rec.Category)
	}
	got, _, _ := e.Reconcile(ctx)
	if got[0].Category != apps.CategoryUtilities {
		t.Fatalf("expected inferred category after clear, got %q", got[0].Category)
	}
}

func TestRecordAccessBoundsRecent(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(), WithRecentLimit(3))
	e.Reconcile(context.Background())

	for _, p := range []string{"a", "b", "c", "d", "b"} {
		if err := e.RecordAccess(p, time.Time{}); err != nil {
			t.Fatalf("access %s: %v", p, err)
		}
	}
	recent := e.Recent()
	want := []string{"b", "d", "c"}
	if len(recent) != len(want) {
		t.Fatalf("expected %v, got %v", want, recent)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, recent)
		}
	}
}

func TestEnumerationFailureYieldsEmptyCollection(t *testing.T) {
	fail := apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) {
		return nil, errors.New("registry unavailable")
	})
	e := New(store.NewMemory(), fail)

	got, _, err := e.Reconcile(context.Background())
	if !errors.Is(err, apps.ErrEnumeration) {
		t.Fatalf("expected ErrEnumeration, got %v", err)
	}
	if len(got) != 0 || len(e.Snapshot()) != 0 {
		t.Fatalf("expected empty collection, got %+v", got)
	}
	if status, _ := e.Status(); status != StatusUnavailable {
		t.Fatalf("expected unavailable, got %s", status)
	}
}

func TestApplyIconsRejectsStaleGenerations(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(notepad))
	ctx := context.Background()
	_, stale, _ := e.Reconcile(ctx)
	_, current, _ := e.Reconcile(ctx)

	if changed := e.ApplyIcons(stale, []apps.IconUpdate{{Path: notepad.Path, Icon: apps.Icon("X"), Source: apps.IconExtracted}}); len(changed) != 0 {
		t.Fatalf("stale update applied: %+v", changed)
	}
	if rec, _ := e.Get(notepad.Path); rec.HasIcon() {
		t.Fatalf("stale update leaked into the collection")
	}
	if changed := e.ApplyIcons(current, []apps.IconUpdate{{Path: notepad.Path, Icon: apps.Icon("X"), Source: apps.IconExtracted}}); len(changed) != 1 {
		t.Fatalf("expected current update to apply")
	}
}

func TestApplyIconsNeverOverwrites(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(notepad))
	_, gen, _ := e.Reconcile(context.Background())

	e.ApplyIcons(gen, []apps.IconUpdate{{Path: notepad.Path, Icon: apps.Icon("X"), Source: apps.IconCached}})
	e.ApplyIcons(gen, []apps.IconUpdate{{Path: notepad.Path, Icon: apps.Icon("Z"), Source: apps.IconExtracted}})
	e.ApplyIcons(gen, []apps.IconUpdate{{Path: notepad.Path}})

	rec, _ := e.Get(notepad.Path)
	if string(rec.Icon) != "X" || rec.IconSource != apps.IconCached {
		t.Fatalf("icon reverted or overwritten: %q/%s", rec.Icon, rec.IconSource)
	}
}

func TestPersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	m := store.NewMemory()
	e := New(m, staticEnumerator(notepad))
	ctx := context.Background()
	e.Reconcile(ctx)

	m.FailWrite = func(string) error { return errors.New("disk full") }
	err := e.SetPinned(notepad.Path, true)
	var serr *apps.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if rec, _ := e.Get(notepad.Path); !rec.Pinned {
		t.Fatalf("in-memory pin was rolled back")
	}

	// The next pass still sees the pin; overrides are not re-read.
	got, _, _ := e.Reconcile(ctx)
	if !got[0].Pinned {
		t.Fatalf("pin lost on reconcile after failed persist")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	e := New(store.NewMemory(), staticEnumerator(notepad))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := e.Subscribe(ctx)

	_, gen, _ := e.Reconcile(ctx)
	e.SetPinned(notepad.Path, true)
	e.ApplyIcons(gen, []apps.IconUpdate{{Path: notepad.Path, Icon: apps.Icon("X"), Source: apps.IconExtracted}})

	want := []EventType{EventReconciled, EventRecordChanged, EventIconsResolved}
	for _, w := range want {
		select {
		case ev := <-events:
			if ev.Type != w {
				t.Fatalf("expected %s, got %s", w, ev.Type)
			}
			if ev.Type != EventReconciled && (len(ev.Records) != 1 || ev.Records[0].Path != notepad.Path) {
				t.Fatalf("unexpected records %+v", ev.Records)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", w)
		}
	}
}

func TestReloadOverridesPicksUpExternalEdits(t *testing.T) {
	m := store.NewMemory()
	e := New(m, staticEnumerator(notepad))
	ctx := context.Background()
	e.Reconcile(ctx)

	seed(t, m, func(ov *overrides.Maps) {
		ov.Categories[notepad.Path] = apps.CategoryGames
	})
	if got, _, _ := e.Reconcile(ctx); got[0].Category != apps.CategoryUtilities {
		t.Fatalf("overrides should not be re-read implicitly")
	}
	changed, err := e.ReloadOverrides()
	if err != nil || !changed {
		t.Fatalf("expected changed overrides, got %v %v", changed, err)
	}
	if changed, _ := e.ReloadOverrides(); changed {
		t.Fatalf("second reload should report no change")
	}
	if got, _, _ := e.Reconcile(ctx); got[0].Category != apps.CategoryGames {
		t.Fatalf("expected reloaded category, got %q", got[0].Category)
	}
}

func TestUnreadableOverridesAreNeverOverwritten(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, func(ov *overrides.Maps) {
		ov.SetPinned(paint.Path, true)
		ov.Categories[paint.Path] = apps.CategoryGames
	})
	reads := 0
	m.FailRead = func(key string) error {
		if key == overrides.Key {
			reads++
			if reads == 1 {
				return errors.New("i/o timeout")
			}
		}
		return nil
	}

	e := New(m, staticEnumerator(notepad, paint))
	ctx := context.Background()
	e.Reconcile(ctx)

	// The failed read must not be mistaken for empty maps: the pass that
	// follows retries and sees the stored overrides.
	err := e.RecordAccess(notepad.Path, time.Unix(100, 0))
	if err != nil {
		t.Fatalf("record access after recovery: %v", err)
	}
	stored, err := overrides.Load(m)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !stored.IsPinned(paint.Path) || stored.Categories[paint.Path] != apps.CategoryGames {
		t.Fatalf("stored overrides were wiped: pinned=%v categories=%v", stored.Pinned, stored.Categories)
	}
	if _, ok := stored.LastAccessed[notepad.Path]; !ok {
		t.Fatalf("access not persisted after recovery")
	}
}

func TestMutationWhileOverridesUnreadableIsNotSaved(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, func(ov *overrides.Maps) {
		ov.SetPinned(paint.Path, true)
	})
	m.FailRead = func(key string) error {
		if key == overrides.Key {
			return errors.New("i/o timeout")
		}
		return nil
	}

	e := New(m, staticEnumerator(notepad, paint))
	e.Reconcile(context.Background())
	writes := m.Writes()

	err := e.SetPinned(notepad.Path, true)
	var serr *apps.StorageError
	if !errors.As(err, &serr) || serr.Op != "read" {
		t.Fatalf("expected read StorageError, got %v", err)
	}
	if rec, _ := e.Get(notepad.Path); !rec.Pinned {
		t.Fatalf("in-memory pin not applied")
	}
	if m.Writes() != writes {
		t.Fatalf("overrides were saved while unreadable")
	}

	m.FailRead = nil
	stored, err := overrides.Load(m)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !stored.IsPinned(paint.Path) || stored.IsPinned(notepad.Path) {
		t.Fatalf("stored pins changed: %v", stored.Pinned)
	}
}
