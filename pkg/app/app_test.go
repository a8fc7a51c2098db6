package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/overrides"
	"tableflip.dev/apphub/pkg/store"
	"tableflip.dev/apphub/pkg/ttlcache"
)

const notepadPath = `C:\Win\notepad.exe`

var notepad = apps.Descriptor{Name: "Notepad", Path: notepadPath, Category: apps.CategoryUtilities}

type recordingExtractor struct {
	mu    sync.Mutex
	icon  apps.Icon
	calls []string
}

func (r *recordingExtractor) ExtractIcon(_ context.Context, path string) (apps.Icon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, path)
	return r.icon, nil
}

func (r *recordingExtractor) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type recordingLauncher struct {
	launched []string
	err      error
}

func (r *recordingLauncher) Launch(_ context.Context, rec apps.Record) error {
	if r.err != nil {
		return r.err
	}
	r.launched = append(r.launched, rec.Path)
	return nil
}

func enumerate(descs ...apps.Descriptor) apps.Enumerator {
	return apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) {
		return descs, nil
	})
}

func testConfig() *store.Config {
	return &store.Config{IconBatchSize: 4, RecentLimit: 20, AccentTTL: time.Hour}
}

func newService(t *testing.T, m store.Medium, c Collaborators) *Service {
	t.Helper()
	if c.Accent == nil {
		c.Accent = apps.AccentSourceFunc(func(context.Context) (string, error) { return "#336699", nil })
	}
	svc, err := New(testConfig(), m, c)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotepadResolvedFromExtractor(t *testing.T) {
	m := store.NewMemory()
	ext := &recordingExtractor{icon: apps.Icon("X")}
	svc := newService(t, m, Collaborators{Enumerator: enumerate(notepad), Extractor: ext})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	list := svc.Apps()
	if len(list) != 1 {
		t.Fatalf("expected one app, got %d", len(list))
	}
	if list[0].Category != apps.CategoryUtilities || list[0].Pinned {
		t.Fatalf("unexpected record %+v", list[0])
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := svc.WaitForIcons(waitCtx); err != nil {
		t.Fatalf("wait for icons: %v", err)
	}

	rec, _ := svc.Engine.Get(notepadPath)
	if string(rec.Icon) != "X" {
		t.Fatalf("expected icon X, got %q", rec.Icon)
	}
	if cached, ok := svc.Icons.Get(ttlcache.IconKey(notepadPath)); !ok || string(cached) != "X" {
		t.Fatalf("expected X cached under the path, got %q", cached)
	}
}

func TestNotepadCustomIconBeforeLoader(t *testing.T) {
	m := store.NewMemory()
	ov := overrides.New()
	ov.CustomIcons[notepadPath] = apps.Icon("Y")
	if err := ov.Save(m); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ext := &recordingExtractor{icon: apps.Icon("X")}
	svc := newService(t, m, Collaborators{Enumerator: enumerate(notepad), Extractor: ext})

	// Reconcile without the loader running.
	records, _, err := svc.Engine.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if string(records[0].Icon) != "Y" {
		t.Fatalf("expected custom icon at reconcile time, got %q", records[0].Icon)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc.WaitForIcons(ctx)
	if calls := ext.Calls(); len(calls) != 0 {
		t.Fatalf("extractor must not be called, got %v", calls)
	}
}

func TestStartSurvivesEnumerationFailure(t *testing.T) {
	fail := apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) {
		return nil, errors.New("no session bus")
	})
	svc := newService(t, store.NewMemory(), Collaborators{Enumerator: fail})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("enumeration failure must not fail start: %v", err)
	}
	if len(svc.Apps()) != 0 {
		t.Fatalf("expected empty collection")
	}
	if st := svc.Settings.State(); st.Accent.Color != "#336699" {
		t.Fatalf("settings should still initialize, got %+v", st)
	}
}

func TestFind(t *testing.T) {
	svc := newService(t, store.NewMemory(), Collaborators{Enumerator: enumerate(
		notepad,
		apps.Descriptor{Name: "Notepad++", Path: `C:\npp\notepad++.exe`},
		apps.Descriptor{Name: "Paint", Path: `C:\Win\mspaint.exe`},
	)})
	svc.Engine.Reconcile(context.Background())

	cases := map[string]string{
		"notepad":            notepadPath,
		notepadPath:          notepadPath,
		"pai":                `C:\Win\mspaint.exe`,
		`C:\Win\mspaint.exe`: `C:\Win\mspaint.exe`,
	}
	for query, want := range cases {
		rec, err := svc.Find(query)
		if err != nil {
			t.Fatalf("find %q: %v", query, err)
		}
		if rec.Path != want {
			t.Fatalf("find %q: expected %s, got %s", query, want, rec.Path)
		}
	}
	if _, err := svc.Find("note"); err == nil {
		t.Fatalf("expected ambiguity error")
	}
	if _, err := svc.Find("calc"); !errors.Is(err, apps.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLaunchRecordsAccess(t *testing.T) {
	launcher := &recordingLauncher{}
	svc := newService(t, store.NewMemory(), Collaborators{Enumerator: enumerate(notepad), Launcher: launcher})
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	svc.Engine.Reconcile(context.Background())

	if _, err := svc.Launch(context.Background(), "Notepad"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if len(launcher.launched) != 1 {
		t.Fatalf("expected one launch, got %v", launcher.launched)
	}
	rec, _ := svc.Engine.Get(notepadPath)
	if rec.LastAccessed == nil || !rec.LastAccessed.Equal(at) {
		t.Fatalf("access not recorded: %v", rec.LastAccessed)
	}
	if recent := svc.Recent(); len(recent) != 1 || recent[0].Path != notepadPath {
		t.Fatalf("unexpected recent %+v", recent)
	}

	launcher.err = errors.New("exec failed")
	svc.now = func() time.Time { return at.Add(time.Hour) }
	if _, err := svc.Launch(context.Background(), "Notepad"); err == nil {
		t.Fatalf("expected launch error")
	}
	if rec, _ := svc.Engine.Get(notepadPath); !rec.LastAccessed.Equal(at) {
		t.Fatalf("failed launch must not record access")
	}
}

func TestSetCustomIconFileAndClear(t *testing.T) {
	ext := &recordingExtractor{icon: apps.Icon("X")}
	svc := newService(t, store.NewMemory(), Collaborators{Enumerator: enumerate(notepad), Extractor: ext})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	svc.WaitForIcons(ctx)

	file := filepath.Join(t.TempDir(), "icon.png")
	if err := os.WriteFile(file, []byte("PNG"), 0o644); err != nil {
		t.Fatalf("write icon: %v", err)
	}
	rec, err := svc.SetCustomIconFile("notepad", file)
	if err != nil {
		t.Fatalf("set icon: %v", err)
	}
	if string(rec.Icon) != "PNG" || rec.IconSource != apps.IconCustom {
		t.Fatalf("unexpected icon %q/%s", rec.Icon, rec.IconSource)
	}

	if _, err := svc.SetCustomIcon("notepad", nil); err != nil {
		t.Fatalf("clear icon: %v", err)
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := svc.WaitForIcons(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	rec, _ = svc.Engine.Get(notepadPath)
	if string(rec.Icon) != "X" || rec.IconSource != apps.IconCached {
		t.Fatalf("expected cached icon after clearing, got %q/%s", rec.Icon, rec.IconSource)
	}
}

func TestReportGroupsByCategory(t *testing.T) {
	m := store.NewMemory()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ov := overrides.New()
	ov.LastAccessed[notepadPath] = base.Add(2 * time.Hour)
	ov.LastAccessed[`C:\Games\chess.exe`] = base.Add(time.Hour)
	ov.LastAccessed[`C:\Win\mspaint.exe`] = base.Add(-48 * time.Hour)
	ov.Save(m)

	svc := newService(t, m, Collaborators{Enumerator: enumerate(
		notepad,
		apps.Descriptor{Name: "Chess", Path: `C:\Games\chess.exe`, Category: apps.CategoryGames},
		apps.Descriptor{Name: "Paint", Path: `C:\Win\mspaint.exe`, Category: apps.CategoryMedia},
	)})
	svc.Engine.Reconcile(context.Background())

	report := svc.Report(base.Add(24*time.Hour), base)
	if report.Total != 2 || len(report.Sections) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Sections[0].Category != apps.CategoryGames || report.Sections[1].Category != apps.CategoryUtilities {
		t.Fatalf("unexpected section order %+v", report.Sections)
	}
	if !report.Since.Equal(base) {
		t.Fatalf("expected bounds to be swapped")
	}
}

func TestOrphansListsUnmatchedOverrides(t *testing.T) {
	m := store.NewMemory()
	ov := overrides.New()
	ov.Categories[`C:\gone.exe`] = apps.CategoryGames
	ov.Categories[notepadPath] = apps.CategoryMedia
	ov.Pinned = []string{`C:\gone.exe`, notepadPath}
	ov.Save(m)

	svc := newService(t, m, Collaborators{Enumerator: enumerate(notepad)})
	svc.Engine.Reconcile(context.Background())

	orphans := svc.Orphans()
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %+v", orphans)
	}
	for _, o := range orphans {
		if o.Path != `C:\gone.exe` {
			t.Fatalf("unexpected orphan %+v", o)
		}
	}
}

func TestNewRequiresEnumerator(t *testing.T) {
	if _, err := New(nil, store.NewMemory(), Collaborators{}); !errors.Is(err, ErrNoEnumerator) {
		t.Fatalf("expected ErrNoEnumerator, got %v", err)
	}
}

func TestWatchStoreReloadsExternalEdits(t *testing.T) {
	m, err := store.OpenDiskv(filepath.Join(t.TempDir(), "hub"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := newService(t, m, Collaborators{Enumerator: enumerate(notepad)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	events := svc.Subscribe(ctx)
	if err := svc.WatchStore(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	// Another process pins Notepad.
	other := overrides.New()
	other.Pinned = []string{notepadPath}
	if err := other.Save(m); err != nil {
		t.Fatalf("external save: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-events:
			if rec, _ := svc.Engine.Get(notepadPath); rec.Pinned {
				return
			}
		case <-deadline:
			t.Fatal("external pin was not picked up")
		}
	}
}

func TestRelocateBeforeIconsResolvedQueuesNewPath(t *testing.T) {
	ext := &recordingExtractor{icon: apps.Icon("X")}
	svc := newService(t, store.NewMemory(), Collaborators{Enumerator: enumerate(notepad), Extractor: ext})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Queue icons without running the loader so the move races ahead.
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	rec, err := svc.Relocate("notepad", "/b/notepad")
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if rec.Path != "/b/notepad" {
		t.Fatalf("unexpected path %q", rec.Path)
	}

	svc.Loader.Start(ctx)
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := svc.WaitForIcons(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	rec, _ = svc.Engine.Get("/b/notepad")
	if string(rec.Icon) != "X" {
		t.Fatalf("relocated app left without icon: %q (stats %+v)", rec.Icon, svc.Loader.Stats())
	}
}
