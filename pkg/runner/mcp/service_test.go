package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/folders"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/store"
)

type launches struct {
	paths   []string
	folders []string
}

func (l *launches) Launch(_ context.Context, rec apps.Record) error {
	l.paths = append(l.paths, rec.Path)
	return nil
}

func (l *launches) OpenPath(_ context.Context, path string) error {
	l.folders = append(l.folders, path)
	return nil
}

func newService(t *testing.T) (*Service, *launches) {
	t.Helper()
	descs := []apps.Descriptor{
		{Name: "Editor", Path: "/apps/editor.desktop", Category: apps.CategoryDevelopment},
		{Name: "Solitaire", Path: "/apps/sol.desktop", Category: apps.CategoryGames},
		{Name: "Chess", Path: "/apps/chess.desktop", Category: apps.CategoryGames},
	}
	l := &launches{}
	hub, err := app.New(&store.Config{IconBatchSize: 4, RecentLimit: 20, AccentTTL: time.Hour}, store.NewMemory(), app.Collaborators{
		Enumerator:     apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) { return descs, nil }),
		Accent:         apps.AccentSourceFunc(func(context.Context) (string, error) { return "#3584e4", nil }),
		Launcher:       l,
		Opener:         l,
		DefaultFolders: []folders.Folder{
			{Name: "Music", Path: "/home/me/Music"},
		},
	})
	if err != nil {
		t.Fatalf("new hub: %v", err)
	}
	return NewService(hub), l
}

func TestServiceListApps(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	all, err := svc.ListApps(ctx, "", "", 0)
	if err != nil {
		t.Fatalf("ListApps failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 apps, got %d", len(all))
	}

	games, err := svc.ListApps(ctx, "", "games", 1)
	if err != nil {
		t.Fatalf("ListApps failed: %v", err)
	}
	if len(games) != 1 || games[0].Category != string(apps.CategoryGames) {
		t.Fatalf("expected one game, got %+v", games)
	}

	if _, err := svc.ListApps(ctx, "", "   ", 0); err != nil {
		t.Fatalf("blank category should list everything: %v", err)
	}
}

func TestServiceListCategories(t *testing.T) {
	svc, _ := newService(t)
	cats, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	counts := map[string]int{}
	for _, c := range cats {
		counts[c.Name] = c.Count
	}
	if counts["Games"] != 2 || counts["Development"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestServiceLaunchAndReport(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)

	dto, err := svc.Launch(ctx, "chess")
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if dto.LastAccessed == nil {
		t.Fatalf("expected an access time, got %+v", dto)
	}
	if len(l.paths) != 1 || l.paths[0] != "/apps/chess.desktop" {
		t.Fatalf("launched %v", l.paths)
	}

	report, err := svc.Report(ctx, "1d")
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("expected one launch in the report, got %+v", report)
	}

	if _, err := svc.Report(ctx, "0s"); err == nil {
		t.Fatal("expected an empty window to fail")
	}
}

func TestServicePinAndCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	dto, err := svc.SetPinned(ctx, "Solitaire", true)
	if err != nil {
		t.Fatalf("SetPinned failed: %v", err)
	}
	if !dto.Pinned {
		t.Fatalf("expected pinned, got %+v", dto)
	}
	all, _ := svc.ListApps(ctx, "", "", 0)
	if all[0].Name != "Solitaire" {
		t.Fatalf("expected the pinned app first, got %+v", all)
	}

	dto, err = svc.SetCategory(ctx, "Editor", "Side Projects")
	if err != nil {
		t.Fatalf("SetCategory failed: %v", err)
	}
	if dto.Category != "Side Projects" {
		t.Fatalf("expected the custom category, got %s", dto.Category)
	}
	dto, err = svc.SetCategory(ctx, "Editor", "")
	if err != nil {
		t.Fatalf("SetCategory reset failed: %v", err)
	}
	if dto.Category != string(apps.CategoryDevelopment) {
		t.Fatalf("expected the system category back, got %s", dto.Category)
	}

	if _, err := svc.App(ctx, "nothing"); !errors.Is(err, apps.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSettings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	st, err := svc.SetTheme(ctx, "dark")
	if err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	if st.Theme.Mode != settings.ThemeDark {
		t.Fatalf("expected dark, got %s", st.Theme.Mode)
	}
	if _, err := svc.SetTheme(ctx, "plaid"); err == nil {
		t.Fatal("expected an unknown mode to fail")
	}
	st, err = svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if st.Accent.Color != "#3584e4" {
		t.Fatalf("expected the system accent, got %s", st.Accent.Color)
	}
}

func TestServiceFolders(t *testing.T) {
	ctx := context.Background()
	svc, l := newService(t)

	list, err := svc.ListFolders(ctx)
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Music" {
		t.Fatalf("unexpected folders %+v", list)
	}
	if _, err := svc.OpenFolder(ctx, "music"); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}
	if len(l.folders) != 1 || l.folders[0] != "/home/me/Music" {
		t.Fatalf("unexpected opens %v", l.folders)
	}
	if _, err := svc.OpenFolder(ctx, "Videos"); !errors.Is(err, folders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewServer(t *testing.T) {
	svc, _ := newService(t)
	if NewServer("apphub", "test", svc) == nil {
		t.Fatal("expected a server")
	}
}
