package launcher

import (
	"context"
	"strings"
	"testing"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/reconcile"
	"tableflip.dev/apphub/pkg/store"
)

type nopLauncher struct{ launched []string }

func (n *nopLauncher) Launch(_ context.Context, rec apps.Record) error {
	n.launched = append(n.launched, rec.Path)
	return nil
}

func newModel(t *testing.T, l apps.Launcher) *Model {
	t.Helper()
	descs := []apps.Descriptor{
		{Name: "Editor", Path: "/apps/editor.desktop", Category: apps.CategoryDevelopment},
		{Name: "Player", Path: "/apps/player.desktop", Category: apps.CategoryMedia},
		{Name: "Terminal", Path: "/apps/terminal.desktop", Category: apps.CategoryUtilities},
	}
	svc, err := app.New(nil, store.NewMemory(), app.Collaborators{
		Enumerator: apps.EnumeratorFunc(func(context.Context) ([]apps.Descriptor, error) { return descs, nil }),
		Accent:     apps.AccentSourceFunc(func(context.Context) (string, error) { return "#3584e4", nil }),
		Launcher:   l,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	m := New(ctx, svc)
	m.height = 20
	return m
}

func TestModelListsApplications(t *testing.T) {
	m := newModel(t, nil)
	if len(m.visible) != 3 {
		t.Fatalf("expected 3 visible apps, got %d", len(m.visible))
	}
	view, _ := m.View()
	for _, name := range []string{"Editor", "Player", "Terminal"} {
		if !strings.Contains(view, name) {
			t.Errorf("view is missing %s:\n%s", name, view)
		}
	}
}

func TestModelFilterKeepsSelection(t *testing.T) {
	m := newModel(t, nil)
	m.move(2)
	if rec, _ := m.selected(); rec.Name != "Terminal" {
		t.Fatalf("expected Terminal selected, got %s", rec.Name)
	}

	m.filter.SetValue("term")
	m.applyFilter()
	if len(m.visible) != 1 {
		t.Fatalf("expected one match, got %d", len(m.visible))
	}
	if rec, _ := m.selected(); rec.Name != "Terminal" {
		t.Fatalf("expected Terminal still selected, got %s", rec.Name)
	}

	m.filter.SetValue("zzz")
	m.applyFilter()
	if _, ok := m.selected(); ok {
		t.Fatal("expected no selection for an empty result")
	}
	view, _ := m.View()
	if !strings.Contains(view, "no applications") {
		t.Fatalf("expected the empty state, got:\n%s", view)
	}
}

func TestModelCycleCategory(t *testing.T) {
	m := newModel(t, nil)
	var seen []apps.Category
	for i := 0; i < 4; i++ {
		m.cycleCategory()
		seen = append(seen, m.category)
	}
	want := []apps.Category{apps.CategoryUtilities, apps.CategoryMedia, apps.CategoryDevelopment, ""}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle %d: got %q, want %q (all %v)", i, seen[i], want[i], seen)
		}
	}
}

func TestModelTogglePin(t *testing.T) {
	m := newModel(t, nil)
	m.move(1)

	m.Update(m.togglePin()())
	if !strings.HasPrefix(m.status, "Pinned Player") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.visible[0].Name != "Player" || !m.visible[0].Pinned {
		t.Fatalf("expected Player pinned first, got %+v", m.visible[0])
	}
	if rec, _ := m.selected(); rec.Name != "Player" {
		t.Fatalf("expected the selection to follow Player, got %s", rec.Name)
	}
}

func TestModelLaunch(t *testing.T) {
	l := &nopLauncher{}
	m := newModel(t, l)

	m.Update(m.launch()())
	if m.err != nil {
		t.Fatalf("launch: %v", m.err)
	}
	if len(l.launched) != 1 || l.launched[0] != "/apps/editor.desktop" {
		t.Fatalf("launched %v", l.launched)
	}
	if m.status != "Launched Editor" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelLaunchWithoutLauncher(t *testing.T) {
	m := newModel(t, nil)
	m.Update(m.launch()())
	if m.err == nil {
		t.Fatal("expected an error without a launcher")
	}
	view, _ := m.View()
	if !strings.Contains(view, "no launcher") {
		t.Fatalf("expected the error in the footer:\n%s", view)
	}
}

func TestModelHandlesEvents(t *testing.T) {
	m := newModel(t, nil)
	m.Update(appEventMsg{event: reconcile.Event{Type: reconcile.EventReconciled, Records: m.svc.Apps()}, ok: true})
	if m.status != "3 applications" {
		t.Fatalf("unexpected status %q", m.status)
	}
}
