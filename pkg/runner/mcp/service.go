package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/timeutil"
)

// AppDTO is the wire view of an application. Icon bytes are left out;
// HasIcon and IconSource describe them.
type AppDTO struct {
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	OriginalPath string     `json:"originalPath,omitempty"`
	Category     string     `json:"category"`
	Pinned       bool       `json:"pinned"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	HasIcon      bool       `json:"hasIcon"`
	IconSource   string     `json:"iconSource,omitempty"`
}

func toDTO(rec apps.Record) AppDTO {
	dto := AppDTO{
		Name:         rec.Name,
		Path:         rec.Path,
		Category:     string(rec.Category),
		Pinned:       rec.Pinned,
		LastAccessed: rec.LastAccessed,
		HasIcon:      rec.HasIcon(),
		IconSource:   string(rec.IconSource),
	}
	if rec.OriginalPath != rec.Path {
		dto.OriginalPath = rec.OriginalPath
	}
	return dto
}

func toDTOs(records []apps.Record) []AppDTO {
	out := make([]AppDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toDTO(rec))
	}
	return out
}

// CategorySummary counts the applications in one category.
type CategorySummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Service adapts the hub to the MCP tools and resources.
type Service struct {
	hub *app.Service
	now func() time.Time
}

// NewService wraps hub. The first call that needs applications reconciles.
func NewService(hub *app.Service) *Service {
	return &Service{hub: hub, now: time.Now}
}

func (s *Service) records(ctx context.Context) ([]apps.Record, error) {
	if s.hub == nil {
		return nil, errors.New("mcp service has no hub")
	}
	if all := s.hub.Apps(); len(all) > 0 {
		return all, nil
	}
	if _, err := s.hub.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.hub.Apps(), nil
}

// ListApps returns the applications in display order, filtered by a search
// term and a category. A limit of zero returns everything.
func (s *Service) ListApps(ctx context.Context, query, category string, limit int) ([]AppDTO, error) {
	all, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	var cat apps.Category
	if strings.TrimSpace(category) != "" {
		if cat, err = apps.ParseCategory(category); err != nil {
			return nil, err
		}
	}
	matched := apps.Filter(all, query, cat)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return toDTOs(matched), nil
}

// ListCategories returns every category in use with its application count.
func (s *Service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	all, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[apps.Category]int)
	for _, rec := range all {
		counts[rec.Category]++
	}
	var out []CategorySummary
	for _, c := range apps.Categories(all) {
		out = append(out, CategorySummary{Name: string(c), Count: counts[c]})
	}
	return out, nil
}

// App fetches a single application by name or path.
func (s *Service) App(ctx context.Context, query string) (AppDTO, error) {
	if _, err := s.records(ctx); err != nil {
		return AppDTO{}, err
	}
	rec, err := s.hub.Find(query)
	if err != nil {
		return AppDTO{}, err
	}
	return toDTO(rec), nil
}

// Launch starts an application and records the access.
func (s *Service) Launch(ctx context.Context, query string) (AppDTO, error) {
	if _, err := s.records(ctx); err != nil {
		return AppDTO{}, err
	}
	rec, err := s.hub.Launch(ctx, query)
	if err != nil {
		return AppDTO{}, err
	}
	return toDTO(rec), nil
}

// SetPinned pins or unpins an application. Storage failures are reported
// to the caller after the change has been applied in memory.
func (s *Service) SetPinned(ctx context.Context, query string, pinned bool) (AppDTO, error) {
	if _, err := s.records(ctx); err != nil {
		return AppDTO{}, err
	}
	rec, err := s.hub.SetPinned(query, pinned)
	return toDTO(rec), applied(err)
}

// SetCategory assigns a category; an empty category restores the system one.
func (s *Service) SetCategory(ctx context.Context, query, category string) (AppDTO, error) {
	if _, err := s.records(ctx); err != nil {
		return AppDTO{}, err
	}
	var cat apps.Category
	if strings.TrimSpace(category) != "" {
		var err error
		if cat, err = apps.ParseCategory(category); err != nil {
			return AppDTO{}, err
		}
	}
	rec, err := s.hub.SetCategory(query, cat)
	return toDTO(rec), applied(err)
}

// Settings returns the resolved preferences. An unreachable system accent
// is not an error here; the fallback color is reported instead.
func (s *Service) Settings(ctx context.Context) (settings.State, error) {
	st, err := s.hub.Settings.Initialize(ctx)
	if err != nil {
		log.WithError(err).Debug("mcp: using fallback accent")
	}
	return st, nil
}

// SetTheme changes the theme mode.
func (s *Service) SetTheme(ctx context.Context, raw string) (settings.State, error) {
	if _, err := s.Settings(ctx); err != nil {
		return settings.State{}, err
	}
	mode, err := settings.ParseThemeMode(raw)
	if err != nil {
		return settings.State{}, err
	}
	if err := applied(s.hub.Settings.SetThemeMode(mode)); err != nil {
		return settings.State{}, err
	}
	return s.hub.Settings.State(), nil
}

// Report summarizes launches within the window ending now.
func (s *Service) Report(ctx context.Context, window string) (app.ReportResult, error) {
	d, err := timeutil.ParseTTL(window)
	if err != nil {
		return app.ReportResult{}, err
	}
	if d <= 0 {
		return app.ReportResult{}, fmt.Errorf("report window must be positive, got %q", window)
	}
	if _, err := s.records(ctx); err != nil {
		return app.ReportResult{}, err
	}
	now := s.now()
	return s.hub.Report(now.Add(-d), now), nil
}

// FolderDTO is the wire view of a quick-access folder.
type FolderDTO struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	HasIcon bool   `json:"hasIcon"`
}

// ListFolders returns the quick-access folders.
func (s *Service) ListFolders(context.Context) ([]FolderDTO, error) {
	if s.hub == nil {
		return nil, errors.New("mcp service has no hub")
	}
	list, err := s.hub.Folders.List()
	if err != nil {
		return nil, err
	}
	out := make([]FolderDTO, 0, len(list))
	for _, f := range list {
		out = append(out, FolderDTO{Name: f.Name, Path: f.Path, HasIcon: f.HasIcon()})
	}
	return out, nil
}

// OpenFolder shows a listed folder in the file manager.
func (s *Service) OpenFolder(ctx context.Context, query string) (FolderDTO, error) {
	if s.hub == nil {
		return FolderDTO{}, errors.New("mcp service has no hub")
	}
	f, err := s.hub.Folders.Open(ctx, query)
	if err != nil {
		return FolderDTO{}, err
	}
	return FolderDTO{Name: f.Name, Path: f.Path, HasIcon: f.HasIcon()}, nil
}

// applied drops storage errors: the change is live and retried on the next
// write.
func applied(err error) error {
	var se *apps.StorageError
	if errors.As(err, &se) {
		return nil
	}
	return err
}
