package app

import (
	"sort"
	"time"

	"tableflip.dev/apphub/pkg/apps"
)

// ReportItem captures an application and the last time it was launched.
type ReportItem struct {
	Record     apps.Record `json:"app" yaml:"app"`
	AccessedAt time.Time   `json:"accessedAt" yaml:"accessedAt"`
}

// ReportSection groups launched applications by category.
type ReportSection struct {
	Category apps.Category `json:"category" yaml:"category"`
	Apps     []ReportItem  `json:"apps" yaml:"apps"`
}

// ReportResult is a usage report for a time window.
type ReportResult struct {
	Since    time.Time       `json:"since" yaml:"since"`
	Until    time.Time       `json:"until" yaml:"until"`
	Sections []ReportSection `json:"sections" yaml:"sections"`
	Total    int             `json:"total" yaml:"total"`
}

// Report returns applications last launched between the provided bounds,
// grouped by category, most recent first within each group.
func (s *Service) Report(since, until time.Time) ReportResult {
	if since.After(until) {
		since, until = until, since
	}
	grouped := make(map[apps.Category][]ReportItem)
	total := 0
	for _, rec := range s.Engine.Snapshot() {
		if rec.LastAccessed == nil {
			continue
		}
		at := *rec.LastAccessed
		if at.Before(since) || at.After(until) {
			continue
		}
		grouped[rec.Category] = append(grouped[rec.Category], ReportItem{Record: rec, AccessedAt: at})
		total++
	}

	result := ReportResult{Since: since, Until: until, Total: total}
	if len(grouped) == 0 {
		return result
	}

	present := make([]apps.Record, 0, len(grouped))
	for category := range grouped {
		present = append(present, apps.Record{Category: category})
	}
	for _, category := range apps.Categories(present) {
		items := grouped[category]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].AccessedAt.Equal(items[j].AccessedAt) {
				return items[i].Record.Name < items[j].Record.Name
			}
			return items[i].AccessedAt.After(items[j].AccessedAt)
		})
		result.Sections = append(result.Sections, ReportSection{Category: category, Apps: items})
	}
	return result
}
