package printers

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/apphub/pkg/app"
)

// Report prints launches grouped by category for the report window.
func (pp *PrettyPrint) Report(result app.ReportResult, label string) {
	since := result.Since.Local().Format("2006-01-02 15:04")
	until := result.Until.Local().Format("2006-01-02 15:04")
	_, _ = fmt.Fprintf(pp.out(), "Report · last %s (%s → %s)\n", label, since, until)

	if result.Total == 0 {
		_, _ = fmt.Fprintln(pp.out(), "  No applications launched in this window.")
		pp.NewLine()
		return
	}

	for _, section := range result.Sections {
		pp.NewLine()
		pp.TitleWithCount(string(section.Category), len(section.Apps))
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, item := range section.Apps {
			tbl.AddRow("  "+item.Record.Name, item.AccessedAt.Local().Format("2006-01-02 15:04"))
		}
		_, _ = fmt.Fprintln(pp.out(), tbl)
	}
	pp.NewLine()
}

// Orphans prints overrides that no longer match an application.
func (pp *PrettyPrint) Orphans(orphans []app.Orphan) {
	if len(orphans) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, o := range orphans {
		touched := faint.Sprint("-")
		if !o.LastTouched.IsZero() {
			touched = o.LastTouched.Local().Format("2006-01-02")
		}
		tbl.AddRow(string(o.Kind), pp.path(o.Path), touched)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}
