package printers

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/folders"
	"tableflip.dev/apphub/pkg/glyph"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/timeutil"
)

// PrettyPrint renders human readable output for the terminal.
type PrettyPrint struct {
	// ShowPath adds the application path column.
	ShowPath bool
	// PathWidth truncates paths to this many cells; zero keeps them whole.
	PathWidth uint
	Out       io.Writer
	Now       func() time.Time
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) now() time.Time {
	if pp.Now == nil {
		return time.Now()
	}
	return pp.Now()
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " app")
	default:
		_, _ = c.Fprintln(pp.out(), " apps")
	}
}

// Apps prints one row per record: pin marker, name, category, last launch
// and icon state.
func (pp *PrettyPrint) Apps(records ...apps.Record) {
	if len(records) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	bold := color.New(color.Bold)
	pin := color.New(color.FgHiYellow)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	header := []interface{}{" ", bold.Sprint("Name"), bold.Sprint("Category"), bold.Sprint("Last used"), bold.Sprint("Icon")}
	if pp.ShowPath {
		header = append(header, bold.Sprint("Path"))
	}
	tbl.AddRow(header...)

	for _, rec := range records {
		marker := glyph.ForPin(rec).String()
		if rec.Pinned {
			marker = pin.Sprint(marker)
		}
		used := faint.Sprint("never")
		if rec.LastAccessed != nil {
			used = timeutil.Ago(*rec.LastAccessed, pp.now())
		}
		icon := faint.Sprint(glyph.NoIcon)
		if rec.HasIcon() {
			icon = fmt.Sprintf("%s %s", glyph.ForIcon(rec), rec.IconSource)
		}
		row := []interface{}{marker, rec.Name, string(rec.Category), used, icon}
		if pp.ShowPath {
			row = append(row, pp.path(rec.Path))
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) path(p string) string {
	if pp.PathWidth == 0 {
		return p
	}
	return truncate.StringWithTail(p, pp.PathWidth, "…")
}

// Folders prints the quick-access folders with a marker for custom icons.
func (pp *PrettyPrint) Folders(list ...folders.Folder) {
	if len(list) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(" ", bold.Sprint("Name"), bold.Sprint("Path"))
	for _, f := range list {
		marker := faint.Sprint(glyph.NoIcon)
		if f.HasIcon() {
			marker = glyph.Custom.String()
		}
		tbl.AddRow(marker, f.Name, pp.path(f.Path))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// FolderView is the structured form of a folder; icon bytes are reduced to
// a flag.
type FolderView struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Icon bool   `json:"icon" yaml:"icon"`
}

// FolderViews converts list for Encode.
func FolderViews(list ...folders.Folder) []FolderView {
	out := make([]FolderView, 0, len(list))
	for _, f := range list {
		out = append(out, FolderView{Name: f.Name, Path: f.Path, Icon: f.HasIcon()})
	}
	return out
}

// Record prints the details of a single application.
func (pp *PrettyPrint) Record(rec apps.Record) {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Name"), rec.Name)
	tbl.AddRow(bold.Sprint("Path"), rec.Path)
	if rec.OriginalPath != rec.Path {
		tbl.AddRow(bold.Sprint("Moved from"), rec.OriginalPath)
	}
	tbl.AddRow(bold.Sprint("Category"), string(rec.Category))
	tbl.AddRow(bold.Sprint("Pinned"), fmt.Sprint(rec.Pinned))
	if rec.LastAccessed != nil {
		tbl.AddRow(bold.Sprint("Last used"), rec.LastAccessed.Local().Format("2006-01-02 15:04"))
	}
	if rec.HasIcon() {
		tbl.AddRow(bold.Sprint("Icon"), fmt.Sprintf("%s (%d bytes)", rec.IconSource, len(rec.Icon)))
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Settings prints the resolved preferences with the accent rendered as a
// swatch.
func (pp *PrettyPrint) Settings(st settings.State) {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Theme"), st.Theme.Mode.String())

	accent := swatch(st.Accent.Color) + " " + st.Accent.Color
	source := "system"
	if st.Accent.IsCustom {
		source = "custom"
	}
	tbl.AddRow(bold.Sprint("Accent"), fmt.Sprintf("%s (%s)", accent, source))
	tbl.AddRow(bold.Sprint("Launch at startup"), fmt.Sprint(st.LaunchAtStartup))
	tbl.AddRow(bold.Sprint("Minimize to tray"), fmt.Sprint(st.MinimizeToTray))
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func swatch(hex string) string {
	if color.NoColor {
		return "■■"
	}
	p := termenv.ColorProfile()
	return termenv.String("■■").Foreground(p.Color(hex)).String()
}
