// Package launcher is the terminal UI of the hub: a filterable list of
// applications that fills in icons as the background loader resolves them.
package launcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/glyph"
	"tableflip.dev/apphub/pkg/reconcile"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/tui/theme"
)

type appEventMsg struct {
	event reconcile.Event
	ok    bool
}

type settingsMsg struct {
	state settings.State
	ok    bool
}

type launchedMsg struct {
	rec apps.Record
	err error
}

type pinnedMsg struct {
	rec apps.Record
	err error
}

// Model holds the UI state. The application list is always derived from
// the service snapshot; the model never edits records itself.
type Model struct {
	svc *app.Service
	ctx context.Context

	events   <-chan reconcile.Event
	settings <-chan settings.State

	theme  theme.Theme
	filter textinput.Model

	all      []apps.Record
	visible  []apps.Record
	cursor   int
	offset   int
	category apps.Category

	width  int
	height int

	status string
	err    error
}

// New constructs the model and subscribes to the service until ctx is done.
func New(ctx context.Context, svc *app.Service) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search applications"
	ti.Prompt = "› "
	ti.CharLimit = 128
	ti.Focus()

	m := &Model{
		svc:      svc,
		ctx:      ctx,
		events:   svc.Subscribe(ctx),
		settings: svc.Settings.Subscribe(ctx),
		filter:   ti,
		status:   "Loading applications…",
	}
	m.applySettings(svc.Settings.State())
	m.reload()
	return m
}

// Run launches the Bubble Tea program. The service is started in the
// background so the list appears before enumeration finishes.
func Run(ctx context.Context, svc *app.Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, svc)
	go func() {
		if err := svc.Start(ctx); err != nil {
			log.WithError(err).Warn("launcher: start")
		}
	}()
	if err := svc.WatchStore(ctx); err != nil {
		log.WithError(err).Debug("launcher: not watching storage")
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent(), m.waitForSettings())
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		return appEventMsg{event: ev, ok: ok}
	}
}

func (m *Model) waitForSettings() tea.Cmd {
	ch := m.settings
	return func() tea.Msg {
		st, ok := <-ch
		return settingsMsg{state: st, ok: ok}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.filter.SetWidth(max(v.Width-4, 10))
		m.clamp()
	case appEventMsg:
		if !v.ok {
			break
		}
		m.handleEvent(v.event)
		cmds = append(cmds, m.waitForEvent())
	case settingsMsg:
		if !v.ok {
			break
		}
		m.applySettings(v.state)
		cmds = append(cmds, m.waitForSettings())
	case launchedMsg:
		if v.err != nil {
			m.err = v.err
			break
		}
		m.err = nil
		m.status = "Launched " + v.rec.Name
		m.reload()
	case pinnedMsg:
		if v.err != nil {
			m.err = v.err
		}
		if v.rec.Name != "" {
			m.status = pinStatus(v.rec)
		}
		m.reload()
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(v); handled {
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.filter.Value() != before {
		m.applyFilter()
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true
	case "up", "ctrl+k", "shift+tab":
		m.move(-1)
		return nil, true
	case "down", "ctrl+j", "tab":
		m.move(1)
		return nil, true
	case "pgup":
		m.move(-m.pageSize())
		return nil, true
	case "pgdown":
		m.move(m.pageSize())
		return nil, true
	case "ctrl+g":
		m.cycleCategory()
		return nil, true
	case "ctrl+p":
		return m.togglePin(), true
	case "ctrl+r":
		m.status = "Refreshing…"
		return m.refresh(), true
	case "enter":
		return m.launch(), true
	}
	return nil, false
}

func (m *Model) handleEvent(ev reconcile.Event) {
	switch ev.Type {
	case reconcile.EventReconciled:
		if status, err := m.svc.Engine.Status(); status == reconcile.StatusUnavailable {
			m.err = err
		} else {
			m.err = nil
		}
		m.status = fmt.Sprintf("%d applications", len(ev.Records))
	case reconcile.EventIconsResolved:
		if pending := m.svc.Loader.Pending(); pending > 0 {
			m.status = fmt.Sprintf("%d applications · %d icons pending", len(m.all), pending)
		} else {
			m.status = fmt.Sprintf("%d applications", len(m.all))
		}
	case reconcile.EventRecordChanged:
		if ev.Err != nil {
			m.err = ev.Err
		}
	}
	m.reload()
}

func (m *Model) applySettings(st settings.State) {
	m.theme = theme.New(st.Accent.Color, m.svc.Settings.IsDark())
	m.filter.Styles.Focused.Prompt = m.theme.Header.Prompt
}

func (m *Model) reload() {
	m.all = m.svc.Apps()
	m.applyFilter()
}

func (m *Model) applyFilter() {
	var selected string
	if m.cursor < len(m.visible) {
		selected = m.visible[m.cursor].Path
	}
	m.visible = apps.Filter(m.all, m.filter.Value(), m.category)
	m.cursor = 0
	for i, rec := range m.visible {
		if rec.Path == selected {
			m.cursor = i
			break
		}
	}
	m.clamp()
}

func (m *Model) cycleCategory() {
	cats := apps.Categories(m.all)
	if len(cats) == 0 {
		m.category = ""
		return
	}
	next := apps.Category("")
	if m.category == "" {
		next = cats[0]
	} else {
		for i, c := range cats {
			if c == m.category && i+1 < len(cats) {
				next = cats[i+1]
			}
		}
	}
	m.category = next
	m.applyFilter()
}

func (m *Model) selected() (apps.Record, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return apps.Record{}, false
	}
	return m.visible[m.cursor], true
}

func (m *Model) launch() tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		launched, err := svc.Launch(ctx, rec.Path)
		return launchedMsg{rec: launched, err: err}
	}
}

func (m *Model) togglePin() tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}
	svc := m.svc
	return func() tea.Msg {
		updated, _, err := svc.Pin(rec.Path)
		return pinnedMsg{rec: updated, err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		if _, err := svc.Refresh(ctx); err != nil {
			log.WithError(err).Debug("launcher: refresh")
		}
		return nil
	}
}

func pinStatus(rec apps.Record) string {
	if rec.Pinned {
		return "Pinned " + rec.Name
	}
	return "Unpinned " + rec.Name
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clamp()
}

func (m *Model) pageSize() int {
	// header, filter, blank line, footer
	return max(m.height-4, 1)
}

func (m *Model) clamp() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View implements tea.Model.
func (m *Model) View() (string, *tea.Cursor) {
	var b strings.Builder

	title := m.theme.Header.Title.Render("apphub")
	if m.category != "" {
		title += " " + m.theme.Header.Chip.Render(string(m.category))
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	page := m.pageSize()
	if len(m.visible) == 0 {
		b.WriteString(m.theme.List.Empty.Render("  no applications"))
		b.WriteString("\n")
	}
	end := min(m.offset+page, len(m.visible))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.row(m.visible[i], i == m.cursor))
		b.WriteString("\n")
	}

	footer := m.theme.Footer.Status.Render(m.status)
	if m.err != nil {
		footer = m.theme.Footer.Error.Render(m.err.Error())
	}
	help := m.theme.Footer.Help.Render("enter launch · ctrl+p pin · ctrl+g category · ctrl+r refresh · esc quit")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, footer, "  ", help))
	return b.String(), nil
}

func (m *Model) row(rec apps.Record, selected bool) string {
	icon := m.theme.List.NoIcon.Render(glyph.NoIcon.Symbol)
	if rec.HasIcon() {
		icon = m.theme.List.Icon.Render(glyph.ForIcon(rec).Symbol)
	}
	pin := glyph.ForPin(rec).Symbol
	if rec.Pinned {
		pin = m.theme.List.Pinned.Render(pin)
	}
	name := rec.Name
	if selected {
		name = m.theme.List.Selected.Render(" " + name + " ")
	} else {
		name = m.theme.List.Normal.Render(" " + name + " ")
	}
	return fmt.Sprintf("%s %s %s %s", pin, icon, name, m.theme.List.Category.Render(string(rec.Category)))
}
