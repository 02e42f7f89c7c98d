package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"curriculum-cli/internal/drag"
	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
	"curriculum-cli/internal/publish"
	"curriculum-cli/internal/reconcile"
	"curriculum-cli/internal/syncer"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fetchTimeout     = 15 * time.Second
	noticeFadeDelay  = 5 * time.Second
	minPreviewWidth  = 80
	defaultPollEvery = 2 * time.Second
)

// Versioner reports a course's change counter. The editor polls it to notice
// writes made by other clients.
type Versioner interface {
	Version(ctx context.Context, courseID string) (int64, error)
}

type hierarchyMsg struct {
	h       model.CourseHierarchy
	err     error
	initial bool
}

type reorderDoneMsg struct {
	p   *editor.Pending
	out syncer.Outcome
}

type pollTickMsg struct{}

type versionMsg struct {
	v   int64
	err error
}

type noticeFadeMsg struct{ seq int }

type appModel struct {
	ctx context.Context
	ed  *editor.Editor
	ver Versioner
	log *slog.Logger

	keys keyMap
	help help.Model
	spin spinner.Model

	width  int
	height int

	rows   []row
	cursor int
	offset int

	ready       bool
	loadErr     error
	inflight    int
	pollEvery   time.Duration
	lastVersion int64
	haveVersion bool

	notice      notice
	noticeSeq   int
	showPreview bool

	// initialSelection is applied once the first snapshot arrives.
	initialSelection string
}

func newAppModel(ctx context.Context, ed *editor.Editor, ver Versioner, log *slog.Logger, pollEvery time.Duration) appModel {
	if log == nil {
		log = slog.Default()
	}
	if pollEvery <= 0 {
		pollEvery = defaultPollEvery
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)
	return appModel{
		ctx:       ctx,
		ed:        ed,
		ver:       ver,
		log:       log,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spin:      sp,
		pollEvery: pollEvery,
	}
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchCmd(true), m.spin.Tick}
	if m.ver != nil {
		cmds = append(cmds, m.versionCmd())
	}
	return tea.Batch(cmds...)
}

func (m appModel) fetchCmd(initial bool) tea.Cmd {
	ctx := m.ctx
	loader := m.ed.Loader()
	courseID := m.ed.CourseID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		h, err := loader.Fetch(ctx, courseID)
		return hierarchyMsg{h: h, err: err, initial: initial}
	}
}

func (m appModel) versionCmd() tea.Cmd {
	ctx := m.ctx
	ver := m.ver
	courseID := m.ed.CourseID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		v, err := ver.Version(ctx, courseID)
		return versionMsg{v: v, err: err}
	}
}

func (m appModel) pollCmd() tea.Cmd {
	return tea.Tick(m.pollEvery, func(time.Time) tea.Msg { return pollTickMsg{} })
}

// writeCmd performs the write off the event loop.
func (m appModel) writeCmd(p *editor.Pending) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return reorderDoneMsg{p: p, out: p.Run(ctx)}
	}
}

func (m *appModel) setNotice(n notice) tea.Cmd {
	m.noticeSeq++
	m.notice = n
	if n.level == noticeInfo {
		return nil
	}
	seq := m.noticeSeq
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg { return noticeFadeMsg{seq: seq} })
}

func (m appModel) selectedID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.cursor].id
}

// refreshRows rebuilds the visible rows, keeping the cursor on keepID when it is still visible.
func (m *appModel) refreshRows(keepID string) {
	m.rows = flattenRows(m.ed.Model().Chapters())
	if i := rowIndex(m.rows, keepID); i >= 0 {
		m.cursor = i
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case hierarchyMsg:
		return m.onHierarchy(msg)

	case reorderDoneMsg:
		return m.onReorderDone(msg)

	case pollTickMsg:
		if m.ver == nil {
			return m, nil
		}
		return m, m.versionCmd()

	case versionMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			m.log.Debug("version poll failed", slog.Any("err", msg.err))
		} else if !m.haveVersion || msg.v != m.lastVersion {
			if m.haveVersion && m.ready {
				cmds = append(cmds, m.fetchCmd(false))
			}
			m.lastVersion = msg.v
			m.haveVersion = true
		}
		cmds = append(cmds, m.pollCmd())
		return m, tea.Batch(cmds...)

	case logRecordMsg:
		level := noticeWarn
		if msg.Level >= slog.LevelError {
			level = noticeError
		}
		return m, m.setNotice(notice{text: msg.Summary, level: level})

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = notice{}
		}
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m appModel) onHierarchy(msg hierarchyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.initial {
			m.loadErr = msg.err
			return m, nil
		}
		return m, m.setNotice(notice{text: "Reload failed: " + msg.err.Error(), level: noticeError})
	}
	keep := m.selectedID()
	res := m.ed.Reconcile(msg.h)
	if msg.initial {
		m.ready = true
		m.loadErr = nil
		if m.initialSelection != "" {
			keep = m.initialSelection
		}
	}
	if res == reconcile.Applied {
		m.refreshRows(keep)
	}
	return m, nil
}

func (m appModel) onReorderDone(msg reorderDoneMsg) (tea.Model, tea.Cmd) {
	if m.inflight > 0 {
		m.inflight--
	}
	keep := m.selectedID()
	refetch, err := m.ed.Settle(msg.p, msg.out)
	var cmds []tea.Cmd
	if err != nil {
		cmds = append(cmds, m.setNotice(notice{text: err.Error(), level: noticeError}))
	} else {
		cmds = append(cmds, m.setNotice(outcomeNotice(msg.out)))
	}
	m.refreshRows(keep)
	if refetch {
		cmds = append(cmds, m.fetchCmd(false))
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if !m.ready {
		return m, nil
	}
	dragging := m.ed.Session().State() == drag.StateStarted

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Grab):
		if dragging {
			return m.drop()
		}
		return m.grab()
	case key.Matches(msg, m.keys.Drop):
		if dragging {
			return m.drop()
		}
	case key.Matches(msg, m.keys.Cancel):
		if dragging {
			m.ed.Session().Cancel()
			return m, m.setNotice(notice{})
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(m.rows) {
			r := m.rows[m.cursor]
			m.ed.Model().ToggleExpanded(r.chapterID)
			m.refreshRows(r.chapterID)
		}
	case key.Matches(msg, m.keys.ExpandAll):
		keep := m.selectedID()
		m.ed.Model().SetAllExpanded(m.anyCollapsed())
		m.refreshRows(keep)
	case key.Matches(msg, m.keys.Reload):
		return m, m.fetchCmd(false)
	case key.Matches(msg, m.keys.Preview):
		m.showPreview = !m.showPreview
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m appModel) anyCollapsed() bool {
	for _, ch := range m.ed.Model().Chapters() {
		if !ch.Expanded {
			return true
		}
	}
	return false
}

func (m appModel) grab() (tea.Model, tea.Cmd) {
	id := m.selectedID()
	if id == "" {
		return m, nil
	}
	if err := m.ed.PickUp(id); err != nil {
		return m, m.setNotice(notice{text: err.Error(), level: noticeError})
	}
	return m, m.setNotice(notice{text: "Moving " + m.rows[m.cursor].title + ": pick a target and press enter"})
}

func (m appModel) drop() (tea.Model, tea.Cmd) {
	activeID := m.ed.Session().ActiveID()
	p, err := m.ed.DropOn(m.selectedID())
	if err != nil {
		return m, m.setNotice(refusalNotice(err))
	}
	if p == nil {
		m.notice = notice{}
		return m, nil
	}
	m.inflight++
	m.setNotice(pendingNotice(p.Container()))
	m.refreshRows(activeID)
	return m, m.writeCmd(p)
}

func (m appModel) View() string {
	if m.loadErr != nil {
		return styleError.Render("Failed to load course: "+m.loadErr.Error()) + "\n\n" + styleMuted.Render("press q to quit") + "\n"
	}
	if !m.ready {
		return m.spin.View() + " Loading course...\n"
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	list := m.listView()
	if m.showPreview && m.width >= minPreviewWidth {
		leftW := m.width / 2
		left := lipgloss.NewStyle().Width(leftW).Render(list)
		right := lipgloss.NewStyle().
			Width(m.width-leftW-2).
			PaddingLeft(2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(colorMuted).
			Render(m.previewView(m.width - leftW - 4))
		list = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	b.WriteString(list)
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) headerView() string {
	title := m.ed.Model().Title()
	if title == "" {
		title = m.ed.CourseID()
	}
	out := styleTitle.Render(title)
	if id := m.ed.Session().ActiveID(); id != "" {
		out += "  " + styleGrabbed.Render("moving "+m.titleOf(id))
	}
	return out
}

func (m appModel) titleOf(id string) string {
	if i := rowIndex(m.rows, id); i >= 0 {
		return m.rows[i].title
	}
	return id
}

// listHeight is the number of outline rows that fit between header and footer.
func (m appModel) listHeight() int {
	if m.height <= 0 {
		return len(m.rows)
	}
	footer := 3
	if m.help.ShowAll {
		footer += 4
	}
	h := m.height - 2 - footer
	if h < 1 {
		h = 1
	}
	return h
}

func (m *appModel) scrollToCursor() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m appModel) listView() string {
	if len(m.rows) == 0 {
		return styleMuted.Render("No chapters yet.")
	}
	m.scrollToCursor()
	h := m.listHeight()
	width := m.width
	if m.showPreview && m.width >= minPreviewWidth {
		width = m.width / 2
	}
	activeID := m.ed.Session().ActiveID()

	var lines []string
	for i := m.offset; i < len(m.rows) && i < m.offset+h; i++ {
		lines = append(lines, m.rowView(m.rows[i], i == m.cursor, m.rows[i].id == activeID, width))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) rowView(r row, selected, grabbed bool, width int) string {
	var line string
	switch r.kind {
	case outline.KindChapter:
		marker := "▸"
		if r.expanded {
			marker = "▾"
		}
		line = fmt.Sprintf("%s %s %s %s", marker,
			styleRank.Render(fmt.Sprintf("%2d.", r.rank)),
			styleChapter.Render(r.title),
			styleMuted.Render(fmt.Sprintf("(%d)", r.lessons)))
	default:
		line = fmt.Sprintf("    %s %s",
			styleRank.Render(fmt.Sprintf("%d.", r.rank)),
			styleLesson.Render(r.title))
	}
	if grabbed {
		line = styleGrabbed.Render("⇅ ") + line
	} else {
		line = "  " + line
	}
	if width > 0 {
		line = truncateToWidth(line, width)
	}
	if selected {
		if width > 0 {
			line = padRight(line, width)
		}
		return styleSelected.Render(line)
	}
	return line
}

func (m appModel) previewView(width int) string {
	md := publish.RenderCourseMarkdown(hierarchyOf(m.ed.Model()), publish.RenderOptions{})
	out := RenderMarkdown(md, width)
	lines := strings.Split(out, "\n")
	if h := m.listHeight(); len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

func (m appModel) statusView() string {
	var parts []string
	if m.inflight > 0 {
		parts = append(parts, m.spin.View())
	}
	if m.notice.text != "" {
		parts = append(parts, m.notice.render())
	}
	return strings.Join(parts, " ")
}
