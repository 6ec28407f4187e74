// Package preview is the terminal front end: a scrollable list of the
// notebook's markdown cells rendered with glamour, with inline editing and
// fuzzy find.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	xansi "github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	runewidth "github.com/mattn/go-runewidth"

	"cellmark/internal/cellview"
	"cellmark/internal/find"
	"cellmark/internal/notebook"
	"cellmark/internal/session"
	"cellmark/internal/system"
	"cellmark/internal/theme"
	"cellmark/internal/watch"
)

const doubleClickWindow = 400 * time.Millisecond

// Options configures the preview.
type Options struct {
	Session session.Options
	// Watch reloads the notebook when its file changes on disk.
	Watch    bool
	Debounce time.Duration
}

// Run opens nb in the terminal and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, nb *notebook.Notebook, opts Options) error {
	m, err := New(nb, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	if opts.Watch && nb.Path != "" {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch := make(chan struct{}, 1)
		m.changes = ch
		go func() {
			err := watch.File(wctx, nb.Path, opts.Debounce, func() {
				select {
				case ch <- struct{}{}:
				default:
				}
			})
			if err != nil {
				m.log.Error("watch stopped", "err", err)
			}
		}()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

type fileChangedMsg struct{}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

// focusRequests collects the cells whose editor was focused by a mode
// change. The model drains it after every action.
type focusRequests struct{ ids []string }

func (f *focusRequests) editorFor(c *notebook.Cell) cellview.Editor {
	return cellEditor{reqs: f, id: c.ID}
}

func (f *focusRequests) pop() string {
	if len(f.ids) == 0 {
		return ""
	}
	id := f.ids[len(f.ids)-1]
	f.ids = f.ids[:0]
	return id
}

type cellEditor struct {
	reqs *focusRequests
	id   string
}

func (e cellEditor) Focus() { e.reqs.ids = append(e.reqs.ids, e.id) }

// Model is the bubbletea model of the preview.
type Model struct {
	opts  Options
	nb    *notebook.Notebook
	sess  *session.Session
	focus *focusRequests
	zones *zone.Manager
	log   *log.Logger

	width, height  int
	cursor         int
	offsets        []int
	scrollToCursor bool
	vp             viewport.Model

	editor  textarea.Model
	editing string
	dirty   bool

	finding   bool
	findInput textinput.Model
	matches   []find.Match
	matchIdx  int

	hoverID     string
	lastClickID string
	lastClickAt time.Time
	now         func() time.Time

	keys    keymap
	help    help.Model
	status  string
	styles  styles
	cache   map[string]string
	changes chan struct{}
}

// New opens a session on nb with an editor collaborator per cell and
// selects the first markdown cell.
func New(nb *notebook.Notebook, opts Options) (*Model, error) {
	m := &Model{
		opts:   opts,
		focus:  &focusRequests{},
		zones:  zone.New(),
		width:  80,
		height: 24,
		now:    time.Now,
		cache:  map[string]string{},
	}
	m.log = opts.Session.Logger
	if m.log == nil {
		m.log = system.Logger
	}
	m.log = m.log.WithPrefix("preview")
	if err := m.open(nb); err != nil {
		return nil, err
	}

	m.editor = textarea.New()
	m.editor.ShowLineNumbers = false
	m.editor.Placeholder = m.placeholder()
	m.findInput = textinput.New()
	m.findInput.Prompt = "/ "
	m.findInput.Placeholder = "find in rendered text"
	m.findInput.ShowSuggestions = true
	m.keys = newKeymap()
	m.help = help.New()
	m.vp = viewport.New(m.width, m.height-2)
	m.restyle()
	m.layout()
	m.refresh()
	return m, nil
}

func (m *Model) open(nb *notebook.Notebook) error {
	so := m.opts.Session
	so.Editors = m.focus.editorFor
	sess, err := session.Open(nb, so)
	if err != nil {
		return err
	}
	m.nb, m.sess = nb, sess
	if views := sess.Views(); len(views) > 0 {
		if m.cursor >= len(views) {
			m.cursor = len(views) - 1
		}
		if err := sess.Select(views[m.cursor].Cell().ID); err != nil {
			return err
		}
	} else {
		m.cursor = 0
	}
	return nil
}

// Session exposes the underlying session.
func (m *Model) Session() *session.Session { return m.sess }

// Close releases the session.
func (m *Model) Close() {
	if m.sess != nil {
		m.sess.Close()
	}
}

func (m *Model) Init() tea.Cmd { return waitForChange(m.changes) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil
	case fileChangedMsg:
		m.reload()
		m.refresh()
		return m, waitForChange(m.changes)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case tea.KeyMsg:
		var cmd tea.Cmd
		switch {
		case m.editing != "":
			cmd = m.updateEditor(msg)
		case m.finding:
			cmd = m.updateFind(msg)
		default:
			cmd = m.handleKey(msg)
		}
		m.refresh()
		return m, cmd
	}
	if m.editing != "" {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle(m.cursor)
	case key.Matches(msg, m.keys.Escape):
		m.escape()
	case key.Matches(msg, m.keys.Find):
		m.finding = true
		m.findInput.Reset()
		m.findInput.SetSuggestions(suggestions(m.sess.Views()))
		return m.findInput.Focus()
	case key.Matches(msg, m.keys.Next):
		m.nextMatch(1)
	case key.Matches(msg, m.keys.Prev):
		m.nextMatch(-1)
	case key.Matches(msg, m.keys.Theme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.Save):
		m.save()
	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.commitEdit()
		return nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return cmd
}

func (m *Model) updateFind(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.finding = false
		m.findInput.Blur()
		return nil
	case "enter":
		m.finding = false
		m.findInput.Blur()
		m.runFind(m.findInput.Value())
		return nil
	}
	var cmd tea.Cmd
	m.findInput, cmd = m.findInput.Update(msg)
	return cmd
}

func (m *Model) current() *cellview.TextCell {
	views := m.sess.Views()
	if m.cursor < 0 || m.cursor >= len(views) {
		return nil
	}
	return views[m.cursor]
}

func (m *Model) move(d int) {
	n := len(m.sess.Views())
	if n == 0 {
		return
	}
	next := m.cursor + d
	if next < 0 || next >= n {
		return
	}
	m.selectIndex(next)
}

func (m *Model) selectIndex(i int) {
	m.cursor = i
	v := m.current()
	if v == nil {
		return
	}
	if err := m.sess.Select(v.Cell().ID); err != nil {
		m.fail(err)
	}
	m.scrollToCursor = true
}

// toggle flips the mode of cell i. Entering edit mode goes through the
// session so the cell also becomes the notebook's active cell.
func (m *Model) toggle(i int) tea.Cmd {
	views := m.sess.Views()
	if i < 0 || i >= len(views) {
		return nil
	}
	v := views[i]
	if m.editing != "" && m.editing != v.Cell().ID {
		m.commitEdit()
	}
	m.cursor = i
	var err error
	switch v.Mode() {
	case cellview.ModePreview:
		err = m.sess.Activate(v.Cell().ID)
	default:
		if m.editing == v.Cell().ID {
			m.commitEdit()
			return nil
		}
		err = v.ToggleMode()
	}
	if err != nil {
		m.fail(err)
		return nil
	}
	return m.openEditor()
}

func (m *Model) openEditor() tea.Cmd {
	id := m.focus.pop()
	if id == "" {
		return nil
	}
	v, err := m.sess.View(id)
	if err != nil {
		m.fail(err)
		return nil
	}
	m.editing = id
	m.editor.SetValue(v.Cell().Source.Joined())
	m.status = "editing " + id + " (esc to finish)"
	return m.editor.Focus()
}

// commitEdit writes the textarea back to the cell and leaves edit mode.
func (m *Model) commitEdit() {
	id := m.editing
	m.editing = ""
	m.editor.Blur()
	v, err := m.sess.View(id)
	if err != nil {
		m.fail(err)
		return
	}
	c := v.Cell()
	src := m.editor.Value()
	if strings.TrimRight(src, "\n") != strings.TrimRight(c.Source.Joined(), "\n") {
		c.SetSource(src)
		m.dirty = true
		if err := v.HandleContentChanged(); err != nil {
			m.fail(err)
			return
		}
	}
	if err := v.HandleEscape(); err != nil {
		m.fail(err)
		return
	}
	m.status = ""
}

func (m *Model) escape() {
	if v := m.current(); v != nil {
		if err := v.HandleEscape(); err != nil {
			m.fail(err)
		}
	}
	m.matches = nil
	if err := m.sess.Highlight(nil); err != nil {
		m.fail(err)
	}
	m.status = ""
}

func (m *Model) runFind(q string) {
	m.matches = m.sess.Find(q)
	m.matchIdx = -1
	if len(m.matches) == 0 {
		_ = m.sess.Highlight(nil)
		m.status = fmt.Sprintf("no matches for %q", q)
		return
	}
	m.nextMatch(1)
}

// nextMatch moves to the next (d=1) or previous (d=-1) find result,
// selecting its cell before decorating it.
func (m *Model) nextMatch(d int) {
	n := len(m.matches)
	if n == 0 {
		return
	}
	m.matchIdx = ((m.matchIdx+d)%n + n) % n
	r := m.matches[m.matchIdx].Range
	for i, v := range m.sess.Views() {
		if v.Cell().ID == r.CellID {
			m.selectIndex(i)
			break
		}
	}
	if err := m.sess.Highlight(&r); err != nil {
		m.fail(err)
		return
	}
	m.status = fmt.Sprintf("match %d/%d  %s", m.matchIdx+1, n, r)
}

func (m *Model) cycleTheme() {
	names := theme.Names()
	cur := m.sess.Themes().Current().Name
	next := names[0]
	for i, name := range names {
		if name == cur {
			next = names[(i+1)%len(names)]
			break
		}
	}
	if err := m.sess.Themes().Set(next); err != nil {
		m.fail(err)
		return
	}
	m.restyle()
	m.status = "theme " + next
}

func (m *Model) save() {
	if err := m.sess.Save(); err != nil {
		m.fail(err)
		return
	}
	m.dirty = false
	m.status = "saved " + m.nb.Path
}

func (m *Model) reload() {
	fresh, err := notebook.Load(m.nb.Path)
	if err != nil {
		m.fail(err)
		return
	}
	fresh.TrustedMode = m.nb.TrustedMode
	if !m.sess.Reload(fresh) {
		m.status = "reloaded"
		return
	}
	m.sess.Close()
	m.hoverID, m.matches = "", nil
	if err := m.open(fresh); err != nil {
		m.fail(err)
		return
	}
	m.status = "reloaded (cells changed)"
}

func (m *Model) fail(err error) {
	m.log.Error("preview", "err", err)
	m.status = "error: " + err.Error()
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return cmd
	}
	i := m.cellAt(msg)
	switch msg.Action {
	case tea.MouseActionMotion:
		m.hover(i)
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || i < 0 {
			return nil
		}
		return m.click(i)
	}
	return nil
}

func (m *Model) cellAt(msg tea.MouseMsg) int {
	for i, v := range m.sess.Views() {
		if m.zones.Get(zoneID(v.Cell().ID)).InBounds(msg) {
			return i
		}
	}
	return -1
}

// click selects cell i; a second click on the same cell within
// doubleClickWindow toggles its mode.
func (m *Model) click(i int) tea.Cmd {
	views := m.sess.Views()
	if i < 0 || i >= len(views) {
		return nil
	}
	id := views[i].Cell().ID
	now := m.now()
	double := id == m.lastClickID && now.Sub(m.lastClickAt) <= doubleClickWindow
	m.lastClickID, m.lastClickAt = id, now
	if double {
		m.lastClickID = ""
		cmd := m.toggle(i)
		m.refresh()
		return cmd
	}
	if m.editing == id {
		return nil
	}
	if m.editing != "" {
		m.commitEdit()
	}
	m.selectIndex(i)
	m.refresh()
	return nil
}

func (m *Model) hover(i int) {
	id := ""
	views := m.sess.Views()
	if i >= 0 && i < len(views) {
		id = views[i].Cell().ID
	}
	if id == m.hoverID {
		return
	}
	if old, err := m.sess.View(m.hoverID); err == nil {
		old.SetHover(false)
	}
	if id != "" {
		views[i].SetHover(true)
	}
	m.hoverID = id
	m.refresh()
}

func zoneID(cellID string) string { return "cell." + cellID }

func (m *Model) placeholder() string {
	if p := m.opts.Session.Settings.Placeholder; p != "" {
		return p
	}
	return cellview.DefaultPlaceholder
}

func (m *Model) restyle() {
	m.styles = newStyles(m.sess.Themes().Current())
	m.help.Styles.ShortKey = m.styles.header
	m.help.Styles.ShortDesc = m.styles.muted
}

func (m *Model) layout() {
	m.vp.Width = m.width
	m.vp.Height = max(1, m.height-2)
	m.editor.SetWidth(max(10, m.width-4))
	m.editor.SetHeight(max(3, min(12, m.height/2)))
}

// refresh rebuilds the viewport content from the cell views.
func (m *Model) refresh() {
	views := m.sess.Views()
	m.offsets = m.offsets[:0]
	var b strings.Builder
	line := 0
	for i, v := range views {
		block := m.renderCell(v, i == m.cursor)
		m.offsets = append(m.offsets, line)
		b.WriteString(block)
		b.WriteString("\n")
		line += lipgloss.Height(block)
	}
	if len(views) == 0 {
		b.WriteString(m.styles.muted.Render("no markdown cells"))
	}
	m.vp.SetContent(b.String())
	if m.scrollToCursor && m.cursor < len(m.offsets) {
		off := m.offsets[m.cursor]
		if off < m.vp.YOffset || off >= m.vp.YOffset+m.vp.Height {
			m.vp.SetYOffset(off)
		}
	}
	m.scrollToCursor = false
}

func (m *Model) renderCell(v *cellview.TextCell, selected bool) string {
	c := v.Cell()
	w := max(20, m.width-2)
	head := m.styles.header.Render(runewidth.Truncate(c.ID, w/2, "…")) + "  " + m.styles.muted.Render(v.Mode().String())
	if v.MoreActionsVisible() {
		head += "  " + m.styles.chip.Render("⋯")
	}

	var body string
	if m.editing == c.ID {
		body = m.editor.View()
	} else {
		body = m.markdown(c, w-2)
	}
	if r := m.sess.Highlighted(); r != nil && r.CellID == c.ID {
		if lines := v.RenderedTextOutput(); r.StartLine >= 1 && r.StartLine <= len(lines) {
			body += "\n" + m.matchLine(lines[r.StartLine-1])
		}
	}

	style := m.styles.inactive
	if selected {
		style = m.styles.active
	}
	return m.zones.Mark(zoneID(c.ID), style.Width(w).Render(head+"\n"+body))
}

// matchLine renders text with the current match's characters emphasized.
func (m *Model) matchLine(text string) string {
	pos := map[int]bool{}
	if m.matchIdx >= 0 && m.matchIdx < len(m.matches) && m.matches[m.matchIdx].Text == text {
		for _, p := range m.matches[m.matchIdx].Positions {
			pos[p] = true
		}
	}
	var b strings.Builder
	b.WriteString("▶ ")
	for i, r := range []rune(text) {
		if pos[i] {
			b.WriteString(m.styles.match.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// markdown renders a cell through glamour, caching by theme, width and
// source.
func (m *Model) markdown(c *notebook.Cell, width int) string {
	src := c.Source.Joined()
	if strings.TrimSpace(src) == "" {
		return m.styles.muted.Render(m.placeholder())
	}
	th := m.sess.Themes().Current()
	key := fmt.Sprintf("%s\x00%d\x00%s", th.Name, width, src)
	if out, ok := m.cache[key]; ok {
		return out
	}
	out := src
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(glamourStyle(th)),
		glamour.WithWordWrap(max(10, width)),
	)
	if err == nil {
		if rendered, err := r.Render(src); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	m.cache[key] = out
	return out
}

func (m *Model) View() string {
	title := m.styles.header.Render("cellmark") + " " + m.styles.muted.Render(m.nb.Path)
	if m.nb.TrustedMode {
		title += " " + m.styles.chip.Render("trusted")
	}
	bottom := m.statusLine()
	if m.finding {
		bottom = m.findInput.View()
	}
	out := lipgloss.JoinVertical(lipgloss.Left, xansi.Truncate(title, m.width, "…"), m.vp.View(), bottom)
	return m.zones.Scan(out)
}

func (m *Model) statusLine() string {
	parts := []string{}
	if v := m.current(); v != nil {
		parts = append(parts, fmt.Sprintf("%d/%d %s", m.cursor+1, len(m.sess.Views()), v.Mode()))
	}
	if m.dirty {
		parts = append(parts, "modified")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	} else {
		parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	line := xansi.Truncate(strings.Join(parts, "  "), m.width, "…")
	return m.styles.bar.Width(m.width).Render(line)
}
