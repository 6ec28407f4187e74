// Package cellview renders a notebook markdown cell and tracks its
// edit/preview state, theme and range decorations.
//
// A TextCell is driven by an external event loop (TUI, HTTP session) and is
// not safe for concurrent use.
package cellview

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"cellmark/internal/dom"
	"cellmark/internal/markdown"
	"cellmark/internal/notebook"
	"cellmark/internal/sanitize"
	"cellmark/internal/system"
	"cellmark/internal/theme"
)

const (
	DefaultPlaceholder     = "Double-click to edit"
	DefaultHighlightClass  = "rangeHighlight"
	DefaultUserSelectClass = "actionselect"
)

// Converter turns markdown into a rendered tree.
type Converter interface {
	Render(req markdown.Request) (*markdown.Result, error)
	SetNotebookURI(u *url.URL)
}

// Editor is the code-editing surface shown in edit mode.
type Editor interface {
	Focus()
}

// Options wires a TextCell to its collaborators. Nil collaborators get
// defaults, except surfaces and Theme which stay absent.
type Options struct {
	Converter   Converter
	Sanitizer   sanitize.Sanitizer
	Theme       theme.Provider
	Output      *dom.Surface
	MoreActions *dom.Surface
	Editor      Editor

	Placeholder     string
	HighlightClass  string
	UserSelectClass string

	Logger *log.Logger
}

// TextCell is the markdown cell renderer.
type TextCell struct {
	cell *notebook.Cell
	opts Options
	log  *log.Logger

	mode         Mode
	content      string
	hasContent   bool
	lastTrusted  *bool
	result       *markdown.Result
	active       bool
	hover        bool
	activeCellID string
	moreVisible  bool

	linkListeners map[int]func(*url.URL)
	nextLinkID    int
	unsubs        []func()
}

// New creates a TextCell in edit mode for cell. The notebook's current
// active cell, if any, is picked up as the initial active state.
func New(cell *notebook.Cell, opts Options) *TextCell {
	if opts.Converter == nil {
		opts.Converter = markdown.New()
	}
	if opts.Sanitizer == nil {
		opts.Sanitizer = sanitize.Default
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if opts.HighlightClass == "" {
		opts.HighlightClass = DefaultHighlightClass
	}
	if opts.UserSelectClass == "" {
		opts.UserSelectClass = DefaultUserSelectClass
	}
	lg := opts.Logger
	if lg == nil {
		lg = system.Logger
	}
	t := &TextCell{
		cell:          cell,
		opts:          opts,
		log:           lg.With("cell", cell.ID),
		mode:          ModeEdit,
		linkListeners: map[int]func(*url.URL){},
	}
	if nb := cell.Notebook(); nb != nil && nb.ActiveCellID != "" {
		t.activeCellID = nb.ActiveCellID
		t.active = nb.ActiveCellID == cell.ID
	}
	return t
}

// Init subscribes to theme and output changes, applies the current theme
// and enters edit mode if the cell is active, preview otherwise.
func (t *TextCell) Init() error {
	if t.opts.Theme != nil {
		t.unsubs = append(t.unsubs, t.opts.Theme.OnDidColorThemeChange(t.applyTheme))
		t.applyTheme(t.opts.Theme.Current())
	}
	if err := t.setFocusAndScroll(); err != nil {
		return err
	}
	t.unsubs = append(t.unsubs, t.cell.OnOutputsChanged(func() {
		if err := t.RefreshPreview(); err != nil {
			t.log.Error("refresh preview failed", "err", err)
		}
	}))
	return nil
}

// Close drops subscriptions and releases the render result.
func (t *TextCell) Close() {
	for _, u := range t.unsubs {
		u()
	}
	t.unsubs = nil
	if t.result != nil {
		t.result.Dispose()
		t.result = nil
	}
}

// Cell returns the model.
func (t *TextCell) Cell() *notebook.Cell { return t.cell }

// CellGUID returns the model's GUID.
func (t *TextCell) CellGUID() string { return t.cell.GUID }

// IsTrusted is the notebook's trust flag.
func (t *TextCell) IsTrusted() bool { return t.cell.TrustedMode() }

// NotebookURI is the owning notebook's location, if any.
func (t *TextCell) NotebookURI() *url.URL {
	if nb := t.cell.Notebook(); nb != nil {
		return nb.URI
	}
	return nil
}

// Mode returns the current mode.
func (t *TextCell) Mode() Mode { return t.mode }

// Editor returns the editing collaborator while in edit mode.
func (t *TextCell) Editor() Editor {
	if t.mode != ModeEdit {
		return nil
	}
	return t.opts.Editor
}

// Output returns the output surface (may be nil).
func (t *TextCell) Output() *dom.Surface { return t.opts.Output }

// Result returns the current render result (may be nil).
func (t *TextCell) Result() *markdown.Result { return t.result }

// MoreActionsVisible reports whether the "more actions" affordance shows.
func (t *TextCell) MoreActionsVisible() bool { return t.moreVisible }

// RefreshPreview re-renders the preview when the source or trust flag
// changed since the last render. Converter and sanitizer errors are
// returned and leave the previous render in place.
func (t *TextCell) RefreshPreview() error {
	trusted := t.cell.TrustedMode()
	st := ComputeRenderState(RenderInput{
		Source:      t.cell.Source.Joined(),
		Trusted:     trusted,
		LastTrusted: t.lastTrusted,
		Cached:      t.cachedContent(),
		Mode:        t.mode,
		Placeholder: t.opts.Placeholder,
	})
	if !st.Changed() {
		return nil
	}

	t.opts.Converter.SetNotebookURI(t.NotebookURI())
	res, err := t.opts.Converter.Render(markdown.Request{IsTrusted: true, Value: st.Value})
	if err != nil {
		return fmt.Errorf("render cell %s: %w", t.cell.ID, err)
	}
	out := res.Element.InnerHTML()
	if st.Sanitize {
		out = t.opts.Sanitizer.Sanitize(out)
		if err := res.Element.SetInnerHTML(out); err != nil {
			res.Dispose()
			return fmt.Errorf("sanitize cell %s: %w", t.cell.ID, err)
		}
	}

	if t.opts.Output != nil {
		if err := t.opts.Output.Write(out); err != nil {
			res.Dispose()
			return fmt.Errorf("write preview for cell %s: %w", t.cell.ID, err)
		}
	}

	if t.result != nil {
		t.result.Dispose()
	}
	t.result = res
	t.lastTrusted = &trusted
	t.content = st.Value
	t.hasContent = true
	t.cell.Loaded = true
	t.cell.RenderedOutputTextContent = t.RenderedTextOutput()
	t.log.Debug("preview rendered",
		"trustedChanged", st.TrustedChanged,
		"contentChanged", st.ContentChanged,
		"placeholder", st.UsePlaceholder,
		"units", len(t.cell.RenderedOutputTextContent))
	return nil
}

func (t *TextCell) cachedContent() string {
	if !t.hasContent {
		return ""
	}
	return t.content
}

// HandleContentChanged is called by the editor after the source changed.
func (t *TextCell) HandleContentChanged() error { return t.RefreshPreview() }

// ToggleMode flips between edit and preview.
func (t *TextCell) ToggleMode() error {
	if t.mode == ModeEdit {
		return t.SetMode(ModePreview)
	}
	return t.SetMode(ModeEdit)
}

// SetMode switches to m, recomputes the more-actions affordance and
// refreshes the preview. Entering edit mode focuses the editor.
func (t *TextCell) SetMode(m Mode) error {
	t.mode = m
	t.updateMoreActions()
	if err := t.RefreshPreview(); err != nil {
		return err
	}
	if m == ModeEdit && t.opts.Editor != nil {
		t.opts.Editor.Focus()
	}
	return nil
}

// SetActive marks the cell as the active one (or not).
func (t *TextCell) SetActive(active bool) {
	t.active = active
	t.updateMoreActions()
}

// SetHover records pointer hover. Active state takes priority, so hover
// only matters while the cell is inactive.
func (t *TextCell) SetHover(hover bool) {
	t.hover = hover
	if !t.active {
		t.updateMoreActions()
	}
}

// SetActiveCellID tells the cell which cell of the notebook is active.
// Any change after the first switches the cell back to preview; the host
// re-enters edit mode explicitly.
func (t *TextCell) SetActiveCellID(id string) error {
	prev := t.activeCellID
	t.activeCellID = id
	t.active = id != "" && id == t.cell.ID
	t.toggleUserSelect(t.active)
	if prev != "" {
		return t.SetMode(ModePreview)
	}
	t.updateMoreActions()
	return nil
}

// HandleEscape leaves edit mode and clears the notebook's active cell.
func (t *TextCell) HandleEscape() error {
	if t.mode == ModeEdit {
		if err := t.SetMode(ModePreview); err != nil {
			return err
		}
	}
	t.cell.Active = false
	t.active = false
	if nb := t.cell.Notebook(); nb != nil {
		nb.UpdateActiveCell(nil)
	}
	t.updateMoreActions()
	return nil
}

func (t *TextCell) updateMoreActions() {
	t.moreVisible = t.mode != ModeEdit && (t.active || t.hover)
	if el := t.opts.MoreActions; el != nil {
		if t.moreVisible {
			el.SetStyle("visibility", "visible")
		} else {
			el.SetStyle("visibility", "hidden")
		}
	}
}

func (t *TextCell) toggleUserSelect(on bool) {
	if t.opts.Output == nil {
		return
	}
	if on {
		t.opts.Output.AddClass(t.opts.UserSelectClass)
	} else {
		t.opts.Output.RemoveClass(t.opts.UserSelectClass)
	}
}

func (t *TextCell) setFocusAndScroll() error {
	m := ModePreview
	if t.active {
		m = ModeEdit
	}
	if err := t.SetMode(m); err != nil {
		return err
	}
	if t.opts.Output != nil {
		t.opts.Output.ScrollTop()
	}
	return nil
}

func (t *TextCell) applyTheme(th theme.Theme) {
	border := th.Hex(theme.SideBarBackground)
	if t.opts.Output != nil {
		t.opts.Output.SetStyle("border-top-color", border)
	}
	if t.opts.MoreActions != nil {
		t.opts.MoreActions.SetStyle("border-right-color", border)
	}
}

// Elements is the flattened unit list of the current preview.
func (t *TextCell) Elements() []*dom.Element {
	if t.opts.Output != nil {
		return Flatten(t.opts.Output.Element)
	}
	if t.result != nil {
		return Flatten(t.result.Element)
	}
	return nil
}

// RenderedTextOutput returns one text line per flattened unit.
func (t *TextCell) RenderedTextOutput() []string {
	return TextOutput(t.Elements())
}

// ApplyDecoration moves the highlight from oldRange to newRange. Either may
// be nil. Lines outside the rendered units, or a missing output surface,
// are ignored.
func (t *TextCell) ApplyDecoration(newRange, oldRange *notebook.Range) {
	if oldRange != nil {
		if el := t.unitAt(oldRange.StartLine); el != nil {
			el.RemoveClass(t.opts.HighlightClass)
		}
	}
	if newRange != nil {
		if el := t.unitAt(newRange.StartLine); el != nil {
			el.AddClass(t.opts.HighlightClass)
			t.opts.Output.ScrollIntoView(el)
		}
	}
}

func (t *TextCell) unitAt(line int) *dom.Element {
	if t.opts.Output == nil {
		return nil
	}
	units := Flatten(t.opts.Output.Element)
	i := line - 1
	if i < 0 || i >= len(units) {
		return nil
	}
	return units[i]
}

// OnDidClickLink registers fn for link clicks in the preview.
func (t *TextCell) OnDidClickLink(fn func(*url.URL)) func() {
	id := t.nextLinkID
	t.nextLinkID++
	t.linkListeners[id] = fn
	return func() { delete(t.linkListeners, id) }
}

// ClickLink resolves href against the notebook URI and notifies listeners.
func (t *TextCell) ClickLink(href string) error {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return fmt.Errorf("link %q: %w", href, err)
	}
	if base := t.NotebookURI(); base != nil && !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	for i := 0; i < t.nextLinkID; i++ {
		if fn, ok := t.linkListeners[i]; ok {
			fn(u)
		}
	}
	return nil
}
