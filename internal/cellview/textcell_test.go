package cellview

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"cellmark/internal/dom"
	"cellmark/internal/markdown"
	"cellmark/internal/notebook"
	"cellmark/internal/theme"
)

var quiet = log.New(io.Discard)

type countingConverter struct {
	inner   *markdown.Renderer
	calls   int
	results []*markdown.Result
	err     error
}

func (c *countingConverter) Render(req markdown.Request) (*markdown.Result, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	res, err := c.inner.Render(req)
	if err == nil {
		c.results = append(c.results, res)
	}
	return res, err
}

func (c *countingConverter) SetNotebookURI(u *url.URL) { c.inner.SetNotebookURI(u) }

type focusEditor struct{ focused int }

func (e *focusEditor) Focus() { e.focused++ }

func newCell(t *testing.T, source string, trusted bool) (*notebook.Notebook, *notebook.Cell) {
	t.Helper()
	nb := notebook.New("")
	nb.TrustedMode = trusted
	c := notebook.NewCell("c1", notebook.Markdown, source)
	nb.Append(c)
	return nb, c
}

func newView(c *notebook.Cell, conv Converter) (*TextCell, *dom.Surface) {
	out := dom.NewSurface("div")
	tc := New(c, Options{Converter: conv, Output: out, Logger: quiet})
	return tc, out
}

func TestRefreshPreview_Idempotent(t *testing.T) {
	_, c := newCell(t, "# Title\n\nbody", true)
	conv := &countingConverter{inner: markdown.New()}
	tc, out := newView(c, conv)
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if err := tc.RefreshPreview(); err != nil {
		t.Fatal(err)
	}
	if out.Writes() != 1 || conv.calls != 1 {
		t.Fatalf("second refresh must be a no-op: writes=%d calls=%d", out.Writes(), conv.calls)
	}
	if !c.Loaded {
		t.Fatalf("cell should be marked loaded")
	}
	if diff := cmp.Diff([]string{"Title", "body"}, c.RenderedOutputTextContent); diff != "" {
		t.Fatalf("text output (-want +got):\n%s", diff)
	}
}

func TestRefreshPreview_EmptyPreviewShowsPlaceholder(t *testing.T) {
	_, c := newCell(t, "", false)
	tc, out := newView(c, nil)
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.InnerHTML()); got != "<p>Double-click to edit</p>" {
		t.Fatalf("placeholder html = %q", got)
	}
}

func TestRefreshPreview_UntrustedDropsScript(t *testing.T) {
	src := "hello\n\n<script>alert('x')</script>\n\n<p onclick=\"steal()\">para</p>\n"
	_, c := newCell(t, src, false)
	tc, out := newView(c, nil)
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	got := out.InnerHTML()
	for _, bad := range []string{"<script", "alert", "onclick"} {
		if strings.Contains(got, bad) {
			t.Fatalf("untrusted output contains %q: %q", bad, got)
		}
	}
	if !strings.Contains(got, "hello") {
		t.Fatalf("safe content dropped: %q", got)
	}
}

func TestRefreshPreview_TrustedKeepsRawHTML(t *testing.T) {
	_, c := newCell(t, "<div class=\"note\">raw</div>\n", true)
	tc, out := newView(c, nil)
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.InnerHTML(), `<div class="note">raw</div>`) {
		t.Fatalf("trusted output lost raw html: %q", out.InnerHTML())
	}
}

func TestRefreshPreview_TrustChangeRerendersAndDisposesOld(t *testing.T) {
	nb, c := newCell(t, "text", true)
	conv := &countingConverter{inner: markdown.New()}
	tc, out := newView(c, conv)
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	nb.TrustedMode = false
	if err := tc.RefreshPreview(); err != nil {
		t.Fatal(err)
	}
	if conv.calls != 2 || out.Writes() != 2 {
		t.Fatalf("trust change must re-render: calls=%d writes=%d", conv.calls, out.Writes())
	}
	if !conv.results[0].Disposed() || conv.results[1].Disposed() {
		t.Fatalf("old result must be disposed before replacement, new one kept")
	}
	tc.Close()
	if !conv.results[1].Disposed() || tc.Result() != nil {
		t.Fatalf("Close must dispose the current result")
	}
}

func TestRefreshPreview_ConverterErrorPropagates(t *testing.T) {
	_, c := newCell(t, "x", true)
	boom := errors.New("boom")
	conv := &countingConverter{inner: markdown.New(), err: boom}
	tc, out := newView(c, conv)
	err := tc.SetMode(ModePreview)
	if !errors.Is(err, boom) {
		t.Fatalf("expected converter error, got %v", err)
	}
	if out.Writes() != 0 || c.Loaded {
		t.Fatalf("failed render must not touch the surface")
	}
	conv.err = nil
	if err := tc.RefreshPreview(); err != nil || out.Writes() != 1 {
		t.Fatalf("retry after error should render: err=%v writes=%d", err, out.Writes())
	}
}

func TestRefreshPreview_WriteErrorKeepsSnapshot(t *testing.T) {
	_, c := newCell(t, "# Title", true)
	tc, out := newView(c, nil)
	out.Detach()
	if err := tc.SetMode(ModePreview); !errors.Is(err, dom.ErrDetached) {
		t.Fatalf("expected ErrDetached, got %v", err)
	}
	if tc.Result() != nil || c.Loaded || out.Writes() != 0 {
		t.Fatalf("failed write must leave the snapshot untouched")
	}
	out.Attach()
	if err := tc.RefreshPreview(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.Writes() != 1 || !strings.Contains(out.InnerHTML(), "Title") {
		t.Fatalf("retry should write the preview: writes=%d html=%q", out.Writes(), out.InnerHTML())
	}
}

func TestRefreshPreview_WithoutSurface(t *testing.T) {
	_, c := newCell(t, "a\n\nb", true)
	tc := New(c, Options{Logger: quiet})
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatalf("render without surface: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.RenderedOutputTextContent); diff != "" {
		t.Fatalf("text output (-want +got):\n%s", diff)
	}
	tc.ApplyDecoration(&notebook.Range{StartLine: 1, EndLine: 1}, &notebook.Range{StartLine: 2, EndLine: 2})
}

func TestToggleMode_RoundTripKeepsHTML(t *testing.T) {
	_, c := newCell(t, "| a |\n|---|\n| 1 |\n", true)
	ed := &focusEditor{}
	out := dom.NewSurface("div")
	tc := New(c, Options{Output: out, Editor: ed, Logger: quiet})
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	before := out.InnerHTML()
	if err := tc.ToggleMode(); err != nil {
		t.Fatal(err)
	}
	if tc.Mode() != ModeEdit || ed.focused != 1 || tc.Editor() == nil {
		t.Fatalf("edit mode should focus the editor: mode=%v focused=%d", tc.Mode(), ed.focused)
	}
	if err := tc.ToggleMode(); err != nil {
		t.Fatal(err)
	}
	if tc.Editor() != nil {
		t.Fatalf("no editor in preview mode")
	}
	if got := out.InnerHTML(); got != before {
		t.Fatalf("round trip changed html:\n%s\nvs\n%s", before, got)
	}
}

func TestMoreActionsVisibility(t *testing.T) {
	_, c := newCell(t, "x", true)
	more := dom.NewSurface("div")
	tc := New(c, Options{MoreActions: more, Logger: quiet})

	tc.SetHover(true)
	if tc.MoreActionsVisible() {
		t.Fatalf("never visible in edit mode")
	}
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	if !tc.MoreActionsVisible() || more.Style("visibility") != "visible" {
		t.Fatalf("hovered preview cell should show more actions")
	}
	tc.SetHover(false)
	if tc.MoreActionsVisible() {
		t.Fatalf("no hover, not active: hidden")
	}
	tc.SetActive(true)
	if !tc.MoreActionsVisible() {
		t.Fatalf("active preview cell should show more actions")
	}
	tc.SetHover(false)
	if !tc.MoreActionsVisible() {
		t.Fatalf("hover change must not hide an active cell's actions")
	}
	if more.Style("visibility") != "visible" {
		t.Fatalf("style not applied")
	}
}

func TestApplyDecoration(t *testing.T) {
	_, c := newCell(t, "first\n\nsecond\n\nthird", true)
	tc, out := newView(c, nil)
	var scrolled []string
	out.OnScroll(func(el *dom.Element) { scrolled = append(scrolled, el.InnerText()) })
	if err := tc.SetMode(ModePreview); err != nil {
		t.Fatal(err)
	}
	tc.ApplyDecoration(&notebook.Range{StartLine: 2, EndLine: 2}, nil)
	units := tc.Elements()
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if !units[1].HasClass(DefaultHighlightClass) || units[0].HasClass(DefaultHighlightClass) {
		t.Fatalf("highlight on wrong unit")
	}
	if diff := cmp.Diff([]string{"second"}, scrolled); diff != "" {
		t.Fatalf("scroll targets (-want +got):\n%s", diff)
	}

	tc.ApplyDecoration(&notebook.Range{StartLine: 3, EndLine: 3}, &notebook.Range{StartLine: 2, EndLine: 2})
	units = tc.Elements()
	if units[1].HasClass(DefaultHighlightClass) || !units[2].HasClass(DefaultHighlightClass) {
		t.Fatalf("highlight should move to unit 3")
	}

	// out-of-range lines are ignored
	tc.ApplyDecoration(&notebook.Range{StartLine: 9}, &notebook.Range{StartLine: 0})
	tc.ApplyDecoration(nil, nil)
}

func TestInit_ThemeAndActiveCell(t *testing.T) {
	nb, c := newCell(t, "body", true)
	other := notebook.NewCell("c2", notebook.Markdown, "other")
	nb.Append(other)
	nb.UpdateActiveCell(c)

	themes := theme.NewService("vitesse-dark")
	out := dom.NewSurface("div")
	more := dom.NewSurface("div")
	tc := New(c, Options{Output: out, MoreActions: more, Theme: themes, Logger: quiet})
	if err := tc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer tc.Close()
	if tc.Mode() != ModeEdit {
		t.Fatalf("active cell should start in edit mode")
	}
	if got := out.Style("border-top-color"); got != theme.VitesseDark.Hex(theme.SideBarBackground) {
		t.Fatalf("border-top-color = %q", got)
	}
	if err := themes.Set("vitesse-light"); err != nil {
		t.Fatal(err)
	}
	if got := more.Style("border-right-color"); got != theme.VitesseLight.Hex(theme.SideBarBackground) {
		t.Fatalf("theme change not applied: %q", got)
	}

	if err := tc.SetActiveCellID("c2"); err != nil {
		t.Fatal(err)
	}
	if tc.Mode() != ModePreview || out.HasClass(DefaultUserSelectClass) {
		t.Fatalf("losing focus should switch to preview and drop user-select")
	}
	if err := tc.SetActiveCellID("c1"); err != nil {
		t.Fatal(err)
	}
	if !out.HasClass(DefaultUserSelectClass) {
		t.Fatalf("active cell should allow user select")
	}

	c.SetSource("changed")
	c.NotifyOutputsChanged()
	if !strings.Contains(out.InnerHTML(), "changed") {
		t.Fatalf("outputs-changed should refresh the preview: %q", out.InnerHTML())
	}
}

func TestHandleEscape(t *testing.T) {
	nb, c := newCell(t, "body", true)
	nb.UpdateActiveCell(c)
	tc, _ := newView(c, nil)
	if err := tc.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tc.HandleEscape(); err != nil {
		t.Fatal(err)
	}
	if tc.Mode() != ModePreview || c.Active || nb.ActiveCellID != "" {
		t.Fatalf("escape should leave edit mode and clear the active cell")
	}
}

func TestClickLink(t *testing.T) {
	nb := notebook.New("/work/book.ipynb")
	c := notebook.NewCell("c1", notebook.Markdown, "x")
	nb.Append(c)
	tc := New(c, Options{Logger: quiet})
	var got []string
	unsub := tc.OnDidClickLink(func(u *url.URL) { got = append(got, u.String()) })
	if err := tc.ClickLink("img/a.png"); err != nil {
		t.Fatal(err)
	}
	unsub()
	if err := tc.ClickLink("https://example.test"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !strings.HasSuffix(got[0], "/work/img/a.png") || !strings.HasPrefix(got[0], "file://") {
		t.Fatalf("unexpected clicks: %v", got)
	}
}
