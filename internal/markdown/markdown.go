// Package markdown converts cell source into an HTML tree using goldmark.
//
// Raw HTML in the source passes through for trusted requests; the caller
// decides separately whether the output gets sanitized.
package markdown

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"cellmark/internal/dom"
)

// Request is one conversion input.
type Request struct {
	// IsTrusted lets raw HTML blocks through the converter. Untrusted
	// requests get goldmark's "raw HTML omitted" comment instead.
	IsTrusted bool
	Value     string
}

// Result owns the rendered tree until Dispose.
type Result struct {
	Element  *dom.Element
	disposed bool
}

// Dispose releases the tree. Safe to call more than once.
func (r *Result) Dispose() {
	if r == nil || r.disposed {
		return
	}
	r.disposed = true
	if r.Element != nil {
		r.Element.Clear()
	}
}

// Disposed reports whether Dispose has run.
func (r *Result) Disposed() bool { return r != nil && r.disposed }

// Renderer is the notebook markdown converter.
type Renderer struct {
	trusted   goldmark.Markdown
	untrusted goldmark.Markdown
	links     *linkResolver
	codeStyle string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCodeStyle selects the chroma style for fenced code blocks.
func WithCodeStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.codeStyle = name
		}
	}
}

// New builds a Renderer with GFM, typographer, heading ids and chroma
// highlighting (CSS classes, see CSS).
func New(opts ...Option) *Renderer {
	r := &Renderer{links: &linkResolver{}, codeStyle: "monokai"}
	for _, o := range opts {
		o(r)
	}
	r.trusted = r.build(html.WithUnsafe())
	r.untrusted = r.build()
	return r
}

func (r *Renderer) build(ropts ...renderer.Option) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(r.codeStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(r.links, 100)),
		),
		goldmark.WithRendererOptions(ropts...),
	)
}

// SetNotebookURI makes relative link and image destinations resolve against
// the notebook location. nil turns resolution off.
func (r *Renderer) SetNotebookURI(u *url.URL) { r.links.base = u }

// Render converts req.Value into a fresh tree.
func (r *Renderer) Render(req Request) (*Result, error) {
	md := r.untrusted
	if req.IsTrusted {
		md = r.trusted
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(req.Value), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	root := dom.NewElement("div")
	if err := root.SetInnerHTML(buf.String()); err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	return &Result{Element: root}, nil
}

// WriteCSS writes the stylesheet for the configured code style.
func (r *Renderer) WriteCSS(w io.Writer) error {
	st := styles.Get(r.codeStyle)
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, st)
}
