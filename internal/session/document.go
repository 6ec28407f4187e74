package session

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"cellmark/internal/notebook"
	"cellmark/internal/theme"
)

type pageCell struct {
	ID       string
	Markdown bool
	Mode     string
	Body     template.HTML
	Code     string
	More     template.HTML
}

type pageData struct {
	Title     string
	Trusted   bool
	Theme     theme.Theme
	Highlight string
	CodeCSS   template.CSS
	Cells     []pageCell
}

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"color": func(t theme.Theme, id string) template.CSS { return template.CSS(t.Hex(id)) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: {{color .Theme "editor.background"}}; color: {{color .Theme "foreground"}}; font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; }
.cell { position: relative; margin: 0 0 1rem; }
.preview { border-top: 1px solid; padding: .5rem 1rem; }
.preview h1, .preview h2, .preview h3 { color: {{color .Theme "markdown.heading"}}; }
.preview a { color: {{color .Theme "textLink.foreground"}}; }
.preview table { border-collapse: collapse; }
.preview td, .preview th { border: 1px solid {{color .Theme "sideBar.background"}}; padding: .2rem .6rem; }
.more-actions { position: absolute; top: 0; right: 0; border-right: 2px solid; }
.code-cell { background: {{color .Theme "sideBar.background"}}; color: {{color .Theme "textPreformat.foreground"}}; padding: .5rem 1rem; overflow-x: auto; }
.{{.Highlight}} { background: {{color .Theme "editor.rangeHighlightBackground"}}; outline: 1px solid {{color .Theme "focusBorder"}}; }
{{.CodeCSS}}
</style>
</head>
<body data-trusted="{{.Trusted}}">
{{range .Cells}}<section class="cell" id="cell-{{.ID}}"{{if .Mode}} data-mode="{{.Mode}}"{{end}}>
{{if .Markdown}}{{.More}}{{.Body}}{{else}}<pre class="code-cell"><code>{{.Code}}</code></pre>{{end}}
</section>
{{end}}</body>
</html>
`))

// WriteDocument renders the notebook as a standalone HTML page: markdown
// cells as their current previews, code cells as escaped source.
func (s *Session) WriteDocument(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var css bytes.Buffer
	if err := s.conv.WriteCSS(&css); err != nil {
		return fmt.Errorf("code css: %w", err)
	}
	title := "notebook"
	if s.nb.Path != "" {
		title = strings.TrimSuffix(filepath.Base(s.nb.Path), filepath.Ext(s.nb.Path))
	}
	data := pageData{
		Title:     title,
		Trusted:   s.nb.TrustedMode,
		Theme:     s.themes.Current(),
		Highlight: s.settings.HighlightClass,
		CodeCSS:   template.CSS(css.String()),
	}
	for _, c := range s.nb.Cells {
		pc := pageCell{ID: c.ID, Markdown: c.Type == notebook.Markdown}
		if v, ok := s.byID[c.ID]; ok {
			pc.Mode = v.Mode().String()
			// already sanitized for untrusted notebooks
			pc.Body = template.HTML(v.Output().OuterHTML())
			if more, ok := s.more[c.ID]; ok {
				pc.More = template.HTML(more.OuterHTML())
			}
		} else {
			pc.Markdown = false
			pc.Code = c.Source.Joined()
		}
		data.Cells = append(data.Cells, pc)
	}
	return page.Execute(w, data)
}

// Document is WriteDocument into a string.
func (s *Session) Document() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteDocument(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
