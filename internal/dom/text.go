package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags start a new line in InnerText.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "thead": true, "tfoot": true, "tr": true,
	"ul": true,
}

// InnerText approximates the rendered text of the element: whitespace is
// collapsed outside <pre>, block elements break lines and table cells are
// separated by tabs. Script and style contents are skipped. Blank lines
// are dropped.
func (e *Element) InnerText() string {
	var w textWriter
	w.walk(e.n, false)
	lines := strings.Split(w.b.String(), "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = strings.TrimRight(ln, " \t")
		if ln == "" {
			continue
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

type textWriter struct {
	b     strings.Builder
	space bool
}

func (w *textWriter) last() byte {
	s := w.b.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (w *textWriter) newline() {
	if l := w.last(); l != 0 && l != '\n' {
		w.b.WriteByte('\n')
	}
	w.space = false
}

func (w *textWriter) sep() {
	switch w.last() {
	case 0, '\n', '\t', ' ':
		return
	}
	w.b.WriteByte(' ')
}

func (w *textWriter) text(s string) {
	fields := strings.FieldsFunc(s, isSpace)
	if len(fields) == 0 {
		if s != "" {
			w.space = true
		}
		return
	}
	if isSpace(rune(s[0])) {
		w.space = true
	}
	for i, f := range fields {
		if i > 0 || w.space {
			w.sep()
		}
		w.b.WriteString(f)
		w.space = false
	}
	if isSpace(rune(s[len(s)-1])) {
		w.space = true
	}
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			w.b.WriteString(n.Data)
			w.space = false
			return
		}
		w.text(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "script", "style", "template":
			return
		case "br":
			w.newline()
			return
		case "td", "th":
			if prevElement(n) != nil {
				w.b.WriteByte('\t')
				w.space = false
			}
		}
		block := blockTags[tag]
		if block {
			w.newline()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, pre || tag == "pre")
		}
		if block {
			w.newline()
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, pre)
	}
}

func prevElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}
