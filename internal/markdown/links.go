package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// linkResolver rewrites relative link and image destinations against the
// notebook URI.
type linkResolver struct {
	base *url.URL
}

func (l *linkResolver) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	if l.base == nil {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			v.Destination = l.resolve(v.Destination)
		case *ast.Image:
			v.Destination = l.resolve(v.Destination)
		}
		return ast.WalkContinue, nil
	})
}

func (l *linkResolver) resolve(dest []byte) []byte {
	s := strings.TrimSpace(string(dest))
	if s == "" || strings.HasPrefix(s, "#") {
		return dest
	}
	ref, err := url.Parse(s)
	if err != nil || ref.IsAbs() || ref.Host != "" {
		return dest
	}
	return []byte(l.base.ResolveReference(ref).String())
}
