// Package sanitize strips unsafe markup from rendered cell HTML.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer turns arbitrary HTML into HTML safe to show for an untrusted
// notebook.
type Sanitizer interface {
	Sanitize(html string) string
}

// Policy is the bluemonday-backed Sanitizer.
type Policy struct {
	p *bluemonday.Policy
}

var classNames = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

// New returns the default policy: bluemonday's UGC policy plus class
// attributes used by code highlighting and task-list checkboxes.
func New() *Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classNames).OnElements("code", "pre", "span", "div", "li", "ul")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("id").Matching(bluemonday.Paragraph).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &Policy{p: p}
}

// Sanitize implements Sanitizer.
func (s *Policy) Sanitize(html string) string {
	return s.p.Sanitize(html)
}

// Default is shared by renderers that are not given a sanitizer.
var Default Sanitizer = New()
