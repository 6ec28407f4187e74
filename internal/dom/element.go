// Package dom is a small element API over golang.org/x/net/html trees.
//
// Rendered markdown is held as an *html.Node tree; Element adds the handful
// of DOM operations the cell renderer needs (class lists, inline styles,
// innerHTML and innerText) without pulling in a browser.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element wraps an element node.
type Element struct {
	n *html.Node
}

// Wrap returns nil when n is nil or not an element node.
func Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &Element{n: n}
}

// NewElement creates a detached element with the given tag.
func NewElement(tag string) *Element {
	tag = strings.ToLower(tag)
	return &Element{n: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

// Node exposes the underlying node.
func (e *Element) Node() *html.Node { return e.n }

// TagName returns the lower-case tag name.
func (e *Element) TagName() string { return strings.ToLower(e.n.Data) }

// Children returns element children in document order; text and comment
// nodes are skipped, matching the DOM's Element.children.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{n: c})
		}
	}
	return out
}

// ChildCount is len(Children()) without allocating.
func (e *Element) ChildCount() int {
	n := 0
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			n++
		}
	}
	return n
}

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	out := e.n.Attr[:0]
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	e.n.Attr = out
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether name is in the class list.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name unless already present.
func (e *Element) AddClass(name string) {
	if name == "" || e.HasClass(name) {
		return
	}
	e.SetAttr("class", strings.Join(append(e.Classes(), name), " "))
}

// RemoveClass drops name; the attribute is removed once the list is empty.
func (e *Element) RemoveClass(name string) {
	cls := e.Classes()
	out := cls[:0]
	for _, c := range cls {
		if c != name {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(out, " "))
}

// Style returns an inline style property value.
func (e *Element) Style(prop string) string {
	for _, d := range parseStyle(e.styleAttr()) {
		if d[0] == prop {
			return d[1]
		}
	}
	return ""
}

// SetStyle sets an inline style property, keeping declaration order.
func (e *Element) SetStyle(prop, val string) {
	decls := parseStyle(e.styleAttr())
	found := false
	for i := range decls {
		if decls[i][0] == prop {
			decls[i][1] = val
			found = true
		}
	}
	if !found {
		decls = append(decls, [2]string{prop, val})
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d[0]+": "+d[1])
	}
	e.SetAttr("style", strings.Join(parts, "; "))
}

func (e *Element) styleAttr() string {
	v, _ := e.Attr("style")
	return v
}

func parseStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out = append(out, [2]string{k, strings.TrimSpace(v)})
	}
	return out
}

// InnerHTML serializes the children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML serializes the element itself.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, e.n)
	return buf.String()
}

// SetInnerHTML replaces the children with the parsed fragment.
func (e *Element) SetInnerHTML(s string) error {
	nodes, err := html.ParseFragment(strings.NewReader(s), e.contextNode())
	if err != nil {
		return err
	}
	e.Clear()
	for _, c := range nodes {
		e.n.AppendChild(c)
	}
	return nil
}

// Clear detaches all children.
func (e *Element) Clear() {
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
}

func (e *Element) contextNode() *html.Node {
	if e.n.DataAtom != 0 {
		return e.n
	}
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}
