package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElement_ClassList(t *testing.T) {
	e := NewElement("p")
	e.AddClass("a")
	e.AddClass("b")
	e.AddClass("a")
	if diff := cmp.Diff([]string{"a", "b"}, e.Classes()); diff != "" {
		t.Fatalf("classes mismatch (-want +got):\n%s", diff)
	}
	e.RemoveClass("a")
	if !e.HasClass("b") || e.HasClass("a") {
		t.Fatalf("unexpected classes: %v", e.Classes())
	}
	e.RemoveClass("b")
	if _, ok := e.Attr("class"); ok {
		t.Fatalf("empty class attr should be removed")
	}
}

func TestElement_Style(t *testing.T) {
	e := NewElement("div")
	e.SetStyle("border-top-color", "#111")
	e.SetStyle("color", "red")
	e.SetStyle("border-top-color", "#222")
	if got := e.Style("border-top-color"); got != "#222" {
		t.Fatalf("Style = %q", got)
	}
	if v, _ := e.Attr("style"); v != "border-top-color: #222; color: red" {
		t.Fatalf("style attr = %q", v)
	}
}

func TestElement_SetInnerHTML(t *testing.T) {
	e := NewElement("div")
	if err := e.SetInnerHTML("<p>one</p>\n<p>two</p>"); err != nil {
		t.Fatalf("SetInnerHTML error: %v", err)
	}
	kids := e.Children()
	if len(kids) != 2 || kids[0].TagName() != "p" {
		t.Fatalf("unexpected children: %d", len(kids))
	}
	if got := e.InnerHTML(); got != "<p>one</p>\n<p>two</p>" {
		t.Fatalf("InnerHTML = %q", got)
	}
	if err := e.SetInnerHTML("<h1>x</h1>"); err != nil {
		t.Fatal(err)
	}
	if e.ChildCount() != 1 {
		t.Fatalf("previous content must be replaced")
	}
}

func TestElement_InnerText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"inline", "<p>Hello <b>big</b>  world</p>", "Hello big world"},
		{"row", "<table><tr><th>A</th><th>B</th></tr></table>", "A\tB"},
		{"blocks", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"script", "<p>x<script>alert(1)</script></p>", "x"},
		{"pre", "<pre>a  b\nc</pre>", "a  b\nc"},
		{"empty", "<p> </p>", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewElement("div")
			if err := e.SetInnerHTML(tc.in); err != nil {
				t.Fatal(err)
			}
			if got := e.InnerText(); got != tc.want {
				t.Fatalf("InnerText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSurface_WritesAndScroll(t *testing.T) {
	s := NewSurface("div")
	var scrolled *Element
	s.OnScroll(func(el *Element) { scrolled = el })
	if err := s.Write("<p>a</p>"); err != nil {
		t.Fatal(err)
	}
	if s.Writes() != 1 {
		t.Fatalf("Writes = %d", s.Writes())
	}
	p := s.Children()[0]
	s.ScrollIntoView(p)
	if scrolled == nil || scrolled.Node() != p.Node() {
		t.Fatalf("scroll hook not invoked with target")
	}
}
