package cellview

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cellmark/internal/dom"
)

func tree(t *testing.T, htmlText string) *dom.Element {
	t.Helper()
	root := dom.NewElement("div")
	if err := root.SetInnerHTML(htmlText); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	return root
}

func tags(units []*dom.Element) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.TagName())
	}
	return out
}

func TestFlatten_TableExpandsToHeaderAndRows(t *testing.T) {
	root := tree(t, `<table><thead><tr><th>a</th><th>b</th></tr></thead>`+
		`<tbody><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></tbody></table>`)
	units := Flatten(root)
	if diff := cmp.Diff([]string{"thead", "tr", "tr"}, tags(units)); diff != "" {
		t.Fatalf("units (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a\tb", "1\t2", "3\t4"}, TextOutput(units)); diff != "" {
		t.Fatalf("text (-want +got):\n%s", diff)
	}
}

func TestFlatten_ParagraphIsAtomic(t *testing.T) {
	root := tree(t, `<p><span>a</span><span>b</span><span>c</span></p>`)
	units := Flatten(root)
	if len(units) != 1 || units[0].TagName() != "p" {
		t.Fatalf("expected one paragraph unit, got %v", tags(units))
	}
}

func TestFlatten_NestedContainers(t *testing.T) {
	root := tree(t, `<h1>Title</h1>`+
		`<ul><li>one <em>x</em> <b>y</b></li><li>two</li></ul>`+
		`<blockquote><p>q1</p><div><p>q2</p><p>q3</p></div></blockquote>`+
		`<div><span>solo</span></div>`)
	units := Flatten(root)
	want := []string{"h1", "li", "li", "p", "p", "p", "div"}
	if diff := cmp.Diff(want, tags(units)); diff != "" {
		t.Fatalf("units (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Title", "one x y", "two", "q1", "q2", "q3", "solo"}, TextOutput(units)); diff != "" {
		t.Fatalf("text (-want +got):\n%s", diff)
	}
}

func TestFlatten_NestedTableIsNotDescended(t *testing.T) {
	root := tree(t, `<blockquote><p>before</p><table><thead><tr><th>h</th></tr></thead>`+
		`<tbody><tr><td>r</td></tr></tbody></table></blockquote>`)
	if diff := cmp.Diff([]string{"p", "thead", "tr"}, tags(Flatten(root))); diff != "" {
		t.Fatalf("units (-want +got):\n%s", diff)
	}
}

func TestFlatten_HeaderOnlyTable(t *testing.T) {
	root := tree(t, `<table><thead><tr><th>only</th></tr></thead></table>`)
	if diff := cmp.Diff([]string{"thead"}, tags(Flatten(root))); diff != "" {
		t.Fatalf("units (-want +got):\n%s", diff)
	}
}

func TestFlatten_EmptyAndNil(t *testing.T) {
	if got := Flatten(nil); got != nil {
		t.Fatalf("nil root should give nil")
	}
	units := Flatten(tree(t, `<p></p><hr>`))
	if diff := cmp.Diff([]string{"", ""}, TextOutput(units)); diff != "" {
		t.Fatalf("empty units must give empty strings:\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	root := tree(t, `<table></table><p>x</p><ul><li>a</li><li>b</li></ul><h2>t</h2>`)
	kids := root.Children()
	got := []Kind{Classify(kids[0]), Classify(kids[1]), Classify(kids[2]), Classify(kids[2].Children()[0]), Classify(kids[3])}
	want := []Kind{KindTable, KindParagraph, KindContainer, KindListItem, KindLeaf}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("kinds (-want +got):\n%s", diff)
	}
}
