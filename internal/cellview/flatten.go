package cellview

import (
	"golang.org/x/net/html"

	"cellmark/internal/dom"
)

// Kind classifies a rendered element for flattening.
type Kind int

const (
	KindLeaf Kind = iota
	KindContainer
	KindParagraph
	KindListItem
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindParagraph:
		return "paragraph"
	case KindListItem:
		return "list-item"
	case KindTable:
		return "table"
	default:
		return "leaf"
	}
}

// Classify returns the kind of e. Tag-based kinds win over child count.
func Classify(e *dom.Element) Kind {
	switch e.TagName() {
	case "table":
		return KindTable
	case "p":
		return KindParagraph
	case "li":
		return KindListItem
	}
	if e.ChildCount() > 1 {
		return KindContainer
	}
	return KindLeaf
}

type expansion int

const (
	// atomic elements are one addressable unit.
	atomic expansion = iota
	// descend flattens each child in turn.
	descend
	// rows yields the header section, then every row of the body section.
	rows
)

var expansions = map[Kind]expansion{
	KindLeaf:      atomic,
	KindParagraph: atomic,
	KindListItem:  atomic,
	KindContainer: descend,
	KindTable:     rows,
}

// Flatten returns the addressable units under root in document order.
// Unit i is what decoration line i+1 targets.
func Flatten(root *dom.Element) []*dom.Element {
	if root == nil {
		return nil
	}
	f := flattener{seen: map[*html.Node]bool{}}
	for _, c := range root.Children() {
		f.visit(c)
	}
	return f.out
}

type flattener struct {
	out  []*dom.Element
	seen map[*html.Node]bool
}

func (f *flattener) add(e *dom.Element) {
	if e == nil || f.seen[e.Node()] {
		return
	}
	f.seen[e.Node()] = true
	f.out = append(f.out, e)
}

func (f *flattener) visit(e *dom.Element) {
	switch expansions[Classify(e)] {
	case descend:
		for _, c := range e.Children() {
			f.visit(c)
		}
	case rows:
		sections := e.Children()
		if len(sections) == 0 {
			return
		}
		f.add(sections[0])
		if len(sections) > 1 {
			for _, tr := range sections[1].Children() {
				f.add(tr)
			}
		}
	default:
		f.add(e)
	}
}

// TextOutput returns one string per unit: its rendered text, or "".
func TextOutput(units []*dom.Element) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		if u == nil {
			out = append(out, "")
			continue
		}
		out = append(out, u.InnerText())
	}
	return out
}
