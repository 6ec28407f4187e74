package find

import (
	"testing"

	"cellmark/internal/notebook"
)

func cell(id string, lines ...string) *notebook.Cell {
	c := notebook.NewCell(id, notebook.Markdown, "")
	c.RenderedOutputTextContent = lines
	return c
}

func TestCells_FindsLines(t *testing.T) {
	cells := []*notebook.Cell{
		cell("a", "Sales report", "", "north\t10"),
		cell("b", "Quarterly numbers", "south\t20"),
	}
	got := Cells(cells, "south")
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %+v", got)
	}
	if got[0].Range != (notebook.Range{CellID: "b", StartLine: 2, EndLine: 2}) {
		t.Fatalf("unexpected range %+v", got[0].Range)
	}

	got = Cells(cells, "nrth")
	if len(got) == 0 || got[0].Range.CellID != "a" || got[0].Range.StartLine != 3 {
		t.Fatalf("fuzzy match should hit a:3, got %+v", got)
	}
}

func TestCells_EmptyQuery(t *testing.T) {
	if got := Cells([]*notebook.Cell{cell("a", "x")}, "  "); got != nil {
		t.Fatalf("empty query should match nothing, got %+v", got)
	}
}
