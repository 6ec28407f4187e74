// Package find searches the rendered text of markdown cells.
package find

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"cellmark/internal/notebook"
)

// Match is one hit: a decoration range plus the matched line.
type Match struct {
	Range notebook.Range `json:"range"`
	Text  string         `json:"text"`
	Score int            `json:"score"`
	// Positions are rune offsets of the matched characters in Text.
	Positions []int `json:"positions"`
}

// source adapts per-cell text lines to fuzzy.Source.
type source struct {
	lines []lineRef
}

type lineRef struct {
	cellID string
	line   int
	text   string
}

func (s source) String(i int) string { return s.lines[i].text }
func (s source) Len() int            { return len(s.lines) }

// Cells searches each cell's RenderedOutputTextContent. Results are
// ordered by score, then by document position. An empty query matches
// nothing.
func Cells(cells []*notebook.Cell, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var src source
	order := map[string]int{}
	for i, c := range cells {
		order[c.ID] = i
		for j, text := range c.RenderedOutputTextContent {
			if text == "" {
				continue
			}
			src.lines = append(src.lines, lineRef{cellID: c.ID, line: j + 1, text: text})
		}
	}
	hits := fuzzy.FindFrom(query, src)
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		ref := src.lines[h.Index]
		out = append(out, Match{
			Range:     notebook.Range{CellID: ref.cellID, StartLine: ref.line, EndLine: ref.line},
			Text:      ref.text,
			Score:     h.Score,
			Positions: h.MatchedIndexes,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci, cj := order[out[i].Range.CellID], order[out[j].Range.CellID]
		if ci != cj {
			return ci < cj
		}
		return out[i].Range.StartLine < out[j].Range.StartLine
	})
	return out
}
