package notebook

import (
	"fmt"
	"strconv"
	"strings"
)

// Range addresses lines of a cell's rendered output. Lines are 1-based
// flattened unit indices.
type Range struct {
	CellID      string `json:"cellId,omitempty"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn,omitempty"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn,omitempty"`
}

// ParseRange parses "cell:line" or "cell:start-end".
func ParseRange(s string) (Range, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Range{}, fmt.Errorf("range %q: want <cell>:<line>[-<line>]", s)
	}
	r := Range{CellID: s[:i]}
	lines := s[i+1:]
	start, end, hasEnd := strings.Cut(lines, "-")
	var err error
	if r.StartLine, err = strconv.Atoi(start); err != nil || r.StartLine < 1 {
		return Range{}, fmt.Errorf("range %q: bad start line", s)
	}
	r.EndLine = r.StartLine
	if hasEnd {
		if r.EndLine, err = strconv.Atoi(end); err != nil || r.EndLine < r.StartLine {
			return Range{}, fmt.Errorf("range %q: bad end line", s)
		}
	}
	return r, nil
}

func (r Range) String() string {
	if r.EndLine > r.StartLine {
		return fmt.Sprintf("%s:%d-%d", r.CellID, r.StartLine, r.EndLine)
	}
	return fmt.Sprintf("%s:%d", r.CellID, r.StartLine)
}
