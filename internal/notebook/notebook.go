// Package notebook holds the cell and notebook models the renderer reads
// from, and the nbformat 4 reader/writer.
package notebook

import (
	"errors"
	"net/url"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrFormat marks input that is not an nbformat 4 notebook.
	ErrFormat = errors.New("invalid notebook format")
	// ErrNotFound is returned for unknown cell ids and missing files.
	ErrNotFound = errors.New("not found")
)

// CellType is the nbformat cell_type.
type CellType string

const (
	Markdown CellType = "markdown"
	Code     CellType = "code"
	Raw      CellType = "raw"
)

// Cell is one notebook cell.
type Cell struct {
	ID     string
	GUID   string
	Type   CellType
	Source Source

	// Active is true while the cell is the notebook's active cell.
	Active bool
	// Loaded is set once a preview has been rendered.
	Loaded bool
	// RenderedOutputTextContent is the plain text of each flattened
	// rendered unit, refreshed on every preview render.
	RenderedOutputTextContent []string

	metadata       map[string]any
	outputs        []byte
	executionCount []byte

	nb *Notebook

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func()
}

// NewCell creates a detached cell.
func NewCell(id string, typ CellType, source string) *Cell {
	return &Cell{
		ID:     id,
		GUID:   uuid.NewString(),
		Type:   typ,
		Source: SourceFromString(source),
	}
}

// Notebook returns the owning notebook, or nil for a detached cell.
func (c *Cell) Notebook() *Notebook { return c.nb }

// TrustedMode is the owning notebook's trust flag; detached cells are
// untrusted.
func (c *Cell) TrustedMode() bool {
	return c.nb != nil && c.nb.TrustedMode
}

// SetSource replaces the source.
func (c *Cell) SetSource(s string) { c.Source = SourceFromString(s) }

// OnOutputsChanged registers fn and returns its unsubscribe func.
func (c *Cell) OnOutputsChanged(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listeners == nil {
		c.listeners = map[int]func(){}
	}
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// NotifyOutputsChanged calls every listener in subscription order.
func (c *Cell) NotifyOutputsChanged() {
	c.mu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Notebook is an nbformat 4 document.
type Notebook struct {
	URI          *url.URL
	Path         string
	TrustedMode  bool
	Cells        []*Cell
	ActiveCellID string

	metadata    map[string]any
	formatMinor int
}

// New creates an empty notebook at path (may be "").
func New(path string) *Notebook {
	nb := &Notebook{Path: path, formatMinor: 5}
	if path != "" {
		nb.URI = fileURI(path)
	}
	return nb
}

// Append attaches c to the notebook.
func (nb *Notebook) Append(c *Cell) {
	c.nb = nb
	if c.GUID == "" {
		c.GUID = uuid.NewString()
	}
	nb.Cells = append(nb.Cells, c)
}

// Cell looks up a cell by id.
func (nb *Notebook) Cell(id string) (*Cell, error) {
	for _, c := range nb.Cells {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// MarkdownCells returns the markdown cells in order.
func (nb *Notebook) MarkdownCells() []*Cell {
	var out []*Cell
	for _, c := range nb.Cells {
		if c.Type == Markdown {
			out = append(out, c)
		}
	}
	return out
}

// UpdateActiveCell makes c the active cell; nil clears it.
func (nb *Notebook) UpdateActiveCell(c *Cell) {
	for _, other := range nb.Cells {
		other.Active = false
	}
	if c == nil {
		nb.ActiveCellID = ""
		return
	}
	c.Active = true
	nb.ActiveCellID = c.ID
}

func fileURI(path string) *url.URL {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}
