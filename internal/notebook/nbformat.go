package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// File is the nbformat 4 wire shape.
type File struct {
	Cells         []FileCell     `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat" jsonschema:"enum=4"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// FileCell is one cell on the wire.
type FileCell struct {
	ID             string          `json:"id,omitempty"`
	CellType       CellType        `json:"cell_type" jsonschema:"enum=markdown,enum=code,enum=raw"`
	Metadata       map[string]any  `json:"metadata"`
	Source         Source          `json:"source"`
	Outputs        json.RawMessage `json:"outputs,omitempty"`
	ExecutionCount json.RawMessage `json:"execution_count,omitempty"`
}

// Load reads an .ipynb file. A missing file is ErrNotFound.
func Load(path string) (*Notebook, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	nb, err := Parse(b, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nb, nil
}

// Parse decodes notebook JSON. path only sets Path and URI.
// Cells without an id get "cell-<index>", suffixed when that id is taken.
// Duplicate explicit ids are ErrFormat.
func Parse(b []byte, path string) (*Notebook, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if f.NBFormat != 4 {
		return nil, fmt.Errorf("%w: nbformat %d not supported", ErrFormat, f.NBFormat)
	}
	nb := New(path)
	nb.metadata = f.Metadata
	nb.formatMinor = f.NBFormatMinor
	taken := make(map[string]bool, len(f.Cells))
	for i, fc := range f.Cells {
		switch fc.CellType {
		case Markdown, Code, Raw:
		default:
			return nil, fmt.Errorf("%w: cell %d has cell_type %q", ErrFormat, i, fc.CellType)
		}
		if fc.ID == "" {
			continue
		}
		if taken[fc.ID] {
			return nil, fmt.Errorf("%w: duplicate cell id %q", ErrFormat, fc.ID)
		}
		taken[fc.ID] = true
	}
	for i, fc := range f.Cells {
		id := fc.ID
		if id == "" {
			id = freeID(taken, "cell-"+strconv.Itoa(i))
			taken[id] = true
		}
		nb.Append(&Cell{
			ID:             id,
			GUID:           uuid.NewString(),
			Type:           fc.CellType,
			Source:         fc.Source,
			metadata:       fc.Metadata,
			outputs:        fc.Outputs,
			executionCount: fc.ExecutionCount,
		})
	}
	return nb, nil
}

func freeID(taken map[string]bool, base string) string {
	id := base
	for n := 1; taken[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

// Marshal encodes the notebook as indented nbformat JSON. Cell ids are
// only written for nbformat 4.5 and later.
func (nb *Notebook) Marshal() ([]byte, error) {
	f := File{
		Metadata:      nb.metadata,
		NBFormat:      4,
		NBFormatMinor: nb.formatMinor,
		Cells:         make([]FileCell, 0, len(nb.Cells)),
	}
	if f.Metadata == nil {
		f.Metadata = map[string]any{}
	}
	for _, c := range nb.Cells {
		md := c.metadata
		if md == nil {
			md = map[string]any{}
		}
		fc := FileCell{
			CellType: c.Type,
			Metadata: md,
			Source:   c.Source,
		}
		if nb.formatMinor >= 5 {
			fc.ID = c.ID
		}
		if c.Type == Code {
			fc.Outputs = c.outputs
			fc.ExecutionCount = c.executionCount
			if fc.Outputs == nil {
				fc.Outputs = json.RawMessage("[]")
			}
			if fc.ExecutionCount == nil {
				fc.ExecutionCount = json.RawMessage("null")
			}
		}
		f.Cells = append(f.Cells, fc)
	}
	return json.MarshalIndent(f, "", " ")
}

// Save writes the notebook to path.
func (nb *Notebook) Save(path string) error {
	b, err := nb.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
