// Package schema publishes JSON Schemas for the files cellmark reads.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"cellmark/internal/config"
	"cellmark/internal/notebook"
)

// Marshal indents the schema to JSON bytes.
func Marshal(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}

// Notebook is the schema of the nbformat 4 subset cellmark understands.
func Notebook() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true}
	sch := r.Reflect(&notebook.File{})
	sch.Title = "cellmark notebook (nbformat 4)"
	sch.Description = "Jupyter notebook fields read and written by cellmark."
	return sch
}

// Settings is the schema of config.yaml.
func Settings() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true}
	sch := r.Reflect(&config.Settings{})
	sch.Title = "cellmark settings"
	sch.Description = "Contents of config.yaml in the cellmark config directory."
	return sch
}

// ByName maps the names accepted by `cellmark schema`.
func ByName(name string) (*jsonschema.Schema, bool) {
	switch name {
	case "", "notebook":
		return Notebook(), true
	case "settings", "config":
		return Settings(), true
	}
	return nil, false
}
