package server

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxDepth bounds the notebook listing walk below Root.
const maxDepth = 4

type notebookEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (s *Server) root() string {
	if s.Root != "" {
		return s.Root
	}
	cwd, _ := os.Getwd()
	return cwd
}

// resolve maps a request path onto a file below Root.
func (s *Server) resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("missing path")
	}
	return secureJoin(s.root(), p)
}

// secureJoin joins base and p and ensures the result stays within base.
func secureJoin(base, p string) (string, error) {
	if filepath.IsAbs(p) {
		return "", errors.New("absolute path not allowed")
	}
	full := filepath.Join(base, filepath.Clean(p))
	// Resolve symlinks best-effort
	baseEval, _ := filepath.EvalSymlinks(base)
	fullEval, _ := filepath.EvalSymlinks(full)
	if baseEval == "" {
		baseEval = base
	}
	if fullEval == "" {
		fullEval = full
	}
	rel, err := filepath.Rel(baseEval, fullEval)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", errors.New("path escapes root")
	}
	return full, nil
}

// listNotebooks walks root for .ipynb files, skipping dot directories.
func listNotebooks(root string, depth int) ([]notebookEntry, error) {
	var out []notebookEntry
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		ents, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range ents {
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			p := filepath.Join(dir, name)
			if e.IsDir() {
				if depth > 1 {
					_ = walk(p, depth-1)
				}
				continue
			}
			if strings.EqualFold(filepath.Ext(name), ".ipynb") {
				out = append(out, notebookEntry{Path: relSafe(root, p), Name: name})
			}
		}
		return nil
	}
	if err := walk(root, depth); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func relSafe(root, p string) string {
	if r, err := filepath.Rel(root, p); err == nil {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(p)
}

// GET /api/notebooks lists the notebooks below Root.
func (s *Server) notebooksHandler(c *gin.Context) {
	list, err := listNotebooks(s.root(), maxDepth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebooks": list})
}

var index = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>cellmark</title></head>
<body>
<h1>cellmark</h1>
{{if .}}<ul>
{{range .}}<li><a href="/api/notebook?path={{.Path}}">{{.Path}}</a></li>
{{end}}</ul>{{else}}<p>No notebooks found.</p>{{end}}
</body>
</html>
`))

func (s *Server) indexHandler(c *gin.Context) {
	list, err := listNotebooks(s.root(), maxDepth)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := index.Execute(c.Writer, list); err != nil {
		s.log.Error("index render failed", "err", err)
	}
}
