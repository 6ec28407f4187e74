// Package trust persists which notebooks may render unsanitized HTML.
package trust

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cellmark/internal/config"
)

// Store is a JSON list of absolute notebook paths.
type Store struct {
	path string
}

// Open returns the store at <config dir>/trusted.json.
func Open() (*Store, error) {
	p, err := config.TrustedPath()
	if err != nil {
		return nil, err
	}
	return &Store{path: p}, nil
}

// At returns a store backed by an explicit file.
func At(path string) *Store { return &Store{path: path} }

// normalize makes paths absolute and clean, dedupes and sorts.
func normalize(in []string) []string {
	m := map[string]struct{}{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if abs, err := filepath.Abs(s); err == nil {
			s = abs
		}
		m[filepath.Clean(s)] = struct{}{}
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// List reads the trusted paths. A missing file yields an empty list.
func (s *Store) List() ([]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return nil, err
	}
	return normalize(arr), nil
}

func (s *Store) save(list []string) error {
	if strings.TrimSpace(s.path) == "" {
		return errors.New("empty trust store path")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(normalize(list), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

// IsTrusted reports whether notebookPath is in the store.
func (s *Store) IsTrusted(notebookPath string) (bool, error) {
	cur, err := s.List()
	if err != nil {
		return false, err
	}
	want := normalize([]string{notebookPath})
	if len(want) == 0 {
		return false, nil
	}
	i := sort.SearchStrings(cur, want[0])
	return i < len(cur) && cur[i] == want[0], nil
}

// Add trusts paths, returning which were added and which already were.
func (s *Store) Add(paths []string) (added []string, existed []string, err error) {
	cur, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	for _, p := range cur {
		set[p] = true
	}
	for _, p := range normalize(paths) {
		if set[p] {
			existed = append(existed, p)
		} else {
			set[p] = true
			added = append(added, p)
		}
	}
	next := make([]string, 0, len(set))
	for k := range set {
		next = append(next, k)
	}
	if err := s.save(next); err != nil {
		return nil, nil, err
	}
	return added, existed, nil
}

// Remove untrusts paths, returning which were removed and which were absent.
func (s *Store) Remove(paths []string) (removed []string, missing []string, err error) {
	cur, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	for _, p := range cur {
		set[p] = true
	}
	for _, p := range normalize(paths) {
		if set[p] {
			delete(set, p)
			removed = append(removed, p)
		} else {
			missing = append(missing, p)
		}
	}
	next := make([]string, 0, len(set))
	for k := range set {
		next = append(next, k)
	}
	if err := s.save(next); err != nil {
		return nil, nil, err
	}
	return removed, missing, nil
}
