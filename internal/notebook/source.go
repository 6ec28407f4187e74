package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source is cell source as nbformat stores it: a list of lines, each
// keeping its trailing newline. A plain JSON string is accepted too.
type Source []string

// SourceFromString splits s into nbformat lines.
func SourceFromString(s string) Source {
	if s == "" {
		return Source{}
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return Source(parts)
}

// Joined returns the source as one string.
func (s Source) Joined() string { return strings.Join(s, "") }

// IsEmpty reports whether the joined source is "".
func (s Source) IsEmpty() bool {
	for _, l := range s {
		if l != "" {
			return false
		}
	}
	return true
}

// UnmarshalJSON accepts a string or an array of strings.
func (s *Source) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = SourceFromString(str)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err != nil {
		return fmt.Errorf("%w: source must be a string or list of strings", ErrFormat)
	}
	*s = Source(lines)
	return nil
}

// MarshalJSON always writes the list form.
func (s Source) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
