// Package theme supplies color themes and change notifications.
//
// Palettes are based on Vitesse:
// https://github.com/antfu/vscode-theme-vitesse
package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Color identifiers.
const (
	SideBarBackground = "sideBar.background"
	EditorBackground  = "editor.background"
	Foreground        = "foreground"
	MutedForeground   = "descriptionForeground"
	FocusBorder       = "focusBorder"
	Highlight         = "editor.rangeHighlightBackground"
	Heading           = "markdown.heading"
	CodeForeground    = "textPreformat.foreground"
	LinkForeground    = "textLink.foreground"
)

// Theme is a named color table.
type Theme struct {
	Name   string
	Dark   bool
	Colors map[string]lipgloss.Color
}

// Color returns the color for id, or "" when the theme does not define it.
func (t Theme) Color(id string) lipgloss.Color {
	return t.Colors[id]
}

// Hex returns the color as #RRGGBB, dropping any alpha channel.
func (t Theme) Hex(id string) string {
	s := string(t.Color(id))
	if strings.HasPrefix(s, "#") && len(s) == 9 {
		return s[:7]
	}
	return s
}

// VitesseDark is the default theme.
var VitesseDark = Theme{
	Name: "vitesse-dark",
	Dark: true,
	Colors: map[string]lipgloss.Color{
		SideBarBackground: "#292929",
		EditorBackground:  "#181818",
		Foreground:        "#dbd7caee",
		MutedForeground:   "#dedcd590",
		FocusBorder:       "#4d9375",
		Highlight:         "#e6cc7733",
		Heading:           "#6394bf",
		CodeForeground:    "#e6cc77",
		LinkForeground:    "#5eaab5",
	},
}

// VitesseLight is the light variant.
var VitesseLight = Theme{
	Name: "vitesse-light",
	Colors: map[string]lipgloss.Color{
		SideBarBackground: "#f7f7f7",
		EditorBackground:  "#ffffff",
		Foreground:        "#393a34",
		MutedForeground:   "#393a3490",
		FocusBorder:       "#1c6b48",
		Highlight:         "#dbd7ca44",
		Heading:           "#296aa3",
		CodeForeground:    "#b07d48",
		LinkForeground:    "#2993a3",
	},
}

var builtin = map[string]Theme{
	VitesseDark.Name:  VitesseDark,
	VitesseLight.Name: VitesseLight,
}

// Names lists the built-in theme names.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns a built-in theme by name.
func Lookup(name string) (Theme, bool) {
	t, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Provider is what cell views consume.
type Provider interface {
	Current() Theme
	OnDidColorThemeChange(fn func(Theme)) (unsubscribe func())
}

// Service is the in-process Provider.
type Service struct {
	mu        sync.Mutex
	current   Theme
	nextID    int
	listeners map[int]func(Theme)
}

// NewService starts on the named theme, falling back to VitesseDark.
func NewService(name string) *Service {
	t, ok := Lookup(name)
	if !ok {
		t = VitesseDark
	}
	return &Service{current: t, listeners: map[int]func(Theme){}}
}

// Current implements Provider.
func (s *Service) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set switches to the named theme and notifies listeners.
func (s *Service) Set(name string) error {
	t, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	s.mu.Lock()
	s.current = t
	fns := make([]func(Theme), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
	return nil
}

// OnDidColorThemeChange implements Provider.
func (s *Service) OnDidColorThemeChange(fn func(Theme)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
