package preview

import (
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"

	"cellmark/internal/cellview"
)

type keymap struct {
	Up, Down, Toggle, Escape key.Binding
	Find, Next, Prev         key.Binding
	Theme, Save, Quit        key.Binding
}

func newKeymap() keymap {
	return keymap{
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Toggle: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		Escape: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave")),
		Find:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
		Next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev")),
		Theme:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Save:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Find, k.Theme, k.Save, k.Quit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Escape},
		{k.Find, k.Next, k.Prev},
		{k.Theme, k.Save, k.Quit},
	}
}

// suggestions collects the distinct words of the rendered text, used as
// find prompt completions.
func suggestions(views []*cellview.TextCell) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range views {
		for _, line := range v.Cell().RenderedOutputTextContent {
			for _, w := range strings.FieldsFunc(line, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}) {
				if len([]rune(w)) < 3 || seen[w] {
					continue
				}
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	sort.Strings(out)
	return out
}
