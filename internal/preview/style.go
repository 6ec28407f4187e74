package preview

import (
	ansi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"

	"cellmark/internal/theme"
)

// glamourStyle returns a glamour ANSI style config built from th so the
// terminal preview matches the HTML page colors.
func glamourStyle(th theme.Theme) ansi.StyleConfig {
	sp := func(s string) *string { return &s }
	bp := func(b bool) *bool { return &b }

	text := th.Hex(theme.Foreground)
	muted := th.Hex(theme.MutedForeground)
	heading := th.Hex(theme.Heading)
	code := th.Hex(theme.CodeForeground)
	link := th.Hex(theme.LinkForeground)
	accent := th.Hex(theme.FocusBorder)
	bgSoft := th.Hex(theme.SideBarBackground)

	h := ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(heading), Bold: bp(true)}}
	return ansi.StyleConfig{
		Document:   ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
		Paragraph:  ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
		BlockQuote: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(muted), Italic: bp(true)}},
		Heading:    h,
		H1:         h,
		H2:         h,
		H3:         h,
		H4:         h,
		H5:         h,
		H6:         h,

		Text:           ansi.StylePrimitive{Color: sp(text)},
		Emph:           ansi.StylePrimitive{Italic: bp(true)},
		Strong:         ansi.StylePrimitive{Bold: bp(true)},
		Strikethrough:  ansi.StylePrimitive{CrossedOut: bp(true)},
		HorizontalRule: ansi.StylePrimitive{Color: sp(muted)},
		Link:           ansi.StylePrimitive{Color: sp(link), Underline: bp(true)},
		LinkText:       ansi.StylePrimitive{Color: sp(link), Underline: bp(true)},

		Code: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(code), BackgroundColor: sp(bgSoft)}},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text), BackgroundColor: sp(bgSoft)}},
			Chroma: &ansi.Chroma{
				Text:          ansi.StylePrimitive{Color: sp(text)},
				Comment:       ansi.StylePrimitive{Color: sp(muted), Italic: bp(true)},
				Keyword:       ansi.StylePrimitive{Color: sp(accent), Bold: bp(true)},
				NameFunction:  ansi.StylePrimitive{Color: sp(heading)},
				LiteralString: ansi.StylePrimitive{Color: sp(code)},
				Background:    ansi.StylePrimitive{BackgroundColor: sp(bgSoft)},
			},
		},
		Table: ansi.StyleTable{
			StyleBlock:      ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(text)}},
			CenterSeparator: sp("│"),
			ColumnSeparator: sp("│"),
			RowSeparator:    sp("─"),
		},
		Item:        ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{BlockPrefix: ". "},
		Task:        ansi.StyleTask{Ticked: "[✓] ", Unticked: "[ ] "},
	}
}

type styles struct {
	header   lipgloss.Style
	active   lipgloss.Style
	inactive lipgloss.Style
	muted    lipgloss.Style
	match    lipgloss.Style
	bar      lipgloss.Style
	chip     lipgloss.Style
}

func newStyles(th theme.Theme) styles {
	accent := lipgloss.Color(th.Hex(theme.FocusBorder))
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Hex(theme.Heading))),
		active:   lipgloss.NewStyle().BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(accent).PaddingLeft(1),
		inactive: lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color(th.Hex(theme.SideBarBackground))).PaddingLeft(1),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(th.Hex(theme.MutedForeground))),
		match:    lipgloss.NewStyle().Background(lipgloss.Color(th.Hex(theme.Highlight))).Bold(true),
		bar:      lipgloss.NewStyle().Foreground(lipgloss.Color(th.Hex(theme.Foreground))).Background(lipgloss.Color(th.Hex(theme.SideBarBackground))),
		chip:     lipgloss.NewStyle().Foreground(lipgloss.Color(th.Hex(theme.EditorBackground))).Background(accent).Padding(0, 1),
	}
}
