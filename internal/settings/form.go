// Package settings is the interactive editor for config.yaml.
package settings

import (
	"errors"
	"net"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"cellmark/internal/config"
	"cellmark/internal/theme"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Form builds the settings form bound to s. Submitting the form mutates s.
func Form(s *config.Settings) *huh.Form {
	green := lipgloss.Color("#03BF87")
	th := huh.ThemeCharm()
	th.FieldSeparator = lipgloss.NewStyle()
	th.Blurred.Title = th.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	th.Focused.Title = th.Focused.Title.Width(18).Foreground(green).Bold(true)
	th.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	th.Focused.Base = th.Focused.Base.BorderForeground(green)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Settings").Description("Saved to " + settingsPath()),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&s.Theme),
			huh.NewSelect[string]().
				Title("Code style").
				Options(huh.NewOptions(styles.Names()...)...).
				Height(8).
				Value(&s.CodeStyle),
			huh.NewInput().
				Title("Placeholder").
				Value(&s.Placeholder),
			huh.NewInput().
				Title("Serve address").
				Validate(validateAddr).
				Value(&s.Addr),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions(logLevels...)...).
				Value(&s.LogLevel),
		),
	).WithTheme(th).WithWidth(60)
}

// Run edits current interactively and saves the result.
func Run(current config.Settings) (config.Settings, error) {
	s := current
	if err := Form(&s).Run(); err != nil {
		return current, err
	}
	if err := config.Save(s); err != nil {
		return current, err
	}
	return s, nil
}

func validateAddr(v string) error {
	if _, _, err := net.SplitHostPort(v); err != nil {
		return errors.New("expected host:port")
	}
	return nil
}

func settingsPath() string {
	p, err := config.SettingsPath()
	if err != nil {
		return "config.yaml"
	}
	return p
}
