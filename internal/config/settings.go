package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds user preferences read from config.yaml.
type Settings struct {
	// Placeholder is shown for an empty markdown cell in preview mode.
	Placeholder string `yaml:"placeholder" json:"placeholder,omitempty" jsonschema:"description=Text shown for empty markdown cells in preview mode"`
	// HighlightClass marks the element targeted by a decoration range.
	HighlightClass string `yaml:"highlight_class" json:"highlight_class,omitempty"`
	// UserSelectClass is toggled on the output surface of the active cell.
	UserSelectClass string `yaml:"user_select_class" json:"user_select_class,omitempty"`
	Theme           string `yaml:"theme" json:"theme,omitempty" jsonschema:"enum=vitesse-dark,enum=vitesse-light"`
	CodeStyle       string `yaml:"code_style" json:"code_style,omitempty" jsonschema:"description=chroma style used for fenced code"`
	Addr            string `yaml:"addr" json:"addr,omitempty"`
	LogLevel        string `yaml:"log_level" json:"log_level,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Placeholder:     "Double-click to edit",
		HighlightClass:  "rangeHighlight",
		UserSelectClass: "actionselect",
		Theme:           "vitesse-dark",
		CodeStyle:       "monokai",
		Addr:            "127.0.0.1:8788",
		LogLevel:        "info",
	}
}

// ThemeEnv overrides Settings.Theme when set.
const ThemeEnv = "CELLMARK_THEME"

// Load reads config.yaml from the config dir.
// A missing file yields Defaults and no error; empty fields fall back to
// their default individually.
func Load() (Settings, error) {
	p, err := SettingsPath()
	if err != nil {
		return withEnv(Defaults()), err
	}
	return LoadFile(p)
}

// LoadFile is Load for an explicit path.
func LoadFile(p string) (Settings, error) {
	def := Defaults()
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return withEnv(def), nil
		}
		return withEnv(def), err
	}
	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return withEnv(def), fmt.Errorf("parse %s: %w", filepath.Base(p), err)
	}
	return withEnv(merge(s, def)), nil
}

// Save writes s to config.yaml, creating the directory if needed.
func Save(s Settings) error {
	p, err := SettingsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o644)
}

func merge(s, def Settings) Settings {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return strings.TrimSpace(v)
	}
	return Settings{
		Placeholder:     pick(s.Placeholder, def.Placeholder),
		HighlightClass:  pick(s.HighlightClass, def.HighlightClass),
		UserSelectClass: pick(s.UserSelectClass, def.UserSelectClass),
		Theme:           pick(s.Theme, def.Theme),
		CodeStyle:       pick(s.CodeStyle, def.CodeStyle),
		Addr:            pick(s.Addr, def.Addr),
		LogLevel:        pick(s.LogLevel, def.LogLevel),
	}
}

func withEnv(s Settings) Settings {
	if v := strings.TrimSpace(os.Getenv(ThemeEnv)); v != "" {
		s.Theme = v
	}
	return s
}
