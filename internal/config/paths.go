package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the cellmark config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/cellmark; on macOS
// to ~/Library/Application Support/cellmark; and on Windows to %AppData%/cellmark.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			base = home
		} else {
			return "", errors.New("cannot determine config directory")
		}
	}
	return filepath.Join(base, "cellmark"), nil
}

// SettingsPath returns <Dir>/config.yaml.
func SettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// TrustedPath returns <Dir>/trusted.json, the trusted notebook list.
func TrustedPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trusted.json"), nil
}
