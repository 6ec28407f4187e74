package config

import (
	"os"
	"path/filepath"
	"testing"

	tu "cellmark/internal/testutil"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, ThemeEnv, "")()

	s, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoadFile_MergesPartial(t *testing.T) {
	defer tu.WithEnv(t, ThemeEnv, "")()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("placeholder: \"Click me\"\ntheme: vitesse-light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if s.Placeholder != "Click me" || s.Theme != "vitesse-light" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.HighlightClass != "rangeHighlight" {
		t.Fatalf("missing field should default, got %q", s.HighlightClass)
	}
}

func TestLoadFile_EnvThemeOverride(t *testing.T) {
	defer tu.WithEnv(t, ThemeEnv, "vitesse-light")()
	s, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if s.Theme != "vitesse-light" {
		t.Fatalf("expected env theme, got %q", s.Theme)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()
	defer tu.WithEnv(t, "HOME", tmp)()
	defer tu.WithEnv(t, ThemeEnv, "")()

	in := Defaults()
	in.Placeholder = "Empty cell"
	if err := Save(in); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, in)
	}
}
