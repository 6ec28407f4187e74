package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cellmark/internal/notebook"
	"cellmark/internal/session"
	tu "cellmark/internal/testutil"
	appver "cellmark/internal/version"
)

// run executes the root command with an isolated config dir.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", t.TempDir())()
	defer tu.WithEnv(t, "HOME", t.TempDir())()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != appver.AppVersion {
		t.Fatalf("version = %q", out)
	}
}

func TestVersion_JSON(t *testing.T) {
	t.Cleanup(func() { versionJSON = false })
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info.Version != appver.AppVersion || info.Go == "" || !strings.Contains(info.Platform, "/") {
		t.Fatalf("unexpected version info: %+v", info)
	}
}

func TestText(t *testing.T) {
	out, err := run(t, "text", filepath.Join("testdata", "sample.ipynb"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"intro:1\tSales report\n",
		"cell-2:3\tsouth\t20\n",
		"empty:1\tDouble-click to edit\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderToFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.html")
	_, err := run(t, "render", filepath.Join("testdata", "sample.ipynb"), "-o", dst, "--highlight", "cell-2:2", "--theme", "vitesse-light")
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	page := string(b)
	for _, want := range []string{`id="cell-intro"`, `class="rangeHighlight"`, `data-trusted="false"`} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	nb := filepath.Join("testdata", "sample.ipynb")
	cases := [][]string{
		{"render", nb, "--theme", "nope", "-o", filepath.Join(t.TempDir(), "a.html")},
		{"render", nb, "--highlight", "intro", "-o", filepath.Join(t.TempDir(), "b.html"), "--theme", ""},
		{"render", filepath.Join("testdata", "missing.ipynb"), "--highlight", "", "--theme", ""},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestFind(t *testing.T) {
	out, err := run(t, "find", filepath.Join("testdata", "sample.ipynb"), "south")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[0], "RANGE") || !strings.HasPrefix(lines[1], "cell-2:3") {
		t.Fatalf("unexpected find output:\n%s", out)
	}
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema", "settings")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"log_level"`) {
		t.Fatalf("settings schema missing log_level:\n%s", out)
	}
	if _, err := run(t, "schema", "bogus"); err == nil {
		t.Fatal("unknown schema should fail")
	}
}

func TestTrustLifecycle(t *testing.T) {
	cfgHome := t.TempDir()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", cfgHome)()
	nb, err := filepath.Abs(filepath.Join("testdata", "sample.ipynb"))
	if err != nil {
		t.Fatal(err)
	}
	exec := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if out := exec("trust", "add", "-y", nb); !strings.Contains(out, "trusted "+nb) {
		t.Fatalf("add: %s", out)
	}
	if out := exec("trust", "ls"); strings.TrimSpace(out) != nb {
		t.Fatalf("ls: %q", out)
	}
	if out := exec("text", nb); !strings.Contains(out, "intro:1") {
		t.Fatalf("text on trusted notebook: %s", out)
	}
	if out := exec("trust", "rm", nb); !strings.Contains(out, "removed "+nb) {
		t.Fatalf("rm: %s", out)
	}
	if out := exec("trust", "ls"); strings.TrimSpace(out) != "" {
		t.Fatalf("ls after rm: %q", out)
	}
}

func TestReloadSession_KeepsSessionWhenReopenFails(t *testing.T) {
	path := filepath.Join("testdata", "sample.ipynb")
	nb, err := notebook.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cur, err := session.Open(nb, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	fresh, err := notebook.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fresh.Append(notebook.NewCell("extra", notebook.Markdown, "more"))
	got := reloadSession(cur, fresh, func(*notebook.Notebook) (*session.Session, error) {
		return nil, errors.New("boom")
	})
	if got != cur {
		t.Fatalf("failed reopen must keep the current session")
	}
	if _, err := got.View("intro"); err != nil {
		t.Fatalf("kept session unusable: %v", err)
	}
	got.Reload(fresh)

	next := reloadSession(got, fresh, func(n *notebook.Notebook) (*session.Session, error) {
		return session.Open(n, session.Options{})
	})
	if next == cur {
		t.Fatalf("structural change should swap the session")
	}
	defer next.Close()
	if _, err := next.View("extra"); err != nil {
		t.Fatalf("new cell missing after reopen: %v", err)
	}
}
