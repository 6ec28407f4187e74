package trust

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	tu "cellmark/internal/testutil"
)

func TestStore_AddRemove(t *testing.T) {
	tmp := t.TempDir()
	s := At(filepath.Join(tmp, "cfg", "trusted.json"))

	got, err := s.List()
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", got, err)
	}

	a := filepath.Join(tmp, "a.ipynb")
	b := filepath.Join(tmp, "b.ipynb")
	added, existed, err := s.Add([]string{a, b, a + "/../a.ipynb"})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if diff := cmp.Diff([]string{a, b}, added); diff != "" {
		t.Fatalf("added (-want +got):\n%s", diff)
	}
	if len(existed) != 0 {
		t.Fatalf("unexpected existed: %v", existed)
	}

	_, existed, err = s.Add([]string{b})
	if err != nil || len(existed) != 1 {
		t.Fatalf("re-adding should report existed: %v %v", existed, err)
	}

	ok, err := s.IsTrusted(a)
	if err != nil || !ok {
		t.Fatalf("IsTrusted(a) = %v, %v", ok, err)
	}

	removed, missing, err := s.Remove([]string{a, filepath.Join(tmp, "c.ipynb")})
	if err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if len(removed) != 1 || len(missing) != 1 {
		t.Fatalf("unexpected removed/missing: %v / %v", removed, missing)
	}
	if ok, _ := s.IsTrusted(a); ok {
		t.Fatalf("a should no longer be trusted")
	}
}

func TestOpen_UsesConfigDir(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", tmp)()
	defer tu.WithEnv(t, "HOME", tmp)()

	s, err := Open()
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, _, err := s.Add([]string{"/nb/x.ipynb"}); err != nil {
		t.Fatal(err)
	}
	again, _ := Open()
	ok, err := again.IsTrusted("/nb/x.ipynb")
	if err != nil || !ok {
		t.Fatalf("trust not persisted: %v %v", ok, err)
	}
}
