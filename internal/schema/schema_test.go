package schema

import (
	"strings"
	"testing"
)

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"notebook": `"nbformat"`,
		"settings": `"code_style"`,
	} {
		sch, ok := ByName(name)
		if !ok {
			t.Fatalf("ByName(%q) not found", name)
		}
		b, err := Marshal(sch)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), want) {
			t.Fatalf("%s schema missing %s:\n%s", name, want, b)
		}
	}
	if _, ok := ByName("nope"); ok {
		t.Fatal("unknown schema name accepted")
	}
}
