package settings

import "testing"

func TestValidateAddr(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:8788": true,
		":9000":          true,
		"localhost":      false,
		"":               false,
	}
	for in, ok := range cases {
		if err := validateAddr(in); (err == nil) != ok {
			t.Fatalf("validateAddr(%q) = %v, want ok=%v", in, err, ok)
		}
	}
}
