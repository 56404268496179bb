package neuroshare

import (
	"errors"
	"testing"
)

func TestCString(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte{'M', 'C', 'D', 0, 'x', 'x'}, "MCD"},
		{[]byte{0, 'a'}, ""},
		{[]byte{'a', 'b'}, "ab"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := cstring(tc.in); got != tc.want {
			t.Errorf("cstring(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoad_MissingLibrary(t *testing.T) {
	_, err := Load("/nonexistent/nsMCDLibrary.so")
	if err == nil {
		t.Fatal("expected error loading a nonexistent library")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("got %T, want LoadError", err)
	}
	if le.Path != "/nonexistent/nsMCDLibrary.so" {
		t.Errorf("Path = %q", le.Path)
	}
}
