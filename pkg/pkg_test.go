package pkg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if want := strings.TrimSpace(string(buf)); Version != want {
		t.Errorf("Version = %q, want %q", Version, want)
	}

	if strings.ContainsAny(Version, " \n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("no authors")
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] must define Name or Email", i)
		}
	}
}

func TestDirs(t *testing.T) {
	prefix := Prefix()
	if prefix == "" || strings.HasPrefix(prefix, ".") {
		t.Fatalf("Prefix() = %q", prefix)
	}

	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"cache":  CacheDir(),
	} {
		if filepath.Base(dir) != prefix {
			t.Errorf("%s dir %q does not end in %q", name, dir, prefix)
		}
	}
}

func TestDebugBin(t *testing.T) {
	for in, want := range map[string]string{
		"__debug_bin":      Name,
		"__debug_bin12345": Name,
		"plainmark":        "plainmark",
		"x__debug_bin":     "x__debug_bin",
	} {
		if got := debugBin.ReplaceAllString(in, Name); got != want {
			t.Errorf("replace(%q) = %q, want %q", in, got, want)
		}
	}
}
