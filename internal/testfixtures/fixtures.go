// Package testfixtures provides TypeScript module specs used across the
// crabygen tests. Each fixture is a txtar archive of spec files.
package testfixtures

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

//go:embed *.txtar
var archives embed.FS

// Archive returns the named fixture archive (without the .txtar suffix).
func Archive(t testing.TB, name string) *txtar.Archive {
	t.Helper()
	data, err := archives.ReadFile(name + ".txtar")
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return txtar.Parse(data)
}

// File returns the content of a single file from a fixture archive.
func File(t testing.TB, name, path string) []byte {
	t.Helper()
	for _, f := range Archive(t, name).Files {
		if f.Name == path {
			return f.Data
		}
	}
	t.Fatalf("fixture %s has no file %s", name, path)
	return nil
}

// WriteProject extracts a fixture archive into a fresh temporary directory
// and returns its path.
func WriteProject(t testing.TB, name string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range Archive(t, name).Files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
