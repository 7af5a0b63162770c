package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/l2hyunwoo/craby/internal/errors"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "simple", path: "cpp/CxxCalculatorModule.hpp"},
		{name: "nested", path: "crates/lib/src/generated/calculator.rs"},
		{name: "empty", path: "", wantErr: "empty"},
		{name: "absolute", path: "/etc/passwd", wantErr: "absolute paths not allowed"},
		{name: "windows drive", path: "C:/foo", wantErr: "absolute paths not allowed"},
		{name: "traversal", path: "cpp/../x.hpp", wantErr: "path traversal not allowed"},
		{name: "leading traversal", path: "../x.hpp", wantErr: "path traversal not allowed"},
		{name: "unclean", path: "cpp//x.hpp", wantErr: "not clean"},
		{name: "dot prefix", path: "./x.hpp", wantErr: "not clean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePath(%q) = %v", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidatePath(%q) = %v, want error containing %q", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	content := []byte("pub mod calculator;\n")
	if err := s.WriteFile(ctx, "src/generated/mod.rs", content); err != nil {
		t.Fatal(err)
	}
	content[0] = 'X'
	if got := string(s.Get("src/generated/mod.rs")); got != "pub mod calculator;\n" {
		t.Errorf("staged content was modified through caller slice: %q", got)
	}
	if s.Get("missing") != nil {
		t.Error("Get of unknown path should be nil")
	}

	if err := s.WriteFile(ctx, "../escape", nil); err == nil {
		t.Error("expected invalid path error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteFile(cancelled, "a.rs", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	s.Reset()
	if len(s.Files()) != 0 {
		t.Error("Reset should clear staged files")
	}
}

func TestMemorySink_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.WriteFile(ctx, fmt.Sprintf("f%02d.rs", i), []byte("x"))
		}(i)
	}
	wg.Wait()

	staged := s.Staged()
	if len(staged) != 50 {
		t.Fatalf("got %d staged files, want 50", len(staged))
	}
	for i := 1; i < len(staged); i++ {
		if staged[i-1].Path >= staged[i].Path {
			t.Fatalf("staged files not sorted: %s before %s", staged[i-1].Path, staged[i].Path)
		}
	}
}

func TestMemorySink_Archive(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()
	_ = s.WriteFile(ctx, "b.hpp", []byte("// b"))
	_ = s.WriteFile(ctx, "a.rs", []byte("// a\n"))

	ar := txtar.Parse(s.Archive())
	if len(ar.Files) != 2 {
		t.Fatalf("archive has %d files, want 2", len(ar.Files))
	}
	if ar.Files[0].Name != "a.rs" || ar.Files[1].Name != "b.hpp" {
		t.Errorf("archive order = %s, %s", ar.Files[0].Name, ar.Files[1].Name)
	}
	if string(ar.Files[1].Data) != "// b\n" {
		t.Errorf("archive content = %q", ar.Files[1].Data)
	}
}

func TestFilesystemSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)

	if err := s.WriteFile(ctx, "cpp/CxxFooModule.hpp", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "cpp/CxxFooModule.hpp", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "cpp", "CxxFooModule.hpp"))
	if err != nil || string(data) != "v2" {
		t.Fatalf("read back = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "cpp"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".craby-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	s.Overwrite = false
	err = s.WriteFile(ctx, "cpp/CxxFooModule.hpp", []byte("v3"))
	if !errors.Is(err, ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}

	if got, _ := s.ReadFile("missing.rs"); got != nil {
		t.Errorf("ReadFile of missing file = %q, want nil", got)
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs := NewFilesystemSink(root)

	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "calc_impl.rs"), []byte("// edited by hand\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "same.rs"), []byte("same\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	staged := NewMemorySink()
	_ = staged.WriteFile(ctx, "src/generated/calc.rs", []byte("generated\n"))
	_ = staged.WriteFile(ctx, "src/same.rs", []byte("same\n"))
	_ = staged.WriteStub(ctx, "src/calc_impl.rs", []byte("stub\n"))
	_ = staged.WriteStub(ctx, "src/other_impl.rs", []byte("stub\n"))

	results, err := Commit(ctx, staged, fs)
	if err != nil {
		t.Fatal(err)
	}

	want := []Result{
		{Path: "src/calc_impl.rs", Status: StatusSkipped},
		{Path: "src/generated/calc.rs", Status: StatusWritten},
		{Path: "src/other_impl.rs", Status: StatusWritten},
		{Path: "src/same.rs", Status: StatusUnchanged},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(results), len(want), results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, results[i], want[i])
		}
	}

	data, _ := os.ReadFile(filepath.Join(root, "src", "calc_impl.rs"))
	if string(data) != "// edited by hand\n" {
		t.Errorf("hand-edited stub was overwritten: %q", data)
	}
}
