package codegen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/tools/txtar"

	"github.com/l2hyunwoo/craby/internal/testfixtures"
)

func TestGenerate_DryRun(t *testing.T) {
	root := testfixtures.WriteProject(t, "project")
	c := &Cmd{Project: root, DryRun: true}

	var stdout, stderr bytes.Buffer
	if err := c.generate(context.Background(), &stdout, &stderr, zap.NewNop()); err != nil {
		t.Fatalf("generate: %v\n%s", err, stderr.String())
	}

	archive := txtar.Parse(stdout.Bytes())
	if len(archive.Files) != 15 {
		t.Fatalf("archive has %d files, want 15", len(archive.Files))
	}
	if archive.Files[0].Name != "android/CMakeLists.txt" {
		t.Errorf("first file = %s", archive.Files[0].Name)
	}
	if _, err := os.Stat(filepath.Join(root, "cpp")); !os.IsNotExist(err) {
		t.Error("dry run wrote to disk")
	}
}

func TestGenerate_WritesAndSummarizes(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	root := testfixtures.WriteProject(t, "project")
	c := &Cmd{Project: root, Set: []string{"codegen.cxx_dir=ios/cpp"}}

	var stdout, stderr bytes.Buffer
	if err := c.generate(context.Background(), &stdout, &stderr, zap.NewNop()); err != nil {
		t.Fatalf("generate: %v\n%s", err, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(root, "ios", "cpp", "CxxTimerModule.cpp")); err != nil {
		t.Errorf("override not applied: %v", err)
	}
	cmake, err := os.ReadFile(filepath.Join(root, "android", "CMakeLists.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cmake), "  ../ios/cpp/CxxTimerModule.cpp\n") || !strings.Contains(string(cmake), "/libsample.a") {
		t.Errorf("CMakeLists.txt does not follow the project:\n%s", cmake)
	}
	if !strings.Contains(stdout.String(), "2 module(s): 15 written, 0 unchanged, 0 skipped") {
		t.Errorf("unexpected summary:\n%s", stdout.String())
	}

	stdout.Reset()
	if err := c.generate(context.Background(), &stdout, &stderr, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "2 module(s): 0 written, 13 unchanged, 2 skipped") {
		t.Errorf("unexpected summary on rerun:\n%s", stdout.String())
	}
}

func TestGenerate_PrintsDiagnostics(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	root := testfixtures.WriteProject(t, "project")
	broken := "import type { TurboModule } from 'react-native';\n" +
		"import { TurboModuleRegistry } from 'react-native';\n" +
		"export interface Spec extends TurboModule {\n" +
		"  save(value: any): void;\n" +
		"}\n" +
		"export default TurboModuleRegistry.getEnforcing<Spec>('Broken');\n"
	if err := os.WriteFile(filepath.Join(root, "src", "NativeBroken.ts"), []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := (&Cmd{Project: root}).generate(context.Background(), &stdout, &stderr, zap.NewNop())
	if err != ErrFailed {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	if !strings.Contains(stderr.String(), "src/NativeBroken.ts:4:") || !strings.Contains(stderr.String(), "unsupported type: any") {
		t.Errorf("unexpected diagnostics:\n%s", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(root, "cpp")); !os.IsNotExist(err) {
		t.Error("failed run wrote to disk")
	}
}

func TestRun_RejectsWatchWithDryRun(t *testing.T) {
	err := (&Cmd{Project: t.TempDir(), Watch: true, DryRun: true}).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Errorf("err = %v", err)
	}
}

func TestSpecFilter(t *testing.T) {
	match := SpecFilter("Native")
	for path, want := range map[string]bool{
		"src/NativeCalculator.ts":   true,
		"src/nested/NativeTimer.ts": true,
		"src/NativeTypes.d.ts":      false,
		"src/Calculator.ts":         false,
		"src/NativeCalculator.tsx":  false,
	} {
		if got := match(path); got != want {
			t.Errorf("match(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "craby.toml")
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config, []byte("[project]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &Watcher{
		Dirs:     []string{src},
		Files:    []string{config},
		Match:    SpecFilter("Native"),
		OnChange: func() { calls.Add(1) },
		Debounce: 20 * time.Millisecond,
		Logger:   zap.NewNop(),
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Rewrite path until the pass count reaches want; the watcher may not be
	// registered yet when the first write lands.
	touchUntil := func(path string, want int32) bool {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if err := os.WriteFile(path, []byte(time.Now().String()), 0o644); err != nil {
				t.Fatal(err)
			}
			time.Sleep(100 * time.Millisecond)
			if calls.Load() >= want {
				return true
			}
		}
		return false
	}

	if !touchUntil(filepath.Join(src, "NativeCalculator.ts"), 1) {
		t.Fatal("spec change did not trigger a pass")
	}
	if !touchUntil(config, calls.Load()+1) {
		t.Fatal("craby.toml change did not trigger a pass")
	}

	// Irrelevant files never trigger a pass.
	before := calls.Load()
	if err := os.WriteFile(filepath.Join(src, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != before {
		t.Errorf("unrelated file triggered %d pass(es)", got-before)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
