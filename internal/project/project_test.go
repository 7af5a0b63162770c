package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2hyunwoo/craby/internal/testfixtures"
)

func statusOf(t *testing.T, r *Report, name string) Result {
	t.Helper()
	for _, res := range r.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no result named %q", name)
	return Result{}
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpen(t *testing.T) {
	root := testfixtures.WriteProject(t, "project")
	p, err := Open(root, "codegen.namespace=sample")
	require.NoError(t, err)

	cfg := p.GeneratorConfig(nil)
	assert.Equal(t, p.Root, cfg.Root)
	assert.Equal(t, "src", cfg.SourceDir)
	assert.Equal(t, "crates/lib", cfg.RustDir)
	assert.Equal(t, "cpp", cfg.CxxDir)
	assert.Equal(t, "sample", cfg.Namespace)
	assert.Equal(t, "sample", cfg.Library)
	assert.Equal(t, filepath.Join(p.Root, "crates", "lib"), p.Path("crates/lib"))
}

func TestDoctor_Healthy(t *testing.T) {
	root := testfixtures.WriteProject(t, "project")
	write(t, root, "android/build.gradle", "externalNativeBuild { cmake { path \"CMakeLists.txt\" } }\n")
	write(t, root, "sample.podspec", "s.vendored_frameworks = \"ios/framework/libsample.xcframework\"\n")

	report := Doctor(root)
	for _, res := range report.Results {
		assert.Equal(t, StatusOK, res.Status, "%s: %s", res.Name, res.Detail)
	}
	assert.True(t, report.Passed())
	assert.Equal(t, []string{"Project", "Rust", "C++", "Android", "iOS"}, report.Sections())
	assert.Equal(t, "src/NativeCalculator.ts, src/NativeTimer.ts", statusOf(t, report, "Spec files").Detail)

	_, err := os.Stat(filepath.Join(root, "cpp"))
	assert.True(t, os.IsNotExist(err), "checking the output directory does not create it")
}

func TestDoctor_PlatformChecksOnlyWarn(t *testing.T) {
	root := testfixtures.WriteProject(t, "project")
	write(t, root, "android/build.gradle", "apply plugin: 'com.android.library'\n")

	report := Doctor(root)
	assert.True(t, report.Passed())

	gradle := statusOf(t, report, "Build configuration (build.gradle)")
	assert.Equal(t, StatusWarn, gradle.Status)
	assert.Contains(t, gradle.Detail, "externalNativeBuild")
	assert.Equal(t, StatusWarn, statusOf(t, report, "Build configuration (.podspec)").Status)
}

func TestDoctor_InvalidConfig(t *testing.T) {
	root := t.TempDir()
	write(t, root, "craby.toml", "[project]\nsource_dir = \"/abs\"\n")

	report := Doctor(root)
	assert.False(t, report.Passed())

	cfg := statusOf(t, report, "craby.toml")
	assert.Equal(t, StatusFail, cfg.Status)
	assert.Contains(t, cfg.Detail, "project.name: is required")
	assert.Contains(t, cfg.Detail, "project.source_dir")
	for _, res := range report.Results[1:] {
		assert.Equal(t, StatusSkipped, res.Status, res.Name)
	}
}

func TestDoctor_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, root string)
		check  string
		detail string
	}{
		{
			"no spec files",
			func(t *testing.T, root string) {
				require.NoError(t, os.RemoveAll(filepath.Join(root, "src")))
				require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
			},
			"Spec files", "no Native*.ts files in src",
		},
		{
			"missing source dir",
			func(t *testing.T, root string) { require.NoError(t, os.RemoveAll(filepath.Join(root, "src"))) },
			"Spec files", "source directory src does not exist",
		},
		{
			"missing manifest",
			func(t *testing.T, root string) { require.NoError(t, os.Remove(filepath.Join(root, "crates/lib/Cargo.toml"))) },
			"Cargo.toml", "crates/lib/Cargo.toml not found",
		},
		{
			"package name mismatch",
			func(t *testing.T, root string) {
				write(t, root, "crates/lib/Cargo.toml", "[package]\nname = \"other\"\n[lib]\nname = \"sample\"\n")
			},
			"Cargo.toml", `package name "other" does not match project name "sample"`,
		},
		{
			"library name",
			func(t *testing.T, root string) {
				write(t, root, "crates/lib/Cargo.toml", "[package]\nname = \"sample\"\n[lib]\nname = \"sample_lib\"\n")
			},
			"Cargo.toml", `library name "sample_lib", expected "sample"`,
		},
		{
			"output path is a file",
			func(t *testing.T, root string) { write(t, root, "cpp", "") },
			"Output directory", "is not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testfixtures.WriteProject(t, "project")
			tt.setup(t, root)

			report := Doctor(root)
			assert.False(t, report.Passed())
			res := statusOf(t, report, tt.check)
			assert.Equal(t, StatusFail, res.Status)
			assert.Contains(t, res.Detail, tt.detail)
		})
	}
}
