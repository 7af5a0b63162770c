// Package crabygen generates the native side of React Native modules from
// their TypeScript specs: Rust declarations for the implementation and a
// C++ TurboModule bridging JSI to Rust.
//
// Generation either succeeds as a whole or writes nothing. Every artifact is
// staged in memory first and committed only after all modules were parsed,
// validated and emitted.
package crabygen

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/l2hyunwoo/craby/crabygen/android"
	"github.com/l2hyunwoo/craby/crabygen/cxx"
	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ios"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/provider"
	"github.com/l2hyunwoo/craby/crabygen/rust"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Config holds the configuration for code generation.
type Config struct {
	// Root is the project directory. Every other path is relative to it.
	Root string

	// SourceDir holds the spec files, searched recursively.
	// Default: "src"
	SourceDir string

	// SpecPrefix selects spec files by name: "<prefix>*.ts".
	// Default: "Native"
	SpecPrefix string

	// RustDir is the Rust crate root.
	// Default: "crates/lib"
	RustDir string

	// CxxDir receives the C++ bridge.
	// Default: "cpp"
	CxxDir string

	// Namespace is the C++ root namespace.
	// Default: "craby"
	Namespace string

	// Library is the Rust crate name the platform builds link against.
	// Default: the project directory name in snake_case
	Library string

	// IOSDir receives the iOS module providers.
	// Default: "ios"
	IOSDir string

	// AndroidDir receives the JNI entry point and CMake project.
	// Default: "android"
	AndroidDir string

	// DryRun stages artifacts without committing them.
	DryRun bool

	Logger *zap.Logger
}

// OutputFile is one artifact of a run.
type OutputFile struct {
	Path   string
	Status sink.Status
}

// GenerateResult describes a successful run.
type GenerateResult struct {
	// Modules are the validated specs, in spec file order.
	Modules []*ir.ModuleSpec

	// Plans hold the dispatch decision of every module, keyed by name.
	Plans map[string]*dispatch.Plan

	// Files lists every artifact in path order.
	Files []OutputFile

	staged *sink.MemorySink
}

// Archive renders the staged artifacts as a txtar archive.
func (r *GenerateResult) Archive() []byte {
	return r.staged.Archive()
}

// Content returns the staged content of path, or nil.
func (r *GenerateResult) Content(path string) []byte {
	return r.staged.Get(path)
}

// Generate discovers the project's spec files and generates the Rust, C++
// and platform registration artifacts of every module they register.
func Generate(ctx context.Context, cfg *Config) (*GenerateResult, error) {
	if cfg.Root == "" {
		return nil, errors.New("project root is required")
	}
	cfg = applyConfigDefaults(cfg)
	log := cfg.Logger
	if log == nil {
		log = logger.Named("crabygen")
	}
	start := time.Now()

	// 1-2. Discover, extract and validate
	specs, err := parse(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// 3. Plan dispatch once per module
	plans := make(map[string]*dispatch.Plan, len(specs))
	for _, spec := range specs {
		plan := dispatch.NewPlan(spec)
		plans[spec.Name] = plan
		for _, m := range plan.Methods {
			log.Debug("planned method",
				zap.String(logger.FieldModule, spec.Name),
				zap.String(logger.FieldMethod, m.Name),
				zap.Stringer(logger.FieldMode, m.Mode))
		}
	}

	// 4. Emit into memory
	staged := sink.NewMemorySink()
	rs := &rust.Generator{Namespace: cfg.Namespace, CrateDir: cfg.RustDir, Logger: log.Named("rust")}
	if err := rs.Generate(ctx, specs, staged); err != nil {
		return nil, errors.Wrap(err, "generate rust")
	}
	cx := &cxx.Generator{Namespace: cfg.Namespace, Dir: cfg.CxxDir, Logger: log.Named("cxx")}
	if err := cx.Generate(ctx, specs, plans, staged); err != nil {
		return nil, errors.Wrap(err, "generate c++")
	}
	ip := &ios.Generator{Namespace: cfg.Namespace, Dir: cfg.IOSDir, Logger: log.Named("ios")}
	if err := ip.Generate(ctx, specs, staged); err != nil {
		return nil, errors.Wrap(err, "generate ios")
	}
	ap := &android.Generator{
		Library:   cfg.Library,
		Namespace: cfg.Namespace,
		Dir:       cfg.AndroidDir,
		CxxDir:    cfg.CxxDir,
		Logger:    log.Named("android"),
	}
	if err := ap.Generate(ctx, specs, staged); err != nil {
		return nil, errors.Wrap(err, "generate android")
	}

	result := &GenerateResult{Modules: specs, Plans: plans, staged: staged}

	// 5. Commit
	if cfg.DryRun {
		for _, f := range staged.Staged() {
			result.Files = append(result.Files, OutputFile{Path: f.Path, Status: sink.StatusStaged})
		}
	} else {
		committed, err := sink.Commit(ctx, staged, sink.NewFilesystemSink(cfg.Root))
		if err != nil {
			return nil, errors.Wrap(err, "commit generated files")
		}
		for _, c := range committed {
			result.Files = append(result.Files, OutputFile{Path: c.Path, Status: c.Status})
			log.Debug("committed",
				zap.String(logger.FieldFile, c.Path),
				zap.String(logger.FieldStatus, string(c.Status)))
		}
	}

	log.Info("generation complete",
		zap.Int(logger.FieldCount, len(specs)),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
	return result, nil
}

// Parse discovers, extracts and validates every module of the project
// without emitting anything.
func Parse(ctx context.Context, cfg *Config) ([]*ir.ModuleSpec, error) {
	if cfg.Root == "" {
		return nil, errors.New("project root is required")
	}
	cfg = applyConfigDefaults(cfg)
	log := cfg.Logger
	if log == nil {
		log = logger.Named("crabygen")
	}
	return parse(ctx, cfg, log)
}

func parse(ctx context.Context, cfg *Config, log *zap.Logger) ([]*ir.ModuleSpec, error) {
	units, err := readUnits(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, errors.WithHintf(
			errors.Newf("no spec files matching %s*.ts in %s", cfg.SpecPrefix, cfg.SourceDir),
			"spec files are discovered by prefix; set codegen.spec_prefix in craby.toml if yours differ")
	}
	p := &provider.SourceProvider{Logger: log.Named("provider")}
	return p.BuildSchema(ctx, provider.SourceInputOptions{Units: units})
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if result.SourceDir == "" {
		result.SourceDir = "src"
	}
	if result.SpecPrefix == "" {
		result.SpecPrefix = "Native"
	}
	if result.RustDir == "" {
		result.RustDir = "crates/lib"
	}
	if result.CxxDir == "" {
		result.CxxDir = "cpp"
	}
	if result.Namespace == "" {
		result.Namespace = "craby"
	}
	if result.Library == "" {
		result.Library = strcase.ToSnake(filepath.Base(result.Root))
	}
	if result.IOSDir == "" {
		result.IOSDir = "ios"
	}
	if result.AndroidDir == "" {
		result.AndroidDir = "android"
	}
	return &result
}

// DiscoverSpecs returns the spec files under the source directory, relative
// to the project root and in sorted order.
func DiscoverSpecs(cfg *Config) ([]string, error) {
	cfg = applyConfigDefaults(cfg)
	dir := filepath.Join(cfg.Root, filepath.FromSlash(cfg.SourceDir))

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || (strings.HasPrefix(d.Name(), ".") && path != dir) {
				return filepath.SkipDir
			}
			return nil
		}
		if isSpecFile(d.Name(), cfg.SpecPrefix) {
			rel, err := filepath.Rel(cfg.Root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.WithHint(
				errors.Newf("source directory %s does not exist", cfg.SourceDir),
				"set project.source_dir in craby.toml")
		}
		return nil, errors.Wrapf(err, "scan %s", cfg.SourceDir)
	}
	sort.Strings(files)
	return files, nil
}

func isSpecFile(name, prefix string) bool {
	return strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, ".ts") &&
		!strings.HasSuffix(name, ".d.ts")
}

// readUnits reads every discovered spec file concurrently. Units keep the
// discovery order.
func readUnits(ctx context.Context, cfg *Config, log *zap.Logger) ([]provider.Unit, error) {
	files, err := DiscoverSpecs(cfg)
	if err != nil {
		return nil, err
	}

	units := make([]provider.Unit, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(cfg.Root, filepath.FromSlash(rel)))
			if err != nil {
				return errors.Wrapf(err, "read %s", rel)
			}
			units[i] = provider.Unit{Path: rel, Content: data}
			log.Debug("discovered spec", zap.String(logger.FieldFile, rel))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}
