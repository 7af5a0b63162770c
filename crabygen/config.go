package crabygen

import (
	"context"

	"go.uber.org/zap"
)

// Generator provides a fluent API for code generation.
// Create with FromProject() and configure with method chaining.
//
// Example:
//
//	result, err := crabygen.FromProject(".").
//	    WithCxxDir("ios/cpp").
//	    DryRun().
//	    Generate(ctx)
type Generator struct {
	cfg Config
}

// FromProject creates a Generator for the project rooted at dir.
// This is the entry point for the fluent API.
func FromProject(dir string) *Generator {
	return &Generator{cfg: Config{Root: dir}}
}

// WithSourceDir sets the directory holding the spec files.
func (g *Generator) WithSourceDir(dir string) *Generator {
	g.cfg.SourceDir = dir
	return g
}

// WithSpecPrefix sets the file name prefix of spec files.
func (g *Generator) WithSpecPrefix(prefix string) *Generator {
	g.cfg.SpecPrefix = prefix
	return g
}

// WithRustDir sets the Rust crate root.
func (g *Generator) WithRustDir(dir string) *Generator {
	g.cfg.RustDir = dir
	return g
}

// WithCxxDir sets the C++ output directory.
func (g *Generator) WithCxxDir(dir string) *Generator {
	g.cfg.CxxDir = dir
	return g
}

// WithNamespace sets the C++ root namespace.
func (g *Generator) WithNamespace(ns string) *Generator {
	g.cfg.Namespace = ns
	return g
}

// WithLibrary sets the Rust crate name used by the Android build.
func (g *Generator) WithLibrary(name string) *Generator {
	g.cfg.Library = name
	return g
}

// WithPlatformDirs sets the iOS and Android output directories.
func (g *Generator) WithPlatformDirs(iosDir, androidDir string) *Generator {
	g.cfg.IOSDir = iosDir
	g.cfg.AndroidDir = androidDir
	return g
}

// WithLogger routes debug output to l.
func (g *Generator) WithLogger(l *zap.Logger) *Generator {
	g.cfg.Logger = l
	return g
}

// DryRun stages every artifact without writing to disk.
func (g *Generator) DryRun() *Generator {
	g.cfg.DryRun = true
	return g
}

// Config returns a copy of the accumulated configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate runs the pipeline. This is a terminal operation.
func (g *Generator) Generate(ctx context.Context) (*GenerateResult, error) {
	cfg := g.cfg
	return Generate(ctx, &cfg)
}
