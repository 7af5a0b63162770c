package rust

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Generator stages the Rust artifacts of a set of modules.
type Generator struct {
	// Namespace is the C++ root namespace the bridge declarations live in.
	Namespace string

	// CrateDir is the crate root relative to the project, e.g. "crates/lib".
	CrateDir string

	Logger *zap.Logger
}

// Name returns the generator's identifier.
func (g *Generator) Name() string { return "rust" }

// GeneratedPath is where a module's declarations are written, relative to
// the project root.
func (g *Generator) GeneratedPath(module string) string {
	return path.Join(g.CrateDir, "src", "generated", naming.ForModule(module).Snake+".rs")
}

// ImplPath is the user-owned implementation file of a module.
func (g *Generator) ImplPath(module string) string {
	return path.Join(g.CrateDir, "src", naming.ForModule(module).ImplModule()+".rs")
}

// LibPath is the crate root, regenerated as modules come and go.
func (g *Generator) LibPath() string {
	return path.Join(g.CrateDir, "src", "lib.rs")
}

func (g *Generator) ModIndexPath() string {
	return path.Join(g.CrateDir, "src", "generated", "mod.rs")
}

// Generate stages, for every module, the generated declarations and an
// implementation stub that is committed only when absent, followed by the
// generated/mod.rs index and the crate's lib.rs.
func (g *Generator) Generate(ctx context.Context, specs []*ir.ModuleSpec, out *sink.MemorySink) error {
	log := g.Logger
	if log == nil {
		log = logger.Named("rust")
	}

	for _, spec := range specs {
		e := NewEmitter(spec, g.Namespace)

		p := g.GeneratedPath(spec.Name)
		if err := out.WriteFile(ctx, p, e.EmitGenerated()); err != nil {
			return errors.Wrapf(err, "stage %s", p)
		}
		stub := g.ImplPath(spec.Name)
		if err := out.WriteStub(ctx, stub, e.EmitImplStub()); err != nil {
			return errors.Wrapf(err, "stage %s", stub)
		}
		log.Debug("staged rust module",
			zap.String(logger.FieldModule, spec.Name),
			zap.String(logger.FieldFile, p))
	}

	if err := out.WriteFile(ctx, g.ModIndexPath(), EmitModIndex(specs)); err != nil {
		return errors.Wrap(err, "stage generated/mod.rs")
	}
	if err := out.WriteFile(ctx, g.LibPath(), EmitLib(specs)); err != nil {
		return errors.Wrap(err, "stage lib.rs")
	}
	return nil
}
