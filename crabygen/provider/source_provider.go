// Package provider implements the schema extractor: it reads TypeScript
// module specs and converts them to the intermediate representation.
package provider

import (
	"context"
	"runtime"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Unit is one interface description file.
type Unit struct {
	// Path is used for diagnostics; it is not read.
	Path    string
	Content []byte
}

// SourceProvider extracts module specs from TypeScript sources.
type SourceProvider struct {
	// Logger receives debug output. Defaults to the "provider" component logger.
	Logger *zap.Logger
}

// SourceInputOptions configures extraction.
type SourceInputOptions struct {
	Units []Unit
}

// BuildSchema parses every unit and returns one validated ModuleSpec per
// registered module, ordered by unit path then registration order.
//
// Every error across all units is collected; when any occurred no specs are
// returned.
func (p *SourceProvider) BuildSchema(ctx context.Context, opts SourceInputOptions) ([]*ir.ModuleSpec, error) {
	log := p.Logger
	if log == nil {
		log = logger.Named("provider")
	}

	units := append([]Unit(nil), opts.Units...)
	sort.SliceStable(units, func(i, j int) bool { return units[i].Path < units[j].Path })

	// Units parse independently; results are merged in path order so the
	// output and the error list do not depend on scheduling.
	parsed := make([][]*ir.ModuleSpec, len(units))
	perr := make([]error, len(units))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, unit := range units {
		g.Go(func() error {
			parsed[i], perr[i] = p.ParseUnit(ctx, unit)
			return nil
		})
	}
	_ = g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}

	var (
		specs []*ir.ModuleSpec
		err   error
	)
	seen := make(map[string]ir.Source)
	for i, unit := range units {
		modules := parsed[i]
		err = errors.Append(err, perr[i])
		for _, m := range modules {
			if prev, ok := seen[m.Name]; ok {
				err = errors.Append(err, &ir.DuplicateDefinitionError{Source: m.Source, What: "module", Name: m.Name, Previous: prev})
				continue
			}
			seen[m.Name] = m.Source
			specs = append(specs, m)
		}
		log.Debug("parsed unit",
			zap.String(logger.FieldFile, unit.Path),
			zap.Int(logger.FieldCount, len(modules)))
	}

	// Names must stay distinct after the emitters case-convert them.
	err = errors.Append(err, naming.CheckModules(specs))
	for _, spec := range specs {
		err = errors.Append(err, spec.Validate())
		err = errors.Append(err, naming.Check(spec))
	}
	if err != nil {
		return nil, err
	}
	return specs, nil
}

// ParseUnit extracts the modules registered in a single unit without
// whole-spec validation.
func (p *SourceProvider) ParseUnit(ctx context.Context, unit Unit) ([]*ir.ModuleSpec, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, unit.Content)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", unit.Path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ir.SchemaParseError{Source: ir.Source{File: unit.Path}, Message: "empty syntax tree"}
	}

	u := newUnit(unit.Path, unit.Content)
	if root.HasError() {
		return nil, u.syntaxError(root)
	}

	u.collect(root)
	modules := u.buildModules()
	if u.err != nil {
		return nil, u.err
	}
	return modules, nil
}
