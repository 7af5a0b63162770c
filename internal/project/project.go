// Package project ties a craby.toml to the directory layout it describes.
package project

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen"
	"github.com/l2hyunwoo/craby/internal/config"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// Project is a loaded craby project.
type Project struct {
	Root   string
	Config *config.Config
}

// Open loads the project rooted at root. overrides are "key=value" config
// overrides applied on top of craby.toml.
func Open(root string, overrides ...string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", root)
	}
	cfg, err := config.Load(abs, overrides...)
	if err != nil {
		return nil, err
	}
	return &Project{Root: abs, Config: cfg}, nil
}

// Path joins a slash-separated, project-relative path onto the root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// GeneratorConfig returns the code generation settings of the project.
func (p *Project) GeneratorConfig(l *zap.Logger) *crabygen.Config {
	return &crabygen.Config{
		Root:       p.Root,
		SourceDir:  p.Config.Project.SourceDir,
		SpecPrefix: p.Config.Codegen.SpecPrefix,
		RustDir:    p.Config.Codegen.RustDir,
		CxxDir:     p.Config.Codegen.CxxDir,
		Namespace:  p.Config.Codegen.Namespace,
		Library:    p.Config.Project.Name,
		Logger:     l,
	}
}
