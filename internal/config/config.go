// Package config loads and validates craby.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// FileName is the project configuration file at the project root.
const FileName = "craby.toml"

// Default values for unset fields.
const (
	DefaultSourceDir  = "src"
	DefaultSpecPrefix = "Native"
	DefaultRustDir    = "crates/lib"
	DefaultCxxDir     = "cpp"
	DefaultNamespace  = "craby"
)

// Config mirrors craby.toml.
type Config struct {
	Project Project `toml:"project"`
	Codegen Codegen `toml:"codegen"`
	Android Android `toml:"android"`
	IOS     IOS     `toml:"ios"`
}

type Project struct {
	Name      string `toml:"name" validate:"required,crate_name"`
	SourceDir string `toml:"source_dir" validate:"relpath"`
}

type Codegen struct {
	// SpecPrefix selects spec files by name, e.g. "Native" matches NativeCalculator.ts.
	SpecPrefix string `toml:"spec_prefix" validate:"identifier"`
	RustDir    string `toml:"rust_dir" validate:"relpath"`
	CxxDir     string `toml:"cxx_dir" validate:"relpath"`
	Namespace  string `toml:"namespace" validate:"identifier"`
}

type Android struct {
	PackageName string   `toml:"package_name" validate:"omitempty,android_package"`
	Targets     []string `toml:"targets" validate:"dive,required"`
}

type IOS struct {
	Targets []string `toml:"targets" validate:"dive,required"`
}

// Load reads craby.toml from root, applies overrides, fills defaults and
// validates the result. overrides are "key=value" pairs, see Override.
func Load(root string, overrides ...string) (*Config, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHintf(errors.Newf("%s not found in %s", FileName, root),
				"create %s with a [project] table, or pass -p with the project root", FileName)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	if err := Override(cfg, overrides...); err != nil {
		return nil, err
	}
	out := applyDefaults(*cfg)
	if err := Validate(&out); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &out, nil
}

// Parse decodes craby.toml content. Keys that do not map to a field are an
// error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// applyDefaults returns a copy of cfg with unset fields filled in.
func applyDefaults(cfg Config) Config {
	if cfg.Project.SourceDir == "" {
		cfg.Project.SourceDir = DefaultSourceDir
	}
	if cfg.Codegen.SpecPrefix == "" {
		cfg.Codegen.SpecPrefix = DefaultSpecPrefix
	}
	if cfg.Codegen.RustDir == "" {
		cfg.Codegen.RustDir = DefaultRustDir
	}
	if cfg.Codegen.CxxDir == "" {
		cfg.Codegen.CxxDir = DefaultCxxDir
	}
	if cfg.Codegen.Namespace == "" {
		cfg.Codegen.Namespace = DefaultNamespace
	}
	return cfg
}
