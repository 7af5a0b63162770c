package project

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/l2hyunwoo/craby/crabygen"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/internal/config"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// Status is the outcome of one check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarn    Status = "warn"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Result is one line of a doctor report.
type Result struct {
	Section string
	Name    string
	Status  Status

	// Detail explains a non-ok status, or summarizes what was found.
	Detail string
}

// Report is the outcome of Doctor.
type Report struct {
	Results []Result
}

// Passed reports whether no check failed. Warnings do not count.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Sections returns the section names in report order.
func (r *Report) Sections() []string {
	var out []string
	seen := make(map[string]bool)
	for _, res := range r.Results {
		if !seen[res.Section] {
			seen[res.Section] = true
			out = append(out, res.Section)
		}
	}
	return out
}

type check struct {
	section string
	name    string

	// optional checks report a warning instead of a failure.
	optional bool
	run      func(p *Project) (detail string, err error)
}

var checks = []check{
	{section: "Project", name: "Spec files", run: checkSpecs},
	{section: "Rust", name: "Cargo.toml", run: checkManifest},
	{section: "C++", name: "Output directory", run: checkCxxDir},
	{section: "Android", name: "Build configuration (build.gradle)", optional: true, run: checkGradle},
	{section: "iOS", name: "Build configuration (.podspec)", optional: true, run: checkPodspec},
}

// Doctor inspects the project at root. It never stops at the first failure;
// checks that need a valid craby.toml are skipped when it is not.
func Doctor(root string, overrides ...string) *Report {
	report := &Report{}
	p, err := Open(root, overrides...)
	if err != nil {
		report.Results = append(report.Results, Result{Section: "Project", Name: config.FileName, Status: StatusFail, Detail: err.Error()})
		for _, c := range checks {
			report.Results = append(report.Results, Result{Section: c.section, Name: c.name, Status: StatusSkipped, Detail: "invalid " + config.FileName})
		}
		return report
	}

	report.Results = append(report.Results, Result{Section: "Project", Name: config.FileName, Status: StatusOK, Detail: p.Config.Project.Name})
	for _, c := range checks {
		res := Result{Section: c.section, Name: c.name, Status: StatusOK}
		detail, err := c.run(p)
		res.Detail = detail
		if err != nil {
			res.Status = StatusFail
			if c.optional {
				res.Status = StatusWarn
			}
			res.Detail = err.Error()
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func checkSpecs(p *Project) (string, error) {
	files, err := crabygen.DiscoverSpecs(p.GeneratorConfig(nil))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.Newf("no %s*.ts files in %s", p.Config.Codegen.SpecPrefix, p.Config.Project.SourceDir)
	}
	return strings.Join(files, ", "), nil
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib struct {
		Name string `toml:"name"`
	} `toml:"lib"`
}

// checkManifest requires the crate to be named after the project, with a
// flat-case library name the build links against.
func checkManifest(p *Project) (string, error) {
	path := p.Path(p.Config.Codegen.RustDir + "/Cargo.toml")
	var m cargoManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf("%s/Cargo.toml not found", p.Config.Codegen.RustDir)
		}
		return "", errors.Wrap(err, "decode Cargo.toml")
	}

	name := p.Config.Project.Name
	if m.Package.Name != name {
		return "", errors.Newf("package name %q does not match project name %q", m.Package.Name, name)
	}
	if want := naming.ForModule(name).Flat; m.Lib.Name != want {
		return "", errors.Newf("library name %q, expected %q", m.Lib.Name, want)
	}
	return m.Package.Name, nil
}

// checkCxxDir requires the C++ output directory to exist as a writable
// directory, or to be creatable under its nearest existing parent.
func checkCxxDir(p *Project) (string, error) {
	dir := p.Path(p.Config.Codegen.CxxDir)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", errors.Newf("%s is not a directory", dir)
			}
			break
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("no existing parent for %s", p.Config.Codegen.CxxDir)
		}
		dir = parent
	}

	tmp, err := os.CreateTemp(dir, ".craby-doctor-*")
	if err != nil {
		return "", errors.Wrapf(err, "%s is not writable", dir)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())
	return p.Config.Codegen.CxxDir, nil
}

func checkGradle(p *Project) (string, error) {
	data, err := os.ReadFile(p.Path("android/build.gradle"))
	if err != nil {
		return "", errors.New("android/build.gradle not found")
	}
	content := string(data)
	for _, want := range []string{"externalNativeBuild", "cmake", "CMakeLists.txt"} {
		if !strings.Contains(content, want) {
			return "", errors.Newf("android/build.gradle does not mention %s", want)
		}
	}
	return "", nil
}

var xcframeworkRe = regexp.MustCompile(`ios/framework/lib\w+\.xcframework`)

func checkPodspec(p *Project) (string, error) {
	matches, err := filepath.Glob(filepath.Join(p.Root, "*.podspec"))
	if err != nil || len(matches) == 0 {
		return "", errors.New(".podspec not found")
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", err
	}
	content := string(data)
	if !strings.Contains(content, ".vendored_frameworks") || !xcframeworkRe.MatchString(content) {
		return "", errors.Newf("%s does not vendor ios/framework/lib<name>.xcframework", filepath.Base(matches[0]))
	}
	return filepath.Base(matches[0]), nil
}
