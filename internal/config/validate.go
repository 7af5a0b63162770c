package config

import (
	"fmt"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/l2hyunwoo/craby/internal/errors"
)

var (
	crateNameRe      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	identifierRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	androidPackageRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "relpath", isRelPath)
	mustRegister(v, "crate_name", matches(crateNameRe))
	mustRegister(v, "identifier", matches(identifierRe))
	mustRegister(v, "android_package", matches(androidPackageRe))
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// isRelPath accepts a non-empty slash path that stays inside the project.
func isRelPath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" || strings.Contains(p, `\`) || path.IsAbs(p) {
		return false
	}
	clean := path.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// Validate reports every invalid field of cfg in one error.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate config")
	}
	var all error
	for _, fe := range verrs {
		all = errors.Append(all, errors.Newf("%s: %s", fieldPath(fe), describe(fe)))
	}
	return all
}

// fieldPath turns "Config.codegen.rust_dir" into "codegen.rust_dir".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	value := fmt.Sprintf("%v", fe.Value())
	switch fe.Tag() {
	case "required":
		return "is required"
	case "relpath":
		return fmt.Sprintf("%q must be a relative path inside the project", value)
	case "crate_name":
		return fmt.Sprintf("%q is not a valid crate name", value)
	case "identifier":
		return fmt.Sprintf("%q is not a valid identifier", value)
	case "android_package":
		return fmt.Sprintf("%q is not a valid Android package name", value)
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
