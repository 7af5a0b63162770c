package config

import (
	"sort"
	"strings"

	"github.com/gorilla/schema"

	"github.com/l2hyunwoo/craby/internal/errors"
)

var overrideDecoder = newOverrideDecoder()

func newOverrideDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("toml")
	// An empty value resets a field to its default.
	d.ZeroEmpty(true)
	return d
}

// Override applies "key=value" pairs to cfg in place. Keys are dotted toml
// paths, e.g. "codegen.cxx_dir=ios/cpp". Repeating a list key such as
// "ios.targets" collects every value.
func Override(cfg *Config, pairs ...string) error {
	if len(pairs) == 0 {
		return nil
	}
	values := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return errors.WithHint(errors.Newf("invalid override %q", pair),
				"overrides take the form section.key=value")
		}
		values[key] = append(values[key], value)
	}

	err := overrideDecoder.Decode(cfg, values)
	if err == nil {
		return nil
	}
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return errors.Wrap(err, "apply overrides")
	}
	keys := make([]string, 0, len(multi))
	for k := range multi {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var all error
	for _, k := range keys {
		var unknown schema.UnknownKeyError
		if errors.As(multi[k], &unknown) {
			all = errors.Append(all, errors.Newf("unknown config key %q", k))
			continue
		}
		all = errors.Append(all, errors.Wrapf(multi[k], "override %s", k))
	}
	return all
}
