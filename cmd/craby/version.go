package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var releaseVersion string

// Version reports the module version for `go install`ed binaries, and
// "devel-<VERSION>[+rev][-dirty]" for local builds.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return strings.TrimSpace(releaseVersion)
	}
	return version(strings.TrimSpace(releaseVersion), info)
}

func version(base string, info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	out := "devel-" + base
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) >= 7 {
		out += "+" + rev[:7]
	}
	if dirty {
		out += "-dirty"
	}
	return out
}
