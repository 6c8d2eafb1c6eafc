// Package version resolves the version of this module as seen by the binary
// which embeds it. Compilation caches are keyed by it.
package version

import (
	"runtime/debug"
	"strings"
)

// Default is returned when the version can not be read from the build info,
// e.g. in tests of this module.
const Default = "dev"

const modulePath = "github.com/tetratelabs/baselinejit"

// GetBaselineJITVersion returns the version of this module in the go.mod of
// the main module, or Default.
func GetBaselineJITVersion() (ret string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) (ret string) {
	for _, dep := range info.Deps {
		if strings.Contains(dep.Path, modulePath) {
			ret = dep.Version
		}
	}
	// Development builds of this module report "(devel)".
	if ret == "" && info.Main.Path == modulePath && info.Main.Version != "(devel)" {
		ret = info.Main.Version
	}
	if ret == "" {
		ret = Default
	}
	return
}
