package version

import (
	"runtime/debug"
)

// Info contains build information supplied during compile time.
type Info struct {
	*debug.BuildInfo
	ApplicationVersion string `json:"version"`
}

// version gets filled by a linker argument and should contain the app version.
var version string

// Get version related embedded information.
func Get() Info {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		buildInfo = &debug.BuildInfo{}
	}

	return Info{buildInfo, version}
}

// String returns the application version or "(devel)" for untagged builds.
func (i Info) String() string {
	if len(i.ApplicationVersion) > 0 {
		return i.ApplicationVersion
	}
	return "(devel)"
}
