// Package version reports what build of inkwell is running.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version and BuildTime are set with -ldflags "-X ...". When Version is left
// at "dev", the module version from the build info is used if there is one.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Current returns Version, preferring the module version recorded by
// `go install module@version` over the "dev" placeholder.
func Current() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String is the -version output of both binaries.
func String() string {
	return fmt.Sprintf("inkwell version %s (built %s)", Current(), BuildTime)
}

// UserAgent is sent by the gateway client on every request.
func UserAgent() string {
	return "inkwell-ui/" + Current()
}
