// Package version reports the pagepress build. Values are injected with
//
//	go build -ldflags "-X git.home.luguber.info/inful/pagepress/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the one-line version printed by --version.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("pagepress %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
