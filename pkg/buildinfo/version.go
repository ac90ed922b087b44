// Package buildinfo describes the infograph build.
//
// Version, Commit and Date are stamped at link time:
//
//	go build -ldflags "-X github.com/devtoc/infograph/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/devtoc/infograph/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/devtoc/infograph/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/infograph
//
// Builds without ldflags fall back to what the Go toolchain recorded: the
// module version for `go install`, the VCS revision and commit time for
// builds inside a checkout.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build description printed by --version and served by the
// HTTP API, which adds the command types and widget schema versions the
// build understands.
type Info struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Date     string   `json:"date"`
	Commands []string `json:"commands,omitempty"`
	Schemas  []string `json:"schemas,omitempty"`
}

// Get returns the build description.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// ShortCommit returns the first 12 characters of the commit.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", i.Version, i.ShortCommit(), i.Date)
}
