// Package build holds the version information set at link time.
package build

import (
	"github.com/prometheus/common/version"
)

// Version information passed to Prometheus version package. Set with
//
//	-ldflags "-X github.com/grafana/dynwalk/pkg/build.Version=..."
var (
	Version   string
	Revision  string
	Branch    string
	BuildUser string
	BuildDate string
)

func init() {
	if Version == "" {
		Version = "devel"
	}
	version.Version = Version
	version.Revision = Revision
	version.Branch = Branch
	version.BuildUser = BuildUser
	version.BuildDate = BuildDate
}

// Print returns the version banner of program.
func Print(program string) string {
	return version.Print(program)
}
