// Package version reports what the vxpack binary was built from.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// BuildVersion overrides the module version, set through -ldflags.
var BuildVersion = ""

const develVersion = "0.0.0-dev"

type Info struct {
	Major      string `json:"major"`
	Minor      string `json:"minor"`
	Patch      string `json:"patch"`
	PreRelease string `json:"prerelease"`
	Meta       string `json:"meta"`
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
}

// Get reads the version from the embedded build info.
func Get() (Info, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}, fmt.Errorf("could not read build info")
	}
	return FromBuildInfo(bi)
}

// FromBuildInfo derives Info from bi. Pseudo versions carry the build date
// and commit in their prerelease part. A "(devel)" main version is reported
// as 0.0.0-dev.
func FromBuildInfo(bi *debug.BuildInfo) (Info, error) {
	raw := bi.Main.Version
	if BuildVersion != "" {
		raw = BuildVersion
	}
	if raw == "" || raw == "(devel)" {
		raw = develVersion
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return Info{}, fmt.Errorf("could not parse version %q: %w", raw, err)
	}

	var gitCommit, buildDate string
	if prerelease := v.Prerelease(); prerelease != "" {
		// pseudo versions look like v0.0.0-20250101120000-abcdef123456
		if date, commit, found := strings.Cut(prerelease, "-"); found {
			buildDate, gitCommit = date, commit
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if gitCommit == "" {
				gitCommit = s.Value
			}
		case "vcs.time":
			if buildDate == "" {
				buildDate = s.Value
			}
		}
	}

	return Info{
		Major:      strconv.FormatUint(v.Major(), 10),
		Minor:      strconv.FormatUint(v.Minor(), 10),
		Patch:      strconv.FormatUint(v.Patch(), 10),
		PreRelease: v.Prerelease(),
		Meta:       v.Metadata(),
		GitVersion: v.Original(),
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  bi.GoVersion,
		Compiler:   runtime.Compiler,
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}, nil
}
