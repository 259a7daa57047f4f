package version

import (
	"time"

	"github.com/carlmjohnson/versioninfo"
)

/* injected */

var release string

/* ** */

type VersionInfoGit struct {
	Commit     string    `json:"commit"`
	Dirty      bool      `json:"dirty"`
	LastCommit time.Time `json:"lastCommit"`
}

type VersionInfo struct {
	Release string         `json:"release"`
	Git     VersionInfoGit `json:"git"`
}

func GetRelease() *VersionInfo {
	r := release

	if r == "" {
		r = "unknown"
	}

	return &VersionInfo{
		Release: r,
		Git: VersionInfoGit{
			Commit:     versioninfo.Revision,
			Dirty:      versioninfo.DirtyBuild,
			LastCommit: versioninfo.LastCommit,
		},
	}
}
