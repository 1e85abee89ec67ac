// Package fiadb carries the public version information of the fiadb toolkit
package fiadb

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Version information
const (
	Version         = "0.3.0"
	HandbookVersion = "9.1"
	APIVersion      = "v1"
)

// BuildInfo contains build information
var BuildInfo = struct {
	Version         string
	HandbookVersion string
	APIVersion      string
	GitCommit       string
	BuildDate       string
	GoVersion       string
}{
	Version:         Version,
	HandbookVersion: HandbookVersion,
	APIVersion:      APIVersion,
	GoVersion:       runtime.Version(),
}

// SetBuildInfo is called by the build process
func SetBuildInfo(commit, date, goVersion string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
	if goVersion != "" {
		BuildInfo.GoVersion = goVersion
	}
}

// VersionInfo returns formatted version information
func VersionInfo() string {
	return fmt.Sprintf("fiadb %s (handbook %s, API %s)", BuildInfo.Version, BuildInfo.HandbookVersion, BuildInfo.APIVersion)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fiadb %s\n", BuildInfo.Version)
	fmt.Fprintf(&b, "Handbook Version: %s\n", BuildInfo.HandbookVersion)
	fmt.Fprintf(&b, "API Version: %s\n", BuildInfo.APIVersion)
	fmt.Fprintf(&b, "Go Version: %s\n", BuildInfo.GoVersion)

	if BuildInfo.GitCommit != "" {
		fmt.Fprintf(&b, "Git Commit: %s\n", BuildInfo.GitCommit)
	}
	if BuildInfo.BuildDate != "" {
		fmt.Fprintf(&b, "Build Date: %s\n", BuildInfo.BuildDate)
	}
	return b.String()
}

// IsVersionCompatible reports whether this build is at least the required
// major.minor.patch version
func IsVersionCompatible(required string) bool {
	return compareVersions(Version, required) >= 0
}

func compareVersions(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x, _ = strconv.Atoi(pa[i])
		}
		if i < len(pb) {
			y, _ = strconv.Atoi(pb[i])
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}
