package java

import (
	"runtime"
	"sort"
	"strings"
)

// FilterAndRank drops candidates that fail the 64-bit/architecture/range
// checks, then sorts survivors descending by (major, minor, patch),
// breaking ties in favor of the path that does not contain "jdk" (a JRE
// is preferred over a JDK when both are otherwise equal).
func FilterAndRank(candidates []JVMDetails, rangeExpr string) ([]JVMDetails, error) {
	var filtered []JVMDetails
	for _, c := range candidates {
		if c.DataModel != "64" {
			continue
		}
		if runtime.GOARCH == "arm64" && c.Arch != "" && c.Arch != "aarch64" {
			continue
		}
		ok, err := c.Semver.Satisfies(rangeExpr)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Semver.Major != b.Semver.Major {
			return a.Semver.Major > b.Semver.Major
		}
		if a.Semver.Minor != b.Semver.Minor {
			return a.Semver.Minor > b.Semver.Minor
		}
		if a.Semver.Patch != b.Semver.Patch {
			return a.Semver.Patch > b.Semver.Patch
		}
		aJDK := strings.Contains(strings.ToLower(a.Path), "jdk")
		bJDK := strings.Contains(strings.ToLower(b.Path), "jdk")
		if aJDK != bJDK {
			return !aJDK
		}
		return false
	})

	return filtered, nil
}

// Best returns the top-ranked candidate after FilterAndRank, or nil if
// nothing survives filtering.
func Best(candidates []JVMDetails, rangeExpr string) (*JVMDetails, error) {
	ranked, err := FilterAndRank(candidates, rangeExpr)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	return &ranked[0], nil
}
