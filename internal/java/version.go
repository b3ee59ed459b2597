package java

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

var (
	legacyVersionPattern = regexp.MustCompile(`^1\.(\d+)\.(\d+)_(\d+)(-b\d+)?`)
	modernVersionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)([+.]\d+)?`)
)

// Semver is the {major, minor, patch} triple the Java Guard ranks and
// range-filters candidates on.
type Semver struct {
	Major, Minor, Patch int
}

func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseJavaVersion parses a java.version property value into a Semver,
// dispatching on the legacy "1.x" prefix. It returns false for strings
// that match neither pattern; the caller drops such a candidate.
func ParseJavaVersion(raw string) (Semver, bool) {
	if m := legacyVersionPattern.FindStringSubmatch(raw); m != nil {
		return Semver{
			Major: atoi(m[1]),
			Minor: atoi(m[2]),
			Patch: atoi(m[3]),
		}, true
	}
	if m := modernVersionPattern.FindStringSubmatch(raw); m != nil {
		return Semver{
			Major: atoi(m[1]),
			Minor: atoi(m[2]),
			Patch: atoi(m[3]),
		}, true
	}
	return Semver{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Satisfies reports whether v falls inside the given semver range
// expression (e.g. ">=17.x", "^17.x", "8.x").
func (v Semver) Satisfies(rangeExpr string) (bool, error) {
	constraint, err := semver.NewConstraint(rangeExpr)
	if err != nil {
		return false, fmt.Errorf("java: invalid range %q: %w", rangeExpr, err)
	}
	sv, err := semver.NewVersion(v.String())
	if err != nil {
		return false, fmt.Errorf("java: invalid version %q: %w", v.String(), err)
	}
	return constraint.Check(sv), nil
}

var (
	javaBump21 = semver.MustParse("1.20.5")
	javaBump17 = semver.MustParse("1.17.0")
)

// DefaultJavaRequirement derives the Java range/suggested-major heuristic
// from a Minecraft version string. Unparsable (e.g. snapshot) versions
// fall back to the most conservative requirement.
func DefaultJavaRequirement(minecraftVersion string) (rangeExpr string, suggestedMajor int) {
	v, err := semver.NewVersion(minecraftVersion)
	if err != nil {
		return "8.x", 8
	}
	switch {
	case !v.LessThan(javaBump21):
		return ">=21.x", 21
	case !v.LessThan(javaBump17):
		return ">=17.x", 17
	default:
		return "8.x", 8
	}
}
