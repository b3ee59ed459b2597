package distribution

import (
	"fmt"
	"strings"
)

// Coordinate is a parsed Maven artifact identifier:
// group:artifact:version[:classifier][@ext].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string // empty if absent
	Extension  string // defaults to "jar"
}

const defaultExtension = "jar"

// ParseCoordinate parses a Maven coordinate string. Non-File module types
// must carry a parsable coordinate as their id; callers should treat a
// parse failure on such a module as a fatal malformed-distribution error.
func ParseCoordinate(id string) (Coordinate, error) {
	ext := defaultExtension
	body := id
	if at := strings.LastIndex(id, "@"); at != -1 {
		ext = id[at+1:]
		body = id[:at]
		if ext == "" {
			return Coordinate{}, fmt.Errorf("distribution: empty extension in coordinate %q", id)
		}
	}

	parts := strings.Split(body, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("distribution: malformed maven coordinate %q", id)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("distribution: malformed maven coordinate %q", id)
		}
	}

	c := Coordinate{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// RelativePath returns the Maven-layout relative path for this coordinate:
// <group slashed>/<artifact>/<version>/<artifact>-<version>[-classifier].<ext>
func (c Coordinate) RelativePath() string {
	groupPath := strings.ReplaceAll(c.Group, ".", "/")
	filename := fmt.Sprintf("%s-%s", c.Artifact, c.Version)
	if c.Classifier != "" {
		filename += "-" + c.Classifier
	}
	filename += "." + c.Extension
	return strings.Join([]string{groupPath, c.Artifact, c.Version, filename}, "/")
}
