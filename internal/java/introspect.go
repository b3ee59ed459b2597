package java

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// JVMDetails is what introspection of a candidate java executable yields.
type JVMDetails struct {
	Path         string
	Vendor       string
	Semver       Semver
	SemverString string
	DataModel    string // "32" or "64"
	Arch         string // os.arch property, e.g. "amd64", "aarch64"
}

// listValuedProperties are HotSpot properties that are always normalized
// to a []string, even when only a single value is observed.
var listValuedProperties = map[string]bool{
	"java.library.path":     true,
	"java.class.path":       true,
	"sun.boot.library.path": true,
	"java.ext.dirs":         true,
}

const introspectTimeout = 5 * time.Second

// Introspect spawns <java> -XshowSettings:properties -version and parses
// the resulting HotSpot property dump. javaPath may point at javaw.exe;
// it is transparently substituted with java.exe, since javaw has no
// console output.
func Introspect(ctx context.Context, javaPath string) (*JVMDetails, error) {
	exe := substituteConsoleExecutable(javaPath)

	ctx, cancel := context.WithTimeout(ctx, introspectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, exe, "-XshowSettings:properties", "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return legacyIntrospect(ctx, exe)
	}

	props := ParseProperties(string(output))
	versionRaw, _ := props["java.version"].(string)
	if versionRaw == "" {
		return legacyIntrospect(ctx, exe)
	}

	sv, ok := ParseJavaVersion(versionRaw)
	if !ok {
		return nil, fmt.Errorf("java: %s: unrecognized java.version %q", exe, versionRaw)
	}

	return &JVMDetails{
		Path:         exe,
		Vendor:       asString(props["java.vendor"]),
		Semver:       sv,
		SemverString: versionRaw,
		DataModel:    asString(props["sun.arch.data.model"]),
		Arch:         asString(props["os.arch"]),
	}, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func substituteConsoleExecutable(path string) string {
	if filepath.Base(path) == "javaw.exe" {
		return filepath.Join(filepath.Dir(path), "java.exe")
	}
	return path
}

// ParseProperties parses the stderr dump of -XshowSettings:properties. The
// tool prints a 4-space-indented "key = value" line per property; an
// 8-space-indented continuation line extends the previous key into a list.
func ParseProperties(output string) map[string]interface{} {
	props := make(map[string]interface{})
	lastKey := ""

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "        "):
			if lastKey == "" {
				continue
			}
			appendListValue(props, lastKey, strings.TrimSpace(line))
		case strings.HasPrefix(line, "    "):
			trimmed := strings.TrimSpace(line)
			idx := strings.Index(trimmed, "=")
			if idx == -1 {
				lastKey = ""
				continue
			}
			key := strings.TrimSpace(trimmed[:idx])
			val := strings.TrimSpace(trimmed[idx+1:])
			lastKey = key
			if listValuedProperties[key] {
				if val != "" {
					appendListValue(props, key, val)
				}
			} else {
				props[key] = val
			}
		default:
			lastKey = ""
		}
	}

	for key := range listValuedProperties {
		if v, ok := props[key]; ok {
			if s, isString := v.(string); isString {
				props[key] = []string{s}
			}
		}
	}
	return props
}

func appendListValue(props map[string]interface{}, key, val string) {
	existing, ok := props[key]
	if !ok {
		props[key] = []string{val}
		return
	}
	switch v := existing.(type) {
	case []string:
		props[key] = append(v, val)
	case string:
		props[key] = []string{v, val}
	}
}

// legacyVersionLine matches the classic "java -version" output this
// package falls back to when -XshowSettings:properties isn't supported
// (very old JVMs) or produced no java.version.
var legacyVersionLine = regexp.MustCompile(`(?:java|openjdk) version "([^"]+)"`)

func legacyIntrospect(ctx context.Context, exe string) (*JVMDetails, error) {
	cmd := exec.CommandContext(ctx, exe, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("java: running %s -version: %w", exe, err)
	}

	text := string(output)
	m := legacyVersionLine.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("java: %s: no recognizable version output", exe)
	}
	sv, ok := ParseJavaVersion(m[1])
	if !ok {
		return nil, fmt.Errorf("java: %s: unrecognized version %q", exe, m[1])
	}

	dataModel := "32"
	if strings.Contains(text, "64-Bit") || strings.Contains(text, "amd64") || strings.Contains(text, "x86_64") || strings.Contains(text, "aarch64") {
		dataModel = "64"
	}

	return &JVMDetails{
		Path:         exe,
		Vendor:       sniffVendor(text),
		Semver:       sv,
		SemverString: m[1],
		DataModel:    dataModel,
	}, nil
}

func sniffVendor(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "graalvm"):
		return "GraalVM"
	case strings.Contains(lower, "azul"):
		return "Azul Zulu"
	case strings.Contains(lower, "adoptium"), strings.Contains(lower, "temurin"):
		return "Eclipse Adoptium"
	case strings.Contains(lower, "corretto"):
		return "Amazon Corretto"
	case strings.Contains(lower, "oracle"):
		return "Oracle"
	case strings.Contains(lower, "microsoft"):
		return "Microsoft"
	case strings.Contains(lower, "openjdk"):
		return "OpenJDK"
	default:
		return ""
	}
}
