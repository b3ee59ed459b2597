package distribution

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quasar/launchercore/internal/core"
)

// LaunchArgsInput carries everything the argument templater needs. It does
// not spawn a process; computing the substituted argument list is in
// scope even though launching the game itself is not.
type LaunchArgsInput struct {
	Version      *core.VersionDetails
	LibrariesDir string
	AssetsDir    string
	GameDir      string
	NativesDir   string

	PlayerName  string
	UUID        string
	AccessToken string
	UserType    string // "legacy", "msa", "mojang"

	ExtraJVMArgs []string
}

// BuildLaunchArguments returns the full ordered argument list a collaborator
// would pass to the Java executable: JVM flags, classpath, main class, then
// substituted game arguments.
func BuildLaunchArguments(in LaunchArgsInput) []string {
	var args []string

	if len(in.ExtraJVMArgs) > 0 {
		args = append(args, in.ExtraJVMArgs...)
	} else {
		args = append(args, "-Xmx2G", "-Xms512M")
	}

	if runtime.GOOS == "darwin" {
		args = append(args, "-XstartOnFirstThread")
	}
	if in.NativesDir != "" {
		args = append(args, fmt.Sprintf("-Djava.library.path=%s", in.NativesDir))
	}

	args = append(args, "-cp", BuildClasspath(in.Version, in.LibrariesDir))
	args = append(args, in.Version.MainClass)
	args = append(args, BuildGameArguments(in)...)

	return args
}

// BuildClasspath joins every applicable library's resolved jar path plus
// the client jar, using the platform-appropriate separator. The client jar
// is taken from versions/<id>/<id>.jar under librariesDir's parent (the
// common directory), where the Vendor Index Processor places it.
func BuildClasspath(version *core.VersionDetails, librariesDir string) string {
	var paths []string
	for _, lib := range version.Libraries {
		if !LibraryApplies(&lib) {
			continue
		}
		if lib.Downloads == nil || lib.Downloads.Artifact == nil {
			continue
		}
		paths = append(paths, filepath.Join(librariesDir, lib.Downloads.Artifact.Path))
	}

	clientPath := filepath.Join(filepath.Dir(librariesDir), "versions",
		version.ID, version.ID+".jar")
	paths = append(paths, clientPath)

	separator := ":"
	if runtime.GOOS == "windows" {
		separator = ";"
	}
	return strings.Join(paths, separator)
}

// BuildGameArguments substitutes the standard ${...} placeholders into the
// version's game argument list, supporting both the modern
// Arguments.Game format and the legacy flat MinecraftArguments string.
func BuildGameArguments(in LaunchArgsInput) []string {
	version := in.Version

	uuid := in.UUID
	if uuid == "" {
		uuid = "00000000-0000-0000-0000-000000000000"
	}
	token := in.AccessToken
	if token == "" {
		token = "0"
	}
	userType := in.UserType
	if userType == "" {
		userType = "legacy"
	}
	playerName := in.PlayerName
	if playerName == "" {
		playerName = "Player"
	}

	replacements := map[string]string{
		"${auth_player_name}":  playerName,
		"${version_name}":      version.ID,
		"${game_directory}":    in.GameDir,
		"${assets_root}":       in.AssetsDir,
		"${assets_index_name}": version.AssetIndex.ID,
		"${auth_uuid}":         uuid,
		"${auth_access_token}": token,
		"${user_type}":         userType,
		"${version_type}":      string(version.Type),
		"${user_properties}":   "{}",
	}

	var args []string
	switch {
	case version.Arguments != nil && len(version.Arguments.Game) > 0:
		for _, arg := range version.Arguments.Game {
			if s, ok := arg.(string); ok {
				args = append(args, substitute(s, replacements))
			}
			// Conditional rule objects (map[string]interface{}) are
			// skipped; only unconditional string entries are templated.
		}
	case version.MinecraftArguments != "":
		for _, arg := range strings.Split(version.MinecraftArguments, " ") {
			args = append(args, substitute(arg, replacements))
		}
	}
	return args
}

func substitute(s string, replacements map[string]string) string {
	for k, v := range replacements {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

// LibraryApplies evaluates a library's OS rules the way the Vendor Index
// Processor does when deciding whether to download and classpath-include
// it on the current platform.
func LibraryApplies(lib *core.Library) bool {
	if len(lib.Rules) == 0 {
		return true
	}

	allowed := false
	osNameMap := map[string]string{
		"darwin":  "osx",
		"linux":   "linux",
		"windows": "windows",
	}
	for _, rule := range lib.Rules {
		applies := true
		if rule.OS != nil && rule.OS.Name != "" {
			osName := runtime.GOOS
			if mapped, ok := osNameMap[osName]; ok {
				osName = mapped
			}
			if rule.OS.Name != osName {
				applies = false
			}
		}
		if applies {
			allowed = rule.Action == "allow"
		}
	}
	return allowed
}
