package java

import (
	"os"
	"path/filepath"
	"runtime"
)

var environmentVars = []string{"JAVA_HOME", "JRE_HOME", "JDK_HOME"}

// DefaultStrategies returns the per-OS set of discovery strategies. On
// Windows, macOS and Linux the launcher's own managed-runtime directory
// (runtimeDir, e.g. "<data>/runtime") is scanned too when non-empty, so a
// previously-installed managed JDK is rediscovered without a remote fetch;
// any other OS gets only the environment strategy.
func DefaultStrategies(runtimeDir string) []Strategy {
	env := EnvironmentStrategy{Vars: environmentVars}

	switch runtime.GOOS {
	case "windows":
		dirs := []string{
			`Program Files\Java`,
			`Program Files\Eclipse Adoptium`,
			`Program Files\Eclipse Foundation`,
			`Program Files\AdoptOpenJDK`,
			`Program Files\Amazon Corretto`,
		}
		var windowsDirs []string
		for _, drive := range mountedDriveRoots() {
			for _, dir := range dirs {
				windowsDirs = append(windowsDirs, filepath.Join(drive, dir))
			}
		}
		if runtimeDir != "" {
			windowsDirs = append(windowsDirs, runtimeDir)
		}
		return []Strategy{
			env,
			DirectoryStrategy{Dirs: windowsDirs},
			WindowsRegistryStrategy{},
		}

	case "darwin":
		dirs := []string{"/Library/Java/JavaVirtualMachines"}
		if runtimeDir != "" {
			dirs = append(dirs, runtimeDir)
		}
		return []Strategy{
			env,
			DirectoryStrategy{Dirs: dirs},
			PathStrategy{Roots: []string{"/Library/Internet Plug-Ins/JavaAppletPlugin.plugin/Contents/Home"}},
		}

	case "linux":
		dirs := []string{"/usr/lib/jvm"}
		if runtimeDir != "" {
			dirs = append(dirs, runtimeDir)
		}
		return []Strategy{
			env,
			DirectoryStrategy{Dirs: dirs},
		}

	default:
		return []Strategy{env}
	}
}

// mountedDriveRoots returns every drive root (e.g. "C:\") that currently
// exists, used to project the Windows directory strategy across every
// mounted file-system root.
func mountedDriveRoots() []string {
	var out []string
	for c := 'C'; c <= 'Z'; c++ {
		root := string(c) + `:\`
		if _, err := os.Stat(root); err == nil {
			out = append(out, string(c)+":")
		}
	}
	if len(out) == 0 {
		out = []string{"C:"}
	}
	return out
}
