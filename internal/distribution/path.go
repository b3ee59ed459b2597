package distribution

import (
	"fmt"
	"path/filepath"
)

// Dirs is the set of root directories a ResolvePath call needs: the
// shared "common" tree (libraries, mods, versions) and the per-instance
// tree for File modules and other per-server state.
type Dirs struct {
	Common   string
	Instance string
}

// ResolvePath computes m's effective on-disk path per spec §6's module
// path rules. Non-File modules must carry a parsable Maven coordinate
// unless artifact.path is set explicitly; VersionManifest modules are
// placed by their plain id and need neither.
func ResolvePath(m *Module, dirs Dirs) (string, error) {
	if m.Type == ModuleVersionManifest {
		return filepath.Join(dirs.Common, "versions", m.ID, m.ID+".json"), nil
	}

	relative, err := relativePath(m)
	if err != nil {
		return "", err
	}

	switch m.Type {
	case ModuleLibrary, ModuleForge, ModuleForgeHosted, ModuleFabric, ModuleLiteLoader:
		return filepath.Join(dirs.Common, "libraries", filepath.FromSlash(relative)), nil
	case ModuleForgeMod, ModuleLiteMod:
		return filepath.Join(dirs.Common, "modstore", filepath.FromSlash(relative)), nil
	case ModuleFabricMod:
		return filepath.Join(dirs.Common, "mods", "fabric", filepath.FromSlash(relative)), nil
	case ModuleFile:
		return filepath.Join(dirs.Instance, m.serverID, filepath.FromSlash(relative)), nil
	default:
		return filepath.Join(dirs.Instance, m.serverID, filepath.FromSlash(relative)), nil
	}
}

// relativePath returns artifact.path when explicitly set, else derives it
// from the module's Maven coordinate id.
func relativePath(m *Module) (string, error) {
	if m.Artifact.Path != "" {
		return m.Artifact.Path, nil
	}
	if m.Type == ModuleFile {
		// File modules with no explicit path use the bare id as the
		// relative path; they need not be Maven coordinates.
		if m.ID == "" {
			return "", fmt.Errorf("distribution: File module has neither artifact.path nor id")
		}
		return m.ID, nil
	}
	coord, err := ParseCoordinate(m.ID)
	if err != nil {
		return "", fmt.Errorf("distribution: module %q: %w", m.ID, err)
	}
	return coord.RelativePath(), nil
}
