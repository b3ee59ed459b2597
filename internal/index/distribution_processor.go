package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quasar/launchercore/internal/core"
	"github.com/quasar/launchercore/internal/distribution"
	"github.com/quasar/launchercore/internal/hashutil"
)

// legacyForgeCap is the highest Forge build version (as a 4-part build
// number) still considered legacy: anything strictly greater, or any
// Minecraft version >= 1.13, reads its overlay from a sibling
// VersionManifest sub-module instead of extracting it from the
// installer archive.
var legacyForgeCap = [4]int{14, 23, 5, 2847}

// DistributionIndexProcessor validates a single server's module tree
// against the rules in internal/distribution, and — after a successful
// download — extracts or locates the mod-loader's overlay version JSON.
type DistributionIndexProcessor struct {
	Server *distribution.Server
	Dirs   distribution.Dirs

	CommonDir string // same root as Dirs.Common, kept for overlay writes
}

// NewDistributionIndexProcessor builds a processor for the given server
// entry, already selected by the orchestrator from a loaded Distribution.
func NewDistributionIndexProcessor(server *distribution.Server, dirs distribution.Dirs) *DistributionIndexProcessor {
	return &DistributionIndexProcessor{Server: server, Dirs: dirs, CommonDir: dirs.Common}
}

// Init is a no-op: the distribution document itself is loaded by the
// orchestrator before a DistributionIndexProcessor is constructed.
func (p *DistributionIndexProcessor) Init(ctx context.Context) error {
	return nil
}

// TotalStages is fixed at 1: the whole module tree validates in a
// single pass.
func (p *DistributionIndexProcessor) TotalStages() int { return 1 }

// Validate walks the server's module tree depth-first, emitting an
// md5-validated Asset for every module that is missing or mismatched.
func (p *DistributionIndexProcessor) Validate(ctx context.Context, onStageComplete func(stage string)) (map[string][]core.Asset, error) {
	var assets []core.Asset
	var walkErr error

	distribution.Walk(p.Server.Modules, func(m *distribution.Module) {
		if walkErr != nil {
			return
		}
		path, err := distribution.ResolvePath(m, p.Dirs)
		if err != nil {
			walkErr = err
			return
		}
		asset := core.Asset{
			ID:        m.ID,
			URL:       m.Artifact.URL,
			Size:      m.Artifact.Size,
			Algorithm: hashutil.MD5,
			Hash:      m.Artifact.MD5,
			Path:      path,
		}
		if asset.IsValid() {
			return
		}
		assets = append(assets, asset)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if onStageComplete != nil {
		onStageComplete("modules")
	}
	return map[string][]core.Asset{"modules": assets}, nil
}

// PostDownload locates the mod-loader module in the tree, if any, and
// materializes its overlay version JSON at the canonical per-version
// path.
func (p *DistributionIndexProcessor) PostDownload(ctx context.Context) error {
	loader := findLoaderModule(p.Server.Modules)
	if loader == nil {
		return nil
	}

	if usesSiblingManifest(loader, p.Server.MinecraftVersion) {
		return p.copySiblingManifest(loader)
	}
	return p.extractInstallerOverlay(loader)
}

func findLoaderModule(modules []*distribution.Module) *distribution.Module {
	for _, m := range modules {
		if m.Type == distribution.ModuleFabric || m.Type == distribution.ModuleForge || m.Type == distribution.ModuleForgeHosted {
			return m
		}
		if found := findLoaderModule(m.SubModules); found != nil {
			return found
		}
	}
	return nil
}

// usesSiblingManifest reports whether loader's overlay should be read
// from an already-present VersionManifest sub-module rather than
// extracted from the installer archive: true for Fabric always, and for
// Forge when the Minecraft version is >= 1.13 or the Forge build number
// exceeds the legacy cap.
func usesSiblingManifest(loader *distribution.Module, minecraftVersion string) bool {
	if loader.Type == distribution.ModuleFabric {
		return true
	}
	if minecraftVersionAtLeast113(minecraftVersion) {
		return true
	}
	coord, err := distribution.ParseCoordinate(loader.ID)
	if err != nil {
		return false
	}
	build, ok := parseForgeBuild(coord.Version)
	if !ok {
		return false
	}
	return forgeBuildGreater(build, legacyForgeCap)
}

func minecraftVersionAtLeast113(version string) bool {
	var major, minor int
	n, err := fmt.Sscanf(version, "1.%d.%d", &major, &minor)
	if n < 1 || err != nil {
		n, err = fmt.Sscanf(version, "1.%d", &major)
		if n < 1 || err != nil {
			return false
		}
	}
	return major >= 13
}

// parseForgeBuild parses a 4-part Forge build suffix out of a Maven
// version string such as "1.12.2-14.23.5.2860".
func parseForgeBuild(version string) ([4]int, bool) {
	var build [4]int
	n, err := fmt.Sscanf(lastDashSegment(version), "%d.%d.%d.%d", &build[0], &build[1], &build[2], &build[3])
	if err != nil || n != 4 {
		return build, false
	}
	return build, true
}

func lastDashSegment(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '-' {
			return s[i+1:]
		}
	}
	return s
}

func forgeBuildGreater(a, cap [4]int) bool {
	for i := 0; i < 4; i++ {
		if a[i] != cap[i] {
			return a[i] > cap[i]
		}
	}
	return false
}

// copySiblingManifest handles the case where the loader's overlay is
// shipped as its own VersionManifest sub-module: ResolvePath already
// places that sub-module's download at the canonical
// <common>/versions/<id>/<id>.json path, so once it has downloaded
// there is nothing left to do but confirm it landed.
func (p *DistributionIndexProcessor) copySiblingManifest(loader *distribution.Module) error {
	manifest := findSubmodule(loader.SubModules, distribution.ModuleVersionManifest)
	if manifest == nil {
		return fmt.Errorf("index: loader module %q has no VersionManifest sub-module", loader.ID)
	}
	path, err := distribution.ResolvePath(manifest, p.Dirs)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("index: overlay manifest for %q not found at %s: %w", loader.ID, path, err)
	}
	return nil
}

func findSubmodule(modules []*distribution.Module, t distribution.ModuleType) *distribution.Module {
	for _, m := range modules {
		if m.Type == t {
			return m
		}
	}
	return nil
}

// writeLauncherProfiles ensures <common>/launcher_profiles.json exists, the
// empty-object file Forge's installer expects as a prerequisite even
// when the installer itself is never executed directly.
func (p *DistributionIndexProcessor) writeLauncherProfiles() error {
	path := filepath.Join(p.CommonDir, "launcher_profiles.json")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte("{}"), 0o644)
}

func (p *DistributionIndexProcessor) extractInstallerOverlay(loader *distribution.Module) error {
	if err := p.writeLauncherProfiles(); err != nil {
		return fmt.Errorf("index: writing launcher_profiles.json: %w", err)
	}

	installerPath, err := distribution.ResolvePath(loader, p.Dirs)
	if err != nil {
		return err
	}

	raw, err := hashutil.ExtractFile(installerPath, "version.json")
	if err != nil {
		return fmt.Errorf("index: extracting version.json from %s: %w", installerPath, err)
	}

	var overlay struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("index: parsing forge installer overlay: %w", err)
	}

	destDir := filepath.Join(p.CommonDir, "versions", overlay.ID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("index: preparing overlay dir %s: %w", destDir, err)
	}
	destPath := filepath.Join(destDir, overlay.ID+".json")
	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("index: writing overlay %s: %w", destPath, err)
	}
	return os.Rename(tmp, destPath)
}
