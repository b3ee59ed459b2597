package index

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/quasar/launchercore/internal/core"
	"github.com/quasar/launchercore/internal/distribution"
	"github.com/quasar/launchercore/internal/hashutil"
)

// VersionManifestURL and AssetCDNBase are vars, not consts, so tests —
// including callers outside this package, such as internal/repair's
// end-to-end fixture — can redirect them to an httptest server.
var (
	VersionManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	AssetCDNBase       = "https://resources.download.minecraft.net"
)

// assetIndexDocument is the wire shape of a version's asset index JSON.
type assetIndexDocument struct {
	Objects map[string]assetIndexObject `json:"objects"`
}

type assetIndexObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// VendorIndexProcessor validates the four asset categories Mojang's own
// distribution pipeline produces: game assets, libraries, the client
// jar, and the logging config.
type VendorIndexProcessor struct {
	VersionID   string
	CommonDir   string
	AssetsDir   string
	docs        *documentClient
	manifest    core.VersionManifest
	versionMeta core.Version
	details     core.VersionDetails
	assetIndex  assetIndexDocument
}

// NewVendorIndexProcessor builds a processor for versionID, rooted at
// the given common (shared) and assets directories.
func NewVendorIndexProcessor(versionID, commonDir, assetsDir string) *VendorIndexProcessor {
	return &VendorIndexProcessor{
		VersionID: versionID,
		CommonDir: commonDir,
		AssetsDir: assetsDir,
		docs:      newDocumentClient(),
	}
}

func (p *VendorIndexProcessor) manifestPath() string {
	return filepath.Join(p.CommonDir, "versions", "version_manifest_v2.json")
}

func (p *VendorIndexProcessor) versionJSONPath() string {
	return filepath.Join(p.CommonDir, "versions", p.VersionID, p.VersionID+".json")
}

func (p *VendorIndexProcessor) assetIndexPath(assetIndexID string) string {
	return filepath.Join(p.AssetsDir, "indexes", assetIndexID+".json")
}

// Init loads the version manifest, the per-version JSON, and the asset
// index, each with cached-with-remote-fallback semantics.
func (p *VendorIndexProcessor) Init(ctx context.Context) error {
	manifestErr := p.docs.Resolve(ctx, VersionManifestURL, p.manifestPath(), "", &p.manifest)

	var found *core.Version
	if manifestErr == nil {
		for i := range p.manifest.Versions {
			if p.manifest.Versions[i].ID == p.VersionID {
				found = &p.manifest.Versions[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("index: version %q not present in the version manifest", p.VersionID)
		}
		p.versionMeta = *found
	}

	versionURL := ""
	if found != nil {
		versionURL = found.URL
	}
	if err := p.docs.Resolve(ctx, versionURL, p.versionJSONPath(), "", &p.details); err != nil {
		if manifestErr != nil {
			return fmt.Errorf("index: version manifest unreachable (%v) and no cached version JSON for %q: %w", manifestErr, p.VersionID, err)
		}
		return fmt.Errorf("index: loading version JSON for %q: %w", p.VersionID, err)
	}

	if err := p.docs.Resolve(ctx, p.details.AssetIndex.URL, p.assetIndexPath(p.details.AssetIndex.ID), p.details.AssetIndex.SHA1, &p.assetIndex); err != nil {
		return fmt.Errorf("index: loading asset index %q: %w", p.details.AssetIndex.ID, err)
	}

	return nil
}

// TotalStages is fixed at 4: assets, libraries, client jar, log config.
func (p *VendorIndexProcessor) TotalStages() int { return 4 }

// Validate walks the four stages in order, computing the Asset set for
// each.
func (p *VendorIndexProcessor) Validate(ctx context.Context, onStageComplete func(stage string)) (map[string][]core.Asset, error) {
	result := make(map[string][]core.Asset)

	result["assets"] = p.validateAssets()
	if onStageComplete != nil {
		onStageComplete("assets")
	}

	result["libraries"] = p.validateLibraries()
	if onStageComplete != nil {
		onStageComplete("libraries")
	}

	result["client"] = p.validateClient()
	if onStageComplete != nil {
		onStageComplete("client")
	}

	result["misc"] = p.validateLogConfig()
	if onStageComplete != nil {
		onStageComplete("log_config")
	}

	return result, nil
}

func (p *VendorIndexProcessor) validateAssets() []core.Asset {
	var assets []core.Asset
	for _, obj := range p.assetIndex.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		prefix := obj.Hash[:2]
		asset := core.Asset{
			ID:        obj.Hash,
			URL:       fmt.Sprintf("%s/%s/%s", AssetCDNBase, prefix, obj.Hash),
			Size:      obj.Size,
			Algorithm: hashutil.SHA1,
			Hash:      obj.Hash,
			Path:      filepath.Join(p.AssetsDir, "objects", prefix, obj.Hash),
		}
		if asset.IsValid() {
			continue
		}
		assets = append(assets, asset)
	}
	return assets
}

func (p *VendorIndexProcessor) validateLibraries() []core.Asset {
	var assets []core.Asset
	wordSize := "64"
	if runtime.GOARCH == "386" || runtime.GOARCH == "arm" {
		wordSize = "32"
	}

	for _, lib := range p.details.Libraries {
		if !distribution.LibraryApplies(&lib) {
			continue
		}
		artifact := libraryArtifact(lib, wordSize)
		if artifact == nil || artifact.Path == "" {
			continue
		}
		asset := core.Asset{
			ID:        lib.Name,
			URL:       artifact.URL,
			Size:      artifact.Size,
			Algorithm: hashutil.SHA1,
			Hash:      artifact.SHA1,
			Path:      filepath.Join(p.CommonDir, "libraries", artifact.Path),
		}
		if asset.IsValid() {
			continue
		}
		assets = append(assets, asset)
	}
	return assets
}

// libraryArtifact picks the download for lib: its plain artifact, or —
// when the entry carries a natives table — the classifier keyed by the
// host OS with ${arch} expanded to the platform word size.
func libraryArtifact(lib core.Library, wordSize string) *core.Artifact {
	if lib.Downloads == nil {
		return nil
	}
	if len(lib.Natives) > 0 {
		osKey := map[string]string{"darwin": "osx", "linux": "linux", "windows": "windows"}[runtime.GOOS]
		classifierTemplate, ok := lib.Natives[osKey]
		if !ok {
			return nil
		}
		classifier := expandArch(classifierTemplate, wordSize)
		return lib.Downloads.Classifiers[classifier]
	}
	return lib.Downloads.Artifact
}

func expandArch(template, wordSize string) string {
	out := make([]byte, 0, len(template))
	for i := 0; i < len(template); i++ {
		if template[i] == '$' && i+7 <= len(template) && template[i:i+7] == "${arch}" {
			out = append(out, wordSize...)
			i += 6
			continue
		}
		out = append(out, template[i])
	}
	return string(out)
}

func (p *VendorIndexProcessor) validateClient() []core.Asset {
	if p.details.Downloads.Client == nil {
		return nil
	}
	client := p.details.Downloads.Client
	asset := core.Asset{
		ID:        p.VersionID,
		URL:       client.URL,
		Size:      client.Size,
		Algorithm: hashutil.SHA1,
		Hash:      client.SHA1,
		Path:      filepath.Join(p.CommonDir, "versions", p.VersionID, p.VersionID+".jar"),
	}
	if asset.IsValid() {
		return nil
	}
	return []core.Asset{asset}
}

func (p *VendorIndexProcessor) validateLogConfig() []core.Asset {
	file := p.details.Logging.Client.File
	if file.ID == "" {
		return nil
	}
	asset := core.Asset{
		ID:        file.ID,
		URL:       file.URL,
		Size:      file.Size,
		Algorithm: hashutil.SHA1,
		Hash:      file.SHA1,
		Path:      filepath.Join(p.AssetsDir, "log_configs", file.ID),
	}
	if asset.IsValid() {
		return nil
	}
	return []core.Asset{asset}
}

// PostDownload is a no-op for the vendor processor: nothing it validates
// needs post-processing once the bytes are on disk.
func (p *VendorIndexProcessor) PostDownload(ctx context.Context) error {
	return nil
}
