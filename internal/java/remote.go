package java

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"runtime"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/quasar/launchercore/internal/core"
	"github.com/quasar/launchercore/internal/hashutil"
)

// Distribution names a remote JDK provider.
type Distribution string

const (
	DistributionAdoptium Distribution = "adoptium"
	DistributionCorretto Distribution = "corretto"
)

// DefaultDistribution is Corretto on macOS (Adoptium's macOS packaging
// has historically lagged), Adoptium everywhere else.
func DefaultDistribution() Distribution {
	if runtime.GOOS == "darwin" {
		return DistributionCorretto
	}
	return DistributionAdoptium
}

const (
	defaultAdoptiumBaseURL = "https://api.adoptium.net"
	defaultCorrettoBaseURL = "https://corretto.aws"
)

// Resolver fetches remote JDK metadata and produces the Asset describing
// the archive to download.
type Resolver struct {
	client          *retryablehttp.Client
	dataDir         string // "<data>/runtime" root
	adoptiumBaseURL string
	correttoBaseURL string
}

// NewResolver builds a Resolver rooted at dataDir (the managed-runtime
// install base, e.g. "<data>/runtime").
func NewResolver(dataDir string) *Resolver {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &Resolver{
		client:          client,
		dataDir:         dataDir,
		adoptiumBaseURL: defaultAdoptiumBaseURL,
		correttoBaseURL: defaultCorrettoBaseURL,
	}
}

func goArchToAdoptium(arch string) string {
	switch arch {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	default:
		return arch
	}
}

func goOSToAdoptium(osName string) string {
	if osName == "darwin" {
		return "mac"
	}
	return osName
}

// ResolveAdoptium resolves the latest GA Eclipse Temurin JDK release for
// major on the current host OS. The first matching entry whose
// architecture is aarch64 or x64 is taken; it is not compared against the
// host architecture.
func (r *Resolver) ResolveAdoptium(ctx context.Context, major int) (core.Asset, error) {
	osName := goOSToAdoptium(runtime.GOOS)
	arch := goArchToAdoptium(runtime.GOARCH)

	url := fmt.Sprintf(
		"%s/v3/assets/latest/%d/hotspot?vendor=eclipse",
		r.adoptiumBaseURL, major,
	)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.Asset{}, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return core.Asset{}, fmt.Errorf("java: adoptium request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Asset{}, fmt.Errorf("java: adoptium returned status %d", resp.StatusCode)
	}

	var releases []adoptiumRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return core.Asset{}, fmt.Errorf("java: decoding adoptium response: %w", err)
	}

	for _, rel := range releases {
		if rel.Version.Major != major {
			continue
		}
		if rel.Binary.OS != osName || rel.Binary.ImageType != "jdk" {
			continue
		}
		if rel.Binary.Architecture != "aarch64" && rel.Binary.Architecture != "x64" {
			continue
		}
		return core.Asset{
			ID:        rel.Binary.Package.Name,
			URL:       rel.Binary.Package.Link,
			Size:      rel.Binary.Package.Size,
			Algorithm: hashutil.SHA256,
			Hash:      rel.Binary.Package.Checksum,
			Path:      path.Join(r.dataDir, runtime.GOARCH, rel.Binary.Package.Name),
		}, nil
	}
	return core.Asset{}, fmt.Errorf("java: no adoptium release matched major=%d os=%s arch=%s", major, osName, arch)
}

type adoptiumRelease struct {
	Version struct {
		Major int `json:"major"`
	} `json:"version"`
	Binary struct {
		OS           string `json:"os"`
		ImageType    string `json:"image_type"`
		Architecture string `json:"architecture"`
		Package      struct {
			Name     string `json:"name"`
			Link     string `json:"link"`
			Size     int64  `json:"size"`
			Checksum string `json:"checksum"`
		} `json:"package"`
	} `json:"binary"`
}

func correttoArchiveExtension() string {
	if runtime.GOOS == "windows" {
		return "zip"
	}
	return "tar.gz"
}

func goOSToCorretto(osName string) string {
	switch osName {
	case "darwin":
		return "macos"
	default:
		return osName
	}
}

// ResolveCorretto resolves the latest Amazon Corretto JDK build for major
// by following the redirect corretto.aws issues from its "latest" alias,
// then fetches the sibling checksum file.
func (r *Resolver) ResolveCorretto(ctx context.Context, major int) (core.Asset, error) {
	osName := goOSToCorretto(runtime.GOOS)
	arch := goArchToAdoptium(runtime.GOARCH) // same x64/aarch64 naming as Adoptium
	ext := correttoArchiveExtension()

	aliasURL := fmt.Sprintf(
		"%s/downloads/latest/amazon-corretto-%d-%s-%s-jdk.%s",
		r.correttoBaseURL, major, arch, osName, ext,
	)

	finalURL, err := r.followRedirect(ctx, aliasURL)
	if err != nil {
		return core.Asset{}, fmt.Errorf("java: resolving corretto alias: %w", err)
	}

	checksumURL := finalURL + ".md5"
	checksum, err := r.fetchChecksum(ctx, checksumURL)
	if err != nil {
		return core.Asset{}, fmt.Errorf("java: fetching corretto checksum: %w", err)
	}

	name := path.Base(finalURL)
	size, _ := r.headContentLength(ctx, finalURL)

	return core.Asset{
		ID:        name,
		URL:       finalURL,
		Size:      size,
		Algorithm: hashutil.MD5,
		Hash:      checksum,
		Path:      path.Join(r.dataDir, runtime.GOARCH, name),
	}, nil
}

// followRedirect issues a HEAD request and returns the final URL after
// following any redirects the client issued.
func (r *Resolver) followRedirect(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}

func (r *Resolver) headContentLength(ctx context.Context, url string) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.ContentLength, nil
}

func (r *Resolver) fetchChecksum(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var buf strings.Builder
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Fields(buf.String())[0]), nil
}

// Resolve dispatches to the named distribution.
func (r *Resolver) Resolve(ctx context.Context, dist Distribution, major int) (core.Asset, error) {
	switch dist {
	case DistributionCorretto:
		return r.ResolveCorretto(ctx, major)
	case DistributionAdoptium:
		return r.ResolveAdoptium(ctx, major)
	default:
		return core.Asset{}, fmt.Errorf("java: unknown distribution %q", dist)
	}
}
