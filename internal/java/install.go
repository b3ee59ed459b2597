package java

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quasar/launchercore/internal/core"
	"github.com/quasar/launchercore/internal/download"
	"github.com/quasar/launchercore/internal/hashutil"
)

// Install downloads asset (produced by Resolver.Resolve) into a scratch
// file, validates its hash, extracts it stripping the archive's single
// top-level directory, and returns the path to the resulting java
// executable.
func Install(ctx context.Context, asset core.Asset, installDir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(asset.Path), 0o755); err != nil {
		return "", fmt.Errorf("java: preparing archive dir: %w", err)
	}

	q := download.NewQueue(1)
	item := download.ItemFromAsset(asset)
	result, err := q.Run(ctx, []download.Item{item}, nil, nil)
	if err != nil {
		return "", fmt.Errorf("java: downloading runtime archive: %w", err)
	}
	if result.Failed > 0 {
		return "", fmt.Errorf("java: runtime archive download failed: %w", result.Errors[0])
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", fmt.Errorf("java: preparing install dir: %w", err)
	}
	if err := hashutil.ExtractStripTop(asset.Path, installDir); err != nil {
		return "", fmt.Errorf("java: extracting runtime archive: %w", err)
	}
	_ = os.Remove(asset.Path)

	exe := ResolveExecutable(installDir)
	if exe == "" {
		return "", fmt.Errorf("java: no java executable found under %s after extraction", installDir)
	}
	return exe, nil
}
