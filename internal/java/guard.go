package java

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
)

// Guard composes discovery, introspection, ranking, and (when nothing
// local qualifies) remote acquisition into a single entry point: given a
// Minecraft version, find or fetch a Java runtime that can launch it.
type Guard struct {
	RuntimeDir   string // root DirectoryStrategy scans for managed installs
	InstallDir   string // root managed runtimes are unpacked under, keyed by major and arch
	Distribution Distribution
	Resolver     *Resolver
}

// NewGuard builds a Guard rooted at dataDir, the module's data directory.
// Managed runtimes live under dataDir/runtime/<major>-<arch>; the
// resolver's archive scratch space (dataDir/runtime/<arch>) shares the
// same root.
func NewGuard(dataDir string) *Guard {
	runtimeDir := filepath.Join(dataDir, "runtime")
	return &Guard{
		RuntimeDir:   runtimeDir,
		InstallDir:   runtimeDir,
		Distribution: DefaultDistribution(),
		Resolver:     NewResolver(runtimeDir),
	}
}

// FindAll runs every discovery strategy for the host OS, introspects each
// candidate executable, and returns every successfully introspected JVM.
// Strategies and candidates that don't pan out are silently skipped; the
// guard has no way to tell "not Java" from "no permission" from a root.
func (g *Guard) FindAll(ctx context.Context) []JVMDetails {
	var out []JVMDetails
	seen := make(map[string]bool)

	for _, strat := range DefaultStrategies(g.RuntimeDir) {
		for _, root := range strat.CandidateRoots() {
			exe := ResolveExecutable(root)
			if exe == "" {
				continue
			}
			if seen[exe] {
				continue
			}
			seen[exe] = true

			details, err := Introspect(ctx, exe)
			if err != nil {
				continue
			}
			out = append(out, *details)
		}
	}
	return out
}

// Resolve finds a Java runtime suitable for minecraftVersion: first among
// already-discovered local installations, falling back to downloading and
// installing one from Guard.Distribution when nothing qualifies.
func (g *Guard) Resolve(ctx context.Context, minecraftVersion string) (*JVMDetails, error) {
	rangeExpr, suggestedMajor := DefaultJavaRequirement(minecraftVersion)

	candidates := g.FindAll(ctx)
	best, err := Best(candidates, rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("java: ranking local candidates: %w", err)
	}
	if best != nil {
		return best, nil
	}

	asset, err := g.Resolver.Resolve(ctx, g.Distribution, suggestedMajor)
	if err != nil {
		return nil, fmt.Errorf("java: resolving remote runtime for major %d: %w", suggestedMajor, err)
	}

	installDir := filepath.Join(g.InstallDir, fmt.Sprintf("%d-%s", suggestedMajor, runtime.GOARCH))
	exe, err := Install(ctx, asset, installDir)
	if err != nil {
		return nil, fmt.Errorf("java: installing runtime: %w", err)
	}

	details, err := Introspect(ctx, exe)
	if err != nil {
		return nil, fmt.Errorf("java: introspecting newly installed runtime: %w", err)
	}
	return details, nil
}
