// Package index defines the two Index Processor implementations: the
// game-vendor index (version manifest, per-version JSON, asset index)
// and the distribution index (the collaborator's own module tree). Both
// satisfy the same small Processor interface so the Full Repair
// orchestrator never needs to know which kind it's driving.
package index

import (
	"context"

	"github.com/quasar/launchercore/internal/core"
)

// Processor is the interface both concrete index kinds satisfy.
type Processor interface {
	// Init acquires any remote documents needed for validation. A
	// failure here is always fatal to the repair run.
	Init(ctx context.Context) error

	// TotalStages declares how many coarse progress ticks Validate
	// will emit, for a caller that wants to show an overall percentage
	// across multiple processors.
	TotalStages() int

	// Validate computes the set of assets that are missing or whose
	// on-disk hash doesn't match, grouped by category. onStageComplete
	// is invoked once per stage, after that stage's assets have been
	// computed.
	Validate(ctx context.Context, onStageComplete func(stage string)) (map[string][]core.Asset, error)

	// PostDownload finalizes after every emitted Asset has been
	// successfully downloaded and hash-validated.
	PostDownload(ctx context.Context) error
}
