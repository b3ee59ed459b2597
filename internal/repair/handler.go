// Package repair implements the Full Repair orchestrator: a
// worker.Handler that composes a Vendor and a Distribution index
// processor behind the two-phase validate/download protocol from
// spec.md §4.3, streaming progress back to the parent and running each
// processor's post-download finalizer once every asset lands.
package repair

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/quasar/launchercore/internal/config"
	"github.com/quasar/launchercore/internal/core"
	"github.com/quasar/launchercore/internal/distribution"
	"github.com/quasar/launchercore/internal/download"
	"github.com/quasar/launchercore/internal/index"
	"github.com/quasar/launchercore/internal/worker"
)

// Handler drives one repair run across the Validate then Download
// messages of a single worker process lifetime. It is stateful between
// calls: Validate must run before Download.
type Handler struct {
	cfg    *config.Config
	vendor *index.VendorIndexProcessor
	dist   *index.DistributionIndexProcessor
	assets []core.Asset
}

// NewHandler returns a Handler ready to register under the "repair"
// key in a worker.Receiver's registry, reading its Download Engine
// settings (concurrency, StrictSizeValidation) from config.Load.
func NewHandler() *Handler {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return NewHandlerWithConfig(cfg)
}

// NewHandlerWithConfig builds a Handler against an already-loaded
// config, letting callers (tests, alternate entry points) bypass
// config.Load's filesystem/environment lookup.
func NewHandlerWithConfig(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Execute implements worker.Handler.
func (h *Handler) Execute(ctx context.Context, msg worker.ParentMessage, emit func(worker.ChildMessage)) error {
	switch msg.Type {
	case worker.TypeValidate:
		if msg.Validate == nil {
			return fmt.Errorf("repair: validate message missing its payload")
		}
		return h.validate(ctx, *msg.Validate, emit)
	case worker.TypeDownload:
		return h.download(ctx, emit)
	default:
		return fmt.Errorf("repair: unexpected message type %q", msg.Type)
	}
}

func (h *Handler) validate(ctx context.Context, cmd worker.ValidateCommand, emit func(worker.ChildMessage)) error {
	server, err := loadServer(cmd)
	if err != nil {
		return err
	}

	dirs := distribution.Dirs{Common: cmd.CommonDirectory, Instance: cmd.InstanceDirectory}
	assetsDir := filepath.Join(cmd.CommonDirectory, "assets")

	h.vendor = index.NewVendorIndexProcessor(server.MinecraftVersion, cmd.CommonDirectory, assetsDir)
	h.dist = index.NewDistributionIndexProcessor(server, dirs)

	if err := h.vendor.Init(ctx); err != nil {
		return fmt.Errorf("repair: initializing vendor index: %w", err)
	}
	if err := h.dist.Init(ctx); err != nil {
		return fmt.Errorf("repair: initializing distribution index: %w", err)
	}

	totalStages := h.vendor.TotalStages() + h.dist.TotalStages()
	completed := 0
	onStage := func(string) {
		completed++
		emit(worker.NewValidateProgress(percentOf(completed, totalStages)))
	}

	h.assets = nil
	vendorResult, err := h.vendor.Validate(ctx, onStage)
	if err != nil {
		return fmt.Errorf("repair: validating vendor assets: %w", err)
	}
	h.assets = append(h.assets, flatten(vendorResult)...)

	distResult, err := h.dist.Validate(ctx, onStage)
	if err != nil {
		return fmt.Errorf("repair: validating distribution modules: %w", err)
	}
	h.assets = append(h.assets, flatten(distResult)...)

	emit(worker.NewValidateComplete(len(h.assets)))
	return nil
}

func (h *Handler) download(ctx context.Context, emit func(worker.ChildMessage)) error {
	if h.vendor == nil || h.dist == nil {
		return fmt.Errorf("repair: download requested before a successful validate")
	}

	if len(h.assets) > 0 {
		queue := download.NewQueue(h.cfg.DownloadConcurrency)
		queue.StrictSizeValidation = h.cfg.StrictSizeValidation
		items := download.ItemsFromAssets(h.assets)

		result, err := queue.Run(ctx, items, nil, func(p download.Progress) {
			emit(worker.NewDownloadProgress(percentOfBytes(p)))
		})
		if err != nil {
			return fmt.Errorf("repair: downloading assets: %w", err)
		}
		if result.Failed > 0 {
			return fmt.Errorf("repair: %d asset(s) failed to download", result.Failed)
		}
	}

	if err := h.vendor.PostDownload(ctx); err != nil {
		return fmt.Errorf("repair: vendor post-download: %w", err)
	}
	if err := h.dist.PostDownload(ctx); err != nil {
		return fmt.Errorf("repair: distribution post-download: %w", err)
	}

	emit(worker.NewDownloadComplete())
	return nil
}

// loadServer reads the distribution document from the launcher
// directory (distribution.json, or distribution_dev.json in dev mode)
// and selects the server named by cmd.ServerID, falling back to the
// document's designated main server.
func loadServer(cmd worker.ValidateCommand) (*distribution.Server, error) {
	name := "distribution.json"
	if cmd.DevMode {
		name = "distribution_dev.json"
	}
	path := filepath.Join(cmd.LauncherDirectory, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("repair: reading distribution document %s: %w", path, err)
	}

	dist, err := distribution.LoadDistribution(data)
	if err != nil {
		return nil, fmt.Errorf("repair: parsing distribution document %s: %w", path, err)
	}

	if cmd.ServerID != "" {
		for _, s := range dist.Servers {
			if s.ID == cmd.ServerID {
				return s, nil
			}
		}
		return nil, fmt.Errorf("repair: server %q not present in %s", cmd.ServerID, path)
	}
	return dist.MainServerEntry(), nil
}

func flatten(byCategory map[string][]core.Asset) []core.Asset {
	var out []core.Asset
	for _, assets := range byCategory {
		out = append(out, assets...)
	}
	return out
}

// percentOf truncates to integer percent, matching spec.md §4.1's
// "truncate to integer percent ... only at the upper layer that
// forwards IPC messages".
func percentOf(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Floor(float64(done) / float64(total) * 100))
}

func percentOfBytes(p download.Progress) int {
	if p.TotalBytes <= 0 {
		if p.TotalItems <= 0 {
			return 0
		}
		return percentOf(p.CompletedItems, p.TotalItems)
	}
	return int(math.Floor(float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100))
}
