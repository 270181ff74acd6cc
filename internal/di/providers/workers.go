package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/atlantisbot/atlantis-ledger/internal/config"
	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/logger"
	"github.com/atlantisbot/atlantis-ledger/internal/rewards"
)

// SweeperJob runs the reconciliation sweeper in the background.
type SweeperJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SweeperJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSweeperJob starts the periodic reconciliation sweep. The stores are
// invoked before this provider, so a storage failure aborts the process
// before any sweep can run.
func ProvideSweeperJob(i do.Injector) (*SweeperJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	svc := do.MustInvoke[*rewards.Service](i)

	sweeper := rewards.NewSweeper(svc, cfg.Invite.SweepInterval, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	return &SweeperJob{cancel: cancel}, nil
}

// CatalogWatcherJob hot-reloads the service catalog on file changes.
type CatalogWatcherJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CatalogWatcherJob) Shutdown() error {
	if j.cancel != nil {
		j.cancel()
	}
	return nil
}

// ProvideCatalogWatcher watches the catalog file and swaps a fresh settings
// snapshot into the rewards service when it changes. No catalog path means
// no watcher.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	svc := do.MustInvoke[*rewards.Service](i)

	if cfg.Redeem.CatalogPath == "" {
		return &CatalogWatcherJob{}, nil
	}

	watcher := config.NewCatalogWatcher(cfg.Redeem.CatalogPath, log.Logger,
		func(catalog *domain.Catalog) {
			svc.UpdateSettings(SettingsFromConfig(cfg, catalog))
		})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Error("Catalog watcher stopped", "error", err)
		}
	}()

	return &CatalogWatcherJob{cancel: cancel}, nil
}
