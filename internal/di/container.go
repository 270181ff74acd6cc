// Package di provides dependency injection configuration for the ledger server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/atlantisbot/atlantis-ledger/internal/config"
	"github.com/atlantisbot/atlantis-ledger/internal/di/providers"
	"github.com/atlantisbot/atlantis-ledger/internal/logger"
	"github.com/atlantisbot/atlantis-ledger/internal/rewards"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideLedgerStore)
	do.Provide(injector, providers.ProvideOrdersStore)

	// Platform gateway
	do.Provide(injector, providers.ProvideGateway)

	// Core service
	do.Provide(injector, providers.ProvideRewardsService)

	// Workers
	do.Provide(injector, providers.ProvideSweeperJob)
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. Invocation order matters: both stores must open before the
// sweeper or the HTTP server come up.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LedgerStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.OrdersStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*rewards.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SweeperJob](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogWatcherJob](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
