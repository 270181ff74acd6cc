// Package main provides the entry point for the ledger server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/atlantisbot/atlantis-ledger/internal/di"
	"github.com/atlantisbot/atlantis-ledger/internal/di/providers"
	"github.com/atlantisbot/atlantis-ledger/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The store handles use wrapper types; close them explicitly so the
	// final Badger compaction and SQLite checkpoint always run.
	if ordersHandle, err := do.Invoke[*providers.OrdersStoreHandle](injector); err == nil {
		if err := ordersHandle.Shutdown(); err != nil {
			log.Error("Failed to close orders log", "error", err)
		}
	}

	if ledgerHandle, err := do.Invoke[*providers.LedgerStoreHandle](injector); err == nil {
		if err := ledgerHandle.Shutdown(); err != nil {
			log.Error("Failed to close ledger database", "error", err)
		}
	}

	log.Info("Goodbye")
}
