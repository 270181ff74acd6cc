package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/atlantisbot/atlantis-ledger/internal/config"
	"github.com/atlantisbot/atlantis-ledger/internal/logger"
	"github.com/atlantisbot/atlantis-ledger/internal/store"
	"github.com/atlantisbot/atlantis-ledger/internal/store/orders"
)

// LedgerStoreHandle wraps the Badger ledger store with shutdown capability.
type LedgerStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *LedgerStoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideLedgerStore opens the Badger ledger database. Failure here is fatal:
// the process must not come up without its durable state.
func ProvideLedgerStore(i do.Injector) (*LedgerStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, err
	}

	s, err := store.New(cfg.LedgerPath(), log.Logger)
	if err != nil {
		return nil, err
	}
	return &LedgerStoreHandle{Store: s}, nil
}

// OrdersStoreHandle wraps the SQLite orders log with shutdown capability.
type OrdersStoreHandle struct {
	*orders.Store
}

// Shutdown implements do.Shutdownable.
func (h *OrdersStoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideOrdersStore opens the SQLite orders log. Also fatal on failure.
func ProvideOrdersStore(i do.Injector) (*OrdersStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s, err := orders.Open(cfg.OrdersPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Orders log opened", "path", cfg.OrdersPath())
	return &OrdersStoreHandle{Store: s}, nil
}
