package providers

import (
	"github.com/samber/do/v2"

	"github.com/atlantisbot/atlantis-ledger/internal/config"
	"github.com/atlantisbot/atlantis-ledger/internal/domain"
	"github.com/atlantisbot/atlantis-ledger/internal/logger"
	"github.com/atlantisbot/atlantis-ledger/internal/money"
	"github.com/atlantisbot/atlantis-ledger/internal/platform"
	"github.com/atlantisbot/atlantis-ledger/internal/rewards"
)

// ProvideGateway provides the platform gateway. Without a configured
// presentation process URL the core runs against a no-op gateway, which
// keeps the API usable for local development.
func ProvideGateway(i do.Injector) (platform.Gateway, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Gateway.BaseURL == "" {
		log.Warn("No gateway URL configured, running with a no-op platform gateway")
		return platform.NoopGateway{}, nil
	}

	log.Info("Platform gateway configured", "base_url", cfg.Gateway.BaseURL)
	return platform.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Token, log.Logger), nil
}

// ProvideRewardsService provides the ledger core service with its initial
// settings snapshot built from config and the catalog file.
func ProvideRewardsService(i do.Injector) (*rewards.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	ledger := do.MustInvoke[*LedgerStoreHandle](i)
	ordersStore := do.MustInvoke[*OrdersStoreHandle](i)
	gateway := do.MustInvoke[platform.Gateway](i)

	catalog, err := config.LoadCatalog(cfg.Redeem.CatalogPath)
	if err != nil {
		return nil, err
	}
	if catalog.Empty() && cfg.Redeem.Enabled {
		log.Warn("Redemption enabled but the catalog is empty",
			"catalog_path", cfg.Redeem.CatalogPath)
	}

	formatter := money.NewFormatter(cfg.Redeem.Locale, cfg.Redeem.CurrencySuffix)
	svc := rewards.NewService(ledger.Store, ordersStore.Store, gateway,
		SettingsFromConfig(cfg, catalog), formatter, log.Logger)

	log.Info("Rewards service ready",
		"rate", cfg.Invite.Rate,
		"hold_hours", cfg.Invite.HoldHours,
		"redeem_enabled", cfg.Redeem.Enabled,
		"catalog_services", len(catalog.Services))

	return svc, nil
}

// SettingsFromConfig builds an immutable settings snapshot.
func SettingsFromConfig(cfg *config.Config, catalog *domain.Catalog) *rewards.Settings {
	return &rewards.Settings{
		Rate:           cfg.Invite.Rate,
		Hold:           cfg.Invite.Hold(),
		MinAccountAge:  cfg.Invite.MinAccountAge(),
		RequireRoleID:  cfg.Invite.RequireRoleID,
		AutoKickNoRole: cfg.Invite.AutoKickNoRole,
		KickAfter:      cfg.Invite.KickAfter(),
		RecheckWindow:  cfg.Invite.RecheckWindow,
		RedeemEnabled:  cfg.Redeem.Enabled,
		OrderPrefix:    cfg.Redeem.OrderPrefix,
		Catalog:        catalog,
	}
}
