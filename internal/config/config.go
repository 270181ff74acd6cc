// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Data    DataConfig
	Gateway GatewayConfig
	Invite  InviteConfig
	Redeem  RedeemConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	APIToken     string        // Static bearer token for the companion process
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DataConfig holds durable storage configuration.
type DataConfig struct {
	// BasePath is the directory holding the ledger database and orders log.
	BasePath string
}

// GatewayConfig holds the connection to the presentation process.
type GatewayConfig struct {
	// BaseURL of the companion presentation process. Empty runs the core
	// with a no-op gateway (useful for local API work).
	BaseURL string
	Token   string
}

// InviteConfig holds the invite reward policy.
type InviteConfig struct {
	// Rate is the money credited per valid invite (default: 2000)
	Rate int64
	// HoldHours is the quarantine before a join can credit (default: 24)
	HoldHours int
	// MinAccountAgeDays disqualifies accounts younger than this (default: 7)
	MinAccountAgeDays int
	// RequireRoleID gates crediting on this role; empty disables the gate
	RequireRoleID string
	// AutoKickNoRole kicks members still missing the role after the grace period
	AutoKickNoRole bool
	// KickAfterMinutes is the grace period before a role-less member is kicked (default: 10)
	KickAfterMinutes int
	// SweepInterval is the reconciliation period (default: 30s)
	SweepInterval time.Duration
	// RecheckWindow is the hold extension when the role gate fails (default: 24h)
	RecheckWindow time.Duration
}

// RedeemConfig holds the redemption engine configuration.
type RedeemConfig struct {
	// Enabled switches redeeming on (default: true)
	Enabled bool
	// Locale for money formatting, BCP 47 (default: vi)
	Locale string
	// CurrencySuffix appended to formatted amounts (default: đ)
	CurrencySuffix string
	// OrderPrefix prefixes generated order numbers (default: REDEEM)
	OrderPrefix string
	// CatalogPath points at the JSON service catalog; watched for changes
	CatalogPath string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for durable storage")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	apiToken := flag.String("api-token", "", "Bearer token required on API calls")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	gatewayURL := flag.String("gateway-url", "", "Base URL of the presentation process")
	gatewayToken := flag.String("gateway-token", "", "Bearer token for the presentation process")

	inviteRate := flag.String("invite-rate", "", "Money credited per valid invite (default: 2000)")
	holdHours := flag.String("hold-hours", "", "Quarantine before crediting, in hours (default: 24)")
	minAccountAge := flag.String("min-account-age-days", "", "Minimum inviter-credit account age (default: 7)")
	requireRole := flag.String("require-role", "", "Role ID required before crediting")
	autoKick := flag.String("auto-kick-no-role", "", "Kick members missing the role after the grace period (default: false)")
	kickAfter := flag.String("kick-after-minutes", "", "Grace period before a role-less member is kicked (default: 10)")
	sweepInterval := flag.String("sweep-interval", "", "Reconciliation period (default: 30s)")
	recheckWindow := flag.String("recheck-window", "", "Hold extension when the role gate fails (default: 24h)")

	redeemEnabled := flag.String("redeem-enabled", "", "Enable the redemption engine (default: true)")
	redeemLocale := flag.String("redeem-locale", "", "Locale for money formatting (default: vi)")
	currencySuffix := flag.String("currency-suffix", "", "Suffix for formatted amounts (default: đ)")
	orderPrefix := flag.String("order-prefix", "", "Prefix for order numbers (default: REDEEM)")
	catalogPath := flag.String("catalog-path", "", "Path to the JSON service catalog")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:     getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			APIToken: getConfigValue(*apiToken, "API_TOKEN", ""),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Gateway: GatewayConfig{
			BaseURL: getConfigValue(*gatewayURL, "GATEWAY_URL", ""),
			Token:   getConfigValue(*gatewayToken, "GATEWAY_TOKEN", ""),
		},
		Invite: InviteConfig{
			Rate:              int64(getIntConfigValue(*inviteRate, "INVITE_RATE", 2000)),
			HoldHours:         getIntConfigValue(*holdHours, "HOLD_HOURS", 24),
			MinAccountAgeDays: getIntConfigValue(*minAccountAge, "MIN_ACCOUNT_AGE_DAYS", 7),
			RequireRoleID:     getConfigValue(*requireRole, "REQUIRE_ROLE_ID", ""),
			AutoKickNoRole:    getBoolConfigValue(*autoKick, "AUTO_KICK_NO_ROLE", false),
			KickAfterMinutes:  getIntConfigValue(*kickAfter, "KICK_AFTER_MINUTES", 10),
		},
		Redeem: RedeemConfig{
			Enabled:        getBoolConfigValue(*redeemEnabled, "REDEEM_ENABLED", true),
			Locale:         getConfigValue(*redeemLocale, "REDEEM_LOCALE", "vi"),
			CurrencySuffix: getConfigValue(*currencySuffix, "CURRENCY_SUFFIX", "đ"),
			OrderPrefix:    getConfigValue(*orderPrefix, "ORDER_PREFIX", "REDEEM"),
			CatalogPath:    getConfigValue(*catalogPath, "CATALOG_PATH", ""),
		},
	}

	// Parse durations.
	sweepStr := getConfigValue(*sweepInterval, "SWEEP_INTERVAL", "30s")
	sweep, err := time.ParseDuration(sweepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep interval %q: %w", sweepStr, err)
	}
	cfg.Invite.SweepInterval = sweep

	recheckStr := getConfigValue(*recheckWindow, "RECHECK_WINDOW", "24h")
	recheck, err := time.ParseDuration(recheckStr)
	if err != nil {
		return nil, fmt.Errorf("invalid recheck window %q: %w", recheckStr, err)
	}
	cfg.Invite.RecheckWindow = recheck

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if cfg.Server.ReadTimeout, err = time.ParseDuration(readTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	if cfg.Server.WriteTimeout, err = time.ParseDuration(writeTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if cfg.Server.IdleTimeout, err = time.ParseDuration(idleTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Hold returns the quarantine as a duration.
func (c *InviteConfig) Hold() time.Duration {
	return time.Duration(c.HoldHours) * time.Hour
}

// MinAccountAge returns the age gate as a duration.
func (c *InviteConfig) MinAccountAge() time.Duration {
	return time.Duration(c.MinAccountAgeDays) * 24 * time.Hour
}

// KickAfter returns the kick grace period as a duration.
func (c *InviteConfig) KickAfter() time.Duration {
	return time.Duration(c.KickAfterMinutes) * time.Minute
}

// LedgerPath is the Badger database directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Data.BasePath, "ledger")
}

// OrdersPath is the SQLite orders log file.
func (c *Config) OrdersPath() string {
	return filepath.Join(c.Data.BasePath, "orders.db")
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Invite.Rate <= 0 {
		return fmt.Errorf("invite rate must be positive, got %d", c.Invite.Rate)
	}
	if c.Invite.HoldHours < 0 {
		return fmt.Errorf("hold hours cannot be negative, got %d", c.Invite.HoldHours)
	}
	if c.Invite.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Invite.SweepInterval)
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "atlantis-ledger", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
