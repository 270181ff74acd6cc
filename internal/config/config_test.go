package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_LEDGER_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TEST_LEDGER_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "TEST_LEDGER_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "TEST_LEDGER_MISSING", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("true", "X", false))
	assert.True(t, getBoolConfigValue("YES", "X", false))
	assert.True(t, getBoolConfigValue("1", "X", false))
	assert.False(t, getBoolConfigValue("no", "X", true))
	assert.True(t, getBoolConfigValue("", "TEST_LEDGER_MISSING", true))
}

func TestInviteConfig_Durations(t *testing.T) {
	c := InviteConfig{HoldHours: 24, MinAccountAgeDays: 7, KickAfterMinutes: 10}

	assert.Equal(t, 24*time.Hour, c.Hold())
	assert.Equal(t, 7*24*time.Hour, c.MinAccountAge())
	assert.Equal(t, 10*time.Minute, c.KickAfter())
}

func TestConfig_Validate(t *testing.T) {
	valid := &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/tmp/data"},
		Invite: InviteConfig{Rate: 2000, HoldHours: 24, SweepInterval: 30 * time.Second},
	}
	require.NoError(t, valid.Validate())

	bad := *valid
	bad.App.Environment = "prod"
	assert.Error(t, bad.Validate())

	bad = *valid
	bad.Invite.Rate = 0
	assert.Error(t, bad.Validate())

	bad = *valid
	bad.Invite.SweepInterval = 0
	assert.Error(t, bad.Validate())
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	require.NoError(t, os.WriteFile(path, []byte(`{
		"services": [
			{"id": "vip", "name": "VIP role", "cost": 20000},
			{"id": "nitro-1m", "name": "Nitro 1 month", "cost": 50000, "details": "delivered within 24h"}
		]
	}`), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Services, 2)
	assert.Equal(t, int64(20000), catalog.Services[0].Cost)
	assert.False(t, catalog.Empty())
}

func TestLoadCatalog_MissingIsEmpty(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.True(t, catalog.Empty())

	catalog, err = LoadCatalog("")
	require.NoError(t, err)
	assert.True(t, catalog.Empty())
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"services": [{"id": "", "cost": 0}]}`), 0o600))
	_, err := LoadCatalog(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	_, err = LoadCatalog(path)
	assert.Error(t, err)
}
