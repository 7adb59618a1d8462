package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, Development, cfg.Mode)
	assert.Equal(t, "MachineInfo", cfg.App.Application)
	assert.Equal(t, "app.db", cfg.Database.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv(ModeEnv, "")
	t.Setenv(ConfigEnv, "")

	path := filepath.Join(t.TempDir(), "machineinfo.yaml")
	content := `
mode: production
database:
  file: state.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.Mode)
	assert.Equal(t, "state.db", cfg.Database.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "github.northshorehero", cfg.App.Organization, "unset keys keep defaults")
}

func TestLoadModeFromEnv(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	t.Setenv(ModeEnv, "production")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Mode)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	t.Setenv(ModeEnv, "staging")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(ModeEnv, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.File = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())
}
