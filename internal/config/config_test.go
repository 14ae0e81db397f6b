package config

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestPersistCreatesAndUpdatesEnvFile(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, Persist("USER_TOKEN", "tok-1"))
	require.NoError(t, Persist("PRINTER_IP", "192.168.1.50"))
	require.NoError(t, Persist("USER_TOKEN", "tok-2"))

	env, err := godotenv.Read(EnvFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", env["USER_TOKEN"])
	assert.Equal(t, "192.168.1.50", env["PRINTER_IP"])
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5002", cfg.Server.Port)
	assert.Equal(t, "my_config.ini", cfg.Slicer.DefaultConfig)
	assert.Equal(t, "192.168.68.0/24", cfg.Discovery.Subnet)
	assert.Equal(t, 50, cfg.Discovery.Workers)
	assert.Equal(t, int64(10), int64(cfg.Relay.Interval.Seconds()))
}
