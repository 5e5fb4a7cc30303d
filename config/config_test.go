package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride/habit-engine/config"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
allowed_origins = ["https://stride.example"]

[database]
path = "/tmp/stride.db"

[cache]
backend = "redis"
ttl = "90s"

[redis]
addr = "cache:6379"
db = 2

[log]
level = "debug"
development = true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://stride.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "/tmp/stride.db", cfg.DBPath)
	assert.Equal(t, config.CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "[server]\nport = 3000\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, config.Default().CacheBackend, cfg.CacheBackend)
	assert.Equal(t, config.Default().CacheTTL, cfg.CacheTTL)
}

func TestLoad_Errors(t *testing.T) {
	bodies := map[string]string{
		"bad toml":      "[server\nport = 1",
		"bad backend":   "[cache]\nbackend = \"memcached\"",
		"bad ttl":       "[cache]\nttl = \"soon\"",
		"port too high": "[server]\nport = 70000",
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, filepath.Join("/xdg/config", "stride", "config.toml"), config.DefaultConfigPath())
	assert.Equal(t, filepath.Join("/xdg/data", "stride", "stride.db"), config.DefaultDBPath())
}
