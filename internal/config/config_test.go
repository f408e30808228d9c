package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Cache.Namespace)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, "json", cfg.Cache.Codec)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL)
	assert.True(t, cfg.Cache.CountCache)
	assert.Equal(t, int64(64<<20), cfg.Ristretto.MaxCost)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "slog", cfg.Log.Backend)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speccache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  provider: bigcache
  codec: cbor
  default_ttl: 90s
bigcache:
  shards: 16
log:
  backend: zap
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bigcache", cfg.Cache.Provider)
	assert.Equal(t, "cbor", cfg.Cache.Codec)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 16, cfg.BigCache.Shards)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "orders", cfg.Cache.Namespace, "unset keys keep defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speccache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  provider: ristretto\n"), 0o600))
	t.Setenv("SPECCACHE_CACHE_PROVIDER", "redis")
	t.Setenv("SPECCACHE_REDIS_ADDR", "cache:6380")
	t.Setenv("SPECCACHE_CACHE_COUNT_CACHE", "false")
	t.Setenv("SPECCACHE_CACHE_DEFAULT_TTL", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.False(t, cfg.Cache.CountCache)
	assert.Equal(t, 2*time.Minute, cfg.Cache.DefaultTTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Provider = "memcached"
	cfg.Log.Backend = "glog"
	cfg.Cache.Namespace = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.provider")
	assert.Contains(t, err.Error(), "log.backend")
	assert.Contains(t, err.Error(), "cache.namespace")

	cfg = Default()
	cfg.Cache.Provider = "bigcache"
	cfg.BigCache.Shards = 12
	assert.ErrorContains(t, cfg.Validate(), "power of two")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("SPECCACHE_CACHE_CODEC", "gob")
	_, err := Load("")
	assert.ErrorContains(t, err, "cache.codec")
}
