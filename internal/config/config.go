// Package config loads the command line tool's settings from an optional
// file and SPECCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/speccache/codec"
)

// EnvPrefix prefixes every environment override, e.g. SPECCACHE_CACHE_PROVIDER.
const EnvPrefix = "SPECCACHE"

type Config struct {
	Cache     Cache     `mapstructure:"cache"`
	Memory    Memory    `mapstructure:"memory"`
	Ristretto Ristretto `mapstructure:"ristretto"`
	BigCache  BigCache  `mapstructure:"bigcache"`
	Redis     Redis     `mapstructure:"redis"`
	DB        DB        `mapstructure:"db"`
	Log       Log       `mapstructure:"log"`
	Hooks     Hooks     `mapstructure:"hooks"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

type Cache struct {
	Namespace  string        `mapstructure:"namespace"`
	Provider   string        `mapstructure:"provider"` // memory | ristretto | bigcache | redis
	Codec      string        `mapstructure:"codec"`    // json | msgpack | cbor
	GenStore   string        `mapstructure:"genstore"` // local | redis
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	CountCache bool          `mapstructure:"count_cache"`
	Disabled   bool          `mapstructure:"disabled"`
	MaxDecode  int           `mapstructure:"max_decode"` // bytes; 0 = unlimited
}

type Memory struct {
	MaxEntries int `mapstructure:"max_entries"`
}

type Ristretto struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCost     int64 `mapstructure:"max_cost"`
	BufferItems int64 `mapstructure:"buffer_items"`
}

type BigCache struct {
	Shards      int           `mapstructure:"shards"`
	LifeWindow  time.Duration `mapstructure:"life_window"`
	CleanWindow time.Duration `mapstructure:"clean_window"`
	HardMaxMB   int           `mapstructure:"hard_max_mb"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	GenTTL   time.Duration `mapstructure:"gen_ttl"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type Log struct {
	Backend string `mapstructure:"backend"` // slog | zap | logrus
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // text | json
}

type Hooks struct {
	Async     bool   `mapstructure:"async"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
	MissEvery uint64 `mapstructure:"miss_every"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("cache.namespace", "orders")
	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.codec", "json")
	v.SetDefault("cache.genstore", "local")
	v.SetDefault("cache.default_ttl", 10*time.Minute)
	v.SetDefault("cache.count_cache", true)
	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.max_decode", 0)

	v.SetDefault("memory.max_entries", 100_000)

	v.SetDefault("ristretto.num_counters", 1_000_000)
	v.SetDefault("ristretto.max_cost", 64<<20)
	v.SetDefault("ristretto.buffer_items", 64)

	v.SetDefault("bigcache.shards", 64)
	v.SetDefault("bigcache.life_window", time.Hour)
	v.SetDefault("bigcache.clean_window", 5*time.Minute)
	v.SetDefault("bigcache.hard_max_mb", 0)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "speccache")
	v.SetDefault("redis.gen_ttl", 30*24*time.Hour)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:speccache.db")

	v.SetDefault("log.backend", "slog")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("hooks.async", false)
	v.SetDefault("hooks.workers", 1)
	v.SetDefault("hooks.queue_size", 1024)
	v.SetDefault("hooks.miss_every", 0)

	v.SetDefault("metrics.addr", "")
}

// Load reads path (any format viper understands; empty skips the file),
// then applies SPECCACHE_<SECTION>_<KEY> environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// every key has a default, so AutomaticEnv sees all of them on Unmarshal
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

var (
	providers = []string{"memory", "ristretto", "bigcache", "redis"}
	genstores = []string{"local", "redis"}
	drivers   = []string{"sqlite", "postgres"}
	backends  = []string{"slog", "zap", "logrus"}
	formats   = []string{"text", "json"}
)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	oneOf := func(field, val string, allowed []string) {
		if !slices.Contains(allowed, val) {
			errs = append(errs, fmt.Errorf("%s: %q is not one of %s", field, val, strings.Join(allowed, ", ")))
		}
	}
	oneOf("cache.provider", c.Cache.Provider, providers)
	oneOf("cache.codec", c.Cache.Codec, codec.Names)
	oneOf("cache.genstore", c.Cache.GenStore, genstores)
	oneOf("db.driver", c.DB.Driver, drivers)
	oneOf("log.backend", c.Log.Backend, backends)
	oneOf("log.format", c.Log.Format, formats)

	if c.Cache.Namespace == "" {
		errs = append(errs, errors.New("cache.namespace: must not be empty"))
	}
	if c.Cache.DefaultTTL < 0 {
		errs = append(errs, errors.New("cache.default_ttl: must not be negative"))
	}
	if c.Hooks.Async && (c.Hooks.Workers < 1 || c.Hooks.QueueSize < 1) {
		errs = append(errs, errors.New("hooks: async needs workers and queue_size >= 1"))
	}
	if n := c.BigCache.Shards; c.Cache.Provider == "bigcache" && (n <= 0 || n&(n-1) != 0) {
		errs = append(errs, fmt.Errorf("bigcache.shards: %d is not a power of two", n))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
