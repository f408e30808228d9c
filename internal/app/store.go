package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/genstore"
	"github.com/unkn0wn-root/speccache/provider"
	"github.com/unkn0wn-root/speccache/provider/bigcache"
	"github.com/unkn0wn-root/speccache/provider/memory"
	redisprovider "github.com/unkn0wn-root/speccache/provider/redis"
	"github.com/unkn0wn-root/speccache/provider/ristretto"
)

// shared hides Close from the caches, which would otherwise each close the
// provider they share. App.Close closes it once.
type shared struct{ provider.Provider }

func (shared) Close(context.Context) error { return nil }

type sharedGens struct{ genstore.GenStore }

func (sharedGens) Close(context.Context) error { return nil }

// newProvider builds the configured store. cost is nil unless the store
// budgets by size.
func (a *App) newProvider(ctx context.Context) (provider.Provider, speccache.SetCostFunc, error) {
	cfg := a.Config
	switch cfg.Cache.Provider {
	case "memory":
		return memory.New(memory.Config{MaxEntries: cfg.Memory.MaxEntries}), nil, nil

	case "ristretto":
		p, err := ristretto.New(ristretto.Config{
			NumCounters: cfg.Ristretto.NumCounters,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: cfg.Ristretto.BufferItems,
			Metrics:     true,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, ristretto.CostBySize, nil

	case "bigcache":
		p, err := bigcache.New(ctx, bigcache.Config{
			Shards:             cfg.BigCache.Shards,
			LifeWindow:         cfg.BigCache.LifeWindow,
			CleanWindow:        cfg.BigCache.CleanWindow,
			HardMaxCacheSizeMB: cfg.BigCache.HardMaxMB,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	case "redis":
		p, err := redisprovider.New(redisprovider.Config{
			Client: a.redisClient(),
			Prefix: cfg.Redis.Prefix + ":",
		})
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", cfg.Cache.Provider)
}

func (a *App) newGenStore() (genstore.GenStore, error) {
	switch a.Config.Cache.GenStore {
	case "local":
		return genstore.NewLocal(time.Hour, 30*24*time.Hour), nil
	case "redis":
		return genstore.NewRedis(genstore.RedisConfig{
			Client: a.redisClient(),
			Prefix: a.Config.Redis.Prefix,
			TTL:    a.Config.Redis.GenTTL,
		})
	}
	return nil, fmt.Errorf("unknown genstore %q", a.Config.Cache.GenStore)
}

// redisClient is created lazily and shared by the provider and the
// generation store.
func (a *App) redisClient() *goredis.Client {
	if a.rdb == nil {
		a.rdb = goredis.NewClient(&goredis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		a.closers = append(a.closers, func(context.Context) error { return a.rdb.Close() })
	}
	return a.rdb
}
