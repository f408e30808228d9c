// Package app wires configuration into caches, stores, loggers, hooks and
// the cached order repository used by the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/codec"
	"github.com/unkn0wn-root/speccache/genstore"
	asynchook "github.com/unkn0wn-root/speccache/hooks/async"
	promhooks "github.com/unkn0wn-root/speccache/hooks/prom"
	sloghook "github.com/unkn0wn-root/speccache/hooks/slog"
	"github.com/unkn0wn-root/speccache/internal/config"
	"github.com/unkn0wn-root/speccache/internal/demo"
	"github.com/unkn0wn-root/speccache/provider"
	"github.com/unkn0wn-root/speccache/query"
	"github.com/unkn0wn-root/speccache/repository"
)

type App struct {
	Config   config.Config
	Logger   speccache.Logger
	Registry *prometheus.Registry

	provider provider.Provider
	cost     speccache.SetCostFunc
	gens     genstore.GenStore
	events   speccache.Hooks // non-metric hooks shared by every namespace
	rdb      *goredis.Client
	closers  []func(context.Context) error
}

// Build creates the shared infrastructure. Logs go to logOut.
func Build(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Registry: prometheus.NewRegistry()}

	log, slogger, syncLog, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed init logger: %w", err)
	}
	a.Logger = log
	a.closers = append(a.closers, func(context.Context) error { return syncLog() })

	log.Debug("init provider", speccache.Fields{"provider": cfg.Cache.Provider})
	p, cost, err := a.newProvider(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed init provider %s: %w", cfg.Cache.Provider, err)
	}
	a.provider, a.cost = p, cost
	a.closers = append(a.closers, p.Close)

	log.Debug("init genstore", speccache.Fields{"genstore": cfg.Cache.GenStore})
	g, err := a.newGenStore()
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed init genstore %s: %w", cfg.Cache.GenStore, err)
	}
	a.gens = g
	a.closers = append(a.closers, g.Close)

	if slogger != nil {
		a.events = sloghook.New(slogger, sloghook.Options{MissEvery: cfg.Hooks.MissEvery})
	}

	log.Info("build ended", speccache.Fields{
		"provider": cfg.Cache.Provider,
		"codec":    cfg.Cache.Codec,
		"genstore": cfg.Cache.GenStore,
	})
	return a, nil
}

// Close releases everything Build and the caches acquired, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// hooksFor returns the hooks of one namespace: Prometheus counters plus the
// shared event hooks, optionally dispatched off the hot path.
func (a *App) hooksFor(namespace string) speccache.Hooks {
	var h speccache.Hooks = promhooks.New(a.Registry, namespace)
	if a.events != nil {
		h = speccache.MultiHooks{h, a.events}
	}
	if a.Config.Hooks.Async {
		ah := asynchook.New(h, a.Config.Hooks.Workers, a.Config.Hooks.QueueSize)
		a.closers = append(a.closers, func(context.Context) error { ah.Close(); return nil })
		h = ah
	}
	return h
}

// NewCache creates a cache over the shared provider and generation store.
func NewCache[V any](a *App, namespace string, c codec.Codec[V]) (speccache.Cache[V], error) {
	if a.Config.Cache.MaxDecode > 0 {
		c = codec.Limit[V]{Inner: c, MaxDecode: a.Config.Cache.MaxDecode}
	}
	return speccache.New[V](speccache.Options[V]{
		Namespace:      namespace,
		Provider:       shared{a.provider},
		Codec:          c,
		Logger:         a.Logger,
		Hooks:          a.hooksFor(namespace),
		DefaultTTL:     a.Config.Cache.DefaultTTL,
		GenStore:       sharedGens{a.gens},
		ComputeSetCost: a.cost,
		Disabled:       a.Config.Cache.Disabled,
	})
}

// Orders builds the cached order repository over src. List results use the
// configured codec; counts, when enabled, live in "<namespace>:count".
func Orders(a *App, src query.Source[*demo.Order]) (*repository.CachedReader[*demo.Order], error) {
	ns := a.Config.Cache.Namespace
	c, err := codec.ByName[[]*demo.Order](a.Config.Cache.Codec)
	if err != nil {
		return nil, err
	}
	lists, err := NewCache(a, ns, c)
	if err != nil {
		return nil, err
	}
	var opts []repository.Option[*demo.Order]
	if a.Config.Cache.CountCache {
		counts, err := NewCache[int](a, ns+":count", codec.Varint{})
		if err != nil {
			return nil, err
		}
		opts = append(opts, repository.WithCountCache[*demo.Order](counts))
	}
	return repository.NewCachedReader[*demo.Order](repository.NewSourceReader[*demo.Order](src), lists, opts...), nil
}
