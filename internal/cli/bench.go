package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/speccache"
	"github.com/unkn0wn-root/speccache/expr/parse"
	"github.com/unkn0wn-root/speccache/internal/app"
	"github.com/unkn0wn-root/speccache/internal/demo"
	"github.com/unkn0wn-root/speccache/spec"
)

type benchOptions struct {
	Orders      int
	Workers     int
	Requests    int
	Distinct    int
	Latency     time.Duration
	MetricsAddr string
	Hold        time.Duration
}

// BenchResult is the output of the bench command.
type BenchResult struct {
	Requests int           `json:"requests"`
	Distinct int           `json:"distinct"`
	Computes int64         `json:"computes"`
	Errors   int64         `json:"errors"`
	Stats    app.Stats     `json:"stats"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Hammer the cached repository with concurrent equal specifications",
		Long: `Run concurrent reads through the cached repository over an in-memory order
source. Every request builds its specification from scratch, so the number
of computations shows how well equal specifications share entries and
in-flight work: it should equal --distinct.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(rootOpts, opts, cmd)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Orders, "orders", 10_000, "orders in the in-memory source")
	f.IntVar(&opts.Workers, "workers", 64, "goroutine pool size")
	f.IntVar(&opts.Requests, "requests", 10_000, "total reads")
	f.IntVar(&opts.Distinct, "distinct", 8, "distinct specifications")
	f.DurationVar(&opts.Latency, "latency", 20*time.Millisecond, "simulated source latency per computation")
	f.StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.DurationVar(&opts.Hold, "hold", 0, "keep serving metrics this long after the run")
	return cmd
}

// benchSpec builds the i-th distinct specification the way a request
// handler would: fresh lambdas with per-request parameter names.
func benchSpec(i, request int) *spec.Spec[*demo.Order] {
	param := fmt.Sprintf("o%d", request%3)
	status := demo.Statuses[i%len(demo.Statuses)]
	where := parse.MustLambda(param+` => `+param+`.Status == $status && `+param+`.Total >= $min`,
		parse.Vars{"status": status, "min": int64(i / len(demo.Statuses) * 100)})
	return spec.For[*demo.Order]().
		Where(where).
		OrderByDescending(parse.MustLambda(param+` => `+param+`.CreatedAt`, nil)).
		Page(0, 25).
		Cached(time.Minute).
		Build()
}

func runBench(rootOpts *RootOptions, opts *benchOptions, cmd *cobra.Command) error {
	if opts.Workers < 1 || opts.Requests < 1 || opts.Distinct < 1 {
		return errors.New("bench: --workers, --requests and --distinct must be positive")
	}
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := app.Build(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, a.MetricsHandler(), a.Logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	src := demo.MemorySource(demo.Generate(50, opts.Orders, 1))
	repo, err := app.Orders(a, &slowSource{Source: src, latency: opts.Latency})
	if err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		errs atomic.Int64
	)
	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(v any) {
		errs.Add(1)
		a.Logger.Error("bench worker panic", speccache.Fields{"panic": v})
	}))
	if err != nil {
		return err
	}
	defer pool.Release()

	start := time.Now()
	for r := 0; r < opts.Requests; r++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if _, err := repo.List(ctx, benchSpec(r%opts.Distinct, r)); err != nil {
				errs.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			errs.Add(1)
		}
	}
	wg.Wait()

	res := BenchResult{
		Requests: opts.Requests,
		Distinct: opts.Distinct,
		Computes: src.Executions(),
		Errors:   errs.Load(),
		Elapsed:  time.Since(start),
	}
	if res.Stats, err = a.Stats(cfg.Cache.Namespace); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		err = writeJSON(w, res)
	} else {
		_, err = fmt.Fprintf(w, "requests: %d  distinct: %d  computes: %d  errors: %d\nhits: %.0f  misses: %.0f  coalesced: %.0f  elapsed: %s\n",
			res.Requests, res.Distinct, res.Computes, res.Errors,
			res.Stats.Hits, res.Stats.Misses, res.Stats.Coalesced, res.Elapsed.Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	if opts.MetricsAddr != "" && opts.Hold > 0 {
		select {
		case <-time.After(opts.Hold):
		case <-ctx.Done():
		}
	}
	return nil
}

func serveMetrics(addr string, h http.Handler, log speccache.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", speccache.Fields{"err": err})
		}
	}()
	log.Info("serving metrics", speccache.Fields{"addr": ln.Addr().String()})
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
