package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/speccache/internal/app"
	"github.com/unkn0wn-root/speccache/internal/demo"
)

type queryOptions struct {
	specOptions
	Repeat int
	Count  bool
}

// QueryResult is the output of the query command.
type QueryResult struct {
	Key     string        `json:"key,omitempty"`
	Rows    []*demo.Order `json:"rows"`
	Count   *int          `json:"count,omitempty"`
	Stats   app.Stats     `json:"stats"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run an order specification through the cached repository",
		Long: `Run an order specification against the demo database through the cached
repository and print the rows with the cache counters.

--repeat runs the same specification several times; with caching enabled
only the first run reaches the database.`,
		Example:      `  speccache query --where 'o => o.Total > $min' --var min=500 --include Customer --take 5 --repeat 3`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.Repeat, "repeat", 1, "times to run the specification")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "also count the matching rows")
	return cmd
}

func runQuery(rootOpts *RootOptions, opts *queryOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	s, err := opts.build()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, d, err := demo.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	src, err := demo.SQLSource(db, d)
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	repo, err := app.Orders(a, src)
	if err != nil {
		return err
	}

	var res QueryResult
	if s.ShouldCache() {
		if res.Key, err = s.Key(); err != nil {
			return err
		}
	}
	start := time.Now()
	for i := 0; i < max(opts.Repeat, 1); i++ {
		if res.Rows, err = repo.List(ctx, s); err != nil {
			return err
		}
		if opts.Count {
			n, err := repo.Count(ctx, s)
			if err != nil {
				return err
			}
			res.Count = &n
		}
	}
	res.Elapsed = time.Since(start)
	if res.Stats, err = a.Stats(cfg.Cache.Namespace); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(w, res)
	}
	if err := writeOrders(w, res.Rows); err != nil {
		return err
	}
	if res.Count != nil {
		fmt.Fprintf(w, "count: %d\n", *res.Count)
	}
	_, err = fmt.Fprintf(w, "hits: %.0f  misses: %.0f  elapsed: %s\n",
		res.Stats.Hits, res.Stats.Misses, res.Elapsed.Round(time.Microsecond))
	return err
}
