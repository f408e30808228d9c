package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/speccache/internal/demo"
)

type seedOptions struct {
	Customers int
	Orders    int
	Seed      uint64
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create and fill the demo database",
		Long: `Create the demo customers and orders tables in the configured database
(db.driver, db.dsn) and fill them with generated rows. Existing demo
tables are dropped.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.Customers, "customers", 20, "number of customers")
	cmd.Flags().IntVar(&opts.Orders, "orders", 1000, "number of orders")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "generator seed")
	return cmd
}

func runSeed(rootOpts *RootOptions, opts *seedOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, d, err := demo.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ds := demo.Generate(opts.Customers, opts.Orders, opts.Seed)
	if err := demo.Seed(ctx, db, d, ds); err != nil {
		return err
	}

	out := map[string]any{"driver": d.Name(), "customers": len(ds.Customers), "orders": len(ds.Orders)}
	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d orders and %d customers into %s\n",
		len(ds.Orders), len(ds.Customers), d.Name())
	return err
}
